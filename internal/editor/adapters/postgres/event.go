package postgres

import (
	"encoding/json"
	"errors"
	"fmt"

	"notetaker/internal/editor/domain/entities"
)

// Операции в уведомлениях триггера notes_events.
const (
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"
)

var errEmptyID = errors.New("notification without id")

// event полезная нагрузка уведомления.
type event struct {
	Op   string `json:"op"`
	ID   string `json:"id"`
	Note string `json:"note"`
}

func (e event) note() entities.Note {
	return entities.Note{ID: e.ID, Note: e.Note}
}

func decodeEvent(payload string) (event, error) {
	var ev event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return event{}, fmt.Errorf("decode notification: %w", err)
	}
	if ev.ID == "" {
		return event{}, errEmptyID
	}
	return ev, nil
}
