package http

import (
	"notetaker/internal/editor/app"
	"notetaker/internal/editor/domain/entities"
)

// ChangeTextRequest тело PUT /editor/text.
type ChangeTextRequest struct {
	Text string `json:"text"`
}

// BufferResponse состояние буфера редактирования.
type BufferResponse struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// ViewResponse снимок редактора.
type ViewResponse struct {
	Notes  []entities.Note `json:"notes"`
	Buffer BufferResponse  `json:"buffer"`
	Mode   string          `json:"mode"`
}

// IntentResponse принятое намерение мутации.
type IntentResponse struct {
	Kind string `json:"kind"`
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
}

func viewResponse(v app.View) ViewResponse {
	notes := v.Notes
	if notes == nil {
		notes = []entities.Note{}
	}
	return ViewResponse{
		Notes:  notes,
		Buffer: BufferResponse{ID: v.Buffer.ID, Text: v.Buffer.Text},
		Mode:   v.Mode.String(),
	}
}

func intentResponse(i app.Intent) IntentResponse {
	return IntentResponse{Kind: i.Kind.String(), ID: i.ID, Text: i.Text}
}
