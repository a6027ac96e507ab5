package app

import (
	"notetaker/internal/editor/domain/entities"
)

// IntentKind что нужно отправить в шлюз при сабмите формы.
type IntentKind int

const (
	IntentCreate IntentKind = iota + 1
	IntentUpdate
	IntentDelete
)

func (k IntentKind) String() string {
	switch k {
	case IntentCreate:
		return "create"
	case IntentUpdate:
		return "update"
	case IntentDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Intent запрос мутации, сформированный формой.
type Intent struct {
	Kind IntentKind
	ID   string
	Text string
}

// Select выбирает заметку для правки.
func Select(s *State, note entities.Note) {
	s.Buffer.ID = note.ID
	s.Buffer.Text = note.Note
}

// ChangeText меняет текст. Пустой текст сбрасывает цель правки.
func ChangeText(s *State, text string) {
	if text == "" {
		s.Buffer.ID = ""
	}
	s.Buffer.Text = text
}

// Submit решает, обновлять или создавать заметку.
// Обновление возможно, только если цель все еще есть в списке.
// При создании текст очищается сразу, не дожидаясь ответа сервера;
// при обновлении буфер сбросит пришедшее событие обновления.
func Submit(s *State) Intent {
	if s.Buffer.Mode() == entities.ModeEditing && s.Notes.Contains(s.Buffer.ID) {
		return Intent{Kind: IntentUpdate, ID: s.Buffer.ID, Text: s.Buffer.Text}
	}

	intent := Intent{Kind: IntentCreate, Text: s.Buffer.Text}
	s.Buffer.Text = ""
	return intent
}
