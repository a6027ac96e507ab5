// Package events описывает события, которые бэкенд присылает по подпискам.
package events

import "notetaker/internal/editor/domain/entities"

// Kind тип события; у каждой подписки свой.
type Kind int

const (
	Created Kind = iota + 1
	Updated
	Deleted
)

func (k Kind) String() string {
	switch k {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Event подтвержденное сервером изменение. Для Deleted значимо только Note.ID.
type Event struct {
	Kind Kind
	Note entities.Note
}

// NoteCreated событие создания.
func NoteCreated(n entities.Note) Event {
	return Event{Kind: Created, Note: n}
}

// NoteUpdated событие изменения.
func NoteUpdated(n entities.Note) Event {
	return Event{Kind: Updated, Note: n}
}

// NoteDeleted событие удаления.
func NoteDeleted(id string) Event {
	return Event{Kind: Deleted, Note: entities.Note{ID: id}}
}
