// Package app реализует логику редактора заметок: сверку списка с событиями
// подписок, контроллер формы и цикл событий NoteEditor.
package app

import (
	"notetaker/internal/editor/domain/entities"
	"notetaker/internal/editor/domain/events"
)

// State локальное состояние редактора. Принадлежит одному циклу событий.
type State struct {
	Notes  entities.NoteCollection
	Buffer entities.EditBuffer
}

// Seed заменяет список результатом первичной загрузки.
func (s *State) Seed(notes []entities.Note) {
	s.Notes.Replace(notes)
}

// Reconcile применяет событие подписки к состоянию.
// Возвращает true, если изменился список или буфер.
func Reconcile(s *State, ev events.Event) bool {
	switch ev.Kind {
	case events.Created:
		s.Notes.Append(ev.Note)
		return true

	case events.Deleted:
		return s.Notes.Remove(ev.Note.ID)

	case events.Updated:
		replaced := s.Notes.ReplaceInPlace(ev.Note)
		// Любое обновление считается подтверждением отправленной правки.
		hadBuffer := s.Buffer != (entities.EditBuffer{})
		s.Buffer.Clear()
		return replaced || hadBuffer

	default:
		return false
	}
}
