// Package gateway определяет порт внешнего API заметок.
package gateway

import (
	"context"
	"errors"

	"notetaker/internal/editor/domain/entities"
	"notetaker/pkg/stream"
)

// ErrNotFound бэкенд не знает заметку с таким идентификатором.
var ErrNotFound = errors.New("note not found")

// NotesGateway внешний шлюз заметок. Результаты мутаций редактор не использует
// для обновления списка: изменения приходят через подписки.
type NotesGateway interface {
	ListNotes(ctx context.Context) ([]entities.Note, error)
	CreateNote(ctx context.Context, text string) (entities.Note, error)
	UpdateNote(ctx context.Context, id, text string) (entities.Note, error)
	DeleteNote(ctx context.Context, id string) error

	SubscribeOnCreate(ctx context.Context) (*stream.Stream[entities.Note], error)
	SubscribeOnUpdate(ctx context.Context) (*stream.Stream[entities.Note], error)
	SubscribeOnDelete(ctx context.Context) (*stream.Stream[string], error)

	Close() error
}
