// Package postgres реализует шлюз заметок поверх Postgres. События
// создания, изменения и удаления рассылает триггер через NOTIFY.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"notetaker/internal/editor/config"
	"notetaker/internal/editor/domain/entities"
	"notetaker/internal/editor/ports/gateway"
	notesmigrations "notetaker/migrations/notes"
	dbpostgres "notetaker/pkg/db/postgres"
	"notetaker/pkg/logger"
	"notetaker/pkg/stream"
)

// NotifyChannel канал, в который пишет триггер notes_events.
const NotifyChannel = "notes_events"

// Константы для логирования.
const (
	LogMethodListNotes  = "ListNotes"
	LogMethodCreateNote = "CreateNote"
	LogMethodUpdateNote = "UpdateNote"
	LogMethodDeleteNote = "DeleteNote"
	LogMethodSubscribe  = "Subscribe"

	ErrorFailedToListNotes  = "failed to list notes"
	ErrorFailedToCreateNote = "failed to create note"
	ErrorFailedToUpdateNote = "failed to update note"
	ErrorFailedToDeleteNote = "failed to delete note"
	ErrorFailedToSubscribe  = "failed to subscribe"
)

// Ошибки шлюза.
var (
	ErrGatewayClosed = errors.New("postgres gateway closed")
	ErrListenFailed  = errors.New("notification listener failed")
)

const (
	listNotesQuery  = `SELECT id, note FROM notes ORDER BY seq`
	createNoteQuery = `INSERT INTO notes (note) VALUES ($1) RETURNING id, note`
	updateNoteQuery = `UPDATE notes SET note = $2, updated_at = now() WHERE id = $1 RETURNING id, note`
	deleteNoteQuery = `DELETE FROM notes WHERE id = $1`
)

// PgxPoolInterface часть пула pgx, нужная шлюзу.
type PgxPoolInterface interface {
	QueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...interface{}) (pgx.Rows, error)
}

// Waiter выделенное соединение, подписанное на канал уведомлений.
type Waiter interface {
	Wait(ctx context.Context) (*pgconn.Notification, error)
	Close()
}

// ListenFunc открывает Waiter на канале channel.
type ListenFunc func(ctx context.Context, channel string) (Waiter, error)

var _ gateway.NotesGateway = (*Gateway)(nil)

// Gateway шлюз заметок поверх Postgres.
type Gateway struct {
	pool    PgxPoolInterface
	listen  ListenFunc
	onClose func()

	mu     sync.Mutex
	subs   map[*subscription]struct{}
	closed bool
	wg     sync.WaitGroup
}

type subscription struct {
	cancel context.CancelFunc
	finish func(error)
}

// NewGateway подключается к Postgres и при необходимости применяет миграции.
func NewGateway(ctx context.Context, cfg *config.PostgresConfig) (*Gateway, error) {
	db, err := dbpostgres.New(ctx, cfg.GetDSN(), cfg.MinConn, cfg.MaxConn)
	if err != nil {
		return nil, err
	}

	if cfg.Migrate {
		if err := dbpostgres.MigrateFS(ctx, notesmigrations.FS, ".", cfg.GetConnectionURL()); err != nil {
			db.Close(ctx)
			return nil, err
		}
	}

	listen := func(ctx context.Context, channel string) (Waiter, error) {
		l, err := db.Listen(ctx, channel)
		if err != nil {
			return nil, err
		}
		return l, nil
	}

	closeCtx := context.WithoutCancel(ctx)
	return NewGatewayWithPool(db.Pool(), listen, func() { db.Close(closeCtx) }), nil
}

// NewGatewayWithPool создает шлюз поверх готового пула. onClose вызывается
// из Close после остановки всех слушателей и может быть nil.
func NewGatewayWithPool(pool PgxPoolInterface, listen ListenFunc, onClose func()) *Gateway {
	return &Gateway{
		pool:    pool,
		listen:  listen,
		onClose: onClose,
		subs:    make(map[*subscription]struct{}),
	}
}

// ListNotes возвращает заметки в порядке создания.
func (g *Gateway) ListNotes(ctx context.Context) ([]entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", LogMethodListNotes))

	rows, err := g.pool.Query(ctx, listNotesQuery)
	if err != nil {
		log.Error(ctx, ErrorFailedToListNotes, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrorFailedToListNotes, err)
	}
	defer rows.Close()

	notes := make([]entities.Note, 0)
	for rows.Next() {
		var note entities.Note
		if err := rows.Scan(&note.ID, &note.Note); err != nil {
			log.Error(ctx, "failed to scan note", zap.Error(err))
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		log.Error(ctx, "error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrorFailedToListNotes, err)
	}

	log.Debug(ctx, "notes listed", zap.Int("count", len(notes)))
	return notes, nil
}

// CreateNote сохраняет новую заметку.
func (g *Gateway) CreateNote(ctx context.Context, text string) (entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", LogMethodCreateNote))

	var note entities.Note
	if err := g.pool.QueryRow(ctx, createNoteQuery, text).Scan(&note.ID, &note.Note); err != nil {
		log.Error(ctx, ErrorFailedToCreateNote, zap.Error(err))
		return entities.Note{}, fmt.Errorf("%s: %w", ErrorFailedToCreateNote, err)
	}

	log.Debug(ctx, "note created", zap.String("note_id", note.ID))
	return note, nil
}

// UpdateNote заменяет текст заметки id.
func (g *Gateway) UpdateNote(ctx context.Context, id, text string) (entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", LogMethodUpdateNote), zap.String("note_id", id))

	var note entities.Note
	err := g.pool.QueryRow(ctx, updateNoteQuery, id, text).Scan(&note.ID, &note.Note)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Debug(ctx, "note not found")
			return entities.Note{}, fmt.Errorf("%s: %w", ErrorFailedToUpdateNote, gateway.ErrNotFound)
		}
		log.Error(ctx, ErrorFailedToUpdateNote, zap.Error(err))
		return entities.Note{}, fmt.Errorf("%s: %w", ErrorFailedToUpdateNote, err)
	}
	return note, nil
}

// DeleteNote удаляет заметку id.
func (g *Gateway) DeleteNote(ctx context.Context, id string) error {
	log := logger.Log(ctx).With(zap.String("method", LogMethodDeleteNote), zap.String("note_id", id))

	tag, err := g.pool.Exec(ctx, deleteNoteQuery, id)
	if err != nil {
		log.Error(ctx, ErrorFailedToDeleteNote, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToDeleteNote, err)
	}
	if tag.RowsAffected() == 0 {
		log.Debug(ctx, "note not found")
		return fmt.Errorf("%s: %w", ErrorFailedToDeleteNote, gateway.ErrNotFound)
	}
	return nil
}

// SubscribeOnCreate подписывается на созданные заметки.
func (g *Gateway) SubscribeOnCreate(ctx context.Context) (*stream.Stream[entities.Note], error) {
	return subscribe(ctx, g, opCreate, noteOf)
}

// SubscribeOnUpdate подписывается на обновленные заметки.
func (g *Gateway) SubscribeOnUpdate(ctx context.Context) (*stream.Stream[entities.Note], error) {
	return subscribe(ctx, g, opUpdate, noteOf)
}

// SubscribeOnDelete подписывается на идентификаторы удаленных заметок.
func (g *Gateway) SubscribeOnDelete(ctx context.Context) (*stream.Stream[string], error) {
	return subscribe(ctx, g, opDelete, idOf)
}

// Close останавливает слушателей и закрывает пул.
func (g *Gateway) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	subs := g.subs
	g.subs = nil
	g.mu.Unlock()

	for sub := range subs {
		sub.finish(ErrGatewayClosed)
		sub.cancel()
	}
	g.wg.Wait()

	if g.onClose != nil {
		g.onClose()
	}
	return nil
}

func (g *Gateway) track(sub *subscription) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return false
	}
	g.subs[sub] = struct{}{}
	g.wg.Add(1)
	return true
}

func (g *Gateway) untrack(sub *subscription) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.subs, sub)
}

func noteOf(n entities.Note) entities.Note { return n }

func idOf(n entities.Note) string { return n.ID }

// subscribe занимает выделенное соединение и пересылает уведомления
// операции op в поток. LISTEN выполняется до возврата, поэтому события
// после подписки не теряются.
func subscribe[T any](ctx context.Context, g *Gateway, op string, convert func(entities.Note) T) (*stream.Stream[T], error) {
	log := logger.Log(ctx).With(zap.String("method", LogMethodSubscribe), zap.String("op", op))

	waiter, err := g.listen(ctx, NotifyChannel)
	if err != nil {
		log.Error(ctx, ErrorFailedToSubscribe, zap.Error(err))
		return nil, fmt.Errorf("%s %s: %w", ErrorFailedToSubscribe, op, err)
	}

	listenCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	st := stream.New[T](stream.DefaultBuffer, cancel)
	sub := &subscription{cancel: cancel, finish: st.Close}

	if !g.track(sub) {
		cancel()
		waiter.Close()
		return nil, ErrGatewayClosed
	}

	go func() {
		defer g.wg.Done()
		defer waiter.Close()
		defer g.untrack(sub)

		for {
			n, err := waiter.Wait(listenCtx)
			if err != nil {
				if listenCtx.Err() != nil {
					st.Close(nil)
					return
				}
				log.Warn(listenCtx, "notification listener stopped", zap.Error(err))
				st.Close(fmt.Errorf("%w: %w", ErrListenFailed, err))
				return
			}

			ev, err := decodeEvent(n.Payload)
			if err != nil {
				log.Warn(listenCtx, "skipping malformed notification", zap.Error(err))
				continue
			}
			if ev.Op != op {
				continue
			}
			if !st.Send(listenCtx, convert(ev.note())) {
				st.Close(nil)
				return
			}
		}
	}()

	return st, nil
}
