// Package redis реализует шлюз заметок поверх Redis: заметки хранятся
// в хэше, порядок в отсортированном множестве, события идут через pub/sub.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"notetaker/internal/editor/config"
	"notetaker/internal/editor/domain/entities"
	"notetaker/internal/editor/ports/gateway"
	dbredis "notetaker/pkg/db/redis"
	"notetaker/pkg/logger"
	"notetaker/pkg/stream"
)

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
	ErrorFailedToClose      = "failed to close redis connection"
)

// ErrGatewayClosed возвращается подпискам закрытого шлюза.
var ErrGatewayClosed = errors.New("redis gateway closed")

// updateScript заменяет заметку только если она существует.
var updateScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], ARGV[1]) == 0 then
  return 0
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
redis.call('PUBLISH', KEYS[2], ARGV[2])
return 1
`)

// deleteScript удаляет заметку и публикует ее последнее значение.
var deleteScript = redis.NewScript(`
local value = redis.call('HGET', KEYS[1], ARGV[1])
if not value then
  return 0
end
redis.call('HDEL', KEYS[1], ARGV[1])
redis.call('ZREM', KEYS[2], ARGV[1])
redis.call('PUBLISH', KEYS[3], value)
return 1
`)

var _ gateway.NotesGateway = (*Gateway)(nil)

// Gateway шлюз заметок поверх Redis.
type Gateway struct {
	client *dbredis.Client
	rdb    *redis.Client
	keys   keys

	mu     sync.Mutex
	subs   map[*redis.PubSub]func(error)
	closed bool
}

// NewGateway подключается к Redis по настройкам cfg.
func NewGateway(ctx context.Context, cfg *config.RedisConfig) (*Gateway, error) {
	client, err := dbredis.NewClient(ctx, &dbredis.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}

	return &Gateway{
		client: client,
		rdb:    client.RawClient(),
		keys:   newKeys(cfg.KeyPrefix),
		subs:   make(map[*redis.PubSub]func(error)),
	}, nil
}

// ListNotes возвращает заметки в порядке создания.
func (g *Gateway) ListNotes(ctx context.Context) ([]entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", LogMethodListNotes))

	ids, err := g.rdb.ZRange(ctx, g.keys.order, 0, -1).Result()
	if err != nil {
		log.Error(ctx, ErrorFailedToListNotes, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrorFailedToListNotes, err)
	}
	if len(ids) == 0 {
		return []entities.Note{}, nil
	}

	values, err := g.rdb.HMGet(ctx, g.keys.notes, ids...).Result()
	if err != nil {
		log.Error(ctx, ErrorFailedToListNotes, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrorFailedToListNotes, err)
	}

	notes := make([]entities.Note, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Порядок пережил заметку: удаление между ZRANGE и HMGET.
			continue
		}
		note, err := decodeNote([]byte(raw))
		if err != nil {
			log.Warn(ctx, "skipping malformed note", zap.String("note_id", ids[i]), zap.Error(err))
			continue
		}
		notes = append(notes, note)
	}
	return notes, nil
}

// CreateNote сохраняет новую заметку и публикует событие создания.
func (g *Gateway) CreateNote(ctx context.Context, text string) (entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", LogMethodCreateNote))

	note := entities.Note{ID: uuid.NewString(), Note: text}
	raw, err := json.Marshal(note)
	if err != nil {
		return entities.Note{}, fmt.Errorf("%s: %w", ErrorFailedToCreateNote, err)
	}

	seq, err := g.rdb.Incr(ctx, g.keys.seq).Result()
	if err != nil {
		log.Error(ctx, ErrorFailedToCreateNote, zap.Error(err))
		return entities.Note{}, fmt.Errorf("%s: %w", ErrorFailedToCreateNote, err)
	}

	_, err = g.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, g.keys.notes, note.ID, raw)
		pipe.ZAdd(ctx, g.keys.order, redis.Z{Score: float64(seq), Member: note.ID})
		pipe.Publish(ctx, g.keys.create, raw)
		return nil
	})
	if err != nil {
		log.Error(ctx, ErrorFailedToCreateNote, zap.Error(err))
		return entities.Note{}, fmt.Errorf("%s: %w", ErrorFailedToCreateNote, err)
	}

	log.Debug(ctx, "note created", zap.String("note_id", note.ID))
	return note, nil
}

// UpdateNote заменяет текст существующей заметки.
func (g *Gateway) UpdateNote(ctx context.Context, id, text string) (entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", LogMethodUpdateNote), zap.String("note_id", id))

	note := entities.Note{ID: id, Note: text}
	raw, err := json.Marshal(note)
	if err != nil {
		return entities.Note{}, fmt.Errorf("%s: %w", ErrorFailedToUpdateNote, err)
	}

	updated, err := updateScript.Run(ctx, g.rdb, []string{g.keys.notes, g.keys.update}, id, raw).Int()
	if err != nil {
		log.Error(ctx, ErrorFailedToUpdateNote, zap.Error(err))
		return entities.Note{}, fmt.Errorf("%s: %w", ErrorFailedToUpdateNote, err)
	}
	if updated == 0 {
		return entities.Note{}, fmt.Errorf("%s: %w", ErrorFailedToUpdateNote, gateway.ErrNotFound)
	}
	return note, nil
}

// DeleteNote удаляет заметку и публикует событие удаления.
func (g *Gateway) DeleteNote(ctx context.Context, id string) error {
	log := logger.Log(ctx).With(zap.String("method", LogMethodDeleteNote), zap.String("note_id", id))

	deleted, err := deleteScript.Run(ctx, g.rdb, []string{g.keys.notes, g.keys.order, g.keys.delete}, id).Int()
	if err != nil {
		log.Error(ctx, ErrorFailedToDeleteNote, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToDeleteNote, err)
	}
	if deleted == 0 {
		return fmt.Errorf("%s: %w", ErrorFailedToDeleteNote, gateway.ErrNotFound)
	}
	return nil
}

// SubscribeOnCreate подписывается на созданные заметки.
func (g *Gateway) SubscribeOnCreate(ctx context.Context) (*stream.Stream[entities.Note], error) {
	return subscribe(ctx, g, g.keys.create, decodeNote)
}

// SubscribeOnUpdate подписывается на обновленные заметки.
func (g *Gateway) SubscribeOnUpdate(ctx context.Context) (*stream.Stream[entities.Note], error) {
	return subscribe(ctx, g, g.keys.update, decodeNote)
}

// SubscribeOnDelete подписывается на идентификаторы удаленных заметок.
func (g *Gateway) SubscribeOnDelete(ctx context.Context) (*stream.Stream[string], error) {
	return subscribe(ctx, g, g.keys.delete, func(raw []byte) (string, error) {
		note, err := decodeNote(raw)
		return note.ID, err
	})
}

// Close завершает подписки и закрывает соединение.
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

	for ps, finish := range subs {
		finish(ErrGatewayClosed)
		_ = ps.Close()
	}

	if err := g.client.Close(); err != nil {
		return fmt.Errorf("%s: %w", ErrorFailedToClose, err)
	}
	return nil
}

func (g *Gateway) track(ps *redis.PubSub, finish func(error)) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return false
	}
	g.subs[ps] = finish
	return true
}

func (g *Gateway) untrack(ps *redis.PubSub) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.subs, ps)
}

func decodeNote(raw []byte) (entities.Note, error) {
	var note entities.Note
	if err := json.Unmarshal(raw, &note); err != nil {
		return entities.Note{}, fmt.Errorf("decode note: %w", err)
	}
	return note, nil
}

// subscribe подписывается на канал и ждет подтверждения сервера,
// чтобы события после возврата не терялись.
func subscribe[T any](ctx context.Context, g *Gateway, channel string, decode func([]byte) (T, error)) (*stream.Stream[T], error) {
	log := logger.Log(ctx).With(zap.String("method", LogMethodSubscribe), zap.String("channel", channel))

	ps := g.rdb.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		log.Error(ctx, ErrorFailedToSubscribe, zap.Error(err))
		return nil, fmt.Errorf("%s %s: %w", ErrorFailedToSubscribe, channel, err)
	}

	st := stream.New[T](stream.DefaultBuffer, func() {
		g.untrack(ps)
		_ = ps.Close()
	})
	if !g.track(ps, st.Close) {
		_ = ps.Close()
		return nil, ErrGatewayClosed
	}

	sendCtx := context.WithoutCancel(ctx)
	messages := ps.Channel()
	go func() {
		defer st.Close(nil)
		for msg := range messages {
			v, err := decode([]byte(msg.Payload))
			if err != nil {
				log.Warn(sendCtx, "skipping malformed event", zap.Error(err))
				continue
			}
			if !st.Send(sendCtx, v) {
				return
			}
		}
	}()

	return st, nil
}
