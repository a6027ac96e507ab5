// Package graphql реализует шлюз заметок поверх размещенного GraphQL API:
// запросы и мутации идут по HTTP, подписки по протоколу graphql-transport-ws.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"notetaker/internal/editor/config"
	"notetaker/internal/editor/domain/entities"
	"notetaker/internal/editor/ports/gateway"
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
)

const (
	headerAPIKey        = "x-api-key"
	headerAuthorization = "Authorization"
	contentTypeJSON     = "application/json"

	// maxErrorBody сколько байт тела ответа попадает в ошибку статуса.
	maxErrorBody = 512
)

var _ gateway.NotesGateway = (*Gateway)(nil)

// Gateway шлюз заметок поверх GraphQL.
type Gateway struct {
	endpoint   string
	apiKey     string
	token      string
	httpClient *http.Client
	dialer     *websocket.Dialer
	sub        *subscriber
}

// Option настраивает Gateway.
type Option func(*Gateway)

// WithHTTPClient подменяет HTTP клиент запросов и мутаций.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.httpClient = c }
}

// WithDialer подменяет WebSocket диалер подписок.
func WithDialer(d *websocket.Dialer) Option {
	return func(g *Gateway) { g.dialer = d }
}

// NewGateway создает GraphQL шлюз. Соединение подписок открывается
// при первой подписке.
func NewGateway(ctx context.Context, cfg *config.GraphQLConfig, opts ...Option) (*Gateway, error) {
	if cfg.Endpoint == "" {
		return nil, config.ErrMissingEndpoint
	}
	if err := checkToken(cfg.Token, time.Now()); err != nil {
		return nil, err
	}

	realtime := cfg.RealtimeEndpoint
	if realtime == "" {
		realtime = realtimeURL(cfg.Endpoint)
	}

	g := &Gateway{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		token:      formatAuthorizationToken(cfg.Token),
		httpClient: &http.Client{},
		dialer:     &websocket.Dialer{HandshakeTimeout: cfg.ConnectTimeout},
	}
	for _, opt := range opts {
		opt(g)
	}

	g.sub = newSubscriber(subscriberConfig{
		url:            realtime,
		dialer:         g.dialer,
		header:         g.headers(),
		initPayload:    g.initPayload(),
		connectTimeout: cfg.ConnectTimeout,
		writeTimeout:   cfg.WriteTimeout,
	})

	logger.Log(ctx).Info(ctx, "graphql gateway created",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("realtime_endpoint", realtime))

	return g, nil
}

// realtimeURL выводит адрес подписок из адреса HTTP API.
func realtimeURL(endpoint string) string {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return "wss://" + strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "http://"):
		return "ws://" + strings.TrimPrefix(endpoint, "http://")
	default:
		return endpoint
	}
}

func (g *Gateway) headers() http.Header {
	h := http.Header{}
	if g.apiKey != "" {
		h.Set(headerAPIKey, g.apiKey)
	}
	if g.token != "" {
		h.Set(headerAuthorization, g.token)
	}
	return h
}

func (g *Gateway) initPayload() map[string]string {
	p := map[string]string{}
	if g.apiKey != "" {
		p[headerAPIKey] = g.apiKey
	}
	if g.token != "" {
		p[headerAuthorization] = g.token
	}
	return p
}

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type response struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors Errors                     `json:"errors"`
}

// do выполняет документ и декодирует поле field результата в out.
func (g *Gateway) do(ctx context.Context, query string, vars map[string]any, field string, out any) error {
	body, err := json.Marshal(request{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header = g.headers()
	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set("Accept", contentTypeJSON)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: %d %s", ErrHTTPStatus, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(r.Errors) > 0 {
		return r.Errors
	}

	return decodeField(r.Data, field, out)
}

func decodeField(data map[string]json.RawMessage, field string, out any) error {
	raw, ok := data[field]
	if !ok || len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return gateway.ErrNotFound
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", field, err)
	}
	return nil
}

type notesPage struct {
	Items     []entities.Note `json:"items"`
	NextToken *string         `json:"nextToken"`
}

// ListNotes загружает все страницы списка заметок.
func (g *Gateway) ListNotes(ctx context.Context) ([]entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", LogMethodListNotes))

	var (
		notes []entities.Note
		next  *string
	)
	for {
		vars := map[string]any{}
		if next != nil {
			vars["nextToken"] = *next
		}

		var page notesPage
		if err := g.do(ctx, listNotesQuery, vars, fieldListNotes, &page); err != nil {
			log.Error(ctx, ErrorFailedToListNotes, zap.Error(err))
			return nil, fmt.Errorf("%s: %w", ErrorFailedToListNotes, err)
		}
		notes = append(notes, page.Items...)

		if page.NextToken == nil || *page.NextToken == "" {
			break
		}
		next = page.NextToken
	}

	log.Debug(ctx, "notes listed", zap.Int("count", len(notes)))
	return notes, nil
}

// CreateNote создает заметку с текстом text.
func (g *Gateway) CreateNote(ctx context.Context, text string) (entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", LogMethodCreateNote))

	var note entities.Note
	vars := map[string]any{"input": map[string]any{"note": text}}
	if err := g.do(ctx, createNoteMutation, vars, fieldCreateNote, &note); err != nil {
		log.Error(ctx, ErrorFailedToCreateNote, zap.Error(err))
		return entities.Note{}, fmt.Errorf("%s: %w", ErrorFailedToCreateNote, err)
	}
	return note, nil
}

// UpdateNote заменяет текст заметки id.
func (g *Gateway) UpdateNote(ctx context.Context, id, text string) (entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", LogMethodUpdateNote), zap.String("note_id", id))

	var note entities.Note
	vars := map[string]any{"input": map[string]any{"id": id, "note": text}}
	if err := g.do(ctx, updateNoteMutation, vars, fieldUpdateNote, &note); err != nil {
		log.Error(ctx, ErrorFailedToUpdateNote, zap.Error(err))
		return entities.Note{}, fmt.Errorf("%s: %w", ErrorFailedToUpdateNote, err)
	}
	return note, nil
}

// DeleteNote удаляет заметку id.
func (g *Gateway) DeleteNote(ctx context.Context, id string) error {
	log := logger.Log(ctx).With(zap.String("method", LogMethodDeleteNote), zap.String("note_id", id))

	var note entities.Note
	vars := map[string]any{"input": map[string]any{"id": id}}
	if err := g.do(ctx, deleteNoteMutation, vars, fieldDeleteNote, &note); err != nil {
		log.Error(ctx, ErrorFailedToDeleteNote, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToDeleteNote, err)
	}
	return nil
}

// SubscribeOnCreate подписывается на созданные заметки.
func (g *Gateway) SubscribeOnCreate(ctx context.Context) (*stream.Stream[entities.Note], error) {
	return subscribeField(ctx, g.sub, onCreateNoteSubscription, fieldOnCreateNote, noteOf)
}

// SubscribeOnUpdate подписывается на обновленные заметки.
func (g *Gateway) SubscribeOnUpdate(ctx context.Context) (*stream.Stream[entities.Note], error) {
	return subscribeField(ctx, g.sub, onUpdateNoteSubscription, fieldOnUpdateNote, noteOf)
}

// SubscribeOnDelete подписывается на идентификаторы удаленных заметок.
func (g *Gateway) SubscribeOnDelete(ctx context.Context) (*stream.Stream[string], error) {
	return subscribeField(ctx, g.sub, onDeleteNoteSubscription, fieldOnDeleteNote, idOf)
}

// Close завершает все подписки и закрывает соединение.
func (g *Gateway) Close() error {
	return g.sub.close()
}

func noteOf(n entities.Note) entities.Note { return n }

func idOf(n entities.Note) string { return n.ID }
