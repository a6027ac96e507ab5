package graphql

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"notetaker/internal/editor/domain/entities"
	"notetaker/pkg/logger"
	"notetaker/pkg/stream"
)

// Подпротокол и типы сообщений graphql-transport-ws.
const (
	subprotocol = "graphql-transport-ws"

	msgConnectionInit = "connection_init"
	msgConnectionAck  = "connection_ack"
	msgPing           = "ping"
	msgPong           = "pong"
	msgSubscribe      = "subscribe"
	msgNext           = "next"
	msgError          = "error"
	msgComplete       = "complete"
)

type message struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type subscribePayload struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type nextPayload struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors Errors                     `json:"errors"`
}

// route получатель сообщений одной подписки.
type route struct {
	deliver func(payload json.RawMessage)
	finish  func(err error)
}

type subscriberConfig struct {
	url            string
	dialer         *websocket.Dialer
	header         http.Header
	initPayload    map[string]string
	connectTimeout time.Duration
	writeTimeout   time.Duration
}

// subscriber мультиплексирует подписки поверх одного WebSocket соединения.
// Соединение открывается при первой подписке и закрывается вместе с последней.
type subscriber struct {
	cfg subscriberConfig

	mu     sync.Mutex
	conn   *websocket.Conn
	routes map[string]route
	closed bool

	writeMu sync.Mutex
}

func newSubscriber(cfg subscriberConfig) *subscriber {
	if cfg.dialer == nil {
		cfg.dialer = websocket.DefaultDialer
	}
	return &subscriber{
		cfg:    cfg,
		routes: make(map[string]route),
	}
}

// subscribe регистрирует маршрут id и отправляет документ серверу.
func (s *subscriber) subscribe(ctx context.Context, id, query string, r route) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrGatewayClosed
	}
	if s.conn == nil {
		conn, err := s.connect(ctx)
		if err != nil {
			return err
		}
		s.conn = conn
		go s.readLoop(context.WithoutCancel(ctx), conn)
	}

	payload, err := json.Marshal(subscribePayload{Query: query})
	if err != nil {
		return fmt.Errorf("marshal subscribe payload: %w", err)
	}

	s.routes[id] = r
	if err := s.write(s.conn, message{ID: id, Type: msgSubscribe, Payload: payload}); err != nil {
		delete(s.routes, id)
		return fmt.Errorf("send subscribe: %w", err)
	}
	return nil
}

// connect открывает соединение и ждет connection_ack.
func (s *subscriber) connect(ctx context.Context) (*websocket.Conn, error) {
	dialCtx := ctx
	if s.cfg.connectTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, s.cfg.connectTimeout)
		defer cancel()
	}

	dialer := *s.cfg.dialer
	dialer.Subprotocols = []string{subprotocol}

	conn, resp, err := dialer.DialContext(dialCtx, s.cfg.url, s.cfg.header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", s.cfg.url, err)
	}

	if err := s.handshake(dialCtx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	logger.Log(ctx).Debug(ctx, "subscription connection established", zap.String("url", s.cfg.url))
	return conn, nil
}

func (s *subscriber) handshake(ctx context.Context, conn *websocket.Conn) error {
	var payload json.RawMessage
	if len(s.cfg.initPayload) > 0 {
		raw, err := json.Marshal(s.cfg.initPayload)
		if err != nil {
			return fmt.Errorf("marshal init payload: %w", err)
		}
		payload = raw
	}
	if err := s.write(conn, message{Type: msgConnectionInit, Payload: payload}); err != nil {
		return fmt.Errorf("send connection_init: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
		defer func() { _ = conn.SetReadDeadline(time.Time{}) }()
	}

	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("%w: %w", ErrNoAck, err)
		}
		switch msg.Type {
		case msgConnectionAck:
			return nil
		case msgPing:
			if err := s.write(conn, message{Type: msgPong}); err != nil {
				return fmt.Errorf("send pong: %w", err)
			}
		default:
			return fmt.Errorf("%w: got %q", ErrNoAck, msg.Type)
		}
	}
}

func (s *subscriber) write(conn *websocket.Conn, msg message) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.cfg.writeTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.writeTimeout))
	}
	return conn.WriteJSON(msg)
}

func (s *subscriber) readLoop(ctx context.Context, conn *websocket.Conn) {
	log := logger.Log(ctx)
	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			s.connectionLost(ctx, conn, err)
			return
		}

		switch msg.Type {
		case msgNext:
			if r, ok := s.lookup(msg.ID); ok {
				r.deliver(msg.Payload)
			}
		case msgError:
			var errs Errors
			if err := json.Unmarshal(msg.Payload, &errs); err != nil {
				errs = Errors{{Message: string(msg.Payload)}}
			}
			s.finish(msg.ID, errs)
		case msgComplete:
			s.finish(msg.ID, ErrSubscriptionDone)
		case msgPing:
			if err := s.write(conn, message{Type: msgPong}); err != nil {
				log.Warn(ctx, "failed to answer ping", zap.Error(err))
			}
		case msgPong:
		default:
			log.Debug(ctx, "unexpected subscription message", zap.String("type", msg.Type))
		}
	}
}

func (s *subscriber) lookup(id string) (route, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.routes[id]
	return r, ok
}

// finish завершает маршрут по инициативе сервера.
func (s *subscriber) finish(id string, err error) {
	s.mu.Lock()
	r, ok := s.routes[id]
	delete(s.routes, id)
	s.mu.Unlock()

	if ok {
		r.finish(err)
	}
}

// connectionLost завершает все маршруты оборванного соединения.
func (s *subscriber) connectionLost(ctx context.Context, conn *websocket.Conn, cause error) {
	s.mu.Lock()
	if s.conn != conn {
		s.mu.Unlock()
		return
	}
	s.conn = nil
	routes := s.routes
	s.routes = make(map[string]route)
	s.mu.Unlock()

	_ = conn.Close()
	logger.Log(ctx).Warn(ctx, "subscription connection lost",
		zap.Int("subscriptions", len(routes)), zap.Error(cause))

	err := fmt.Errorf("%w: %w", ErrConnectionLost, cause)
	for _, r := range routes {
		r.finish(err)
	}
}

// stop отписывает маршрут id по инициативе клиента.
func (s *subscriber) stop(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.routes[id]; !ok {
		return
	}
	delete(s.routes, id)

	if s.conn == nil {
		return
	}
	_ = s.write(s.conn, message{ID: id, Type: msgComplete})

	if len(s.routes) == 0 {
		_ = s.conn.Close()
		s.conn = nil
	}
}

func (s *subscriber) close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conn := s.conn
	s.conn = nil
	routes := s.routes
	s.routes = make(map[string]route)
	s.mu.Unlock()

	for _, r := range routes {
		r.finish(ErrGatewayClosed)
	}
	if conn == nil {
		return nil
	}

	s.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	s.writeMu.Unlock()

	if err := conn.Close(); err != nil {
		return fmt.Errorf("close subscription connection: %w", err)
	}
	return nil
}

// subscribeField открывает подписку и превращает поле field каждого
// сообщения next в значение потока.
func subscribeField[T any](
	ctx context.Context,
	s *subscriber,
	query, field string,
	convert func(entities.Note) T,
) (*stream.Stream[T], error) {
	log := logger.Log(ctx).With(zap.String("method", LogMethodSubscribe), zap.String("field", field))

	id := uuid.NewString()
	st := stream.New[T](stream.DefaultBuffer, func() { s.stop(id) })

	// Подписка живет дольше ctx вызова.
	sendCtx := context.WithoutCancel(ctx)

	r := route{
		deliver: func(payload json.RawMessage) {
			var p nextPayload
			if err := json.Unmarshal(payload, &p); err != nil {
				log.Warn(sendCtx, "malformed subscription payload", zap.Error(err))
				return
			}
			if len(p.Errors) > 0 {
				log.Warn(sendCtx, "subscription payload carries errors", zap.Error(p.Errors))
				return
			}
			var note entities.Note
			if err := decodeField(p.Data, field, &note); err != nil {
				log.Warn(sendCtx, "subscription payload without note", zap.Error(err))
				return
			}
			st.Send(sendCtx, convert(note))
		},
		finish: st.Close,
	}

	if err := s.subscribe(ctx, id, query, r); err != nil {
		log.Error(ctx, ErrorFailedToSubscribe, zap.Error(err))
		return nil, fmt.Errorf("%s %s: %w", ErrorFailedToSubscribe, field, err)
	}
	return st, nil
}
