package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"notetaker/pkg/logger"
)

// ErrListen сообщение об ошибке подписки на канал.
const ErrListen = "failed to listen channel"

const unlistenTimeout = time.Second

// Listener выделенное соединение из пула, подписанное на канал NOTIFY.
type Listener struct {
	conn    *pgxpool.Conn
	channel string
}

// Listen занимает соединение пула и выполняет LISTEN channel. Соединение
// возвращается в пул через Close.
func (db *Database) Listen(ctx context.Context, channel string) (*Listener, error) {
	conn, err := db.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", ErrListen, channel, err)
	}

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		conn.Release()
		return nil, fmt.Errorf("%s %s: %w", ErrListen, channel, err)
	}

	return &Listener{conn: conn, channel: channel}, nil
}

// Wait блокируется до следующего уведомления или отмены ctx.
func (l *Listener) Wait(ctx context.Context) (*pgconn.Notification, error) {
	return l.conn.Conn().WaitForNotification(ctx)
}

// Close снимает подписку и возвращает соединение в пул.
func (l *Listener) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), unlistenTimeout)
	defer cancel()

	if _, err := l.conn.Exec(ctx, "UNLISTEN *"); err != nil {
		// Соединение в неизвестном состоянии, в пул его не возвращаем.
		logger.Log(ctx).Warn(ctx, "unlisten failed", zap.String("channel", l.channel), zap.Error(err))
		_ = l.conn.Hijack().Close(ctx)
		return
	}
	l.conn.Release()
}
