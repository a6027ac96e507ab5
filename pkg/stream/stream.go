// Package stream описывает отменяемый поток событий одного типа,
// который адаптеры шлюзов отдают подписчикам.
package stream

import (
	"context"
	"sync"
)

// DefaultBuffer размер буфера канала по умолчанию.
const DefaultBuffer = 16

// Stream поток значений T. Закрытие канала C означает конец потока:
// отписку, ошибку транспорта или закрытие шлюза. Err возвращает причину.
type Stream[T any] struct {
	ch     chan T
	done   chan struct{}
	cancel func()
	once   sync.Once

	// closing закрывается в начале Close и будит заблокированный Send,
	// иначе Close ждал бы closeMu, пока подписчик не вычитает канал.
	closing     chan struct{}
	closingOnce sync.Once

	// closeMu держится на чтение во время Send, чтобы Close не закрыл канал
	// под отправкой.
	closeMu sync.RWMutex
	closed  bool
	err     error
}

// New создает поток. cancel вызывается ровно один раз при Unsubscribe
// и должен остановить источник.
func New[T any](buffer int, cancel func()) *Stream[T] {
	if buffer < 0 {
		buffer = 0
	}
	return &Stream[T]{
		ch:      make(chan T, buffer),
		done:    make(chan struct{}),
		closing: make(chan struct{}),
		cancel:  cancel,
	}
}

// C канал событий.
func (s *Stream[T]) C() <-chan T {
	return s.ch
}

// Done закрывается при Unsubscribe.
func (s *Stream[T]) Done() <-chan struct{} {
	return s.done
}

// Send доставляет значение подписчику. Возвращает false, если поток
// закрыт, отписан или ctx отменен.
func (s *Stream[T]) Send(ctx context.Context, v T) bool {
	s.closeMu.RLock()
	defer s.closeMu.RUnlock()

	if s.closed {
		return false
	}
	select {
	case <-s.done:
		return false
	case <-s.closing:
		return false
	default:
	}

	select {
	case s.ch <- v:
		return true
	case <-s.done:
		return false
	case <-s.closing:
		return false
	case <-ctx.Done():
		return false
	}
}

// Close завершает поток с причиной err. Повторные вызовы игнорируются.
func (s *Stream[T]) Close(err error) {
	s.closingOnce.Do(func() { close(s.closing) })

	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.err = err
	close(s.ch)
}

// Err причина завершения потока; nil для штатной отписки.
func (s *Stream[T]) Err() error {
	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	return s.err
}

// Unsubscribe останавливает источник и закрывает поток. Идемпотентен.
func (s *Stream[T]) Unsubscribe() {
	s.once.Do(func() {
		close(s.done)
		if s.cancel != nil {
			s.cancel()
		}
		s.Close(nil)
	})
}
