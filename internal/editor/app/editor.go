package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"notetaker/internal/editor/domain/entities"
	"notetaker/internal/editor/domain/events"
	"notetaker/internal/editor/ports/gateway"
	"notetaker/pkg/logger"
	"notetaker/pkg/stream"
)

// Ошибки редактора.
var (
	ErrNotStarted     = errors.New("note editor not started")
	ErrAlreadyStarted = errors.New("note editor already started")
	ErrClosed         = errors.New("note editor closed")
	ErrNoteNotFound   = errors.New("note not found in collection")
	ErrInitialFetch   = errors.New("initial fetch failed")
	ErrSubscribe      = errors.New("failed to subscribe")
)

// DefaultRequestTimeout таймаут одного запроса мутации.
const DefaultRequestTimeout = 10 * time.Second

// Сообщения логов.
const (
	LogStarting         = "starting note editor"
	LogStarted          = "note editor started"
	LogSeeded           = "collection seeded"
	LogInitialFetch     = "initial fetch failed"
	LogSubscribeFailed  = "subscription failed"
	LogFeedTerminated   = "subscription feed terminated"
	LogEventApplied     = "event applied"
	LogMutationIssued   = "mutation issued"
	LogMutationFailed   = "mutation failed"
	LogClosing          = "closing note editor"
	LogSubscriptionsOff = "subscriptions released"
)

// Имена лент подписок.
const (
	FeedCreate = "create"
	FeedUpdate = "update"
	FeedDelete = "delete"
)

// View неизменяемый снимок состояния редактора.
type View struct {
	Notes  []entities.Note
	Buffer entities.EditBuffer
	Mode   entities.Mode
}

func viewOf(s *State) View {
	return View{
		Notes:  s.Notes.Notes(),
		Buffer: s.Buffer,
		Mode:   s.Buffer.Mode(),
	}
}

// Option настраивает NoteEditor.
type Option func(*NoteEditor)

// WithRequestTimeout задает таймаут запросов мутаций. 0 отключает таймаут.
func WithRequestTimeout(d time.Duration) Option {
	return func(e *NoteEditor) { e.requestTimeout = d }
}

// WithOnChange регистрирует наблюдателя изменений. Вызывается в цикле событий,
// поэтому не должен блокироваться.
func WithOnChange(fn func(View)) Option {
	return func(e *NoteEditor) { e.onChange = fn }
}

// WithOnError регистрирует обработчик неудачных мутаций.
func WithOnError(fn func(Intent, error)) Option {
	return func(e *NoteEditor) { e.onError = fn }
}

// WithStrictSeed заставляет Start вернуть ошибку, если первичная загрузка не удалась.
// По умолчанию ошибка только логируется, список остается пустым.
func WithStrictSeed() Option {
	return func(e *NoteEditor) { e.strictSeed = true }
}

// NoteEditor владеет списком заметок и буфером формы. Все изменения состояния
// выполняются в одной горутине цикла событий; подписки и команды передают
// в нее замыкания.
type NoteEditor struct {
	gw gateway.NotesGateway

	requestTimeout time.Duration
	onChange       func(View)
	onError        func(Intent, error)
	strictSeed     bool

	state   State
	actions chan func(*State)

	started  chan struct{}
	quit     chan struct{}
	loopDone chan struct{}

	lifecycleMu sync.Mutex
	closeOnce   sync.Once
	creates     *stream.Stream[entities.Note]
	updates     *stream.Stream[entities.Note]
	deletes     *stream.Stream[string]
	pumps       sync.WaitGroup
	inflight    sync.WaitGroup

	baseCtx context.Context
	log     *logger.Logger
}

// NewNoteEditor создает редактор поверх шлюза.
func NewNoteEditor(gw gateway.NotesGateway, opts ...Option) *NoteEditor {
	e := &NoteEditor{
		gw:             gw,
		requestTimeout: DefaultRequestTimeout,
		actions:        make(chan func(*State)),
		started:        make(chan struct{}),
		quit:           make(chan struct{}),
		loopDone:       make(chan struct{}),
		baseCtx:        context.Background(),
		log:            logger.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start открывает три подписки, загружает список и запускает цикл событий.
// Подписки открываются до загрузки: события, пришедшие во время загрузки,
// ждут в потоках и применяются поверх загруженного списка.
func (e *NoteEditor) Start(ctx context.Context) error {
	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()

	select {
	case <-e.quit:
		return ErrClosed
	default:
	}
	select {
	case <-e.started:
		return ErrAlreadyStarted
	default:
	}

	e.log = logger.Log(ctx).With(zap.String("component", "NoteEditor"))
	e.baseCtx = context.WithoutCancel(ctx)

	e.log.Info(ctx, LogStarting)

	if err := e.subscribe(ctx); err != nil {
		return err
	}

	notes, err := e.gw.ListNotes(ctx)
	if err != nil {
		e.log.Error(ctx, LogInitialFetch, zap.Error(err))
		if e.strictSeed {
			e.releaseSubscriptions(ctx)
			return fmt.Errorf("%w: %w", ErrInitialFetch, err)
		}
	} else {
		e.state.Seed(notes)
		e.log.Debug(ctx, LogSeeded, zap.Int("count", e.state.Notes.Len()))
	}
	e.emit(&e.state)

	go e.run()
	close(e.started)

	e.pumps.Add(3)
	go pump(e, FeedCreate, e.creates, events.NoteCreated)
	go pump(e, FeedUpdate, e.updates, events.NoteUpdated)
	go pump(e, FeedDelete, e.deletes, events.NoteDeleted)

	e.log.Info(ctx, LogStarted)
	return nil
}

func (e *NoteEditor) subscribe(ctx context.Context) error {
	var err error

	if e.creates, err = e.gw.SubscribeOnCreate(ctx); err != nil {
		return e.subscribeFailed(ctx, FeedCreate, err)
	}
	if e.updates, err = e.gw.SubscribeOnUpdate(ctx); err != nil {
		return e.subscribeFailed(ctx, FeedUpdate, err)
	}
	if e.deletes, err = e.gw.SubscribeOnDelete(ctx); err != nil {
		return e.subscribeFailed(ctx, FeedDelete, err)
	}
	return nil
}

func (e *NoteEditor) subscribeFailed(ctx context.Context, feed string, err error) error {
	e.log.Error(ctx, LogSubscribeFailed, zap.String("feed", feed), zap.Error(err))
	e.releaseSubscriptions(ctx)
	return fmt.Errorf("%w to %s feed: %w", ErrSubscribe, feed, err)
}

func (e *NoteEditor) releaseSubscriptions(ctx context.Context) {
	if e.creates != nil {
		e.creates.Unsubscribe()
	}
	if e.updates != nil {
		e.updates.Unsubscribe()
	}
	if e.deletes != nil {
		e.deletes.Unsubscribe()
	}
	e.log.Debug(ctx, LogSubscriptionsOff)
}

func (e *NoteEditor) run() {
	defer close(e.loopDone)
	for {
		select {
		case <-e.quit:
			return
		case fn := <-e.actions:
			fn(&e.state)
		}
	}
}

func pump[T any](e *NoteEditor, feed string, s *stream.Stream[T], toEvent func(T) events.Event) {
	defer e.pumps.Done()
	for {
		select {
		case <-e.quit:
			return
		case v, ok := <-s.C():
			if !ok {
				select {
				case <-e.quit:
				default:
					e.log.Warn(e.baseCtx, LogFeedTerminated, zap.String("feed", feed), zap.Error(s.Err()))
				}
				return
			}
			ev := toEvent(v)
			if !e.post(func(st *State) { e.apply(st, ev) }) {
				return
			}
		}
	}
}

func (e *NoteEditor) apply(s *State, ev events.Event) {
	changed := Reconcile(s, ev)
	e.log.Debug(e.baseCtx, LogEventApplied,
		zap.Stringer("kind", ev.Kind),
		zap.String("note_id", ev.Note.ID),
		zap.Bool("changed", changed))
	if changed {
		e.emit(s)
	}
}

func (e *NoteEditor) emit(s *State) {
	if e.onChange != nil {
		e.onChange(viewOf(s))
	}
}

func (e *NoteEditor) post(fn func(*State)) bool {
	select {
	case e.actions <- fn:
		return true
	case <-e.quit:
		return false
	}
}

func (e *NoteEditor) ready() error {
	select {
	case <-e.quit:
		return ErrClosed
	default:
	}
	select {
	case <-e.started:
		return nil
	default:
		return ErrNotStarted
	}
}

// do выполняет fn в цикле событий и ждет результата.
func (e *NoteEditor) do(ctx context.Context, fn func(*State) error) error {
	if err := e.ready(); err != nil {
		return err
	}
	errCh := make(chan error, 1)
	if !e.post(func(s *State) { errCh <- fn(s) }) {
		return ErrClosed
	}
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Select выбирает заметку из списка для правки.
func (e *NoteEditor) Select(ctx context.Context, id string) error {
	return e.do(ctx, func(s *State) error {
		note, ok := s.Notes.Get(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNoteNotFound, id)
		}
		Select(s, note)
		e.emit(s)
		return nil
	})
}

// ChangeText меняет текст формы.
func (e *NoteEditor) ChangeText(ctx context.Context, text string) error {
	return e.do(ctx, func(s *State) error {
		ChangeText(s, text)
		e.emit(s)
		return nil
	})
}

// Submit отправляет форму. Мутация выполняется асинхронно; список обновится,
// когда придет событие подписки.
func (e *NoteEditor) Submit(ctx context.Context) (Intent, error) {
	var intent Intent
	err := e.do(ctx, func(s *State) error {
		intent = Submit(s)
		e.emit(s)
		e.dispatch(ctx, intent)
		return nil
	})
	if err != nil {
		return Intent{}, err
	}
	return intent, nil
}

// Delete запрашивает удаление заметки. Локально список не меняется.
func (e *NoteEditor) Delete(ctx context.Context, id string) error {
	return e.do(ctx, func(*State) error {
		e.dispatch(ctx, Intent{Kind: IntentDelete, ID: id})
		return nil
	})
}

// Snapshot возвращает копию текущего состояния.
func (e *NoteEditor) Snapshot(ctx context.Context) (View, error) {
	var v View
	err := e.do(ctx, func(s *State) error {
		v = viewOf(s)
		return nil
	})
	return v, err
}

// dispatch выполняет мутацию в фоне. Мутация живет дольше команды,
// поэтому от cmdCtx берется только идентификатор запроса.
func (e *NoteEditor) dispatch(cmdCtx context.Context, intent Intent) {
	requestCtx := logger.InheritRequestID(e.baseCtx, cmdCtx)

	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()

		ctx := requestCtx
		if e.requestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, e.requestTimeout)
			defer cancel()
		}

		fields := []zap.Field{zap.Stringer("intent", intent.Kind), zap.String("note_id", intent.ID)}
		e.log.Debug(ctx, LogMutationIssued, fields...)

		if err := e.execute(ctx, intent); err != nil {
			e.log.Error(ctx, LogMutationFailed, append(fields, zap.Error(err))...)
			if e.onError != nil {
				e.onError(intent, err)
			}
		}
	}()
}

func (e *NoteEditor) execute(ctx context.Context, intent Intent) error {
	switch intent.Kind {
	case IntentCreate:
		_, err := e.gw.CreateNote(ctx, intent.Text)
		return err
	case IntentUpdate:
		_, err := e.gw.UpdateNote(ctx, intent.ID, intent.Text)
		return err
	case IntentDelete:
		return e.gw.DeleteNote(ctx, intent.ID)
	default:
		return fmt.Errorf("unknown intent %d", intent.Kind)
	}
}

// Close освобождает три подписки и останавливает цикл событий. Идемпотентен.
// После возврата события больше не применяются. Ждет завершения уже
// отправленных мутаций.
func (e *NoteEditor) Close() error {
	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()

	e.closeOnce.Do(func() {
		ctx := e.baseCtx
		e.log.Info(ctx, LogClosing)

		close(e.quit)
		e.releaseSubscriptions(ctx)

		select {
		case <-e.started:
			<-e.loopDone
		default:
		}
		e.pumps.Wait()
		e.inflight.Wait()
	})
	return nil
}
