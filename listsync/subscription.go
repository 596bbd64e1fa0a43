package listsync

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"google.golang.org/api/iterator"

	"modular-todo/models"
	"modular-todo/utilities"
)

// ErrAlreadySubscribed é retornado quando a view já tem uma assinatura ativa no caminho.
var ErrAlreadySubscribed = errors.New("já existe uma assinatura ativa para esta coleção")

var errStreamClosed = errors.New("o fluxo de snapshots foi encerrado pelo servidor")

// SnapshotIterator entrega snapshots completos da coleção, na ordem em que o
// armazenamento os emite. Next bloqueia até a próxima mudança e devolve
// iterator.Done depois de Stop.
type SnapshotIterator interface {
	Next() ([]models.Todo, error)
	Stop()
}

// Source abre o fluxo de snapshots de uma coleção.
type Source interface {
	Snapshots(ctx context.Context, collectionPath string) SnapshotIterator
}

// SubscriptionError é um erro do fluxo de notificações. Não encerra a assinatura.
type SubscriptionError struct {
	Path string
	Err  error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("erro no fluxo de snapshots de %s: %v", e.Path, e.Err)
}

func (e *SubscriptionError) Unwrap() error { return e.Err }

// State é o estado de uma assinatura.
type State int32

const (
	StateUnsubscribed State = iota
	StateSubscribing
	StateActive
)

func (s State) String() string {
	switch s {
	case StateSubscribing:
		return "subscribing"
	case StateActive:
		return "active"
	default:
		return "unsubscribed"
	}
}

// View é uma lista montada: no máximo uma assinatura ativa por caminho.
type View struct {
	source Source

	mu     sync.Mutex
	active map[string]*Subscription
}

func NewView(source Source) *View {
	return &View{source: source, active: make(map[string]*Subscription)}
}

// Subscribe abre a assinatura de collectionPath. onSnapshot recebe a lista reconciliada
// a cada notificação; onError recebe erros do fluxo, que continua aberto até Unsubscribe.
// Os callbacks rodam sempre na mesma goroutine, um de cada vez.
func (v *View) Subscribe(ctx context.Context, collectionPath string, onSnapshot func([]models.Todo), onError func(error)) (*Subscription, error) {
	v.mu.Lock()
	if _, ok := v.active[collectionPath]; ok {
		v.mu.Unlock()
		return nil, ErrAlreadySubscribed
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		path:   collectionPath,
		view:   v,
		cancel: cancel,
		done:   make(chan struct{}),
		state:  StateSubscribing,
	}
	v.active[collectionPath] = s
	v.mu.Unlock()

	utilities.LogDebug("listsync: assinando %s", collectionPath)
	it := v.source.Snapshots(ctx, collectionPath)
	go s.run(ctx, it, onSnapshot, onError)
	return s, nil
}

func (v *View) release(s *Subscription) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.active[s.path] == s {
		delete(v.active, s.path)
	}
}

// Subscription é o handle de uma assinatura ativa.
type Subscription struct {
	path   string
	view   *View
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	mu     sync.RWMutex
	state  State
	latest []models.Todo
}

func (s *Subscription) Path() string { return s.path }

func (s *Subscription) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Latest devolve uma cópia da última lista reconciliada (nil antes do primeiro snapshot).
func (s *Subscription) Latest() []models.Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.latest)
}

// Done é fechado quando a assinatura termina.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Unsubscribe libera a assinatura e o caminho na view, que pode ser assinado de novo
// logo em seguida. Pode ser chamado mais de uma vez, inclusive de dentro de um
// callback; Done é fechado quando a entrega termina.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.cancel()
		s.view.release(s)
	})
}

func (s *Subscription) run(ctx context.Context, it SnapshotIterator, onSnapshot func([]models.Todo), onError func(error)) {
	utilities.ActiveSubscriptions.Inc()
	defer func() {
		it.Stop()
		s.mu.Lock()
		s.state = StateUnsubscribed
		s.mu.Unlock()
		s.view.release(s)
		utilities.ActiveSubscriptions.Dec()
		utilities.LogDebug("listsync: assinatura de %s encerrada", s.path)
		close(s.done)
	}()

	for {
		docs, err := it.Next()
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			if errors.Is(err, iterator.Done) {
				err = errStreamClosed
			}
			utilities.SubscriptionErrors.Inc()
			utilities.LogError(err, "listsync: erro no fluxo de snapshots de "+s.path)
			if onError != nil {
				onError(&SubscriptionError{Path: s.path, Err: err})
			}
			// O iterador não é mais utilizável; fica aberto até o chamador liberar.
			<-ctx.Done()
			return
		}

		todos := Reconcile(docs)
		s.mu.Lock()
		s.state = StateActive
		s.latest = todos
		s.mu.Unlock()
		utilities.SnapshotsDelivered.Inc()

		if onSnapshot != nil {
			onSnapshot(slices.Clone(todos))
		}
	}
}
