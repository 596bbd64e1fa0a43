package handlers_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/iterator"

	"modular-todo/listsync"
	"modular-todo/models"
)

// fakeIdentity aceita tokens no formato "token-<uid>".
type fakeIdentity struct {
	mu      sync.Mutex
	revoked []string
	signErr error
}

func (f *fakeIdentity) SignInAnonymously(ctx context.Context) (*models.AnonymousIdentity, error) {
	if f.signErr != nil {
		return nil, f.signErr
	}
	return &models.AnonymousIdentity{UID: "anon-1", CustomToken: "custom-anon-1"}, nil
}

func (f *fakeIdentity) VerifyUserToken(ctx context.Context, idToken string) (string, error) {
	uid, ok := strings.CutPrefix(idToken, "token-")
	if !ok || uid == "" {
		return "", errors.New("token inválido")
	}
	return uid, nil
}

func (f *fakeIdentity) RevokeTokens(ctx context.Context, uid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, uid)
	return nil
}

// fakeTodoStore guarda as tarefas em memória, com erros injetáveis.
type fakeTodoStore struct {
	mu    sync.Mutex
	todos map[string]models.Todo
	seq   int

	createCalls    int
	createdTexts   []string
	deleteAllCalls int
	deleteAllErr   error
	listErr        error
}

func newFakeTodoStore(todos ...models.Todo) *fakeTodoStore {
	s := &fakeTodoStore{todos: make(map[string]models.Todo)}
	for _, t := range todos {
		s.todos[t.ID] = t
	}
	return s
}

func (s *fakeTodoStore) CollectionPath() string { return "artifacts/test/public/data/todos" }

func (s *fakeTodoStore) Create(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	s.createdTexts = append(s.createdTexts, text)
	s.seq++
	id := fmt.Sprintf("todo-%d", s.seq)
	now := time.Now()
	s.todos[id] = models.Todo{ID: id, Text: text, CreatedAt: &now}
	return id, nil
}

func (s *fakeTodoStore) Get(ctx context.Context, id string) (*models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.todos[id]
	if !ok {
		return nil, models.ErrTodoNotFound
	}
	return &t, nil
}

func (s *fakeTodoStore) List(ctx context.Context) ([]models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.Todo, 0, len(s.todos))
	for _, t := range s.todos {
		out = append(out, t)
	}
	return listsync.Reconcile(out), nil
}

func (s *fakeTodoStore) Update(ctx context.Context, id string, input models.UpdateTodoInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.todos[id]
	if !ok {
		return models.ErrTodoNotFound
	}
	if input.Text != nil {
		text, err := models.NormalizeText(*input.Text)
		if err != nil {
			return err
		}
		t.Text = text
	}
	if input.Completed != nil {
		t.Completed = *input.Completed
	}
	s.todos[id] = t
	return nil
}

func (s *fakeTodoStore) Toggle(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.todos[id]
	if !ok {
		return false, models.ErrTodoNotFound
	}
	t.Completed = !t.Completed
	s.todos[id] = t
	return t.Completed, nil
}

func (s *fakeTodoStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.todos[id]; !ok {
		return models.ErrTodoNotFound
	}
	delete(s.todos, id)
	return nil
}

func (s *fakeTodoStore) DeleteAll(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteAllCalls++
	if s.deleteAllErr != nil {
		return 0, s.deleteAllErr
	}
	n := len(s.todos)
	s.todos = make(map[string]models.Todo)
	return n, nil
}

type fakeUsers struct {
	mu  sync.Mutex
	pro map[string]bool
}

func newFakeUsers() *fakeUsers { return &fakeUsers{pro: make(map[string]bool)} }

func (u *fakeUsers) EnsureUser(ctx context.Context, uid string) (*models.Usuario, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.pro[uid]; !ok {
		u.pro[uid] = false
	}
	return &models.Usuario{FirebaseUID: uid, IsPro: u.pro[uid]}, nil
}

func (u *fakeUsers) IsPro(ctx context.Context, uid string) (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.pro[uid], nil
}

func (u *fakeUsers) SetPro(ctx context.Context, uid string, isPro bool) (*models.Usuario, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.pro[uid] = isPro
	return &models.Usuario{FirebaseUID: uid, IsPro: isPro}, nil
}

type fakeBreakdowner struct {
	mu    sync.Mutex
	calls []string
	text  string
	err   error
}

func (b *fakeBreakdowner) Breakdown(ctx context.Context, taskText string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, taskText)
	if b.err != nil {
		return "", b.err
	}
	return b.text, nil
}

type historyEntry struct {
	uid         string
	todoID      string
	serviceType string
	response    string
	err         error
}

type fakeHistory struct {
	mu      sync.Mutex
	entries []historyEntry
}

func (h *fakeHistory) LogAIInteraction(ctx context.Context, userID, todoID, serviceType string, requestToAI interface{}, responseFromAI string, aiCallError error, duration time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, historyEntry{userID, todoID, serviceType, responseFromAI, aiCallError})
}

// fakeSource entrega aos iteradores abertos os snapshots empurrados pelo teste.
type fakeSource struct {
	events chan []models.Todo
}

func newFakeSource() *fakeSource { return &fakeSource{events: make(chan []models.Todo)} }

func (f *fakeSource) Snapshots(ctx context.Context, collectionPath string) listsync.SnapshotIterator {
	return &fakeIterator{ctx: ctx, events: f.events, stop: make(chan struct{})}
}

type fakeIterator struct {
	ctx    context.Context
	events chan []models.Todo
	stop   chan struct{}
	once   sync.Once
}

func (i *fakeIterator) Next() ([]models.Todo, error) {
	select {
	case docs := <-i.events:
		return docs, nil
	case <-i.ctx.Done():
		return nil, i.ctx.Err()
	case <-i.stop:
		return nil, iterator.Done
	}
}

func (i *fakeIterator) Stop() { i.once.Do(func() { close(i.stop) }) }
