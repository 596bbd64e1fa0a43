package firebase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"modular-todo/listsync"
	"modular-todo/models"
	"modular-todo/utilities"
)

// TodosCollectionPath é o caminho público e compartilhado da lista.
func TodosCollectionPath(appID string) string {
	return fmt.Sprintf("artifacts/%s/public/data/todos", appID)
}

// AIHistoryCollectionPath guarda o histórico das chamadas à IA.
func AIHistoryCollectionPath(appID string) string {
	return fmt.Sprintf("artifacts/%s/public/data/ai_request_history", appID)
}

// PartialDeleteError indica que parte das tarefas não foi removida.
// As remoções bem-sucedidas não são desfeitas. Cause é o erro que interrompeu a
// leitura da coleção, quando houve; nesse caso os documentos restantes nem foram tentados.
type PartialDeleteError struct {
	Deleted int
	Failed  map[string]error
	Cause   error
}

func (e *PartialDeleteError) Error() string {
	ids := make([]string, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	msg := fmt.Sprintf("%d tarefas removidas, %d falharam: %s", e.Deleted, len(e.Failed), strings.Join(ids, ", "))
	if e.Cause != nil {
		msg += fmt.Sprintf(" (remoção interrompida: %v)", e.Cause)
	}
	return msg
}

func (e *PartialDeleteError) Unwrap() error { return e.Cause }

// TodoStore executa as escritas e leituras na coleção compartilhada.
type TodoStore struct {
	client *firestore.Client
	path   string
}

func NewTodoStore(client *firestore.Client, collectionPath string) *TodoStore {
	return &TodoStore{client: client, path: collectionPath}
}

// CollectionPath devolve o caminho da coleção usada pelo store.
func (s *TodoStore) CollectionPath() string { return s.path }

func (s *TodoStore) collection() *firestore.CollectionRef {
	return s.client.Collection(s.path)
}

func notFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func docToTodo(doc *firestore.DocumentSnapshot) (models.Todo, error) {
	var t models.Todo
	if err := doc.DataTo(&t); err != nil {
		return models.Todo{}, err
	}
	t.ID = doc.Ref.ID
	return t, nil
}

// docsToTodos converte os documentos, pulando os malformados.
func docsToTodos(docs []*firestore.DocumentSnapshot) []models.Todo {
	todos := make([]models.Todo, 0, len(docs))
	for _, doc := range docs {
		t, err := docToTodo(doc)
		if err != nil {
			utilities.LogWarn("Erro ao converter tarefa do Firestore (Doc ID: %s): %v", doc.Ref.ID, err)
			continue
		}
		todos = append(todos, t)
	}
	return todos
}

// Create grava uma nova tarefa pendente com timestamp do servidor.
func (s *TodoStore) Create(ctx context.Context, text string) (string, error) {
	trimmed, err := models.NormalizeText(text)
	if err != nil {
		return "", err
	}

	ref, _, err := s.collection().Add(ctx, map[string]interface{}{
		"text":      trimmed,
		"completed": false,
		"createdAt": firestore.ServerTimestamp,
	})
	utilities.RecordTodoWrite("create", err)
	if err != nil {
		return "", fmt.Errorf("erro ao criar tarefa no Firestore: %w", err)
	}
	return ref.ID, nil
}

// Get busca uma tarefa pelo ID.
func (s *TodoStore) Get(ctx context.Context, id string) (*models.Todo, error) {
	doc, err := s.collection().Doc(id).Get(ctx)
	if notFound(err) {
		return nil, models.ErrTodoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar tarefa %s: %w", id, err)
	}
	t, err := docToTodo(doc)
	if err != nil {
		return nil, fmt.Errorf("erro ao converter tarefa %s: %w", id, err)
	}
	return &t, nil
}

// List faz uma leitura única da coleção, reconciliada como um snapshot.
func (s *TodoStore) List(ctx context.Context) ([]models.Todo, error) {
	docs, err := s.collection().Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("erro ao listar tarefas: %w", err)
	}
	return listsync.Reconcile(docsToTodos(docs)), nil
}

// Update aplica uma atualização parcial (texto e/ou concluída).
func (s *TodoStore) Update(ctx context.Context, id string, input models.UpdateTodoInput) error {
	var updates []firestore.Update
	if input.Text != nil {
		trimmed, err := models.NormalizeText(*input.Text)
		if err != nil {
			return err
		}
		updates = append(updates, firestore.Update{Path: "text", Value: trimmed})
	}
	if input.Completed != nil {
		updates = append(updates, firestore.Update{Path: "completed", Value: *input.Completed})
	}
	if len(updates) == 0 {
		return nil
	}

	_, err := s.collection().Doc(id).Update(ctx, updates)
	utilities.RecordTodoWrite("update", err)
	if notFound(err) {
		return models.ErrTodoNotFound
	}
	if err != nil {
		return fmt.Errorf("erro ao atualizar tarefa %s: %w", id, err)
	}
	return nil
}

// Toggle inverte "completed" numa transação e devolve o novo valor.
func (s *TodoStore) Toggle(ctx context.Context, id string) (bool, error) {
	ref := s.collection().Doc(id)
	var completed bool
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}
		t, err := docToTodo(doc)
		if err != nil {
			return err
		}
		completed = !t.Completed
		return tx.Update(ref, []firestore.Update{{Path: "completed", Value: completed}})
	})
	utilities.RecordTodoWrite("toggle", err)
	if notFound(err) {
		return false, models.ErrTodoNotFound
	}
	if err != nil {
		return false, fmt.Errorf("erro ao alternar tarefa %s: %w", id, err)
	}
	return completed, nil
}

// Delete remove uma tarefa existente.
func (s *TodoStore) Delete(ctx context.Context, id string) error {
	_, err := s.collection().Doc(id).Delete(ctx, firestore.Exists)
	utilities.RecordTodoWrite("delete", err)
	if notFound(err) {
		return models.ErrTodoNotFound
	}
	if err != nil {
		return fmt.Errorf("erro ao remover tarefa %s: %w", id, err)
	}
	return nil
}

// DeleteAll remove todas as tarefas com um BulkWriter, sem transação.
// Falhas individuais são reunidas num *PartialDeleteError.
func (s *TodoStore) DeleteAll(ctx context.Context) (int, error) {
	iter := s.collection().Documents(ctx)
	defer iter.Stop()
	bw := s.client.BulkWriter(ctx)

	next := func() (string, error) {
		doc, err := iter.Next()
		if err != nil {
			return "", err
		}
		return doc.Ref.ID, nil
	}
	enqueue := func(id string) (func() error, error) {
		job, err := bw.Delete(s.collection().Doc(id))
		if err != nil {
			return nil, err
		}
		return func() error {
			_, err := job.Results()
			return err
		}, nil
	}

	deleted, err := runBulkDelete(next, enqueue, bw.End)
	utilities.RecordTodoWrite("delete_all", err)
	if err != nil {
		return deleted, err
	}
	utilities.LogInfo("Todas as %d tarefas foram removidas de %s", deleted, s.path)
	return deleted, nil
}

// runBulkDelete enfileira a remoção de cada id devolvido por next até iterator.Done,
// descarrega a fila com flush e confere o resultado de cada remoção. Um erro de
// leitura no meio do caminho não descarta as remoções já enfileiradas: elas são
// executadas e contadas, e o erro vai em PartialDeleteError.Cause.
func runBulkDelete(next func() (string, error), enqueue func(id string) (func() error, error), flush func()) (int, error) {
	waits := make(map[string]func() error)
	failed := make(map[string]error)

	var iterErr error
	for {
		id, err := next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			iterErr = fmt.Errorf("erro ao iterar tarefas para remoção: %w", err)
			break
		}
		wait, err := enqueue(id)
		if err != nil {
			failed[id] = err
			continue
		}
		waits[id] = wait
	}
	flush()

	if iterErr != nil && len(waits) == 0 && len(failed) == 0 {
		return 0, iterErr
	}

	deleted := 0
	for id, wait := range waits {
		if err := wait(); err != nil {
			failed[id] = err
			continue
		}
		deleted++
	}

	if iterErr != nil || len(failed) > 0 {
		return deleted, &PartialDeleteError{Deleted: deleted, Failed: failed, Cause: iterErr}
	}
	return deleted, nil
}

// Snapshots abre o listener em tempo real da coleção.
func (s *TodoStore) Snapshots(ctx context.Context, collectionPath string) listsync.SnapshotIterator {
	return &snapshotIterator{it: s.client.Collection(collectionPath).Snapshots(ctx)}
}

type snapshotIterator struct {
	it *firestore.QuerySnapshotIterator
}

func (i *snapshotIterator) Next() ([]models.Todo, error) {
	snap, err := i.it.Next()
	if err != nil {
		return nil, err
	}
	docs, err := snap.Documents.GetAll()
	if err != nil {
		return nil, err
	}
	return docsToTodos(docs), nil
}

func (i *snapshotIterator) Stop() { i.it.Stop() }
