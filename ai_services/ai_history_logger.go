package ai_services

import (
	"context"
	"sync"
	"time"

	"cloud.google.com/go/firestore"

	"modular-todo/models"
	"modular-todo/utilities"
)

// historyStore persiste um registro e devolve o ID gerado.
type historyStore interface {
	add(ctx context.Context, entry models.AIRequestHistoryEntry) (string, error)
}

type firestoreHistory struct {
	client         *firestore.Client
	collectionPath string
}

func (f firestoreHistory) add(ctx context.Context, entry models.AIRequestHistoryEntry) (string, error) {
	docRef, _, err := f.client.Collection(f.collectionPath).Add(ctx, entry)
	if err != nil {
		return "", err
	}
	return docRef.ID, nil
}

// HistoryLogger registra cada interação com a API de IA no Firestore, em segundo plano.
type HistoryLogger struct {
	store   historyStore
	pending sync.WaitGroup
}

// NewHistoryLogger grava em collectionPath (ex: artifacts/{appId}/public/data/ai_request_history).
func NewHistoryLogger(client *firestore.Client, collectionPath string) *HistoryLogger {
	return &HistoryLogger{store: firestoreHistory{client: client, collectionPath: collectionPath}}
}

// LogAIInteraction agenda a gravação do registro e retorna sem esperar por ela.
// Falhas são apenas logadas e não afetam o fluxo principal.
func (h *HistoryLogger) LogAIInteraction(
	ctx context.Context,
	userID string,
	todoID string,
	serviceType string,
	requestToAI interface{},
	responseFromAI string,
	aiCallError error,
	duration time.Duration,
) {
	entry := models.AIRequestHistoryEntry{
		UserID:         userID,
		TodoID:         todoID,
		AIServiceType:  serviceType,
		Timestamp:      firestore.ServerTimestamp,
		RequestToAI:    requestToAI,
		ResponseFromAI: responseFromAI,
		Duration:       duration,
	}
	if aiCallError != nil {
		entry.AIError = aiCallError.Error()
	}

	// O histórico não pode depender do cancelamento da requisição original.
	ctx = context.WithoutCancel(ctx)
	h.pending.Add(1)
	go func() {
		defer h.pending.Done()
		id, err := h.store.add(ctx, entry)
		if err != nil {
			utilities.LogError(err, "LogAIInteraction: Falha ao salvar histórico de IA para o usuário "+userID)
			return
		}
		utilities.LogDebug("LogAIInteraction: Histórico de IA salvo com ID %s (tarefa %s)", id, todoID)
	}()
}

// Wait bloqueia até que todas as gravações agendadas terminem.
// Deve ser chamado antes de fechar o cliente do Firestore.
func (h *HistoryLogger) Wait() {
	h.pending.Wait()
}
