package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"modular-todo/listsync"
	"modular-todo/models"
	"modular-todo/utilities"
)

// Identity emite e verifica identidades anônimas.
type Identity interface {
	SignInAnonymously(ctx context.Context) (*models.AnonymousIdentity, error)
	VerifyUserToken(ctx context.Context, idToken string) (string, error)
	RevokeTokens(ctx context.Context, uid string) error
}

// TodoStore é o lado de escrita (e leitura única) da coleção compartilhada.
type TodoStore interface {
	CollectionPath() string
	Create(ctx context.Context, text string) (string, error)
	Get(ctx context.Context, id string) (*models.Todo, error)
	List(ctx context.Context) ([]models.Todo, error)
	Update(ctx context.Context, id string, input models.UpdateTodoInput) error
	Toggle(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int, error)
}

// Users guarda o registro local e o flag pro de cada identidade.
type Users interface {
	EnsureUser(ctx context.Context, uid string) (*models.Usuario, error)
	IsPro(ctx context.Context, uid string) (bool, error)
	SetPro(ctx context.Context, uid string, isPro bool) (*models.Usuario, error)
}

// Breakdowner decompõe uma tarefa em subtarefas.
type Breakdowner interface {
	Breakdown(ctx context.Context, taskText string) (string, error)
}

// AIHistory registra as chamadas feitas à IA.
type AIHistory interface {
	LogAIInteraction(ctx context.Context, userID, todoID, serviceType string, requestToAI interface{}, responseFromAI string, aiCallError error, duration time.Duration)
}

// Server reúne as dependências dos handlers; é montado uma vez em main.
type Server struct {
	Identity      Identity
	Todos         TodoStore
	Source        listsync.Source
	Users         Users
	AI            Breakdowner
	History       AIHistory
	Subscriptions *listsync.Registry

	// Intervalo dos comentários keep-alive do stream SSE
	StreamKeepAlive time.Duration
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utilities.LogError(err, "Erro ao codificar resposta JSON")
	}
}

// writeError devolve a mensagem inline {"error": "..."} exibida ao usuário.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// HealthHandler responde ao liveness check
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
