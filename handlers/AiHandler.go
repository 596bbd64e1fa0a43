package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"modular-todo/ai_services"
	"modular-todo/models"
	"modular-todo/utilities"
)

const breakdownServiceType = "task_breakdown"

// BreakdownHandler pede à IA a decomposição de uma tarefa pendente em subtarefas.
// Rota: /todos/breakdown/{todo_id} (somente usuários pro)
func (s *Server) BreakdownHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	todoID := mux.Vars(r)["todo_id"]

	isPro, err := s.Users.IsPro(ctx, uid)
	if err != nil {
		utilities.LogError(err, "BreakdownHandler: Erro ao verificar plano do usuário "+uid)
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !isPro {
		writeError(w, http.StatusForbidden, "Upgrade to Pro to unlock AI task breakdown")
		return
	}

	todo, err := s.Todos.Get(ctx, todoID)
	if err != nil {
		writeStoreError(w, err, "BreakdownHandler: Erro ao buscar tarefa "+todoID)
		return
	}
	if todo.Completed {
		writeError(w, http.StatusConflict, "Tarefas concluídas não podem ser decompostas")
		return
	}

	utilities.LogInfo("BreakdownHandler: Usuário %s pediu decomposição da tarefa %s", uid, todoID)

	start := time.Now()
	breakdown, errAI := s.AI.Breakdown(ctx, todo.Text)
	duration := time.Since(start)

	if s.History != nil {
		s.History.LogAIInteraction(ctx, uid, todoID, breakdownServiceType,
			ai_services.BuildBreakdownRequest(todo.Text), breakdown, errAI, duration)
	}

	if errAI != nil {
		utilities.LogError(errAI, "BreakdownHandler: Falha na chamada à IA")
		// Tentativas esgotadas → 503; resposta vazia ou inválida → 502
		if errors.Is(errAI, ai_services.ErrExhaustedRetries) {
			writeError(w, http.StatusServiceUnavailable, "The AI service is busy. Please try again in a moment.")
			return
		}
		writeError(w, http.StatusBadGateway, "Failed to get breakdown from AI")
		return
	}

	writeJSON(w, http.StatusOK, models.BreakdownResponse{
		TodoID:    todoID,
		TaskText:  todo.Text,
		Breakdown: breakdown,
	})
}
