package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/gorilla/mux"

	"modular-todo/firebase"
	"modular-todo/listsync"
	"modular-todo/models"
	"modular-todo/utilities"
)

// writeStoreError traduz os erros do store para a mensagem inline.
func writeStoreError(w http.ResponseWriter, err error, context string) {
	switch {
	case errors.Is(err, models.ErrEmptyText):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrTodoNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		utilities.LogError(err, context)
		writeError(w, http.StatusInternalServerError, "Falha ao acessar a lista de tarefas")
	}
}

// CreateTodoHandler cria uma nova tarefa na lista compartilhada.
// Texto vazio ou só com espaços é rejeitado sem chamar o Firestore.
func (s *Server) CreateTodoHandler(w http.ResponseWriter, r *http.Request) {
	var input models.CreateTodoInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utilities.LogDebug("Erro ao decodificar JSON da tarefa: %v", err)
		writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}
	defer r.Body.Close()

	text, err := models.NormalizeText(input.Text)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.Todos.Create(r.Context(), text)
	if err != nil {
		writeStoreError(w, err, "Erro ao criar tarefa")
		return
	}

	utilities.LogInfo("Tarefa criada com sucesso: %s (ID: %s)", text, id)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// ListTodosHandler faz uma leitura única da lista, filtrada por ?filter=all|pending|completed.
func (s *Server) ListTodosHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := models.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	todos, err := s.Todos.List(r.Context())
	if err != nil {
		writeStoreError(w, err, "Erro ao listar tarefas")
		return
	}

	visible := listsync.Filter(todos, filter)
	utilities.LogDebug("Tarefas listadas - filtro: %s, total: %d", filter, len(visible))
	writeJSON(w, http.StatusOK, visible)
}

// GetTodoHandler devolve uma tarefa
func (s *Server) GetTodoHandler(w http.ResponseWriter, r *http.Request) {
	todo, err := s.Todos.Get(r.Context(), mux.Vars(r)["todo_id"])
	if err != nil {
		writeStoreError(w, err, "Erro ao buscar tarefa")
		return
	}
	writeJSON(w, http.StatusOK, todo)
}

// UpdateTodoHandler atualiza texto e/ou status de uma tarefa
func (s *Server) UpdateTodoHandler(w http.ResponseWriter, r *http.Request) {
	todoID := mux.Vars(r)["todo_id"]

	var input models.UpdateTodoInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}
	defer r.Body.Close()

	if input.Text == nil && input.Completed == nil {
		writeError(w, http.StatusBadRequest, "Nada para atualizar")
		return
	}
	if input.Text != nil {
		if _, err := models.NormalizeText(*input.Text); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if err := s.Todos.Update(r.Context(), todoID, input); err != nil {
		writeStoreError(w, err, "Erro ao atualizar tarefa "+todoID)
		return
	}

	utilities.LogInfo("Tarefa atualizada com sucesso: %s", todoID)
	w.WriteHeader(http.StatusNoContent)
}

// ToggleTodoHandler alterna entre pendente e concluída
func (s *Server) ToggleTodoHandler(w http.ResponseWriter, r *http.Request) {
	todoID := mux.Vars(r)["todo_id"]

	completed, err := s.Todos.Toggle(r.Context(), todoID)
	if err != nil {
		writeStoreError(w, err, "Erro ao alternar tarefa "+todoID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": todoID, "completed": completed})
}

// DeleteTodoHandler remove uma tarefa
func (s *Server) DeleteTodoHandler(w http.ResponseWriter, r *http.Request) {
	todoID := mux.Vars(r)["todo_id"]

	if err := s.Todos.Delete(r.Context(), todoID); err != nil {
		writeStoreError(w, err, "Erro ao excluir tarefa "+todoID)
		return
	}

	utilities.LogInfo("Tarefa excluída com sucesso: %s", todoID)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAllTodosHandler remove todas as tarefas compartilhadas. Exige ?confirm=true.
// Falhas parciais são reportadas (207) sem desfazer o que já foi removido.
func (s *Server) DeleteAllTodosHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		writeError(w, http.StatusPreconditionRequired,
			"Are you sure you want to delete ALL tasks? This action cannot be undone. Repeat with ?confirm=true")
		return
	}

	uid, _ := UserUIDFromContext(r.Context())
	deleted, err := s.Todos.DeleteAll(r.Context())

	var partial *firebase.PartialDeleteError
	switch {
	case errors.As(err, &partial):
		failed := make([]string, 0, len(partial.Failed))
		for id := range partial.Failed {
			failed = append(failed, id)
		}
		sort.Strings(failed)
		utilities.LogError(err, "Remoção parcial de todas as tarefas solicitada por "+uid)
		writeJSON(w, http.StatusMultiStatus, map[string]interface{}{
			"deleted":     partial.Deleted,
			"failed":      failed,
			"interrupted": partial.Cause != nil,
			"error":       "Failed to delete all tasks",
		})
	case err != nil:
		writeStoreError(w, err, "Erro ao remover todas as tarefas")
	default:
		utilities.LogInfo("Todas as tarefas removidas por %s (%d)", uid, deleted)
		writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": deleted})
	}
}
