package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"modular-todo/listsync"
	"modular-todo/models"
	"modular-todo/utilities"
)

const defaultStreamKeepAlive = 25 * time.Second

// StreamTodosHandler mantém a lista viva via Server-Sent Events. Cada snapshot da
// coleção substitui a lista inteira no cliente; ?filter= só muda o que é enviado.
func (s *Server) StreamTodosHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUID(w, r)
	if !ok {
		return
	}

	filter, err := models.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming não suportado")
		return
	}

	// Só a última lista e o último erro interessam; valores antigos são descartados.
	snapshots := make(chan []models.Todo, 1)
	failures := make(chan error, 1)

	view := listsync.NewView(s.Source)
	sub, err := view.Subscribe(r.Context(), s.Todos.CollectionPath(),
		func(todos []models.Todo) { offerLatest(snapshots, todos) },
		func(err error) { offerLatest(failures, err) },
	)
	if err != nil {
		utilities.LogError(err, "Erro ao assinar a lista de tarefas")
		writeError(w, http.StatusInternalServerError, "Falha ao assinar a lista de tarefas")
		return
	}
	untrack := s.Subscriptions.Track(uid, sub)
	defer func() {
		untrack()
		sub.Unsubscribe()
		<-sub.Done()
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := s.StreamKeepAlive
	if keepAlive <= 0 {
		keepAlive = defaultStreamKeepAlive
	}
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	utilities.LogInfo("Stream de tarefas aberto para %s (filtro: %s)", uid, filter)

	for {
		select {
		case <-r.Context().Done():
			utilities.LogDebug("Stream de tarefas encerrado pelo cliente %s", uid)
			return
		case <-sub.Done():
			utilities.LogInfo("Assinatura de %s liberada, encerrando stream", uid)
			return
		case todos := <-snapshots:
			if err := writeEvent(w, "snapshot", listsync.Filter(todos, filter)); err != nil {
				utilities.LogDebug("Falha ao escrever snapshot para %s: %v", uid, err)
				return
			}
		case streamErr := <-failures:
			if err := writeEvent(w, "error", map[string]string{"error": streamErr.Error()}); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		}
		flusher.Flush()
	}
}

// offerLatest deixa no canal apenas o valor mais recente, sem bloquear o remetente.
func offerLatest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
