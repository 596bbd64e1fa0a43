package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEmptyText é retornado quando o texto da tarefa fica vazio depois do trim.
var ErrEmptyText = errors.New("o texto da tarefa é obrigatório")

// ErrInvalidFilter é retornado para um seletor de filtro desconhecido.
var ErrInvalidFilter = errors.New("filtro inválido")

// ErrTodoNotFound é retornado quando a tarefa não existe na coleção.
var ErrTodoNotFound = errors.New("tarefa não encontrada")

// Todo representa uma tarefa da lista compartilhada no Firestore.
// CreatedAt fica nil enquanto o servidor não atribuiu o timestamp.
type Todo struct {
	ID        string     `json:"id" firestore:"-"`
	Text      string     `json:"text" firestore:"text"`
	Completed bool       `json:"completed" firestore:"completed"`
	CreatedAt *time.Time `json:"createdAt,omitempty" firestore:"createdAt"`
}

// CreatedMillis devolve o timestamp em milissegundos; sem timestamp conta como zero.
func (t Todo) CreatedMillis() int64 {
	if t.CreatedAt == nil {
		return 0
	}
	return t.CreatedAt.UnixMilli()
}

type CreateTodoInput struct {
	Text string `json:"text"`
}

// UpdateTodoInput usa ponteiros para indicar quais campos atualizar
type UpdateTodoInput struct {
	Text      *string `json:"text"`
	Completed *bool   `json:"completed"`
}

// NormalizeText aplica o trim e valida o texto de uma tarefa.
func NormalizeText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrEmptyText
	}
	return trimmed, nil
}

// Filter é o seletor de três estados da lista visível.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterPending   Filter = "pending"
	FilterCompleted Filter = "completed"
)

// ParseFilter converte o parâmetro de query em Filter; vazio equivale a "all".
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterPending, FilterCompleted:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFilter, s)
	}
}
