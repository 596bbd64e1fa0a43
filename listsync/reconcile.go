// Package listsync mantém a lista local de tarefas em sincronia com a coleção
// compartilhada: cada snapshot completo substitui a lista inteira, reordenada.
package listsync

import (
	"slices"
	"sort"

	"modular-todo/models"
)

// Reconcile devolve uma nova lista com os documentos do snapshot ordenados por
// createdAt decrescente. Tarefas sem timestamp contam como tempo zero e vão para o fim.
// A entrada não é modificada.
func Reconcile(docs []models.Todo) []models.Todo {
	out := slices.Clone(docs)
	if out == nil {
		out = []models.Todo{}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedMillis() > out[j].CreatedMillis()
	})
	return out
}

// Filter devolve a visão derivada da lista para o seletor. Não tem efeitos colaterais
// e preserva a ordem; FilterAll devolve a própria lista.
func Filter(todos []models.Todo, f models.Filter) []models.Todo {
	switch f {
	case models.FilterPending:
		return keep(todos, func(t models.Todo) bool { return !t.Completed })
	case models.FilterCompleted:
		return keep(todos, func(t models.Todo) bool { return t.Completed })
	default:
		return todos
	}
}

func keep(todos []models.Todo, pred func(models.Todo) bool) []models.Todo {
	out := make([]models.Todo, 0, len(todos))
	for _, t := range todos {
		if pred(t) {
			out = append(out, t)
		}
	}
	return out
}
