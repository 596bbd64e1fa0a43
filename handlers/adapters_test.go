package handlers_test

import (
	"modular-todo/ai_services"
	"modular-todo/firebase"
	"modular-todo/handlers"
	"modular-todo/listsync"
	"modular-todo/models"
)

// As implementações usadas em main.go precisam satisfazer as interfaces do Server.
var (
	_ handlers.Identity    = (*firebase.IdentityService)(nil)
	_ handlers.TodoStore   = (*firebase.TodoStore)(nil)
	_ listsync.Source      = (*firebase.TodoStore)(nil)
	_ handlers.Users       = (*models.UserRepository)(nil)
	_ handlers.Breakdowner = (*ai_services.Breakdowner)(nil)
	_ handlers.AIHistory   = (*ai_services.HistoryLogger)(nil)
	_ ai_services.Sender   = (*ai_services.BackoffClient)(nil)
)
