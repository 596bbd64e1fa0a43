package main

import (
	"net/http"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"modular-todo/config"
	"modular-todo/handlers"
	"modular-todo/utilities"
)

func LoadRoutes(srv *handlers.Server, cfg config.ServerConfig) http.Handler {
	r := mux.NewRouter()

	// Aplicar o middleware de logging global em todas as rotas
	r.Use(handlers.LoggingMiddleware)

	// --- Rotas públicas ---
	r.HandleFunc("/health", handlers.HealthHandler).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// --- Rotas de Autenticação ---
	r.HandleFunc("/auth/anonymous", srv.AnonymousLoginHandler).Methods("POST")
	r.HandleFunc("/auth/logout", srv.AuthMiddleware(srv.LogoutHandler)).Methods("POST")

	// --- Rotas de Usuário ---
	r.HandleFunc("/user/info", srv.AuthMiddleware(srv.UserHandler)).Methods("GET")
	r.HandleFunc("/user/pro", srv.AuthMiddleware(srv.UpdateProHandler)).Methods("PUT")

	// --- Rotas da lista compartilhada ---
	r.HandleFunc("/todos/create", srv.AuthMiddleware(srv.CreateTodoHandler)).Methods("POST")
	r.HandleFunc("/todos/list", srv.AuthMiddleware(srv.ListTodosHandler)).Methods("GET")
	r.HandleFunc("/todos/stream", srv.AuthMiddleware(srv.StreamTodosHandler)).Methods("GET")
	r.HandleFunc("/todos/info/{todo_id}", srv.AuthMiddleware(srv.GetTodoHandler)).Methods("GET")
	r.HandleFunc("/todos/update/{todo_id}", srv.AuthMiddleware(srv.UpdateTodoHandler)).Methods("PUT")
	r.HandleFunc("/todos/toggle/{todo_id}", srv.AuthMiddleware(srv.ToggleTodoHandler)).Methods("POST")
	r.HandleFunc("/todos/delete/{todo_id}", srv.AuthMiddleware(srv.DeleteTodoHandler)).Methods("DELETE")
	r.HandleFunc("/todos/delete-all", srv.AuthMiddleware(srv.DeleteAllTodosHandler)).Methods("DELETE")

	// --- Rotas de IA (somente pro) ---
	r.HandleFunc("/todos/breakdown/{todo_id}", srv.AuthMiddleware(srv.BreakdownHandler)).Methods("POST")

	// Configuração do CORS
	headers := gorillahandlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type", "Authorization", "X-Request-ID"})
	methods := gorillahandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})

	allowedOrigins := cfg.CORSAllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
		utilities.LogWarn("CORS_ALLOWED_ORIGINS não definida, permitindo todas as origens ('*'). Defina para maior segurança em produção.")
	}
	origins := gorillahandlers.AllowedOrigins(allowedOrigins)
	utilities.LogInfo("Configurando CORS com origens permitidas: %v", allowedOrigins)

	recovery := gorillahandlers.RecoveryHandler(gorillahandlers.PrintRecoveryStack(true))
	return recovery(gorillahandlers.CORS(headers, methods, origins)(r))
}
