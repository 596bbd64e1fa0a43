package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"modular-todo/ai_services"
	"modular-todo/config"
	"modular-todo/database"
	"modular-todo/firebase"
	"modular-todo/handlers"
	"modular-todo/listsync"
	"modular-todo/models"
	"modular-todo/utilities"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Arquivo .env não encontrado, usando apenas variáveis de ambiente: %v", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Erro ao carregar configuração: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuração inválida: %v", err)
	}

	if err := utilities.InitLogger(cfg.LogLevel); err != nil {
		log.Fatalf("Erro ao inicializar logger: %v", err)
	}
	defer utilities.SyncLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		utilities.LogError(err, "Servidor encerrado com erro")
		utilities.SyncLogger()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	clients, err := firebase.InitializeFirebase(ctx, cfg.Firebase.CredentialsPath, cfg.Firebase.ProjectID)
	if err != nil {
		return err
	}
	defer clients.Close()

	db, err := database.ConnectPostgres(ctx, cfg.DB.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	users := models.NewUserRepository(db)
	if err := users.EnsureSchema(ctx); err != nil {
		return err
	}

	breakdowner, err := ai_services.NewBreakdowner(ai_services.NewBackoffClient(),
		cfg.Gemini.URL, cfg.Gemini.APIKey, cfg.Gemini.MaxAttempts)
	if err != nil {
		return err
	}

	history := ai_services.NewHistoryLogger(clients.Firestore, firebase.AIHistoryCollectionPath(cfg.Firebase.AppID))
	// Roda antes de clients.Close: gravações de histórico pendentes terminam primeiro.
	defer history.Wait()

	todos := firebase.NewTodoStore(clients.Firestore, firebase.TodosCollectionPath(cfg.Firebase.AppID))
	srv := &handlers.Server{
		Identity:      firebase.NewIdentityService(clients.Auth),
		Todos:         todos,
		Source:        todos,
		Users:         users,
		AI:            breakdowner,
		History:       history,
		Subscriptions: listsync.NewRegistry(),
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           LoadRoutes(srv, cfg.Server),
		ReadHeaderTimeout: 10 * time.Second,
		// Sem WriteTimeout: o stream SSE fica aberto indefinidamente.
		// Os streams terminam quando o sinal de encerramento cancela ctx.
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		utilities.LogInfo("Servidor iniciado na porta %s (coleção: %s)", cfg.Server.Port, todos.CollectionPath())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	utilities.LogInfo("Sinal de encerramento recebido, finalizando servidor")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
