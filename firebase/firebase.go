package firebase

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"modular-todo/utilities"
)

// Clients reúne os clientes do Firebase criados uma única vez na inicialização.
type Clients struct {
	App       *firebase.App
	Auth      *auth.Client
	Firestore *firestore.Client
}

// InitializeFirebase cria o app e os clientes de Auth e Firestore.
// projectID vazio usa o projeto das credenciais.
func InitializeFirebase(ctx context.Context, credentialsPath, projectID string) (*Clients, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("caminho das credenciais do Firebase não definido")
	}
	opt := option.WithCredentialsFile(credentialsPath)

	var cfg *firebase.Config
	if projectID != "" {
		cfg = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, cfg, opt)
	if err != nil {
		return nil, fmt.Errorf("erro ao inicializar Firebase: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("erro ao obter cliente de Auth: %w", err)
	}

	firestoreClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("erro ao obter cliente do Firestore: %w", err)
	}

	utilities.LogInfo("Firebase inicializado com sucesso!")
	return &Clients{App: app, Auth: authClient, Firestore: firestoreClient}, nil
}

// Close libera a conexão do Firestore.
func (c *Clients) Close() error {
	if c == nil || c.Firestore == nil {
		return nil
	}
	return c.Firestore.Close()
}
