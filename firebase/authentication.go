package firebase

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"

	"modular-todo/models"
	"modular-todo/utilities"
)

// IdentityService emite e verifica identidades anônimas.
type IdentityService struct {
	client *auth.Client
}

func NewIdentityService(client *auth.Client) *IdentityService {
	return &IdentityService{client: client}
}

// SignInAnonymously cria um usuário sem provedor e devolve um custom token que o
// cliente troca por um ID token (signInWithCustomToken).
func (s *IdentityService) SignInAnonymously(ctx context.Context) (*models.AnonymousIdentity, error) {
	user, err := s.client.CreateUser(ctx, &auth.UserToCreate{})
	if err != nil {
		return nil, fmt.Errorf("erro ao criar usuário anônimo: %w", err)
	}

	token, err := s.client.CustomToken(ctx, user.UID)
	if err != nil {
		// Sem token o usuário recém-criado não serve para nada.
		if delErr := s.client.DeleteUser(ctx, user.UID); delErr != nil {
			utilities.LogError(delErr, "Falha ao remover usuário anônimo órfão "+user.UID)
		}
		return nil, fmt.Errorf("erro ao gerar custom token: %w", err)
	}

	utilities.LogInfo("Usuário anônimo criado com sucesso: UID = %s", user.UID)
	return &models.AnonymousIdentity{UID: user.UID, CustomToken: token}, nil
}

// VerifyUserToken valida o ID token (inclusive revogação) e devolve o UID.
func (s *IdentityService) VerifyUserToken(ctx context.Context, idToken string) (string, error) {
	token, err := s.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		return "", fmt.Errorf("erro ao verificar token: %w", err)
	}
	return token.UID, nil
}

// RevokeTokens revoga os refresh tokens do usuário.
func (s *IdentityService) RevokeTokens(ctx context.Context, uid string) error {
	if err := s.client.RevokeRefreshTokens(ctx, uid); err != nil {
		return fmt.Errorf("erro ao revogar tokens: %w", err)
	}
	utilities.LogInfo("Tokens revogados para UID: %s", uid)
	return nil
}
