package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"modular-todo/utilities"
)

type contextKey string

const userUIDKey contextKey = "userUID"

// WithUserUID devolve um contexto carregando o UID autenticado.
func WithUserUID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, userUIDKey, uid)
}

// UserUIDFromContext extrai o UID colocado pelo AuthMiddleware.
func UserUIDFromContext(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(userUIDKey).(string)
	return uid, ok && uid != ""
}

// bearerToken extrai o token do header Authorization
func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("header de autorização ausente")
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", errors.New("token não fornecido")
	}
	return token, nil
}

// AuthMiddleware verifica o ID token do Firebase e coloca o UID no contexto.
// Sem identidade estabelecida nenhuma operação sobre a lista é permitida.
func (s *Server) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			utilities.LogDebug("Autenticação falhou: %v", err)
			writeError(w, http.StatusUnauthorized, "Authorization header missing")
			return
		}

		uid, err := s.Identity.VerifyUserToken(r.Context(), token)
		if err != nil {
			utilities.LogError(err, "Token inválido")
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserUID(r.Context(), uid)))
	}
}

// requireUID é usado pelos handlers protegidos.
func requireUID(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid, ok := UserUIDFromContext(r.Context())
	if !ok {
		utilities.LogError(errors.New("UID não encontrado no contexto"), "Falha na autenticação")
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	}
	return uid, ok
}
