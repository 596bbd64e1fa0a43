package handlers

import (
	"encoding/json"
	"net/http"

	"modular-todo/utilities"
)

// AnonymousLoginHandler emite uma identidade anônima e registra o usuário localmente.
func (s *Server) AnonymousLoginHandler(w http.ResponseWriter, r *http.Request) {
	utilities.LogDebug("Iniciando login anônimo")

	identity, err := s.Identity.SignInAnonymously(r.Context())
	if err != nil {
		utilities.LogError(err, "Erro ao criar identidade anônima")
		writeError(w, http.StatusBadGateway, "Firebase Sign-In Failed")
		return
	}

	if _, err := s.Users.EnsureUser(r.Context(), identity.UID); err != nil {
		utilities.LogError(err, "Erro ao sincronizar usuário anônimo com o banco de dados local")
		writeError(w, http.StatusInternalServerError, "Erro interno do servidor ao processar usuário")
		return
	}

	utilities.LogInfo("Identidade anônima emitida: %s", identity.UID)
	writeJSON(w, http.StatusCreated, identity)
}

// LogoutHandler revoga os tokens e libera as assinaturas vivas do usuário.
func (s *Server) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUID(w, r)
	if !ok {
		return
	}

	if err := s.Identity.RevokeTokens(r.Context(), uid); err != nil {
		utilities.LogError(err, "Erro ao revogar tokens de "+uid)
		writeError(w, http.StatusInternalServerError, "Erro ao fazer logout")
		return
	}

	released := s.Subscriptions.ReleaseAll(uid)
	utilities.LogInfo("Logout de %s: %d assinaturas liberadas", uid, released)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":                "Logout efetuado com sucesso",
		"released_subscriptions": released,
	})
}

// UserHandler retorna as informações do usuário atual
func (s *Server) UserHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUID(w, r)
	if !ok {
		return
	}

	user, err := s.Users.EnsureUser(r.Context(), uid)
	if err != nil {
		utilities.LogError(err, "Erro ao buscar usuário")
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProHandler liga ou desliga o acesso pro (chave de teste da tela de configurações).
func (s *Server) UpdateProHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUID(w, r)
	if !ok {
		return
	}

	var input struct {
		IsPro *bool `json:"is_pro"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.IsPro == nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload: is_pro is required")
		return
	}
	defer r.Body.Close()

	user, err := s.Users.SetPro(r.Context(), uid, *input.IsPro)
	if err != nil {
		utilities.LogError(err, "Erro ao atualizar flag pro de "+uid)
		writeError(w, http.StatusInternalServerError, "Failed to update user")
		return
	}

	utilities.LogInfo("Usuário %s agora com is_pro=%t", uid, user.IsPro)
	writeJSON(w, http.StatusOK, user)
}
