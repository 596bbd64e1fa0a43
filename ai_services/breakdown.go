package ai_services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"modular-todo/models"
	"modular-todo/utilities"
)

// ErrNoContent indica que o modelo respondeu sem texto.
var ErrNoContent = errors.New("a IA não retornou conteúdo para esta tarefa")

// Sender é o contrato do BackoffClient usado pelo Breakdowner.
type Sender interface {
	Send(ctx context.Context, endpoint string, requestPayload, target interface{}, maxAttempts int) error
}

// Breakdowner decompõe uma tarefa em subtarefas usando a API generativa.
type Breakdowner struct {
	client      Sender
	endpoint    string
	maxAttempts int
}

// NewBreakdowner monta o endpoint "<apiURL>?key=<apiKey>".
func NewBreakdowner(client Sender, apiURL, apiKey string, maxAttempts int) (*Breakdowner, error) {
	u, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("URL da API de IA inválida: %w", err)
	}
	if apiKey != "" {
		q := u.Query()
		q.Set("key", apiKey)
		u.RawQuery = q.Encode()
	}
	return &Breakdowner{client: client, endpoint: u.String(), maxAttempts: maxAttempts}, nil
}

// Breakdown devolve a lista numerada de subtarefas gerada para taskText.
func (b *Breakdowner) Breakdown(ctx context.Context, taskText string) (string, error) {
	payload := BuildBreakdownRequest(taskText)

	var resp models.GenerateContentResponse
	if err := b.client.Send(ctx, b.endpoint, payload, &resp, b.maxAttempts); err != nil {
		return "", err
	}

	text := strings.TrimSpace(resp.FirstText())
	if text == "" {
		return "", ErrNoContent
	}
	utilities.LogDebug("Breakdown: %d caracteres gerados para a tarefa %q", len(text), taskText)
	return text, nil
}
