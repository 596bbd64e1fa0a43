package ai_services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"modular-todo/utilities"
)

const (
	// DefaultMaxAttempts é o número de tentativas quando o chamador não informa outro.
	DefaultMaxAttempts = 5
	// DefaultInitialDelay é a espera antes da primeira nova tentativa; dobra a cada falha.
	DefaultInitialDelay = 1000 * time.Millisecond

	aiApiTimeout = 30 * time.Second
	// Limite do trecho do corpo guardado em StatusError
	maxErrorBodyBytes = 2048
)

// ErrRateLimited indica que a API respondeu 429.
var ErrRateLimited = errors.New("API de IA limitou a taxa de requisições (429)")

// ErrExhaustedRetries indica que todas as tentativas foram consumidas.
var ErrExhaustedRetries = errors.New("tentativas esgotadas")

// StatusError é uma resposta não-2xx (diferente de 429) da API de IA.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API de IA retornou status %d: %s", e.StatusCode, e.Body)
}

// ExhaustedError é devolvido quando maxAttempts tentativas falharam.
// Last é a causa da última tentativa (ErrRateLimited, *StatusError ou erro de rede).
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%v após %d tentativas: %v", ErrExhaustedRetries, e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

func (e *ExhaustedError) Is(target error) bool { return target == ErrExhaustedRetries }

// Doer é o subconjunto de *http.Client usado pelo BackoffClient.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Sleeper espera d ou até o contexto terminar.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// BackoffClient faz POST de JSON e repete em falhas transitórias com backoff exponencial.
// Todo o estado de uma chamada (tentativa, espera) é local a Send.
type BackoffClient struct {
	HTTP         Doer
	Sleep        Sleeper
	InitialDelay time.Duration
	Header       http.Header
}

// NewBackoffClient cria o cliente com timeout e espera padrão.
func NewBackoffClient() *BackoffClient {
	return &BackoffClient{
		HTTP:         &http.Client{Timeout: aiApiTimeout},
		Sleep:        sleepContext,
		InitialDelay: DefaultInitialDelay,
	}
}

// Send envia requestPayload como JSON para endpoint e decodifica a resposta 2xx em target.
// maxAttempts <= 0 usa DefaultMaxAttempts.
//
// 429 e falhas transitórias (erro de rede ou status não-2xx) consomem uma tentativa e,
// se ainda restar alguma, esperam a espera atual antes de dobrá-la. Falha ao decodificar
// uma resposta 2xx não é repetida.
func (c *BackoffClient) Send(ctx context.Context, endpoint string, requestPayload, target interface{}, maxAttempts int) error {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	sleep := c.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	delay := c.InitialDelay
	if delay <= 0 {
		delay = DefaultInitialDelay
	}

	jsonData, err := json.Marshal(requestPayload)
	if err != nil {
		return fmt.Errorf("erro ao preparar dados para API de IA: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		body, err := c.attempt(ctx, endpoint, jsonData)
		if err == nil {
			if target == nil {
				return nil
			}
			if err := json.Unmarshal(body, target); err != nil {
				return fmt.Errorf("erro ao processar resposta de sucesso da API de IA: %w", err)
			}
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("chamada à API de IA cancelada: %w", ctx.Err())
		}

		lastErr = err
		if attempt == maxAttempts {
			break
		}
		utilities.LogWarn("API de IA: tentativa %d/%d falhou (%v); nova tentativa em %v", attempt, maxAttempts, err, delay)
		if err := sleep(ctx, delay); err != nil {
			return fmt.Errorf("espera de backoff interrompida: %w", err)
		}
		delay *= 2
	}

	return &ExhaustedError{Attempts: maxAttempts, Last: lastErr}
}

// attempt faz uma única requisição e devolve o corpo em caso de 2xx.
func (c *BackoffClient) attempt(ctx context.Context, endpoint string, jsonData []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("erro ao criar requisição para API de IA: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range c.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		utilities.RecordAICall("network_error", time.Since(start))
		return nil, fmt.Errorf("erro ao comunicar com API de IA: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		utilities.RecordAICall("network_error", time.Since(start))
		return nil, fmt.Errorf("erro ao ler resposta da API de IA: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		utilities.RecordAICall("rate_limited", time.Since(start))
		return nil, ErrRateLimited
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		utilities.RecordAICall("http_error", time.Since(start))
		if len(bodyBytes) > maxErrorBodyBytes {
			bodyBytes = bodyBytes[:maxErrorBodyBytes]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	utilities.RecordAICall("success", time.Since(start))
	return bodyBytes, nil
}
