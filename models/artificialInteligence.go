package models

import (
	"time"
)

// Part, Content e os demais tipos seguem o formato JSON do generateContent.
type Part struct {
	Text string `json:"text"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// GenerateContentRequest é o corpo enviado para a API generativa
type GenerateContentRequest struct {
	Contents          []Content `json:"contents"`
	SystemInstruction *Content  `json:"systemInstruction,omitempty"`
}

type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

// GenerateContentResponse é o corpo devolvido pela API generativa
type GenerateContentResponse struct {
	Candidates []Candidate `json:"candidates"`
}

// FirstText devolve candidates[0].content.parts[0].text, ou "" se ausente.
func (r GenerateContentResponse) FirstText() string {
	if len(r.Candidates) == 0 || len(r.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	return r.Candidates[0].Content.Parts[0].Text
}

// BreakdownResponse é o que o backend devolve ao cliente
type BreakdownResponse struct {
	TodoID    string `json:"todo_id"`
	TaskText  string `json:"task_text"`
	Breakdown string `json:"breakdown"`
}

// AIRequestHistoryEntry representa um registro de requisição à IA no Firestore.
type AIRequestHistoryEntry struct {
	UserID         string        `firestore:"user_id"`
	TodoID         string        `firestore:"todo_id"`
	AIServiceType  string        `firestore:"ai_service_type"` // ex: "task_breakdown"
	Timestamp      interface{}   `firestore:"timestamp"`       // firestore.ServerTimestamp na escrita
	RequestToAI    interface{}   `firestore:"request_to_ai"`
	ResponseFromAI string        `firestore:"response_from_ai,omitempty"`
	AIError        string        `firestore:"ai_error,omitempty"`
	Duration       time.Duration `firestore:"duration_ns"`
}
