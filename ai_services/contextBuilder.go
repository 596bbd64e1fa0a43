package ai_services

import (
	"fmt"

	"modular-todo/models"
)

// Instrução de sistema do "mestre de obras" que decompõe a tarefa.
const breakdownSystemPrompt = "You are an Industrial Project Foreman. Your goal is to take a single, complex task and break it down into 3 to 5 actionable, thematic, and specific sub-tasks. Present the output as a simple, numbered list. Do not include any introductory or concluding text, only the list items."

// BuildBreakdownQuery monta a pergunta do usuário para uma tarefa.
func BuildBreakdownQuery(taskText string) string {
	return fmt.Sprintf("Break down this complex industrial task: \"%s\"", taskText)
}

// BuildBreakdownRequest monta o corpo do generateContent com a instrução de sistema
// e a pergunta do usuário.
func BuildBreakdownRequest(taskText string) models.GenerateContentRequest {
	return models.GenerateContentRequest{
		Contents: []models.Content{
			{Parts: []models.Part{{Text: BuildBreakdownQuery(taskText)}}},
		},
		SystemInstruction: &models.Content{
			Parts: []models.Part{{Text: breakdownSystemPrompt}},
		},
	}
}
