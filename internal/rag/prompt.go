package rag

import "fmt"

// promptTemplate fixes the order of the prompt blocks: system prompt, context,
// labeled user question, response instructions.
const promptTemplate = `%s

%s

Pergunta do usuário: %s

Instruções:
- Baseie sua resposta principalmente no contexto fornecido
- Se a informação não estiver no contexto, indique isso claramente
- Mantenha a resposta precisa e útil
- Use markdown para formatação quando apropriado

Resposta:`

// BuildPrompt merges the configured system prompt, the context block, and the
// user query into the instruction blob sent as the system-role content. The
// raw query is still sent separately as the user-role content.
func BuildPrompt(query, context, systemPrompt string) string {
	return fmt.Sprintf(promptTemplate, systemPrompt, context, query)
}
