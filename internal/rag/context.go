// Package rag turns ranked documents into the bounded context block and the
// final prompt sent to the language model.
package rag

import (
	"fmt"
	"strings"

	"github.com/Brunobgr08/chat-rag-ia/internal/models"
	"github.com/Brunobgr08/chat-rag-ia/pkg/utils"
)

// NoDocumentsSentinel is returned when no documents are available. The model
// (and tests) can distinguish it from real document content.
const NoDocumentsSentinel = "Não há documentos disponíveis para consulta."

// maxContentChars bounds how much of each document is rendered into the context.
const maxContentChars = 1000

// BuildContext renders the ranked documents into one bounded text block, in
// input order, each with a 1-based ordinal, its name, and its content truncated
// to 1000 characters. Duplicates are rendered as received; no deduplication.
func BuildContext(docs []models.RankedDocument) string {
	if len(docs) == 0 {
		return NoDocumentsSentinel
	}

	var b strings.Builder
	b.WriteString("Contexto dos documentos:\n\n")
	for i, rd := range docs {
		fmt.Fprintf(&b, "Documento %d: %s\n", i+1, rd.Document.Name)
		fmt.Fprintf(&b, "Conteúdo: %s\n\n", utils.Truncate(rd.Document.Content, maxContentChars))
	}
	return b.String()
}
