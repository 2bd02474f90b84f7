package search

import (
	"reflect"
	"testing"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "filters short words and stop words",
			query: "Qual é a política de férias?",
			want:  []string{"política", "férias"},
		},
		{
			name:  "lowercases and strips punctuation",
			query: "REEMBOLSO, viagem!",
			want:  []string{"reembolso", "viagem"},
		},
		{
			name:  "accented stop words are filtered",
			query: "também quando onde",
			want:  []string{},
		},
		{
			name:  "length threshold counts runes not bytes",
			query: "ação care",
			want:  []string{"ação", "care"},
		},
		{
			name:  "only short words yields empty",
			query: "o que é",
			want:  []string{},
		},
		{
			name:  "numbers are kept",
			query: "relatório 2024 vendas",
			want:  []string{"relatório", "2024", "vendas"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractKeywords(tt.query)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractKeywords(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}
