package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSQL(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bare sql", "SELECT * FROM doctors", "SELECT * FROM doctors"},
		{"trailing semicolon", "SELECT * FROM doctors;", "SELECT * FROM doctors"},
		{"sql fence", "```sql\nSELECT * FROM doctors\n```", "SELECT * FROM doctors"},
		{"plain fence", "```\nSELECT * FROM doctors;\n```", "SELECT * FROM doctors"},
		{"fence with chatter", "Here is the query:\n```sql\nSELECT 1\n```\nHope that helps!", "SELECT 1"},
		{"surrounding whitespace", "  \n SELECT 1 \n ", "SELECT 1"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractSQL(tt.content))
		})
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"object with chatter", `Sure! {"a": 1} as requested.`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"array", `[1, 2]`, `[1, 2]`},
		{"no json", "I could not extract anything.", ""},
		{"unterminated object", `{"a": `, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.content))
		})
	}
}

func TestExtractLabel(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bare label", "book", "book"},
		{"uppercase", "BOOK", "book"},
		{"quoted", `"cancel"`, "cancel"},
		{"label with explanation", "search\nThe user is looking for doctors.", "search"},
		{"trailing period", "reschedule.", "reschedule"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractLabel(tt.content))
		})
	}
}
