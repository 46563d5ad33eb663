package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseKeywords(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"json array", `["黑色", "钱包"]`, []string{"黑色", "钱包"}},
		{"fenced", "```json\n[\"red\",\"umbrella\"]\n```", []string{"red", "umbrella"}},
		{"object", `{"keywords": ["blue", "bottle"]}`, []string{"blue", "bottle"}},
		{"unquoted array", `[黑色,钱包,LV]`, []string{"黑色", "钱包", "LV"}},
		{"prose", "Keywords: silver, watch.", []string{"Keywords", "silver", "watch"}},
		{"capped and deduped", `["a","b","A","c","d","e","f"]`, []string{"a", "b", "c", "d", "e"}},
		{"empty", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseKeywords(tt.raw))
		})
	}
}

func TestParseQuestions(t *testing.T) {
	qs := ParseQuestions("```\n[{\"question\":\"Colour?\"},{\"question\":\"  \"},{\"id\":5,\"question\":\"Brand?\",\"expectedKeywords\":[\"nike\"]}]\n```", []string{"red"})
	assert.Len(t, qs, 2)
	assert.Equal(t, 1, qs[0].ID)
	assert.Equal(t, []string{"red"}, qs[0].ExpectedKeywords)
	assert.Equal(t, 5, qs[1].ID)
	assert.Equal(t, []string{"nike"}, qs[1].ExpectedKeywords)

	assert.Empty(t, ParseQuestions("not json", nil))
	assert.Empty(t, ParseQuestions(`{"questions": []}`, nil))
}

func TestFallbackQuestions(t *testing.T) {
	qs := FallbackQuestions([]string{"a", "b", "c", "d", "e"})
	assert.Len(t, qs, 2)
	assert.Equal(t, []string{"a", "b"}, qs[0].ExpectedKeywords)
	assert.Equal(t, []string{"c", "d"}, qs[1].ExpectedKeywords)

	qs = FallbackQuestions([]string{"solo"})
	assert.Equal(t, []string{"solo"}, qs[1].ExpectedKeywords)

	qs = FallbackQuestions(nil)
	assert.Len(t, qs, 2)
	assert.NotEmpty(t, qs[0].Question)
}

func TestValidateAnswer(t *testing.T) {
	assert.True(t, ValidateAnswer("It is a BLACK wallet", []string{"black"}))
	assert.True(t, ValidateAnswer("wal", []string{"wallet"}))
	assert.False(t, ValidateAnswer("red", []string{"black", "wallet"}))
	assert.False(t, ValidateAnswer("", []string{"black"}))
	assert.False(t, ValidateAnswer("black", []string{" "}))
	assert.False(t, ValidateAnswer("black", nil))
}

func TestParseYesNo(t *testing.T) {
	assert.True(t, parseYesNo("Yes."))
	assert.True(t, parseYesNo("是"))
	assert.False(t, parseYesNo("no"))
	assert.False(t, parseYesNo("否"))
}
