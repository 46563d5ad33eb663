package services

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/shiwutong/lostfound-backend/internal/dto"
)

const maxKeywords = 5

var tokenPattern = regexp.MustCompile(`[\p{Han}A-Za-z0-9]+`)

// stripFences removes a surrounding markdown code block such as ```json ... ```.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "[{") {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ParseKeywords turns a model reply into a keyword list. It tries, in order:
// fence stripping, a JSON string array, a JSON object with a "keywords"
// array, and finally token extraction over the cleaned text. The result is
// deduplicated and capped at five entries. It never fails; an unusable
// reply yields an empty list.
func ParseKeywords(raw string) []string {
	cleaned := stripFences(raw)

	var list []string
	if err := json.Unmarshal([]byte(cleaned), &list); err != nil {
		var obj struct {
			Keywords []string `json:"keywords"`
		}
		if err := json.Unmarshal([]byte(cleaned), &obj); err == nil && len(obj.Keywords) > 0 {
			list = obj.Keywords
		} else {
			list = tokenPattern.FindAllString(cleaned, -1)
		}
	}
	return normalizeKeywords(list)
}

func normalizeKeywords(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, maxKeywords)
	for _, k := range in {
		k = strings.TrimSpace(k)
		if k == "" || k == "json" || seen[strings.ToLower(k)] {
			continue
		}
		seen[strings.ToLower(k)] = true
		out = append(out, k)
		if len(out) == maxKeywords {
			break
		}
	}
	return out
}

type rawQuestion struct {
	ID               int      `json:"id"`
	Question         string   `json:"question"`
	ExpectedKeywords []string `json:"expectedKeywords"`
}

// ParseQuestions reads either {"questions": [...]} or a bare array. Entries
// without text are dropped and ids are renumbered from 1 when absent. A
// reply that cannot be read yields nil.
func ParseQuestions(raw string, keywords []string) []dto.Question {
	cleaned := stripFences(raw)

	var wrapped struct {
		Questions []rawQuestion `json:"questions"`
	}
	var list []rawQuestion
	if err := json.Unmarshal([]byte(cleaned), &wrapped); err == nil {
		list = wrapped.Questions
	} else if err := json.Unmarshal([]byte(cleaned), &list); err != nil {
		return nil
	}

	var out []dto.Question
	for _, q := range list {
		text := strings.TrimSpace(q.Question)
		if text == "" {
			continue
		}
		id := q.ID
		if id <= 0 {
			id = len(out) + 1
		}
		expected := normalizeKeywords(q.ExpectedKeywords)
		if len(expected) == 0 {
			expected = keywords
		}
		out = append(out, dto.Question{ID: id, Question: text, ExpectedKeywords: expected})
	}
	return out
}

// FallbackQuestions returns two generic ownership questions that split the
// extracted keywords between them.
func FallbackQuestions(keywords []string) []dto.Question {
	first, second := splitKeywords(keywords)
	return []dto.Question{
		{ID: 1, Question: "What colour is the item?", ExpectedKeywords: first},
		{ID: 2, Question: "Describe a distinguishing feature of the item.", ExpectedKeywords: second},
	}
}

func splitKeywords(keywords []string) ([]string, []string) {
	switch {
	case len(keywords) == 0:
		return []string{}, []string{}
	case len(keywords) == 1:
		return keywords, keywords
	}
	first := keywords[:min(2, len(keywords))]
	second := keywords[min(2, len(keywords)):min(4, len(keywords))]
	if len(second) == 0 {
		second = keywords[len(keywords)-1:]
	}
	return first, second
}

// ValidateAnswer accepts the answer when it contains any keyword or any
// keyword contains it, ignoring case. Empty answers and empty keywords never match.
func ValidateAnswer(answer string, keywords []string) bool {
	a := strings.ToLower(strings.TrimSpace(answer))
	if a == "" {
		return false
	}
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if strings.Contains(a, k) || strings.Contains(k, a) {
			return true
		}
	}
	return false
}

// parseYesNo reads a model's yes/no verdict.
func parseYesNo(raw string) bool {
	s := strings.ToLower(strings.TrimSpace(stripFences(raw)))
	s = strings.Trim(s, " .!。！\"'")
	switch s {
	case "yes", "true", "是", "y":
		return true
	}
	return strings.HasPrefix(s, "yes")
}
