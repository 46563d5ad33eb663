package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shiwutong/lostfound-backend/internal/config"
	"github.com/shiwutong/lostfound-backend/internal/dto"
	"github.com/shiwutong/lostfound-backend/internal/models"
	"github.com/shiwutong/lostfound-backend/internal/retry"
	"gorm.io/gorm"
)

const (
	aiRetryStep = time.Second

	AnswerCheckKeyword = "keyword"
	AnswerCheckModel   = "model"
)

// AIError describes a failed upstream call. It never carries the API key or
// the response body, only the status and the host that was called.
type AIError struct {
	Op         string
	StatusCode int
	Host       string
	Err        error
}

func (e *AIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("ai %s: %s returned status %d", e.Op, e.Host, e.StatusCode)
	}
	return fmt.Sprintf("ai %s: %s: %v", e.Op, e.Host, e.Err)
}

func (e *AIError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrAIService, e.Err}
	}
	return []error{ErrAIService}
}

// AIService talks to an OpenAI-compatible chat completions endpoint to
// extract keywords and build ownership questions for listings.
type AIService struct {
	db     *gorm.DB
	cfg    *config.Config
	client *http.Client
}

func NewAIService(db *gorm.DB, cfg *config.Config) *AIService {
	timeout := cfg.AITimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &AIService{
		db:     db,
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ExtractKeywords asks the model for 2-5 short identifying keywords. Only a
// failed call is an error; an odd reply is parsed as well as possible.
func (s *AIService) ExtractKeywords(ctx context.Context, description string) ([]string, error) {
	prompt := fmt.Sprintf(`Extract 2 to 5 core keywords from the item description below, for lost-and-found ownership checks.
Keywords should be short (one or two words) and name obvious features: brand, colour, shape, markings.
Reply with the keyword array only, no other text, formatted as ["keyword1","keyword2",...].

Item description: %s`, description)

	content, err := s.complete(ctx, "keywords",
		"You extract the distinguishing feature keywords from item descriptions.",
		prompt, 0.3, 100)
	if err != nil {
		return nil, err
	}

	keywords := ParseKeywords(content)
	slog.Debug("keywords extracted", "count", len(keywords))
	return keywords, nil
}

// GenerateQuestions extracts keywords from the description and then asks
// for exactly two verification questions built only from it. An unusable
// reply falls back to two generic questions over the keywords.
func (s *AIService) GenerateQuestions(ctx context.Context, title, description string) (*dto.QuestionSet, error) {
	keywords, err := s.ExtractKeywords(ctx, description)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Write exactly 2 verification questions for a lost-and-found ownership check, based strictly on the item description.
Rules:
1. Exactly 2 questions
2. Use only the description, not the title
3. expectedKeywords may only contain keywords that appear in the description, each at most three words
4. The questions must tell the real owner apart from anyone else
5. Never invent details that are not in the description
Return ONLY valid JSON: {"questions":[{"id":1,"question":"...","expectedKeywords":["..."]},{"id":2,"question":"...","expectedKeywords":["..."]}]}

Item description: %s`, description)

	content, err := s.complete(ctx, "questions",
		"You write secure ownership verification questions for lost-and-found items.",
		prompt, 0.3, 300)
	if err != nil {
		return nil, err
	}

	set := &dto.QuestionSet{Keywords: keywords, Questions: ParseQuestions(content, keywords)}
	if len(set.Questions) == 0 {
		slog.Warn("question reply unusable, using fallback questions", "title", title)
		set.Questions = FallbackQuestions(keywords)
		set.Fallback = true
	}
	return set, nil
}

// ValidateAnswerWithModel asks the model whether the answer mentions any keyword.
func (s *AIService) ValidateAnswerWithModel(ctx context.Context, answer string, keywords []string) (bool, error) {
	prompt := fmt.Sprintf(`Does the user's answer contain at least one of these keywords?
Keywords: %s
Answer: %s
Reply with only "yes" or "no".`, strings.Join(keywords, ", "), answer)

	content, err := s.complete(ctx, "validate",
		"You check whether an answer mentions given keywords.",
		prompt, 0.1, 10)
	if err != nil {
		return false, err
	}
	return parseYesNo(content), nil
}

// CheckAnswer validates an ownership answer and records the attempt. The
// keyword match is used unless AI_ANSWER_CHECK=model, and the model check
// falls back to it when the upstream call fails.
func (s *AIService) CheckAnswer(ctx context.Context, kind models.Kind, itemID uint, answer string, keywords []string) (bool, error) {
	answer = strings.TrimSpace(answer)
	var missing []string
	if answer == "" {
		missing = append(missing, "answer")
	}
	if keywords == nil {
		missing = append(missing, "keywords")
	}
	if len(missing) > 0 {
		return false, missingFields(missing...)
	}

	method := AnswerCheckKeyword
	valid := ValidateAnswer(answer, keywords)
	if s.cfg.AIAnswerCheck == AnswerCheckModel && len(keywords) > 0 {
		ok, err := s.ValidateAnswerWithModel(ctx, answer, keywords)
		if err != nil {
			slog.Warn("model answer check failed, using keyword match", "error", err)
		} else {
			method = AnswerCheckModel
			valid = ok
		}
	}

	entry := models.VerificationLog{
		ItemID:     itemID,
		ItemType:   kind,
		UserAnswer: answer,
		IsValid:    valid,
		Method:     method,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		// The verdict stands even if it cannot be recorded.
		slog.Error("failed to record verification attempt", "item_id", itemID, "item_type", string(kind), "error", err)
	}
	return valid, nil
}

// complete sends one chat completion and returns the assistant text,
// retrying timeouts and dropped connections.
func (s *AIService) complete(ctx context.Context, op, system, prompt string, temperature float64, maxTokens int) (string, error) {
	host := hostOf(s.cfg.AIAPIURL)
	if s.cfg.AIAPIKey == "" {
		return "", &AIError{Op: op, Host: host, Err: fmt.Errorf("API key not configured")}
	}

	reqBody, err := json.Marshal(chatRequest{
		Model: s.cfg.AIModel,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}

	var content string
	policy := retry.Policy{Attempts: s.cfg.AIRetryAttempts, Backoff: aiRetryStep, Name: "ai " + op}
	err = retry.Do(ctx, policy, retry.IsNetworkTransient, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.AIAPIURL, bytes.NewReader(reqBody))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.cfg.AIAPIKey)

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return &AIError{Op: op, Host: host, StatusCode: resp.StatusCode}
		}

		var chat chatResponse
		if err := json.Unmarshal(body, &chat); err != nil {
			return fmt.Errorf("malformed completion: %w", err)
		}
		if len(chat.Choices) == 0 {
			return fmt.Errorf("empty completion")
		}
		content = strings.TrimSpace(chat.Choices[0].Message.Content)
		return nil
	})
	if err != nil {
		if aiErr, ok := err.(*AIError); ok {
			return "", aiErr
		}
		// url.Error embeds the full request URL; keep only the host.
		if urlErr, ok := err.(*url.Error); ok {
			err = urlErr.Err
		}
		return "", &AIError{Op: op, Host: host, Err: err}
	}
	return content, nil
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "ai-provider"
	}
	return u.Host
}
