package gemini

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ThePeeKayy/resumate-orbital/internal/ai"
	"github.com/ThePeeKayy/resumate-orbital/internal/logger"
	"github.com/ThePeeKayy/resumate-orbital/internal/models"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

//go:embed prompts/questions.md
var questionsPrompt string

//go:embed prompts/feedback.md
var feedbackPrompt string

//go:embed prompts/tags.md
var tagsPrompt string

//go:embed prompts/enhance.md
var enhancePrompt string

const systemInstruction = "You are an experienced interview coach helping a candidate prepare for job interviews. " +
	"Base everything you produce on the candidate's actual profile. When a response format is requested, follow it exactly."

const defaultMaxLogLength = 200

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}

// Assistant implements ai.Assistant against a Gemini content generator.
type Assistant struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewAssistant(generator contentGenerator, maxLogLength int, log *zap.Logger) *Assistant {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Assistant{
		generator: generator,
		logger:    log,
		maxLogLen: maxLogLength,
	}
}

func (a *Assistant) GenerateQuestions(ctx context.Context, profile *models.UserProfile, categories []models.QuestionCategory, count int, job *models.Job) ([]ai.QuestionDraft, error) {
	if profile == nil {
		return nil, fmt.Errorf("profile is required")
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("at least one category is required")
	}

	profileJSON, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal profile payload: %w", err)
	}

	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, string(c))
	}

	prompt := render(questionsPrompt, map[string]string{
		"{{PROFILE_JSON}}": string(profileJSON),
		"{{CATEGORIES}}":   strings.Join(names, ", "),
		"{{COUNT}}":        strconv.Itoa(count),
		"{{JOB_CONTEXT}}":  jobContext(job),
	})

	raw, err := a.generate(ctx, "questions", prompt)
	if err != nil {
		return nil, err
	}

	drafts, err := parseQuestionDrafts(raw)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("generated question drafts",
		zap.Int("count", len(drafts)),
		zap.Int("requested", count),
	)

	return drafts, nil
}

func (a *Assistant) AnswerFeedback(ctx context.Context, questionText, answerText string, profile *models.UserProfile, job *models.Job) (string, error) {
	profileJSON, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal profile payload: %w", err)
	}

	prompt := render(feedbackPrompt, map[string]string{
		"{{QUESTION}}":     questionText,
		"{{ANSWER}}":       answerText,
		"{{PROFILE_JSON}}": string(profileJSON),
		"{{JOB_CONTEXT}}":  jobContext(job),
	})

	return a.generate(ctx, "feedback", prompt)
}

func (a *Assistant) SuggestTags(ctx context.Context, questionText, answerText string, job *models.Job) ([]string, error) {
	prompt := render(tagsPrompt, map[string]string{
		"{{QUESTION}}":    questionText,
		"{{ANSWER}}":      answerText,
		"{{JOB_CONTEXT}}": jobContext(job),
	})

	raw, err := a.generate(ctx, "tags", prompt)
	if err != nil {
		return nil, err
	}

	return parseTags(raw)
}

func (a *Assistant) EnhanceText(ctx context.Context, section, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("text to enhance must not be empty")
	}

	prompt := render(enhancePrompt, map[string]string{
		"{{SECTION}}": section,
		"{{TEXT}}":    text,
	})

	return a.generate(ctx, "enhance", prompt)
}

func (a *Assistant) generate(ctx context.Context, operation, prompt string) (string, error) {
	a.logger.Debug("gemini request",
		zap.String("operation", operation),
		zap.String("model", a.generator.Model()),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, a.maxLogLen)),
	)

	raw, err := a.generator.GenerateContent(ctx, systemInstruction, prompt)
	if err != nil {
		return "", fmt.Errorf("%s: %w", operation, err)
	}

	a.logger.Debug("gemini response",
		zap.String("operation", operation),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, a.maxLogLen)),
	)

	return strings.TrimSpace(raw), nil
}

func render(template string, replacements map[string]string) string {
	prompt := template
	for token, value := range replacements {
		prompt = strings.ReplaceAll(prompt, token, value)
	}
	return prompt
}

func jobContext(job *models.Job) string {
	if job == nil {
		return "none (general interview preparation)"
	}

	payload := map[string]string{
		"title":       job.Title,
		"company":     job.Company,
		"description": job.Description,
	}

	jobJSON, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "none (general interview preparation)"
	}
	return string(jobJSON)
}

// parseQuestionDrafts turns the model's loosely-shaped JSON into
// drafts. Accepts a bare array or an object with a "questions" field;
// items missing text or category survive as zero-valued drafts for the
// workflow to default.
func parseQuestionDrafts(raw string) ([]ai.QuestionDraft, error) {
	cleaned := extractJSON(raw)

	var parsed any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("parse questions response: %w", err)
	}

	items, ok := parsed.([]any)
	if !ok {
		obj, isObj := parsed.(map[string]any)
		if !isObj {
			return nil, fmt.Errorf("questions response is not a sequence")
		}
		items, ok = obj["questions"].([]any)
		if !ok {
			return nil, fmt.Errorf("questions response is not a sequence")
		}
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("questions response is empty")
	}

	var drafts []ai.QuestionDraft
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &drafts,
	})
	if err != nil {
		return nil, fmt.Errorf("build draft decoder: %w", err)
	}

	if err := decoder.Decode(items); err != nil {
		return nil, fmt.Errorf("decode question drafts: %w", err)
	}

	return drafts, nil
}

// parseTags accepts a bare JSON array of strings or an object with a
// "tags" field. Blank entries are dropped, duplicates collapsed.
func parseTags(raw string) ([]string, error) {
	cleaned := extractJSON(raw)

	var parsed any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("parse tags response: %w", err)
	}

	items, ok := parsed.([]any)
	if !ok {
		obj, isObj := parsed.(map[string]any)
		if !isObj {
			return nil, fmt.Errorf("tags response is not a sequence")
		}
		items, ok = obj["tags"].([]any)
		if !ok {
			return nil, fmt.Errorf("tags response is not a sequence")
		}
	}

	seen := make(map[string]struct{}, len(items))
	tags := make([]string, 0, len(items))
	for _, item := range items {
		tag := strings.TrimSpace(coerceString(item))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	return tags, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return strings.Trim(string(bytes), `"`)
	}
}
