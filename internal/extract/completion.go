package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"certverify/internal/logger"
	"certverify/pkg/models"
)

// Completer fills record fields the heuristics could not match.
type Completer interface {
	// Complete returns a copy of the record with sentinel fields filled
	// where possible, using the raw located text as context. Fields the
	// heuristics already matched are never overridden.
	Complete(ctx context.Context, record models.Record, text string) (models.Record, error)
}

// OpenAICompleter implements Completer with a chat completion model. It is
// an optional, best-effort stage: the heuristic pipeline remains the source
// of truth and callers keep the heuristic record on any completion error.
type OpenAICompleter struct {
	client *openai.Client
	model  string
	log    zerolog.Logger
}

// NewOpenAICompleter creates a completer for the given API key and model.
func NewOpenAICompleter(apiKey, model string) *OpenAICompleter {
	return &OpenAICompleter{
		client: openai.NewClient(apiKey),
		model:  model,
		log:    logger.WithComponent("completion"),
	}
}

// completionResponse is the structured reply requested from the model.
type completionResponse struct {
	UniversityName string `json:"university_name,omitempty"`
	HolderName     string `json:"certificate_holder_name,omitempty"`
	Course         string `json:"course,omitempty"`
	Grade          string `json:"grade,omitempty"`
	RollNo         string `json:"roll_no,omitempty"`
	CertificateID  string `json:"certificate_id,omitempty"`
}

// Complete asks the model for the still-missing fields only.
func (c *OpenAICompleter) Complete(ctx context.Context, record models.Record, text string) (models.Record, error) {
	const op = "Complete"

	missing := missingFields(record)
	if len(missing) == 0 || strings.TrimSpace(text) == "" {
		return record, nil
	}

	c.log.Debug().
		Strs("missing_fields", missing).
		Int("text_length", len(text)).
		Msg("Requesting field completion")

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You extract fields from OCR text of academic certificates. " +
					"Reply with a JSON object containing only the requested keys. " +
					"Omit a key entirely when the text does not contain its value. Never guess.",
			},
			{
				Role: openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Requested keys: %s\n\nCertificate text:\n%s",
					strings.Join(missing, ", "), text),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return record, fmt.Errorf("extract: %s failed: %w", op, err)
	}
	if len(resp.Choices) == 0 {
		return record, fmt.Errorf("extract: %s failed: empty completion response", op)
	}

	var parsed completionResponse
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed); err != nil {
		return record, fmt.Errorf("extract: %s failed: invalid completion JSON: %w", op, err)
	}

	filled := record
	fillSentinel(&filled.UniversityName, parsed.UniversityName)
	fillSentinel(&filled.HolderName, parsed.HolderName)
	fillSentinel(&filled.Course, parsed.Course)
	fillSentinel(&filled.Grade, parsed.Grade)
	fillSentinel(&filled.RollNo, parsed.RollNo)
	fillSentinel(&filled.CertificateID, parsed.CertificateID)

	c.log.Info().
		Strs("missing_fields", missing).
		Bool("complete", filled.IsComplete()).
		Msg("Field completion finished")

	return filled, nil
}

// missingFields lists the JSON keys of fields still at the sentinel.
func missingFields(r models.Record) []string {
	var missing []string
	for key, value := range map[string]string{
		"university_name":         r.UniversityName,
		"certificate_holder_name": r.HolderName,
		"course":                  r.Course,
		"grade":                   r.Grade,
		"roll_no":                 r.RollNo,
		"certificate_id":          r.CertificateID,
	} {
		if value == models.Sentinel {
			missing = append(missing, key)
		}
	}
	return missing
}

func fillSentinel(field *string, value string) {
	value = strings.TrimSpace(value)
	if *field == models.Sentinel && value != "" {
		*field = value
	}
}
