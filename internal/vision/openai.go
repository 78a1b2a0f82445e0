package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const systemPrompt = `You are an attendance-verification AI for an event platform called EventLens.

You will receive a photo that a person claims was taken at a live event.

Your job:
1. Determine if the photo appears to be taken LIVE at an indoor/outdoor event or venue.
2. Look for signs of a real environment: people, signage, stage, seating, lighting, badges, lanyards, etc.
3. Reject screenshots, stock photos, AI-generated images, photos of screens, or obviously staged images.

Respond with ONLY a JSON object (no markdown, no explanation):
{
  "confidence": <integer 0-100>,
  "reason": "<one short sentence>",
  "indicators": ["<2-4 short visual signals you observed>"]
}

confidence = how confident you are that this is a GENUINE live attendance photo.
- 90-100: Clearly at a real event, strong visual signals
- 70-89: Likely at an event but some ambiguity
- 40-69: Uncertain / could be faked
- 0-39: Likely fake or screenshot`

// maxIndicators bounds the indicator list regardless of what the model returns.
const maxIndicators = 4

// Config holds vision provider configuration.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAIProvider implements Provider on top of an OpenAI-compatible
// chat-completions endpoint with vision support.
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a vision provider. BaseURL may point at any
// OpenAI-compatible gateway.
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("vision API key is required")
	}
	if config.Model == "" {
		config.Model = openai.GPT4oMini
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Evaluate sends the image plus the evaluation rubric to the model and parses
// the bounded JSON reply. Any transport or parse fault is returned as an
// error; the caller decides how to fail closed.
func (p *OpenAIProvider) Evaluate(ctx context.Context, image []byte, eventName, locationHint string) (*Judgment, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	userPrompt := fmt.Sprintf(
		"The attendee claims this photo was taken at the event: %q.", eventName)
	if locationHint != "" {
		userPrompt += fmt.Sprintf(" The venue is described as: %q.", locationHint)
	}
	userPrompt += " Analyze the image and respond with the JSON confidence score."

	dataURI := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)

	req := openai.ChatCompletionRequest{
		Model: p.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: userPrompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURI,
							Detail: openai.ImageURLDetailLow,
						},
					},
				},
			},
		},
		MaxTokens:   300,
		Temperature: 0.1,
	}

	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, req)
	if err != nil {
		return nil, fmt.Errorf("vision API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("empty response from vision model")
	}

	return parseJudgment(resp.Choices[0].Message.Content)
}

// parseJudgment decodes the model's JSON reply, tolerating markdown fences,
// and normalizes it into the bounded Judgment shape.
func parseJudgment(text string) (*Judgment, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		if idx := strings.Index(text, "\n"); idx >= 0 {
			text = text[idx+1:]
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	var raw struct {
		Confidence int      `json:"confidence"`
		Reason     string   `json:"reason"`
		Indicators []string `json:"indicators"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("malformed judgment reply: %w", err)
	}

	j := &Judgment{
		Confidence: clampConfidence(raw.Confidence),
		Reason:     raw.Reason,
		Indicators: raw.Indicators,
	}
	if j.Reason == "" {
		j.Reason = "no reason provided"
	}
	if j.Indicators == nil {
		j.Indicators = []string{}
	}
	if len(j.Indicators) > maxIndicators {
		j.Indicators = j.Indicators[:maxIndicators]
	}
	return j, nil
}
