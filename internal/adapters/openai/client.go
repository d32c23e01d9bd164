package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/formsentry/spam-detector/internal/core"
	"github.com/formsentry/spam-detector/internal/utils"
)

// Client is an implementation of the AIClient interface using OpenAI
type Client struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	promptFormat  string
}

// classificationResponse represents the structured response from the model
type classificationResponse struct {
	IsSpam      bool    `json:"is_spam"`
	Score       float64 `json:"score"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

// NewClient creates a new OpenAI client
func NewClient(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *Client {
	return &Client{
		client:        client,
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
		promptFormat: `You are a form spam detection system. Analyze the following web form submission and determine if it's spam.
Respond with a JSON object containing:
- is_spam: boolean (true if spam, false if not)
- score: number between 0 and 1 (higher means more likely to be spam)
- confidence: number between 0 and 1 (how confident you are in your assessment)
- explanation: string (brief explanation of why you think it's spam or not)

Submission content:
%s

Respond only with the JSON object and nothing else.`,
	}
}

// ClassifySubmission classifies flattened submission text as spam or clean
func (c *Client) ClassifySubmission(ctx context.Context, text string) (*core.AIVerdict, error) {
	truncated := c.textProcessor.TruncateText(text, c.maxBodySize)
	prompt := fmt.Sprintf(c.promptFormat, truncated)

	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a form spam detection system. Respond only with JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
	}
	req.ResponseFormat = &openai.ChatCompletionResponseFormat{
		Type: "json",
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from OpenAI")
	}

	parsed, err := parseClassification(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	return &core.AIVerdict{
		IsSpam:      parsed.IsSpam,
		Score:       parsed.Score,
		Confidence:  parsed.Confidence,
		Explanation: parsed.Explanation,
		ModelUsed:   c.modelName,
	}, nil
}

// parseClassification parses the model output, falling back to extracting the
// first JSON object embedded in surrounding prose.
func parseClassification(responseText string) (*classificationResponse, error) {
	var parsed classificationResponse
	if err := json.Unmarshal([]byte(responseText), &parsed); err != nil {
		jsonStart := -1
		jsonEnd := -1

		for i := 0; i < len(responseText); i++ {
			if responseText[i] == '{' {
				jsonStart = i
				break
			}
		}
		for i := len(responseText) - 1; i >= 0; i-- {
			if responseText[i] == '}' {
				jsonEnd = i + 1
				break
			}
		}

		if jsonStart < 0 || jsonStart >= jsonEnd {
			return nil, fmt.Errorf("failed to extract JSON from model response: %w", err)
		}
		if err := json.Unmarshal([]byte(responseText[jsonStart:jsonEnd]), &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse model response as JSON: %w", err)
		}
	}
	return &parsed, nil
}
