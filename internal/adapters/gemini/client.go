package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/formsentry/spam-detector/internal/core"
	"github.com/formsentry/spam-detector/internal/utils"
)

// Client is an implementation of the AIClient interface using Google Gemini
type Client struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	modelName     string
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

// NewClient creates a new Gemini client
func NewClient(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*Client, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))

	return &Client{
		client:        client,
		model:         model,
		modelName:     modelName,
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
	}, nil
}

// Close closes the Gemini client
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// ClassifySubmission classifies flattened submission text as spam or clean
func (c *Client) ClassifySubmission(ctx context.Context, text string) (*core.AIVerdict, error) {
	truncated := c.textProcessor.TruncateText(text, c.maxBodySize)
	prompt := fmt.Sprintf(c.promptFormat, truncated)

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	responseText := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])

	parsed, err := parseClassification(responseText)
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
