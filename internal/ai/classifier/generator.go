package classifier

import (
	"context"
	"fmt"

	"github.com/alumnet/modguard/internal/setup/config"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ApplicationJSON is the response MIME type requested from the model.
const ApplicationJSON = "application/json"

// Generator produces the raw model response for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiGenerator generates assessments with a Gemini model.
type GeminiGenerator struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiGenerator creates a Gemini client configured for structured assessments.
func NewGeminiGenerator(ctx context.Context, cfg *config.GeminiAI) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SystemInstruction = genai.NewUserContent(genai.Text(SystemPrompt))
	model.ResponseMIMEType = ApplicationJSON
	model.ResponseSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"isAppropriate": {
				Type:        genai.TypeBoolean,
				Description: "Whether the content is appropriate to publish",
			},
			"confidence": {
				Type:        genai.TypeInteger,
				Description: "Confidence in the assessment between 0 and 100",
			},
			"concerns": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeString,
					Enum: []string{
						ConcernHateSpeech, ConcernProfanity, ConcernHarassment, ConcernSpam,
						ConcernSexualContent, ConcernViolence, ConcernMisinformation,
					},
				},
				Description: "Concern categories found in the content",
			},
			"severity": {
				Type: genai.TypeString,
				Enum: []string{"low", "medium", "high"},
			},
			"explanation": {
				Type:        genai.TypeString,
				Description: "Short explanation addressed to the author",
			},
			"suggestedAction": {
				Type: genai.TypeString,
				Enum: []string{string(ActionAllow), string(ActionWarn), string(ActionBlock)},
			},
		},
		Required: []string{"isAppropriate", "confidence", "concerns", "severity", "explanation", "suggestedAction"},
	}
	model.SetTemperature(0.2)
	model.SetTopP(0.95)
	model.SetTopK(40)
	model.SetMaxOutputTokens(512)

	return &GeminiGenerator{
		client: client,
		model:  model,
	}, nil
}

// Generate implements Generator.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	response, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("AI generation failed: %w", err)
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil ||
		len(response.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no response from Gemini", ErrModelResponse)
	}

	responseText, ok := response.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("%w: unexpected response format from AI", ErrModelResponse)
	}

	return string(responseText), nil
}

// Close releases the underlying client.
func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}
