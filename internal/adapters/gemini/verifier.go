package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/pressroom/snowball/internal/core"
)

// Verifier is an implementation of the DomainVerifier interface using
// Google Gemini
type Verifier struct {
	client       *genai.Client
	model        *genai.GenerativeModel
	modelName    string
	logger       *zap.Logger
	promptFormat string
}

// domainAssessmentResponse represents the structured response from the LLM
type domainAssessmentResponse struct {
	Verified    bool    `json:"verified"`
	Authority   float64 `json:"authority"`
	Explanation string  `json:"explanation"`
}

// NewVerifier creates a new Gemini domain verifier
func NewVerifier(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) (*Verifier, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))

	return &Verifier{
		client:    client,
		model:     model,
		modelName: modelName,
		logger:    logger,
		promptFormat: `You are a domain reputation system for an email growth platform. Assess the following domain.
Respond with a JSON object containing:
- verified: boolean (true if the domain looks like a legitimate, deliverable organization domain)
- authority: number between 0 and 1 (estimated reputation and reach of the domain)
- explanation: string (brief justification)

Domain: %s

Respond only with the JSON object and nothing else.`,
	}, nil
}

// Close closes the Gemini client
func (v *Verifier) Close() error {
	if v.client != nil {
		return v.client.Close()
	}
	return nil
}

// VerifyDomain asks the model for a reputation assessment of the domain
func (v *Verifier) VerifyDomain(ctx context.Context, domain string) (*core.DomainAssessment, error) {
	prompt := fmt.Sprintf(v.promptFormat, domain)

	resp, err := v.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with Gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	responseText := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])

	assessment, err := parseAssessment(responseText)
	if err != nil {
		return nil, err
	}

	v.logger.Debug("Domain assessed",
		zap.String("domain", domain),
		zap.Bool("verified", assessment.Verified),
		zap.Float64("authority", assessment.Authority),
		zap.String("model", v.modelName))

	return &core.DomainAssessment{
		Domain:      domain,
		Verified:    assessment.Verified,
		Authority:   clamp01(assessment.Authority),
		Explanation: assessment.Explanation,
		CheckedAt:   time.Now().UTC(),
	}, nil
}

// parseAssessment parses the model output, tolerating prose around the JSON
func parseAssessment(responseText string) (*domainAssessmentResponse, error) {
	var assessment domainAssessmentResponse
	if err := json.Unmarshal([]byte(responseText), &assessment); err == nil {
		return &assessment, nil
	}

	jsonStart := strings.Index(responseText, "{")
	jsonEnd := strings.LastIndex(responseText, "}")
	if jsonStart < 0 || jsonEnd < jsonStart {
		return nil, fmt.Errorf("failed to extract JSON from LLM response")
	}
	if err := json.Unmarshal([]byte(responseText[jsonStart:jsonEnd+1]), &assessment); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response as JSON: %w", err)
	}
	return &assessment, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
