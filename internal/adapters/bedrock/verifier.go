package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/pressroom/snowball/internal/core"
	"github.com/pressroom/snowball/internal/utils"
)

// Verifier is an implementation of the DomainVerifier interface using
// Amazon Bedrock
type Verifier struct {
	client        *bedrockruntime.Client
	modelID       string
	maxTokens     int
	temperature   float32
	topP          float32
	logger        *zap.Logger
	promptFormat  string
	textProcessor *utils.TextProcessor
}

// maxResponseSize bounds how much model output is fed to JSON extraction;
// non-Claude models without a recognized output field fall back to the raw
// response body
const maxResponseSize = 8 * 1024

// domainAssessmentResponse represents the structured response from the LLM
type domainAssessmentResponse struct {
	Verified    bool    `json:"verified"`
	Authority   float64 `json:"authority"`
	Explanation string  `json:"explanation"`
}

// NewVerifier creates a new Bedrock domain verifier
func NewVerifier(
	client *bedrockruntime.Client,
	modelID string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *Verifier {
	return &Verifier{
		client:        client,
		modelID:       modelID,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		logger:        logger,
		textProcessor: textProcessor,
		promptFormat: `You are a domain reputation system for an email growth platform. Assess the following domain.
Respond with a JSON object containing:
- verified: boolean (true if the domain looks like a legitimate, deliverable organization domain)
- authority: number between 0 and 1 (estimated reputation and reach of the domain)
- explanation: string (brief justification)

Domain: %s

Respond only with the JSON object and nothing else.`,
	}
}

// VerifyDomain asks the model for a reputation assessment of the domain
func (v *Verifier) VerifyDomain(ctx context.Context, domain string) (*core.DomainAssessment, error) {
	prompt := fmt.Sprintf(v.promptFormat, domain)

	var payload []byte
	var err error
	if v.isAnthropicModel() {
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":               prompt,
			"max_tokens_to_sample": v.maxTokens,
			"temperature":          v.temperature,
			"top_p":                v.topP,
		})
	} else {
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":      prompt,
			"max_tokens":  v.maxTokens,
			"temperature": v.temperature,
			"top_p":       v.topP,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := v.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &v.modelID,
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	var responseText string
	if v.isAnthropicModel() {
		var claudeResp struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(resp.Body, &claudeResp); err != nil {
			return nil, fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		responseText = claudeResp.Completion
	} else {
		var genericResp struct {
			Output   string `json:"output"`
			Text     string `json:"text"`
			Response string `json:"response"`
		}
		if err := json.Unmarshal(resp.Body, &genericResp); err != nil {
			return nil, fmt.Errorf("failed to unmarshal model response: %w", err)
		}
		switch {
		case genericResp.Output != "":
			responseText = genericResp.Output
		case genericResp.Text != "":
			responseText = genericResp.Text
		case genericResp.Response != "":
			responseText = genericResp.Response
		default:
			responseText = string(resp.Body)
		}
	}

	responseText = v.textProcessor.SanitizeUTF8(responseText)
	responseText = v.textProcessor.TruncateText(responseText, maxResponseSize)

	assessment, err := parseAssessment(responseText)
	if err != nil {
		return nil, err
	}

	v.logger.Debug("Domain assessed",
		zap.String("domain", domain),
		zap.Bool("verified", assessment.Verified),
		zap.Float64("authority", assessment.Authority),
		zap.String("model", v.modelID))

	return &core.DomainAssessment{
		Domain:      domain,
		Verified:    assessment.Verified,
		Authority:   clamp01(assessment.Authority),
		Explanation: assessment.Explanation,
		CheckedAt:   time.Now().UTC(),
	}, nil
}

// isAnthropicModel checks if the model is an Anthropic Claude model
func (v *Verifier) isAnthropicModel() bool {
	return strings.HasPrefix(v.modelID, "anthropic.claude")
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
