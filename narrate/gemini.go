package narrate

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"
)

// GeminiNarrator turns a classification result into a short operator-facing
// narrative. Narration is strictly optional: triage works without it.
type GeminiNarrator struct {
	client *genai.Client
	ctx    context.Context
}

const systemPrompt = `You are the triage assistant for a video activity screening tool.
The tool labels surveillance clips with coarse activity classes (robbery, theft,
assault, explosion, road accident, normal) using interpretable per-frame signals:
motion magnitude, detected person counts and moving-region counts.

Given the predicted label, the score explanation and the scene summary, write a
short plain-language narrative for a human reviewer. Mention the leading signals,
note when the margin between classes is small, and remind the reviewer that the
labels are heuristic triage hints, not confirmed detections.
Keep responses under 150 words.`

func NewGeminiNarrator() (*GeminiNarrator, error) {
	ctx := context.Background()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %v", err)
	}

	return &GeminiNarrator{
		client: client,
		ctx:    ctx,
	}, nil
}

// NarrateAnalysis generates the reviewer narrative for one classified clip.
func (g *GeminiNarrator) NarrateAnalysis(label, explanation, summary string) (string, error) {
	message := fmt.Sprintf(
		"Predicted label: %s\nScore explanation: %s\nScene summary:\n%s",
		label, explanation, summary,
	)

	systemInstruction := genai.NewContentFromText(systemPrompt, genai.RoleModel)
	userContent := genai.NewContentFromText(message, genai.RoleUser)

	config := &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction,
		Temperature:       genai.Ptr(float32(0.7)),
		TopP:              genai.Ptr(float32(0.8)),
		TopK:              genai.Ptr(float32(40)),
		MaxOutputTokens:   int32(250),
	}

	resp, err := g.client.Models.GenerateContent(
		g.ctx,
		"gemini-2.5-flash",
		[]*genai.Content{userContent},
		config,
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate narrative: %v", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty narrative response")
	}

	return strings.ReplaceAll(text, "*", ""), nil
}

func (g *GeminiNarrator) Close() error {
	// The genai client manages its resources automatically.
	return nil
}
