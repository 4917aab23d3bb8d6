package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiReader reads banners with Google Gemini's vision capability.
type GeminiReader struct{}

// NewGeminiReader creates a Gemini-backed banner reader.
func NewGeminiReader() *GeminiReader {
	return &GeminiReader{}
}

// ReadBanner implements Reader.
func (r *GeminiReader) ReadBanner(ctx context.Context, imagePath string) (Banner, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return Banner{}, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return Banner{}, fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return Banner{}, fmt.Errorf("failed to read image for OCR: %w", err)
	}

	modelName := os.Getenv("GEMINI_MODEL")
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0)

	format := strings.TrimPrefix(filepath.Ext(imagePath), ".")
	resp, err := model.GenerateContent(ctx,
		genai.ImageData(format, imageData),
		genai.Text(bannerPrompt),
	)
	if err != nil {
		return Banner{}, fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return Banner{}, fmt.Errorf("no candidates returned from Gemini")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return Banner{}, fmt.Errorf("empty content returned from Gemini")
	}
	txt, ok := candidate.Content.Parts[0].(genai.Text)
	if !ok {
		return Banner{}, fmt.Errorf("unexpected response format from Gemini")
	}

	// Gemini wraps JSON replies in a markdown fence even at zero temperature.
	raw := strings.TrimSpace(string(txt))
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	banner, err := parseBannerJSON(strings.TrimSpace(raw))
	if err != nil {
		return Banner{}, err
	}
	slog.Debug("Extracted banner fields", "provider", "gemini", "serial", banner.SerialNumber)
	return banner, nil
}
