package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

const bannerPrompt = `You are reading the information banner burned into the bottom edge of a trail camera photograph.

The banner contains the camera serial number (a run of digits) and the capture date and time.

Respond with ONLY a JSON object of this exact shape, no prose:
{"serial_number": "<digits or empty string>", "timestamp": "<YYYY-MM-DD HH:MM:SS or empty string>"}

If a field is unreadable, use an empty string for it.`

// OllamaReader reads banners with a local vision model served by Ollama.
type OllamaReader struct {
	client *http.Client
}

// NewOllamaReader creates an Ollama-backed banner reader.
func NewOllamaReader() *OllamaReader {
	return &OllamaReader{
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// ReadBanner implements Reader.
func (r *OllamaReader) ReadBanner(ctx context.Context, imagePath string) (Banner, error) {
	ollamaHost := os.Getenv("OLLAMA_URL")
	if ollamaHost == "" {
		ollamaHost = os.Getenv("OLLAMA_HOST")
	}
	if ollamaHost == "" {
		ollamaHost = "http://localhost:11434"
	}

	model := os.Getenv("OLLAMA_MODEL")
	if model == "" {
		model = "mistral-small3.2:24b"
	}

	base64Image, err := encodeImageBase64(imagePath)
	if err != nil {
		return Banner{}, err
	}

	requestBody := map[string]interface{}{
		"model":  model,
		"prompt": bannerPrompt,
		"images": []string{base64Image},
		"stream": false,
		"format": "json",
		"options": map[string]interface{}{
			"temperature": 0.0, // Zero temperature for exact OCR
		},
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return Banner{}, fmt.Errorf("failed to marshal OCR request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ollamaHost+"/api/generate", bytes.NewBuffer(jsonData))
	if err != nil {
		return Banner{}, fmt.Errorf("failed to create OCR request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return Banner{}, fmt.Errorf("failed to call Ollama API for OCR: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Banner{}, fmt.Errorf("ollama OCR API returned status %d: %s", resp.StatusCode, string(body))
	}

	var ollamaResp struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return Banner{}, fmt.Errorf("failed to decode Ollama OCR response: %w", err)
	}

	banner, err := parseBannerJSON(ollamaResp.Response)
	if err != nil {
		return Banner{}, err
	}
	slog.Debug("Extracted banner fields", "provider", "ollama", "serial", banner.SerialNumber)
	return banner, nil
}

// parseBannerJSON decodes the JSON reply a vision model produces for the
// banner prompt.
func parseBannerJSON(raw string) (Banner, error) {
	var fields struct {
		SerialNumber string `json:"serial_number"`
		Timestamp    string `json:"timestamp"`
	}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return Banner{}, fmt.Errorf("model returned malformed banner JSON: %w", err)
	}

	banner := Banner{SerialNumber: fields.SerialNumber}
	if fields.Timestamp != "" {
		ts, err := time.ParseInLocation("2006-01-02 15:04:05", fields.Timestamp, time.Local)
		if err != nil {
			// A bad timestamp does not invalidate the serial number.
			return banner, nil
		}
		banner.Timestamp = ts
	}
	return banner, nil
}

func encodeImageBase64(imagePath string) (string, error) {
	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to read image for OCR: %w", err)
	}
	return base64.StdEncoding.EncodeToString(imageData), nil
}
