package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/apetrov/finsight/internal/domain"
	"github.com/apetrov/finsight/internal/llm"
)

const receiptPrompt = `Analyze this receipt image and extract the following information in JSON format ONLY (no prose, no markdown):
{
    "merchant": "store/company name",
    "date": "YYYY-MM-DD",
    "total_amount": "total amount as number",
    "items": [
        {
            "description": "item description",
            "amount": "item amount as number"
        }
    ],
    "category": "likely expense category (food, transportation, shopping, entertainment, etc.)",
    "confidence": "confidence score 0-1"
}

Rules:
- Extract merchant name from header/top of receipt
- Extract date in YYYY-MM-DD format (convert if printed as MM/DD/YYYY or DD-MM-YYYY)
- Extract total amount (usually at bottom)
- List main items purchased
- Suggest appropriate category based on merchant and items
- Return only valid JSON, no additional text`

// generator is the slice of the LLM client the OCR service needs.
type generator interface {
	Generate(ctx context.Context, models []string, parts []*genai.Part) (string, error)
}

// Service extracts structured receipt data from uploaded images and PDFs via
// a vision model, with a regex fallback when the model ignores the strict
// JSON instruction.
type Service struct {
	gen       generator
	models    []string
	uploadDir string
	log       zerolog.Logger
	now       func() time.Time
}

// New creates an OCR service. gen may be nil when no API key is configured;
// extraction then reports a structured failure instead of calling out.
func New(gen generator, models []string, uploadDir string, log zerolog.Logger) *Service {
	return &Service{gen: gen, models: models, uploadDir: uploadDir, log: log, now: time.Now}
}

// Ready reports whether a vision model is configured.
func (s *Service) Ready() bool {
	return s.gen != nil
}

// ExtractReceipt persists the upload, sends it to the vision model and
// returns structured receipt data. Every failure mode yields a well-formed
// result with a zero-value receipt, never a raw fault.
func (s *Service) ExtractReceipt(ctx context.Context, filename string, file io.Reader) domain.ReceiptResult {
	if s.gen == nil {
		return s.failure(fmt.Errorf("vision model is not configured"))
	}

	data, path, err := s.saveUpload(filename, file)
	if err != nil {
		return s.failure(err)
	}
	s.log.Debug().Str("path", path).Int("bytes", len(data)).Msg("Receipt upload saved")

	parts := []*genai.Part{
		{Text: receiptPrompt},
		{InlineData: &genai.Blob{MIMEType: mimeForFile(filename), Data: data}},
	}
	raw, err := s.gen.Generate(ctx, s.models, parts)
	if err != nil {
		return s.failure(err)
	}

	var extracted map[string]any
	if err := json.Unmarshal([]byte(llm.CleanJSON(raw)), &extracted); err != nil {
		s.log.Warn().Err(err).Msg("Receipt response is not valid JSON, using regex extraction")
		return domain.ReceiptResult{
			Success:     true,
			Data:        s.extractWithRegex(raw),
			RawResponse: raw,
			Note:        "Used regex extraction due to JSON parsing error",
		}
	}

	return domain.ReceiptResult{
		Success:     true,
		Data:        s.cleanExtracted(extracted),
		RawResponse: raw,
	}
}

// saveUpload writes the upload under the upload directory with a timestamped
// name, returning the bytes for the model call.
func (s *Service) saveUpload(filename string, file io.Reader) ([]byte, string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("saveUpload: read upload: %w", err)
	}
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("saveUpload: %w", err)
	}

	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".jpg"
	}
	path := filepath.Join(s.uploadDir, fmt.Sprintf("receipt_%d%s", s.now().Unix(), ext))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, "", fmt.Errorf("saveUpload: %w", err)
	}
	return data, path, nil
}

func mimeForFile(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".pdf":
		return "application/pdf"
	default:
		return "image/png"
	}
}

func (s *Service) failure(err error) domain.ReceiptResult {
	return domain.ReceiptResult{
		Error: err.Error(),
		Data: domain.Receipt{
			Date:     s.now().Format("2006-01-02"),
			Items:    []domain.ReceiptItem{},
			Category: "other",
		},
	}
}
