// Package ingest turns an uploaded lab report into cleaned text, sections and
// lab panels.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"
)

const (
	MimePDF   = "application/pdf"
	MimePNG   = "image/png"
	MimeJPEG  = "image/jpeg"
	MimePlain = "text/plain"
)

var (
	ErrUnsupportedMedia = errors.New("unsupported content type")
	ErrEmptyDocument    = errors.New("empty document")
	// ErrExtractorUnavailable means the upload needs OCR and none is configured.
	ErrExtractorUnavailable = errors.New("no extractor configured for content type")
)

var allowedMimeTypes = map[string]bool{
	MimePDF:   true,
	MimePNG:   true,
	MimeJPEG:  true,
	MimePlain: true,
}

// NormalizeMimeType drops parameters such as "; charset=utf-8".
func NormalizeMimeType(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

func ValidateMimeType(contentType string) error {
	if !allowedMimeTypes[NormalizeMimeType(contentType)] {
		return fmt.Errorf("%w: %q (upload a PDF, PNG, JPEG or plain text report)", ErrUnsupportedMedia, contentType)
	}
	return nil
}

type Extraction struct {
	Text    string
	Pages   int
	OCRUsed bool
}

type Extractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) (*Extraction, error)
}

type PlainTextExtractor struct{}

func (PlainTextExtractor) Extract(ctx context.Context, data []byte, mimeType string) (*Extraction, error) {
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: text upload is not valid UTF-8", ErrUnsupportedMedia)
	}
	return &Extraction{Text: string(data), Pages: 1}, nil
}

type DocumentAIConfig struct {
	ProjectID       string
	Location        string
	ProcessorID     string
	CredentialsFile string
	Timeout         time.Duration
}

// DocumentAIExtractor runs PDFs and images through a Document AI OCR processor.
type DocumentAIExtractor struct {
	client    *documentai.DocumentProcessorClient
	processor string
	timeout   time.Duration
}

func NewDocumentAIExtractor(ctx context.Context, cfg DocumentAIConfig) (*DocumentAIExtractor, error) {
	if cfg.ProjectID == "" || cfg.ProcessorID == "" {
		return nil, errors.New("document ai project and processor id are required")
	}
	if cfg.Location == "" {
		cfg.Location = "us"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Minute
	}

	opts := []option.ClientOption{option.WithEndpoint(fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location))}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("documentai client: %w", err)
	}

	return &DocumentAIExtractor{
		client:    client,
		processor: fmt.Sprintf("projects/%s/locations/%s/processors/%s", cfg.ProjectID, cfg.Location, cfg.ProcessorID),
		timeout:   cfg.Timeout,
	}, nil
}

func (e *DocumentAIExtractor) Extract(ctx context.Context, data []byte, mimeType string) (*Extraction, error) {
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.ProcessDocument(ctx, &documentaipb.ProcessRequest{
		Name: e.processor,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  data,
				MimeType: mimeType,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("documentai ProcessDocument: %w", err)
	}
	doc := resp.GetDocument()
	if doc == nil {
		return &Extraction{OCRUsed: true}, nil
	}
	return &Extraction{
		Text:    strings.TrimSpace(doc.GetText()),
		Pages:   len(doc.GetPages()),
		OCRUsed: true,
	}, nil
}

func (e *DocumentAIExtractor) Close() error {
	return e.client.Close()
}

// MultiExtractor dispatches by content type. Plain text never needs OCR; a
// nil ocr extractor rejects PDFs and images.
type MultiExtractor struct {
	plain Extractor
	ocr   Extractor
}

func NewMultiExtractor(ocr Extractor) *MultiExtractor {
	return &MultiExtractor{plain: PlainTextExtractor{}, ocr: ocr}
}

func (m *MultiExtractor) Extract(ctx context.Context, data []byte, mimeType string) (*Extraction, error) {
	if err := ValidateMimeType(mimeType); err != nil {
		return nil, err
	}
	mt := NormalizeMimeType(mimeType)
	if mt == MimePlain {
		return m.plain.Extract(ctx, data, mt)
	}
	if m.ocr == nil {
		return nil, fmt.Errorf("%w: %s", ErrExtractorUnavailable, mt)
	}
	return m.ocr.Extract(ctx, data, mt)
}

func (m *MultiExtractor) OCRAvailable() bool {
	return m.ocr != nil
}
