// Package gemini talks to the Gemini generative-language API: prompt
// construction, retrying transport and error classification.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"visaverse/internal/apperror"
	"visaverse/internal/metrics"
	"visaverse/internal/models"
)

const (
	DefaultModel = "gemini-2.5-flash"
	noResponse   = "No response generated"
	// TimestampLayout matches JavaScript's Date.toISOString.
	TimestampLayout = "2006-01-02T15:04:05.000Z"
)

var errNotConfigured = errors.New("gemini api key not configured")

// generator is the slice of *genai.Models the client needs.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Invoker InvokerConfig
	// Transport is wrapped by the invoker; nil means http.DefaultTransport.
	Transport http.RoundTripper
}

// Client produces visa guidance and document analyses.
type Client struct {
	models generator
	model  string
	logger *logrus.Entry
	now    func() time.Time
}

// NewClient builds the SDK client on top of a retrying Invoker. A missing API
// key is not fatal: calls fail with UpstreamCallFailed until one is configured.
func NewClient(ctx context.Context, cfg Config, recorder metrics.UpstreamRecorder, logger *logrus.Logger) (*Client, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	c := &Client{
		model:  cfg.Model,
		logger: logger.WithField("component", "gemini"),
		now:    time.Now,
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		c.logger.Warn("GOOGLE_API_KEY is not set; AI endpoints will fail")
		return c, nil
	}

	invoker := NewInvoker(cfg.Transport, cfg.Invoker, recorder, logger)
	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Transport: invoker},
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	sdk, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	c.models = sdk.Models
	return c, nil
}

// GetVisaGuidance expects a request that already passed Validate.
func (c *Client) GetVisaGuidance(ctx context.Context, req models.GuidanceRequest) (*models.GuidanceResult, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(guidancePrompt(req), genai.RoleUser),
	}
	text, err := c.generate(ctx, "visa_guidance", contents)
	if err != nil {
		return nil, err
	}
	return &models.GuidanceResult{
		Success:  true,
		Guidance: text,
		Metadata: models.GuidanceMetadata{
			Origin:      req.Origin,
			Destination: req.Destination,
			Purpose:     req.Purpose,
			Timestamp:   c.timestamp(),
		},
	}, nil
}

// AnalyzeDocument analyses extracted document text.
func (c *Client) AnalyzeDocument(ctx context.Context, documentText, fileType string) (*models.AnalysisResult, error) {
	if fileType == "" {
		fileType = "text"
	}
	contents := []*genai.Content{
		genai.NewContentFromText(analysisPrompt(documentText), genai.RoleUser),
	}
	text, err := c.generate(ctx, "document_analysis", contents)
	if err != nil {
		return nil, err
	}
	return &models.AnalysisResult{
		Success:  true,
		Analysis: text,
		Metadata: models.AnalysisMetadata{
			FileType:       fileType,
			DocumentLength: utf16Len(documentText),
			Timestamp:      c.timestamp(),
		},
	}, nil
}

// AnalyzeDocumentWithVision sends the image inline next to the prompt.
func (c *Client) AnalyzeDocumentWithVision(ctx context.Context, payload models.BinaryPayload) (*models.AnalysisResult, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(visionPrompt),
			genai.NewPartFromBytes(payload.Data, payload.MediaType),
		}, genai.RoleUser),
	}
	text, err := c.generate(ctx, "vision_analysis", contents)
	if err != nil {
		return nil, err
	}
	return &models.AnalysisResult{
		Success:  true,
		Analysis: text,
		Metadata: models.AnalysisMetadata{
			FileType:  "image",
			MimeType:  payload.MediaType,
			Timestamp: c.timestamp(),
		},
	}, nil
}

func (c *Client) generate(ctx context.Context, op string, contents []*genai.Content) (string, error) {
	log := c.logger.WithFields(logrus.Fields{"op": op, "model": c.model})
	if c.models == nil {
		return "", apperror.UpstreamCallFailed(0, "", errNotConfigured)
	}

	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		classified := classify(err)
		entry := log.WithError(err).WithField("kind", apperror.KindOf(classified).String())
		if appErr, ok := apperror.As(classified); ok && appErr.Status != 0 {
			entry = entry.WithField("status", appErr.Status)
		}
		entry.Error("generate content failed")
		return "", classified
	}
	log.WithField("elapsed", time.Since(start).String()).Debug("generate content ok")

	text := ""
	if resp != nil {
		text = resp.Text()
	}
	if strings.TrimSpace(text) == "" {
		return noResponse, nil
	}
	return text, nil
}

// utf16Len counts UTF-16 code units, the unit browsers use for string length.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

func (c *Client) timestamp() string {
	return c.now().UTC().Format(TimestampLayout)
}
