package document

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"visaverse/internal/apperror"
	"visaverse/internal/models"
)

// Analyzer is implemented by gemini.Client.
type Analyzer interface {
	AnalyzeDocument(ctx context.Context, documentText, fileType string) (*models.AnalysisResult, error)
	AnalyzeDocumentWithVision(ctx context.Context, payload models.BinaryPayload) (*models.AnalysisResult, error)
}

// TextExtractor is implemented by PDFExtractor.
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// Pipeline turns an upload into an analysis.
type Pipeline struct {
	analyzer  Analyzer
	extractor TextExtractor
	logger    *logrus.Entry
}

func NewPipeline(analyzer Analyzer, extractor TextExtractor, logger *logrus.Logger) *Pipeline {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Pipeline{
		analyzer:  analyzer,
		extractor: extractor,
		logger:    logger.WithField("component", "document.pipeline"),
	}
}

// Process validates the upload, extracts text from PDFs or inlines images and
// forwards the result to the analyzer. The upload is released on every path,
// panics included; a failed release is logged and never replaces the result.
func (p *Pipeline) Process(ctx context.Context, u *Upload) (*models.AnalysisResult, error) {
	defer p.release(u)

	if err := Validate(u); err != nil {
		return nil, err
	}

	mediaType := NormalizeMediaType(u.MediaType)
	log := p.logger.WithFields(logrus.Fields{"media_type": mediaType, "size": u.Size})

	if mediaType == MediaTypePDF {
		text, err := p.extractor.ExtractText(ctx, u.Path)
		if err != nil {
			log.WithError(err).Warn("pdf extraction failed")
			return nil, err
		}
		if strings.TrimSpace(text) == "" {
			log.Info("pdf has no text layer")
			return nil, apperror.NoExtractableText()
		}
		return p.analyzer.AnalyzeDocument(ctx, text, "pdf")
	}

	payload, err := PrepareBinaryPayload(u.Path, mediaType)
	if err != nil {
		log.WithError(err).Error("read image failed")
		return nil, err
	}
	return p.analyzer.AnalyzeDocumentWithVision(ctx, payload)
}

func (p *Pipeline) release(u *Upload) {
	if u == nil {
		return
	}
	if err := u.Release(); err != nil {
		p.logger.WithError(err).WithField("path", u.Path).Error("delete temp upload failed")
	}
}
