package document

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/document/loader/file"
	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	"github.com/cloudwego/eino/components/document"

	"visaverse/internal/apperror"
)

// PDFExtractor reads the text layer of PDF files through the eino file loader.
type PDFExtractor struct {
	loader *file.FileLoader
}

func NewPDFExtractor(ctx context.Context) (*PDFExtractor, error) {
	pdfParser, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: false})
	if err != nil {
		return nil, fmt.Errorf("init pdf parser: %w", err)
	}
	loader, err := file.NewFileLoader(ctx, &file.FileLoaderConfig{
		UseNameAsID: true,
		Parser:      pdfParser,
	})
	if err != nil {
		return nil, fmt.Errorf("init file loader: %w", err)
	}
	return &PDFExtractor{loader: loader}, nil
}

// ExtractText returns the concatenated text of every page. A PDF without a
// text layer yields an empty string and no error.
func (e *PDFExtractor) ExtractText(ctx context.Context, path string) (text string, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			text, err = "", apperror.ExtractionFailed(fmt.Errorf("parse %s: %v", path, r))
		}
	}()

	docs, err := e.loader.Load(ctx, document.Source{URI: path})
	if err != nil {
		return "", apperror.ExtractionFailed(fmt.Errorf("load %s: %w", path, err))
	}
	var builder strings.Builder
	for _, doc := range docs {
		if doc == nil || doc.Content == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(doc.Content)
	}
	return builder.String(), nil
}
