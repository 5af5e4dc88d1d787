package document

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visaverse/internal/apperror"
	"visaverse/internal/logging"
)

func TestPDFExtractorRejectsInvalidContainer(t *testing.T) {
	extractor, err := NewPDFExtractor(context.Background())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "fake.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf"), 0o600))

	_, err = extractor.ExtractText(context.Background(), path)
	require.Error(t, err)
	assert.Equal(t, apperror.KindExtractionFailed, apperror.KindOf(err))
}

func TestPDFExtractorMissingFile(t *testing.T) {
	extractor, err := NewPDFExtractor(context.Background())
	require.NoError(t, err)

	_, err = extractor.ExtractText(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
	assert.Equal(t, apperror.KindExtractionFailed, apperror.KindOf(err))
}

func TestPDFExtractorReadsEveryPage(t *testing.T) {
	extractor, err := NewPDFExtractor(context.Background())
	require.NoError(t, err)

	text, err := extractor.ExtractText(context.Background(), filepath.Join("testdata", "two_pages.pdf"))
	require.NoError(t, err)

	first := strings.Index(text, "PassportNumberAB123")
	second := strings.Index(text, "BankStatementPage")
	require.GreaterOrEqual(t, first, 0, "page one text missing from %q", text)
	require.GreaterOrEqual(t, second, 0, "page two text missing from %q", text)
	assert.Less(t, first, second, "pages out of order in %q", text)
}

func TestPDFExtractorBlankPage(t *testing.T) {
	extractor, err := NewPDFExtractor(context.Background())
	require.NoError(t, err)

	text, err := extractor.ExtractText(context.Background(), filepath.Join("testdata", "blank.pdf"))
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(text))
}

func TestPipelineBlankPDFHasNoExtractableText(t *testing.T) {
	extractor, err := NewPDFExtractor(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join("testdata", "blank.pdf"))
	require.NoError(t, err)
	upload := stageFile(t, "blank.pdf", data, MediaTypePDF)

	analyzer := &fakeAnalyzer{}
	res, err := NewPipeline(analyzer, extractor, logging.Discard()).Process(context.Background(), upload)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Equal(t, apperror.KindNoExtractableText, apperror.KindOf(err))
	assert.Zero(t, analyzer.textCalls+analyzer.visionCalls)
	assertRemoved(t, upload.Path)
}

func TestPipelineRealPDFReachesAnalyzer(t *testing.T) {
	extractor, err := NewPDFExtractor(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join("testdata", "two_pages.pdf"))
	require.NoError(t, err)
	upload := stageFile(t, "statement.pdf", data, MediaTypePDF)

	analyzer := &fakeAnalyzer{}
	res, err := NewPipeline(analyzer, extractor, logging.Discard()).Process(context.Background(), upload)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "pdf", analyzer.lastType)
	assert.Contains(t, analyzer.lastText, "PassportNumberAB123")
	assert.Contains(t, analyzer.lastText, "BankStatementPage")
	assertRemoved(t, upload.Path)
}
