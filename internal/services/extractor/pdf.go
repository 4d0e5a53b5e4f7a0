// -----------------------------------------------------------------------
// PDF text extraction for fetched article bodies
// Uses pdfcpu for Go-native PDF processing
// -----------------------------------------------------------------------

package extractor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/ternarybob/indago/internal/models"
)

// IsPDF reports whether a fetched body is a PDF document.
func IsPDF(body string) bool {
	return strings.HasPrefix(body, "%PDF")
}

// ExtractPDF extracts text from a PDF article body. Same contract as
// Extract: never fails, total failure yields a sentinel record. The title
// is derived from the URL since PDFs rarely carry a usable one.
func (s *Service) ExtractPDF(data []byte, pageURL string) *models.ArticleRecord {
	record := &models.ArticleRecord{URL: pageURL}

	text, err := s.pdfText(data)
	if err != nil {
		return s.failed(record, fmt.Sprintf("pdf extraction failed: %v", err))
	}

	text = normalizeWhitespace(text)
	if text == "" {
		return s.failed(record, "no textual content in pdf")
	}

	record.Title = titleFromURL(pageURL)
	record.Content = truncate(text, s.maxContentLength)
	return record
}

// pdfText extracts page content through a temp file, which is what the
// pdfcpu API operates on.
func (s *Service) pdfText(data []byte) (string, error) {
	tempDir := filepath.Join(os.TempDir(), "indago-pdf")
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}

	id := uuid.New().String()
	tempFile := filepath.Join(tempDir, id+".pdf")
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write temp PDF file: %w", err)
	}
	defer os.Remove(tempFile)

	pdfCtx, err := api.ReadContextFile(tempFile)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF context: %w", err)
	}
	pageCount := pdfCtx.PageCount

	outDir := filepath.Join(tempDir, "pages_"+id)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(tempFile, outDir, nil, conf); err != nil {
		return "", fmt.Errorf("failed to extract PDF content: %w", err)
	}

	// Content files are named Content_page_<n>
	pageTexts := make(map[int]string)
	files, _ := os.ReadDir(outDir)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			continue
		}
		var pageNum int
		if _, err := fmt.Sscanf(file.Name(), "Content_page_%d", &pageNum); err == nil {
			pageTexts[pageNum] = string(content)
		}
	}

	var builder strings.Builder
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		if text, ok := pageTexts[pageNum]; ok {
			if builder.Len() > 0 {
				builder.WriteString("\n\n")
			}
			builder.WriteString(text)
		}
	}

	return builder.String(), nil
}

// titleFromURL turns the last path segment into a readable title.
func titleFromURL(pageURL string) string {
	base := filepath.Base(pageURL)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("-", " ", "_", " ", "%20", " ").Replace(base)
	if title := normalizeWhitespace(base); title != "" && title != "." && title != "/" {
		return title
	}
	return pageURL
}
