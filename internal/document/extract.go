package document

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrUnsupported = errors.New("unsupported file type")
	ErrNoText      = errors.New("no text extracted")
)

const previewRunes = 300

type format string

const (
	formatPDF  format = "pdf"
	formatDOCX format = "docx"
)

func detect(name string) (format, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return formatPDF, true
	case ".docx":
		return formatDOCX, true
	default:
		return "", false
	}
}

// Supported reports whether the file name has a suffix we can read.
func Supported(name string) bool {
	_, ok := detect(name)
	return ok
}

// Extract returns the plain text of an uploaded file, or "" when the type is
// unsupported or extraction fails for any reason.
func Extract(name string, data []byte) string {
	doc, err := Load(name, data)
	if err != nil {
		return ""
	}
	return doc.Content
}

// Load extracts text and metadata. Unsupported suffixes return ErrUnsupported;
// corrupt or empty files return an error wrapping ErrNoText.
func Load(name string, data []byte) (*Document, error) {
	kind, ok := detect(name)
	if !ok {
		return nil, goerr.Wrap(ErrUnsupported, "cannot read file", goerr.V("name", name))
	}

	var (
		text  string
		pages *int
		err   error
	)
	switch kind {
	case formatPDF:
		var n int
		text, n, err = extractPDF(data)
		pages = &n
	case formatDOCX:
		text, err = extractDOCX(data)
	}
	if err != nil {
		return nil, goerr.Wrap(ErrNoText, err.Error(), goerr.V("name", name), goerr.V("format", string(kind)))
	}
	if strings.TrimSpace(text) == "" {
		return nil, goerr.Wrap(ErrNoText, "document is empty", goerr.V("name", name), goerr.V("format", string(kind)))
	}

	base := filepath.Base(name)
	return &Document{
		Content: text,
		Preview: preview(text),
		Metadata: Metadata{
			Title:         strings.TrimSuffix(base, filepath.Ext(base)),
			FileName:      base,
			SourceFormat:  string(kind),
			FileSizeBytes: int64(len(data)),
			PageCount:     pages,
			WordCount:     len(strings.Fields(text)),
			ExtractedAt:   time.Now(),
		},
	}, nil
}

// ExtractFile reads a document from disk.
func ExtractFile(path string) (*Document, error) {
	if !Supported(path) {
		return nil, goerr.Wrap(ErrUnsupported, "cannot read file", goerr.V("path", path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read file", goerr.V("path", path))
	}
	return Load(path, data)
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= previewRunes {
		return text
	}
	return string([]rune(text)[:previewRunes]) + "..."
}
