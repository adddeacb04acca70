package ocr

import (
	"context"
	"fmt"
	"strings"
)

// Document is either inline bytes or a reference to a stored object.
type Document struct {
	Bytes    []byte
	MimeType string
	Bucket   string
	Key      string
}

func (d Document) IsObject() bool {
	return d.Bucket != "" && d.Key != ""
}

// GCSURI renders the object reference as gs://bucket/key.
func (d Document) GCSURI() string {
	return fmt.Sprintf("gs://%s/%s", d.Bucket, strings.TrimLeft(d.Key, "/"))
}

func (d Document) Validate() error {
	if d.IsObject() {
		return nil
	}
	if len(d.Bytes) == 0 {
		return fmt.Errorf("document has no content")
	}
	return nil
}

// Engine returns the line-level text blocks of a document in reading order.
type Engine interface {
	DetectLines(ctx context.Context, doc Document) ([]string, error)
}

// MimeTypeFor guesses the OCR mime type from a filename, defaulting to PDF.
func MimeTypeFor(filename, declared string) string {
	declared = strings.TrimSpace(strings.ToLower(declared))
	if declared != "" && declared != "application/octet-stream" {
		if i := strings.Index(declared, ";"); i >= 0 {
			declared = strings.TrimSpace(declared[:i])
		}
		return declared
	}
	name := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(name, ".png"):
		return "image/png"
	case strings.HasSuffix(name, ".jpg"), strings.HasSuffix(name, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(name, ".tif"), strings.HasSuffix(name, ".tiff"):
		return "image/tiff"
	case strings.HasSuffix(name, ".gif"):
		return "image/gif"
	default:
		return "application/pdf"
	}
}

// SplitLines trims each line of text and drops blanks.
func SplitLines(text string) []string {
	out := []string{}
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Static is an Engine that returns fixed lines, for tests and local runs.
type Static struct {
	Lines []string
	Err   error
	Calls []Document
}

func (s *Static) DetectLines(ctx context.Context, doc Document) ([]string, error) {
	s.Calls = append(s.Calls, doc)
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]string(nil), s.Lines...), nil
}
