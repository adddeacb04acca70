package gcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"

	"github.com/yungbote/tutorbridge-backend/internal/platform/ctxutil"
	"github.com/yungbote/tutorbridge-backend/internal/platform/envutil"
	"github.com/yungbote/tutorbridge-backend/internal/platform/logger"
	"github.com/yungbote/tutorbridge-backend/internal/platform/ocr"
)

type DocumentAIConfig struct {
	ProjectID        string
	Location         string
	ProcessorID      string
	ProcessorVersion string
	Timeout          time.Duration
}

func DocumentAIConfigFromEnv() DocumentAIConfig {
	return DocumentAIConfig{
		ProjectID:        envutil.String("GCP_PROJECT_ID", ""),
		Location:         envutil.String("DOCUMENTAI_LOCATION", "us"),
		ProcessorID:      envutil.String("DOCUMENTAI_PROCESSOR_ID", ""),
		ProcessorVersion: envutil.String("DOCUMENTAI_PROCESSOR_VERSION", ""),
		Timeout:          envutil.Duration("DOCUMENTAI_TIMEOUT", 3*time.Minute),
	}
}

// documentProcessor is the slice of the Document AI client the engine uses.
type documentProcessor interface {
	ProcessDocument(ctx context.Context, req *documentaipb.ProcessRequest, opts ...gax.CallOption) (*documentaipb.ProcessResponse, error)
}

type DocumentAI struct {
	log       *logger.Logger
	client    documentProcessor
	closer    func() error
	processor string
	timeout   time.Duration
}

func NewDocumentAI(ctx context.Context, cfg DocumentAIConfig, log *logger.Logger) (*DocumentAI, error) {
	name := processorName(cfg.ProjectID, cfg.Location, cfg.ProcessorID, cfg.ProcessorVersion)
	if name == "" {
		return nil, fmt.Errorf("documentai requires GCP_PROJECT_ID and DOCUMENTAI_PROCESSOR_ID")
	}
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)
	opts := append([]option.ClientOption{option.WithEndpoint(endpoint)}, ClientOptionsFromEnv()...)
	c, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("documentai client: %w", err)
	}
	d := newDocumentAI(c, name, cfg.Timeout, log)
	d.closer = c.Close
	d.log.Info("Document AI initialized", "endpoint", endpoint, "processor", name)
	return d, nil
}

func newDocumentAI(client documentProcessor, processor string, timeout time.Duration, log *logger.Logger) *DocumentAI {
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	return &DocumentAI{
		log:       log.With("service", "gcp.DocumentAI"),
		client:    client,
		processor: processor,
		timeout:   timeout,
	}
}

func (d *DocumentAI) Close() error {
	if d == nil || d.closer == nil {
		return nil
	}
	return d.closer()
}

func (d *DocumentAI) DetectLines(ctx context.Context, doc ocr.Document) ([]string, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	mimeType := doc.MimeType
	if mimeType == "" {
		mimeType = "application/pdf"
	}
	req := &documentaipb.ProcessRequest{Name: d.processor}
	if doc.IsObject() {
		req.Source = &documentaipb.ProcessRequest_GcsDocument{
			GcsDocument: &documentaipb.GcsDocument{GcsUri: doc.GCSURI(), MimeType: mimeType},
		}
	} else {
		req.Source = &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{Content: doc.Bytes, MimeType: mimeType},
		}
	}

	start := time.Now()
	resp, err := d.client.ProcessDocument(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("documentai ProcessDocument: %w", err)
	}
	lines := linesFromDocument(resp.GetDocument())
	d.log.Debug("documentai processed",
		append(ctxutil.TraceFields(ctx),
			"mime_type", mimeType,
			"object", doc.IsObject(),
			"lines", len(lines),
			"latency_ms", time.Since(start).Milliseconds(),
		)...,
	)
	return lines, nil
}

// linesFromDocument walks page lines through their text anchors. Processors
// that emit no layout fall back to the raw text.
func linesFromDocument(doc *documentaipb.Document) []string {
	if doc == nil {
		return []string{}
	}
	out := []string{}
	for _, p := range doc.GetPages() {
		for _, line := range p.GetLines() {
			if line.GetLayout() == nil {
				continue
			}
			t := strings.TrimSpace(textFromAnchor(doc.GetText(), line.GetLayout().GetTextAnchor()))
			if t != "" {
				out = append(out, t)
			}
		}
	}
	if len(out) == 0 {
		return ocr.SplitLines(doc.GetText())
	}
	return out
}

func textFromAnchor(full string, anchor *documentaipb.Document_TextAnchor) string {
	if anchor == nil || len(anchor.TextSegments) == 0 || full == "" {
		return ""
	}
	var b strings.Builder
	for _, seg := range anchor.TextSegments {
		if seg == nil {
			continue
		}
		start := int(seg.StartIndex)
		end := int(seg.EndIndex)
		if start < 0 {
			start = 0
		}
		if end > len(full) {
			end = len(full)
		}
		if start >= end {
			continue
		}
		b.WriteString(full[start:end])
	}
	return b.String()
}

func processorName(project, location, processorID, version string) string {
	project = strings.TrimSpace(project)
	location = strings.TrimSpace(location)
	processorID = strings.TrimSpace(processorID)
	version = strings.TrimSpace(version)

	if project == "" || location == "" || processorID == "" {
		return ""
	}
	base := fmt.Sprintf("projects/%s/locations/%s/processors/%s", project, location, processorID)
	if version != "" {
		return base + "/processorVersions/" + version
	}
	return base
}

var _ ocr.Engine = (*DocumentAI)(nil)
