package gcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/googleapis/gax-go/v2"

	"github.com/yungbote/tutorbridge-backend/internal/platform/ctxutil"
	"github.com/yungbote/tutorbridge-backend/internal/platform/logger"
	"github.com/yungbote/tutorbridge-backend/internal/platform/ocr"
)

type imageAnnotator interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
	BatchAnnotateFiles(ctx context.Context, req *visionpb.BatchAnnotateFilesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateFilesResponse, error)
}

// Vision runs DOCUMENT_TEXT_DETECTION. Images go through BatchAnnotateImages,
// PDF and TIFF through the synchronous file API.
type Vision struct {
	log     *logger.Logger
	client  imageAnnotator
	closer  func() error
	timeout time.Duration
}

func NewVision(ctx context.Context, log *logger.Logger) (*Vision, error) {
	c, err := vision.NewImageAnnotatorClient(ctx, ClientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}
	v := newVision(c, log)
	v.closer = c.Close
	v.log.Info("Cloud Vision initialized")
	return v, nil
}

func newVision(client imageAnnotator, log *logger.Logger) *Vision {
	return &Vision{
		log:     log.With("service", "gcp.Vision"),
		client:  client,
		timeout: 60 * time.Second,
	}
}

func (v *Vision) Close() error {
	if v == nil || v.closer == nil {
		return nil
	}
	return v.closer()
}

func isFileMimeType(mimeType string) bool {
	switch strings.ToLower(mimeType) {
	case "application/pdf", "image/tiff", "image/gif":
		return true
	default:
		return false
	}
}

func textFeature() []*visionpb.Feature {
	return []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}}
}

func (v *Vision) DetectLines(ctx context.Context, doc ocr.Document) ([]string, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	ctx = ctxutil.Default(ctx)
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	var (
		text string
		err  error
	)
	if isFileMimeType(doc.MimeType) {
		text, err = v.annotateFile(ctx, doc)
	} else {
		text, err = v.annotateImage(ctx, doc)
	}
	if err != nil {
		return nil, err
	}
	lines := ocr.SplitLines(text)
	v.log.Debug("vision processed", append(ctxutil.TraceFields(ctx), "mime_type", doc.MimeType, "lines", len(lines))...)
	return lines, nil
}

func (v *Vision) annotateImage(ctx context.Context, doc ocr.Document) (string, error) {
	img := &visionpb.Image{Content: doc.Bytes}
	if doc.IsObject() {
		img = &visionpb.Image{Source: &visionpb.ImageSource{ImageUri: doc.GCSURI()}}
	}
	resp, err := v.client.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{Image: img, Features: textFeature()}},
	})
	if err != nil {
		return "", fmt.Errorf("vision BatchAnnotateImages: %w", err)
	}
	if resp == nil || len(resp.Responses) == 0 {
		return "", nil
	}
	r0 := resp.Responses[0]
	if r0.GetError() != nil && r0.GetError().GetMessage() != "" {
		return "", fmt.Errorf("vision annotate error: %s", r0.GetError().GetMessage())
	}
	return r0.GetFullTextAnnotation().GetText(), nil
}

func (v *Vision) annotateFile(ctx context.Context, doc ocr.Document) (string, error) {
	in := &visionpb.InputConfig{MimeType: doc.MimeType, Content: doc.Bytes}
	if doc.IsObject() {
		in = &visionpb.InputConfig{MimeType: doc.MimeType, GcsSource: &visionpb.GcsSource{Uri: doc.GCSURI()}}
	}
	resp, err := v.client.BatchAnnotateFiles(ctx, &visionpb.BatchAnnotateFilesRequest{
		Requests: []*visionpb.AnnotateFileRequest{{InputConfig: in, Features: textFeature()}},
	})
	if err != nil {
		return "", fmt.Errorf("vision BatchAnnotateFiles: %w", err)
	}
	var b strings.Builder
	for _, fr := range resp.GetResponses() {
		if fr.GetError() != nil && fr.GetError().GetMessage() != "" {
			return "", fmt.Errorf("vision annotate file error: %s", fr.GetError().GetMessage())
		}
		for _, page := range fr.GetResponses() {
			if t := page.GetFullTextAnnotation().GetText(); t != "" {
				b.WriteString(t)
				b.WriteString("\n")
			}
		}
	}
	return b.String(), nil
}

var _ ocr.Engine = (*Vision)(nil)
