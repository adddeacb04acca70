package handlers

import (
	"errors"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/tutorbridge-backend/internal/http/response"
	"github.com/yungbote/tutorbridge-backend/internal/platform/apierr"
	"github.com/yungbote/tutorbridge-backend/internal/platform/ocr"
	"github.com/yungbote/tutorbridge-backend/internal/services/extraction"
)

const defaultMaxUploadBytes = 20 << 20

type DocumentHandler struct {
	svc      extraction.Service
	maxBytes int64
}

func NewDocumentHandler(svc extraction.Service, maxUploadBytes int64) *DocumentHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &DocumentHandler{svc: svc, maxBytes: maxUploadBytes}
}

type objectRequest struct {
	Bucket string `json:"bucket" binding:"required"`
	Key    string `json:"key" binding:"required"`
}

// upload reads the multipart "file" field into an OCR document.
func (h *DocumentHandler) upload(c *gin.Context) (ocr.Document, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return ocr.Document{}, apierr.BadRequest(errors.New("multipart field \"file\" is required"))
	}
	if fh.Size > h.maxBytes {
		return ocr.Document{}, apierr.BadRequest(fmt.Errorf("file exceeds %d bytes", h.maxBytes))
	}
	f, err := fh.Open()
	if err != nil {
		return ocr.Document{}, apierr.BadRequest(fmt.Errorf("open upload: %w", err))
	}
	defer f.Close()
	body, err := io.ReadAll(io.LimitReader(f, h.maxBytes+1))
	if err != nil {
		return ocr.Document{}, apierr.BadRequest(fmt.Errorf("read upload: %w", err))
	}
	if int64(len(body)) > h.maxBytes {
		return ocr.Document{}, apierr.BadRequest(fmt.Errorf("file exceeds %d bytes", h.maxBytes))
	}
	doc := ocr.Document{Bytes: body, MimeType: ocr.MimeTypeFor(fh.Filename, fh.Header.Get("Content-Type"))}
	if err := doc.Validate(); err != nil {
		return ocr.Document{}, apierr.BadRequest(err)
	}
	return doc, nil
}

// POST /api/documents/extract
func (h *DocumentHandler) Extract(c *gin.Context) {
	doc, err := h.upload(c)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	res, err := h.svc.Extract(c.Request.Context(), doc)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/documents/extract-object
func (h *DocumentHandler) ExtractObject(c *gin.Context) {
	var req objectRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	res, err := h.svc.Extract(c.Request.Context(), ocr.Document{Bucket: req.Bucket, Key: req.Key})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/documents/extract-answers
func (h *DocumentHandler) ExtractAnswers(c *gin.Context) {
	doc, err := h.upload(c)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	res, err := h.svc.ExtractAnswers(c.Request.Context(), doc)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}
