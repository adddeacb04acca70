package docrender

import (
	"bytes"
	"fmt"
	"image/color"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
)

const (
	previewWidth  = 850
	previewHeight = 1100
	previewMargin = 64
)

func (r *Renderer) face(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone})
}

// Preview draws a PNG thumbnail of the worksheet's first page. Questions
// that do not fit are dropped, as they would be on the printed page.
func (r *Renderer) Preview(ws Worksheet) ([]byte, error) {
	dc := gg.NewContext(previewWidth, previewHeight)
	dc.SetColor(color.White)
	dc.Clear()

	contentW := float64(previewWidth - 2*previewMargin)
	y := float64(previewMargin)

	dc.SetFontFace(r.face(r.regular, 14))
	dc.SetRGB255(128, 128, 128)
	dc.DrawStringAnchored(ws.Brand, previewWidth/2, y, 0.5, 0.5)
	y += 36

	dc.SetFontFace(r.face(r.bold, 26))
	dc.SetRGB255(accent[0], accent[1], accent[2])
	for _, line := range dc.WordWrap(ws.Title, contentW) {
		dc.DrawStringAnchored(line, previewWidth/2, y, 0.5, 0.5)
		y += 32
	}
	y += 12

	dc.SetFontFace(r.face(r.regular, 13))
	rows := [][4]string{
		{"Subject:", ws.Subject, "Grade Level:", ws.GradeLevel},
		{"Name:", ws.studentName(), "Date:", strings.Repeat("_", 20)},
	}
	cols := [4]float64{0, 90, 380, 480}
	for _, row := range rows {
		for i, cell := range row {
			if i%2 == 0 {
				dc.SetRGB255(128, 128, 128)
			} else {
				dc.SetRGB255(0, 0, 0)
			}
			dc.DrawString(cell, previewMargin+cols[i], y)
		}
		y += 22
	}
	y += 20

	dc.SetRGB255(0, 0, 0)
	dc.SetFontFace(r.face(r.bold, 15))
	dc.DrawString("Instructions:", previewMargin, y)
	w, _ := dc.MeasureString("Instructions: ")
	dc.SetFontFace(r.face(r.regular, 15))
	dc.DrawString("Answer all questions. Show your work where applicable.", previewMargin+w, y)
	y += 36

	dc.SetFontFace(r.face(r.regular, 15))
	dc.SetLineWidth(1)
	for i, q := range ws.Questions {
		lines := dc.WordWrap(fmt.Sprintf("%d. %s", i+1, questionText(q)), contentW)
		need := float64(len(lines))*20 + float64(answerLines)*24 + 20
		if y+need > previewHeight-previewMargin {
			break
		}
		dc.SetRGB255(0, 0, 0)
		for _, line := range lines {
			dc.DrawString(line, previewMargin, y)
			y += 20
		}
		dc.SetRGB255(160, 160, 160)
		for l := 0; l < answerLines; l++ {
			y += 24
			dc.DrawLine(previewMargin, y-8, previewMargin+contentW, y-8)
			dc.Stroke()
		}
		y += 20
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
