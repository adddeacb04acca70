package docrender

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	explanationLimit = 200
	answerLines      = 3
)

var accent = [3]int{99, 102, 241}

type Question struct {
	Text        string
	Answer      string
	Explanation string
}

type Worksheet struct {
	Brand            string
	Title            string
	Subject          string
	GradeLevel       string
	StudentName      string
	Questions        []Question
	IncludeAnswerKey bool
	Creator          string
	CreatedAt        time.Time
}

func (w Worksheet) studentName() string {
	if strings.TrimSpace(w.StudentName) != "" {
		return w.StudentName
	}
	return strings.Repeat("_", 30)
}

// TruncateExplanation keeps the first 200 characters and marks the cut.
func TruncateExplanation(s string) string {
	r := []rune(s)
	if len(r) <= explanationLimit {
		return s
	}
	return string(r[:explanationLimit]) + "..."
}

// PDF lays out a Letter worksheet: header, info table, instructions,
// numbered questions with answer lines, and an optional answer key page.
func (r *Renderer) PDF(ws Worksheet) ([]byte, error) {
	if len(ws.Questions) == 0 {
		return nil, fmt.Errorf("worksheet has no questions")
	}
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetCompression(r.compress)
	pdf.SetMargins(18, 13, 18)
	pdf.SetAutoPageBreak(true, 13)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(ws.Title, true)
	pdf.SetCreator(ws.Creator, true)
	if !ws.CreatedAt.IsZero() {
		pdf.SetCreationDate(ws.CreatedAt)
	}
	pageW, pageH := pdf.GetPageSize()
	left, _, right, bottom := pdf.GetMargins()
	contentW := pageW - left - right

	pdf.AddPage()

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(128, 128, 128)
	pdf.CellFormat(contentW, 5, tr(ws.Brand), "", 1, "C", false, 0, "")
	pdf.Ln(2)
	title(pdf, tr(ws.Title), contentW)

	info := [][4]string{
		{"Subject:", ws.Subject, "Grade Level:", ws.GradeLevel},
		{"Name:", ws.studentName(), "Date:", strings.Repeat("_", 20)},
	}
	widths := [4]float64{25, 63, 25, contentW - 113}
	for _, row := range info {
		pdf.SetFont("Helvetica", "", 9)
		for i, cell := range row {
			if i%2 == 0 {
				pdf.SetTextColor(128, 128, 128)
			} else {
				pdf.SetTextColor(0, 0, 0)
			}
			pdf.CellFormat(widths[i], 6, tr(cell), "", 0, "L", false, 0, "")
		}
		pdf.Ln(6)
	}
	pdf.Ln(8)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(pdf.GetStringWidth("Instructions: ")+1, 6, "Instructions:", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, "Answer all questions. Show your work where applicable.", "", 1, "L", false, 0, "")
	pdf.Ln(5)

	lineBlock := 4 + float64(answerLines)*7 + 5
	for i, q := range ws.Questions {
		if pdf.GetY()+12+lineBlock > pageH-bottom {
			pdf.AddPage()
		}
		pdf.SetFont("Helvetica", "B", 11)
		num := fmt.Sprintf("%d.", i+1)
		numW := pdf.GetStringWidth(num) + 2
		pdf.CellFormat(numW, 6, num, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(contentW-numW, 6, tr(questionText(q)), "", "L", false)
		pdf.Ln(4)
		pdf.SetDrawColor(160, 160, 160)
		for l := 0; l < answerLines; l++ {
			y := pdf.GetY() + 5
			pdf.Line(left, y, left+contentW, y)
			pdf.SetY(y + 2)
		}
		pdf.Ln(5)
	}

	if ws.IncludeAnswerKey {
		pdf.AddPage()
		title(pdf, "Answer Key", contentW)
		pdf.Ln(3)
		for i, q := range ws.Questions {
			answer := q.Answer
			if strings.TrimSpace(answer) == "" {
				answer = "Answer not provided"
			}
			pdf.SetFont("Helvetica", "B", 10)
			num := fmt.Sprintf("%d.", i+1)
			numW := pdf.GetStringWidth(num) + 2
			pdf.CellFormat(numW, 5, num, "", 0, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(contentW-numW, 5, tr(answer), "", "L", false)
			if exp := strings.TrimSpace(q.Explanation); exp != "" {
				pdf.SetX(left + numW)
				pdf.SetFont("Helvetica", "I", 10)
				pdf.MultiCell(contentW-numW, 5, tr("Explanation: "+TruncateExplanation(exp)), "", "L", false)
			}
			pdf.Ln(4)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render worksheet pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func title(pdf *fpdf.Fpdf, text string, width float64) {
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(accent[0], accent[1], accent[2])
	pdf.MultiCell(width, 9, text, "", "C", false)
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)
}

func questionText(q Question) string {
	if t := strings.TrimSpace(q.Text); t != "" {
		return t
	}
	return "Question text missing"
}
