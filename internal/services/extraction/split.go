package extraction

import (
	"regexp"
	"strings"
)

const (
	minQuestionText  = 20
	minMarkedSegment = 10
	minParagraph     = 20

	markedConfidence    = 0.7
	paragraphConfidence = 0.5
)

var (
	questionMarker = regexp.MustCompile(`(?im)^(?:Q?\d+[.):]|\([a-z]\))\s*`)
	answerPattern  = regexp.MustCompile(`(?i)(?:Answer|Ans)[:\s]+([^\n]+)`)
)

// SplitQuestions cuts text at numbered or lettered line markers ("1.",
// "2)", "Q3:", "(a)"). With no usable markers it falls back to blank-line
// paragraphs at lower confidence.
func SplitQuestions(text string) []Question {
	out := []Question{}
	marks := questionMarker.FindAllStringIndex(text, -1)
	for i, m := range marks {
		end := len(text)
		if i+1 < len(marks) {
			end = marks[i+1][0]
		}
		seg := strings.TrimSpace(text[m[1]:end])
		if len(seg) > minMarkedSegment {
			out = append(out, Question{Text: seg, Confidence: markedConfidence})
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); len(p) > minParagraph {
			out = append(out, Question{Text: p, Confidence: paragraphConfidence})
		}
	}
	return out
}

func FindAnswers(text string) []string {
	out := []string{}
	for _, m := range answerPattern.FindAllStringSubmatch(text, -1) {
		if a := strings.TrimSpace(m[1]); a != "" {
			out = append(out, a)
		}
	}
	return out
}
