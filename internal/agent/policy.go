package agent

import (
	"embed"
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/tutorbridge-backend/internal/platform/logger"
)

const policyPathEnv = "AGENT_POLICY_YAML"

//go:embed policy.yaml
var policyFS embed.FS

type Confirmation struct {
	NegativePrefixes   []string `yaml:"negative_prefixes"`
	AffirmativePhrases []string `yaml:"affirmative_phrases"`
	LeadingFiller      []string `yaml:"leading_filler"`
	AskPhrases         []string `yaml:"ask_phrases"`
}

// Policy is the agent's instruction text plus the confirmation rules the
// workflow enforces.
type Policy struct {
	Version      int          `yaml:"version"`
	SystemPrompt string       `yaml:"system_prompt"`
	Confirmation Confirmation `yaml:"confirmation"`
	ConfirmTools []string     `yaml:"confirm_tools"`
	Exhausted    string       `yaml:"exhausted_reply"`
}

// LoadPolicy reads the file named by AGENT_POLICY_YAML, falling back to the
// embedded policy when the variable is unset or the file is unusable.
func LoadPolicy(log *logger.Logger) (Policy, error) {
	if path := strings.TrimSpace(os.Getenv(policyPathEnv)); path != "" {
		raw, err := os.ReadFile(path)
		if err == nil {
			p, perr := ParsePolicy(raw)
			if perr == nil {
				return p, nil
			}
			err = perr
		}
		if log != nil {
			log.Warn("agent policy override unusable, using embedded policy", "path", path, "error", err)
		}
	}
	raw, err := policyFS.ReadFile("policy.yaml")
	if err != nil {
		return Policy{}, fmt.Errorf("read embedded policy: %w", err)
	}
	return ParsePolicy(raw)
}

func ParsePolicy(raw []byte) (Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Policy{}, fmt.Errorf("parse agent policy: %w", err)
	}
	p.SystemPrompt = strings.TrimSpace(p.SystemPrompt)
	if p.SystemPrompt == "" {
		return Policy{}, fmt.Errorf("agent policy: system_prompt is empty")
	}
	if len(p.Confirmation.AffirmativePhrases) == 0 {
		return Policy{}, fmt.Errorf("agent policy: confirmation.affirmative_phrases is empty")
	}
	if strings.TrimSpace(p.Exhausted) == "" {
		p.Exhausted = "I'm sorry, I couldn't finish that request. Please try again."
	}
	return p, nil
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// hasPhrase reports whether phrase occurs in ws as whole words.
func hasPhrase(ws []string, phrase string) bool {
	p := words(phrase)
	if len(p) == 0 || len(p) > len(ws) {
		return false
	}
	for i := 0; i+len(p) <= len(ws); i++ {
		match := true
		for j := range p {
			if ws[i+j] != p[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func (c Confirmation) stripFiller(ws []string) []string {
	for len(ws) > 0 {
		stripped := false
		for _, f := range c.LeadingFiller {
			fw := words(f)
			if len(fw) > 0 && len(fw) <= len(ws) && hasPhrase(ws[:len(fw)], f) {
				ws = ws[len(fw):]
				stripped = true
				break
			}
		}
		if !stripped {
			return ws
		}
	}
	return ws
}

// IsAffirmative reports whether a user message reads as a go-ahead.
// Questions and refusals never do.
func (c Confirmation) IsAffirmative(message string) bool {
	s := strings.TrimSpace(message)
	if s == "" || strings.Contains(s, "?") {
		return false
	}
	ws := c.stripFiller(words(s))
	if len(ws) == 0 {
		return false
	}
	for _, neg := range c.NegativePrefixes {
		nw := words(neg)
		if len(nw) > 0 && len(nw) <= len(ws) && hasPhrase(ws[:len(nw)], neg) {
			return false
		}
	}
	for _, phrase := range c.AffirmativePhrases {
		if hasPhrase(ws, phrase) {
			return true
		}
	}
	return false
}

// AsksForConfirmation reports whether an assistant reply requested the
// tutor's go-ahead.
func (c Confirmation) AsksForConfirmation(reply string) bool {
	ws := words(reply)
	for _, phrase := range c.AskPhrases {
		if hasPhrase(ws, phrase) {
			return true
		}
	}
	return false
}
