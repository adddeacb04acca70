package agent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedPolicy(t *testing.T) {
	p, err := LoadPolicy(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Version)
	assert.Contains(t, p.SystemPrompt, "query_question_topics")
	assert.Len(t, p.ConfirmTools, 6)
	assert.NotEmpty(t, p.Exhausted)
}

func TestIsAffirmative(t *testing.T) {
	p, err := LoadPolicy(nil)
	require.NoError(t, err)

	cases := []struct {
		msg  string
		want bool
	}{
		{"yes", true},
		{"Yes please", true},
		{"well, sure", true},
		{"thank you, go ahead", true},
		{"OK", true},
		{"sounds good to me", true},
		{"look at this", false},
		{"no, not yet", false},
		{"don't do it", false},
		{"wait, yes", false},
		{"yes?", false},
		{"", false},
		{"um", false},
	}
	for _, tc := range cases {
		t.Run(tc.msg, func(t *testing.T) {
			assert.Equal(t, tc.want, p.Confirmation.IsAffirmative(tc.msg))
		})
	}
}

func TestAsksForConfirmation(t *testing.T) {
	p, err := LoadPolicy(nil)
	require.NoError(t, err)
	assert.True(t, p.Confirmation.AsksForConfirmation("I found 3 questions. Would you like me to generate 2 more?"))
	assert.True(t, p.Confirmation.AsksForConfirmation("Shall I book it?"))
	assert.False(t, p.Confirmation.AsksForConfirmation("Here are the topics in the bank."))
}

func TestParsePolicyValidation(t *testing.T) {
	_, err := ParsePolicy([]byte("system_prompt: \"\"\n"))
	assert.ErrorContains(t, err, "system_prompt")

	_, err = ParsePolicy([]byte("system_prompt: hi\n"))
	assert.ErrorContains(t, err, "affirmative_phrases")

	_, err = ParsePolicy([]byte("system_prompt: [unclosed\n"))
	assert.Error(t, err)

	p, err := ParsePolicy([]byte("system_prompt: hi\nconfirmation:\n  affirmative_phrases: [yes]\n"))
	require.NoError(t, err)
	assert.NotEmpty(t, p.Exhausted)
}

func TestLoadPolicyOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 7\nsystem_prompt: custom\nconfirmation:\n  affirmative_phrases: [aye]\n"), 0o644))

	t.Setenv(policyPathEnv, path)
	p, err := LoadPolicy(nil)
	require.NoError(t, err)
	assert.Equal(t, 7, p.Version)
	assert.True(t, p.Confirmation.IsAffirmative("aye"))

	t.Setenv(policyPathEnv, filepath.Join(dir, "missing.yaml"))
	p, err = LoadPolicy(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Version)
}
