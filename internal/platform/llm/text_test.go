package llm

import "testing"

func TestCleanJSON(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```":     `{"a":1}`,
		"  ```\n[1,2]\n```  ":          `[1,2]`,
		`{"plain":true}`:               `{"plain":true}`,
		"```json{\"tight\":1}```":      `{"tight":1}`,
		"\n```json\n  {\"x\":2}  \n": `{"x":2}`,
	}
	for in, want := range cases {
		if got := CleanJSON(in); got != want {
			t.Fatalf("CleanJSON(%q): want=%q got=%q", in, want, got)
		}
	}
}
