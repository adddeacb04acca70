package tools

import (
	"encoding/json"
)

// Result is the JSON object every tool returns. It always carries
// "success" and, when success is false, "error".
type Result map[string]any

func (r Result) Success() bool {
	ok, _ := r["success"].(bool)
	return ok
}

func (r Result) Error() string {
	msg, _ := r["error"].(string)
	return msg
}

// JSON encodes the result. Encoding failures degrade to a failure object.
func (r Result) JSON() string {
	b, err := json.Marshal(r)
	if err != nil {
		b, _ = json.Marshal(Result{"success": false, "error": "encode tool result: " + err.Error()})
	}
	return string(b)
}

// Succeed returns fields with success set.
func Succeed(fields Result) Result {
	if fields == nil {
		fields = Result{}
	}
	fields["success"] = true
	return fields
}

func Fail(msg string) Result {
	return Result{"success": false, "error": msg}
}

// FailWith returns a failure that also carries extra fields.
func FailWith(msg string, extra Result) Result {
	out := Result{}
	for k, v := range extra {
		out[k] = v
	}
	out["success"] = false
	out["error"] = msg
	return out
}
