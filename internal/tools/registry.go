package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/tutorbridge-backend/internal/observability"
	"github.com/yungbote/tutorbridge-backend/internal/platform/ctxutil"
	"github.com/yungbote/tutorbridge-backend/internal/platform/llm"
	"github.com/yungbote/tutorbridge-backend/internal/platform/logger"
)

var tracer = otel.Tracer("tutorbridge/tools")

type Handler func(ctx context.Context, args Args) (Result, error)

type Tool struct {
	Name        string
	Description string
	// Parameters is a JSON schema object describing the arguments.
	Parameters map[string]any
	Handler    Handler
}

// Outcome is one dispatched call, as recorded in action traces.
type Outcome struct {
	Tool   string `json:"tool"`
	Input  Args   `json:"input"`
	Output Result `json:"output"`
}

type registered struct {
	tool   Tool
	schema *jsonschema.Schema
}

type Registry struct {
	mu     sync.RWMutex
	log    *logger.Logger
	byName map[string]registered
	order  []string
	mode   Enforcement
}

func NewRegistry(mode Enforcement, baseLog *logger.Logger) *Registry {
	if mode == "" {
		mode = EnforcementStrict
	}
	return &Registry{
		log:    baseLog.With("service", "ToolRegistry"),
		byName: map[string]registered{},
		mode:   mode,
	}
}

// Register compiles the tool's schema once and adds it to the registry.
func (r *Registry) Register(t Tool) error {
	if r == nil {
		return fmt.Errorf("nil registry")
	}
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return fmt.Errorf("missing tool name")
	}
	if t.Handler == nil {
		return fmt.Errorf("tool %s has no handler", name)
	}
	if t.Parameters == nil {
		t.Parameters = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	schema, err := compileSchema(name, t.Parameters)
	if err != nil {
		return fmt.Errorf("tool %s: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("tool already registered: %s", name)
	}
	t.Name = name
	r.byName[name] = registered{tool: t, schema: schema}
	r.order = append(r.order, name)
	return nil
}

func compileSchema(name string, def map[string]any) (*jsonschema.Schema, error) {
	// The compiler wants plain decoded JSON, not Go-typed maps.
	raw, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("tool://%s.json", name)
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return compiled, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]string{}, r.order...)
	return out
}

// Definitions lists the tools in registration order for a model request.
func (r *Registry) Definitions() []llm.ToolDef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]llm.ToolDef, 0, len(r.order))
	for _, name := range r.order {
		t := r.byName[name].tool
		out = append(out, llm.ToolDef{Name: t.Name, Description: t.Description, Parameters: t.Parameters})
	}
	return out
}

// Dispatch runs one tool call. It never returns a Go error: every failure
// is folded into the result so the model can read it.
func (r *Registry) Dispatch(ctx context.Context, wf *Workflow, name, rawArgs string) Outcome {
	ctx = ctxutil.Default(ctx)
	ctx, span := tracer.Start(ctx, "tool."+name)
	defer span.End()
	span.SetAttributes(attribute.String("tool.name", name))

	start := time.Now()
	out := Outcome{Tool: name, Input: Args{}}
	finish := func(res Result) Outcome {
		out.Output = res
		observability.Current().ObserveToolCall(name, res.Success(), time.Since(start))
		span.SetAttributes(attribute.Bool("tool.success", res.Success()))
		if !res.Success() {
			span.SetStatus(codes.Error, res.Error())
		}
		return out
	}

	r.mu.RLock()
	reg, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return finish(Fail(fmt.Sprintf("unknown tool: %s", name)))
	}

	if strings.TrimSpace(rawArgs) == "" {
		rawArgs = "{}"
	}
	var parsed any
	if err := json.Unmarshal([]byte(rawArgs), &parsed); err != nil {
		return finish(Fail(fmt.Sprintf("invalid JSON arguments: %v", err)))
	}
	obj, isObj := parsed.(map[string]any)
	if !isObj {
		return finish(Fail("invalid JSON arguments: expected an object"))
	}
	args := Args(obj)
	out.Input = args

	if err := reg.schema.Validate(parsed); err != nil {
		return finish(Fail(fmt.Sprintf("invalid arguments for %s: %v", name, err)))
	}

	if wf != nil {
		if v := wf.Check(name, args); v != nil {
			if r.mode == EnforcementStrict {
				observability.Current().IncToolBlocked(name, v.RequiredStep)
				r.log.Info("tool blocked by workflow", append(ctxutil.TraceFields(ctx),
					"tool", name, "required_step", v.RequiredStep)...)
				return finish(FailWith(v.Message, Result{"required_step": v.RequiredStep}))
			}
			r.log.Warn("workflow violation allowed", append(ctxutil.TraceFields(ctx),
				"tool", name, "required_step", v.RequiredStep, "mode", r.mode)...)
		}
	}

	res, err := reg.tool.Handler(ctx, args)
	if err != nil {
		r.log.Error("tool handler failed", append(ctxutil.TraceFields(ctx), "tool", name, "error", err)...)
		return finish(Fail(err.Error()))
	}
	if res == nil {
		res = Fail("tool returned no result")
	}
	if _, ok := res["success"]; !ok {
		res["success"] = true
	}

	if wf != nil {
		wf.Record(name, args, res)
	}
	return finish(res)
}
