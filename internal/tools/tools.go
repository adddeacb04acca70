package tools

import (
	"fmt"
	"time"

	"github.com/yungbote/tutorbridge-backend/internal/data/store"
	"github.com/yungbote/tutorbridge-backend/internal/platform/docrender"
	"github.com/yungbote/tutorbridge-backend/internal/platform/logger"
	"github.com/yungbote/tutorbridge-backend/internal/platform/objectstore"
	"github.com/yungbote/tutorbridge-backend/internal/services/generation"
)

type Deps struct {
	Store      *store.Store
	Generation generation.Service
	Objects    objectstore.Store
	Renderer   *docrender.Renderer
	Search     SearchProvider
	Guard      *Guard
	// Now defaults to time.Now.
	Now func() time.Time
}

// Toolkit holds the handlers of every agent tool.
type Toolkit struct {
	store    *store.Store
	gen      generation.Service
	objects  objectstore.Store
	renderer *docrender.Renderer
	search   SearchProvider
	guard    *Guard
	now      func() time.Time
	log      *logger.Logger
}

func NewToolkit(d Deps, baseLog *logger.Logger) (*Toolkit, error) {
	if d.Store == nil {
		return nil, fmt.Errorf("toolkit requires a store")
	}
	if d.Generation == nil {
		return nil, fmt.Errorf("toolkit requires a generation service")
	}
	if d.Objects == nil {
		d.Objects = objectstore.NewMemory("")
	}
	if d.Renderer == nil {
		r, err := docrender.NewRenderer()
		if err != nil {
			return nil, fmt.Errorf("worksheet renderer: %w", err)
		}
		d.Renderer = r
	}
	if d.Search == nil {
		d.Search = NewSearchProviderFromEnv(nil)
	}
	if d.Guard == nil {
		d.Guard = NewGuard(d.Store, d.Generation, GuardConfigFromEnv(), baseLog)
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Toolkit{
		store:    d.Store,
		gen:      d.Generation,
		objects:  d.Objects,
		renderer: d.Renderer,
		search:   d.Search,
		guard:    d.Guard,
		now:      d.Now,
		log:      baseLog.With("service", "Toolkit"),
	}, nil
}

func (k *Toolkit) Tools() []Tool {
	var out []Tool
	out = append(out, k.studentTools()...)
	out = append(out, k.questionTools()...)
	out = append(out, k.worksheetTools()...)
	out = append(out, k.lessonTools()...)
	out = append(out, k.scheduleTools()...)
	out = append(out, k.datetimeTools()...)
	out = append(out, k.searchTools()...)
	return out
}

// NewDefaultRegistry registers every toolkit tool.
func NewDefaultRegistry(k *Toolkit, mode Enforcement, baseLog *logger.Logger) (*Registry, error) {
	r := NewRegistry(mode, baseLog)
	for _, t := range k.Tools() {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (k *Toolkit) toolLog(tool string) *logger.Logger {
	return k.log.With("tool", tool)
}
