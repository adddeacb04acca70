package tools

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/tutorbridge-backend/internal/data/repos/testutil"
	"github.com/yungbote/tutorbridge-backend/internal/data/store"
	"github.com/yungbote/tutorbridge-backend/internal/platform/llm"
	"github.com/yungbote/tutorbridge-backend/internal/platform/objectstore"
	"github.com/yungbote/tutorbridge-backend/internal/services/generation"
)

// fixedNow is a Wednesday.
var fixedNow = time.Date(2026, time.October, 14, 15, 30, 0, 0, time.UTC)

type fakeSearch struct {
	mu    sync.Mutex
	hits  map[string][]SearchHit
	err   error
	calls []string
}

func (f *fakeSearch) Name() string { return "fake" }

func (f *fakeSearch) Search(_ context.Context, query string, _ int, _ []string) ([]SearchHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, query)
	if f.err != nil {
		return nil, f.err
	}
	for prefix, hits := range f.hits {
		if strings.HasPrefix(query, prefix) {
			return hits, nil
		}
	}
	return nil, errors.New("no canned hits for " + query)
}

type failingObjects struct{}

func (failingObjects) Put(context.Context, string, string, io.Reader) error {
	return errors.New("bucket offline")
}
func (failingObjects) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, objectstore.ErrNotFound
}
func (failingObjects) SignedURL(context.Context, string, time.Duration) (string, error) {
	return "", errors.New("bucket offline")
}

type kit struct {
	db       *gorm.DB
	store    *store.Store
	mock     *llm.MockProvider
	objects  *objectstore.Memory
	search   *fakeSearch
	toolkit  *Toolkit
	registry *Registry
}

type kitOption func(*Deps)

func newKit(t *testing.T, opts ...kitOption) *kit {
	t.Helper()
	log := testutil.Logger(t)
	db := testutil.DB(t)
	st := store.New(store.NewRepos(db, log), store.BreakerConfig{}, log)
	mock := llm.NewMockProvider()
	gen := generation.NewService(mock, log)
	mem := objectstore.NewMemory("")
	search := &fakeSearch{hits: map[string][]SearchHit{}}

	d := Deps{
		Store:      st,
		Generation: gen,
		Objects:    mem,
		Search:     search,
		Guard:      NewGuard(st, gen, GuardConfig{RetryBase: time.Millisecond, MaxRetries: 10}, log),
		Now:        func() time.Time { return fixedNow },
	}
	for _, o := range opts {
		o(&d)
	}
	tk, err := NewToolkit(d, log)
	require.NoError(t, err)
	reg, err := NewDefaultRegistry(tk, EnforcementStrict, log)
	require.NoError(t, err)
	return &kit{db: db, store: st, mock: mock, objects: mem, search: search, toolkit: tk, registry: reg}
}

// call dispatches without a workflow, bypassing the guards.
func (k *kit) call(t *testing.T, name string, args map[string]any) Result {
	t.Helper()
	raw, err := json.Marshal(args)
	require.NoError(t, err)
	return k.registry.Dispatch(context.Background(), nil, name, string(raw)).Output
}

func draftsJSON(t *testing.T, texts ...string) string {
	t.Helper()
	drafts := make([]generation.DraftQuestion, 0, len(texts))
	for _, text := range texts {
		drafts = append(drafts, generation.DraftQuestion{Text: text, Answer: "1/2", Explanation: "Simplify."})
	}
	raw, err := json.Marshal(drafts)
	require.NoError(t, err)
	return string(raw)
}

// roundTrip runs v through JSON so tests can read nested results the way
// the model sees them.
func roundTrip(t *testing.T, v any) map[string]any {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}
