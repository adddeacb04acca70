package agent

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/tutorbridge-backend/internal/platform/llm"
	"github.com/yungbote/tutorbridge-backend/internal/tools"
)

// NewSessionID is reported when a turn is not persisted.
const NewSessionID = "new-session"

// Turn is one stored chat message. Only user and final assistant text is
// kept; tool traffic is summarized by the workflow state.
type Turn struct {
	Role    llm.Role  `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

type Conversation struct {
	ID        string              `json:"id"`
	Turns     []Turn              `json:"turns"`
	Workflow  tools.WorkflowState `json:"workflow"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

func NewConversationID() string {
	return "conv_" + uuid.NewString()
}

func (c *Conversation) messages() []llm.Message {
	out := make([]llm.Message, 0, len(c.Turns))
	for _, t := range c.Turns {
		out = append(out, llm.Message{Role: t.Role, Content: t.Content})
	}
	return out
}

func (c *Conversation) clone() Conversation {
	out := *c
	out.Turns = append([]Turn(nil), c.Turns...)
	out.Workflow = c.Workflow.Clone()
	return out
}

// trim keeps the newest limit turns, starting on a user turn.
func (c *Conversation) trim(limit int) {
	if limit <= 0 || len(c.Turns) <= limit {
		return
	}
	turns := c.Turns[len(c.Turns)-limit:]
	for len(turns) > 0 && turns[0].Role != llm.RoleUser {
		turns = turns[1:]
	}
	c.Turns = append([]Turn(nil), turns...)
}

// ConversationStore persists conversations between chat calls. Load
// returns (nil, nil) for unknown ids.
type ConversationStore interface {
	Load(ctx context.Context, id string) (*Conversation, error)
	Save(ctx context.Context, c *Conversation) error
}

type memoryEntry struct {
	conv    Conversation
	expires time.Time
}

// MemoryConversations keeps conversations in process with a sliding TTL.
type MemoryConversations struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]memoryEntry
	now   func() time.Time
}

func NewMemoryConversations(ttl time.Duration) *MemoryConversations {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryConversations{ttl: ttl, items: map[string]memoryEntry{}, now: time.Now}
}

func (m *MemoryConversations) Load(_ context.Context, id string) (*Conversation, error) {
	id = strings.TrimSpace(id)
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	if m.now().After(e.expires) {
		delete(m.items, id)
		return nil, nil
	}
	c := e.conv.clone()
	return &c, nil
}

func (m *MemoryConversations) Save(_ context.Context, c *Conversation) error {
	if c == nil || strings.TrimSpace(c.ID) == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for id, e := range m.items {
		if now.After(e.expires) {
			delete(m.items, id)
		}
	}
	m.items[c.ID] = memoryEntry{conv: c.clone(), expires: now.Add(m.ttl)}
	return nil
}
