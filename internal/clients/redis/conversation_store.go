package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/tutorbridge-backend/internal/agent"
	"github.com/yungbote/tutorbridge-backend/internal/platform/envutil"
	"github.com/yungbote/tutorbridge-backend/internal/platform/logger"
)

const defaultKeyPrefix = "tutorbridge:conv:"

// ConversationStore keeps agent conversations as JSON values with a sliding TTL.
type ConversationStore struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

var _ agent.ConversationStore = (*ConversationStore)(nil)

// NewConversationStore connects to REDIS_ADDR and pings it.
func NewConversationStore(log *logger.Logger) (*ConversationStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    os.Getenv("REDIS_PASSWORD"),
		DB:          envutil.Int("REDIS_DB", 0),
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewConversationStoreWithClient(rdb,
		envutil.String("REDIS_CONVERSATION_PREFIX", defaultKeyPrefix),
		envutil.Duration("CONVERSATION_TTL", 24*time.Hour),
		log), nil
}

func NewConversationStoreWithClient(rdb *goredis.Client, prefix string, ttl time.Duration, log *logger.Logger) *ConversationStore {
	if strings.TrimSpace(prefix) == "" {
		prefix = defaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ConversationStore{
		log:    log.With("service", "RedisConversationStore"),
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *ConversationStore) key(id string) string {
	return s.prefix + strings.TrimSpace(id)
}

func (s *ConversationStore) Load(ctx context.Context, id string) (*agent.Conversation, error) {
	if s == nil || s.rdb == nil {
		return nil, fmt.Errorf("redis conversation store not initialized")
	}
	raw, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get conversation: %w", err)
	}
	var conv agent.Conversation
	if err := json.Unmarshal(raw, &conv); err != nil {
		s.log.Warn("bad conversation payload, discarding", "conversation_id", id, "error", err)
		return nil, nil
	}
	return &conv, nil
}

func (s *ConversationStore) Save(ctx context.Context, c *agent.Conversation) error {
	if s == nil || s.rdb == nil {
		return fmt.Errorf("redis conversation store not initialized")
	}
	if c == nil || strings.TrimSpace(c.ID) == "" {
		return nil
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.key(c.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set conversation: %w", err)
	}
	return nil
}

func (s *ConversationStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}
