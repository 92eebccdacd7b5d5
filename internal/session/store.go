package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	redisclient "github.com/angelmondragon/packfinderz-storefront/pkg/redis"
)

// State is what survives between runs for one role.
type State struct {
	Authenticated bool       `json:"authenticated"`
	Role          enums.Role `json:"role"`
	Token         string     `json:"token,omitempty"`
	Identity      Identity   `json:"identity"`
	SavedAt       time.Time  `json:"saved_at"`
}

// Store persists State keyed by role.
type Store interface {
	Save(ctx context.Context, role enums.Role, state State) error
	Load(ctx context.Context, role enums.Role) (State, bool, error)
	Clear(ctx context.Context, role enums.Role) error
}

type kvStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	SessionKey(role string) string
}

// RedisStore is the durable store used when "remember me" is on.
type RedisStore struct {
	kv    kvStore
	keyer sessionKeyer
	ttl   time.Duration
}

// NewRedisStore builds a durable store on the shared redis client.
func NewRedisStore(client *redisclient.Client, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return newRedisStore(client, client, ttl)
}

func newRedisStore(kv kvStore, keyer sessionKeyer, ttl time.Duration) (*RedisStore, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("durable session ttl must be positive")
	}
	return &RedisStore{kv: kv, keyer: keyer, ttl: ttl}, nil
}

func (s *RedisStore) Save(ctx context.Context, role enums.Role, state State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.kv.Set(ctx, s.keyer.SessionKey(role.String()), string(payload), s.ttl)
}

func (s *RedisStore) Load(ctx context.Context, role enums.Role) (State, bool, error) {
	raw, err := s.kv.Get(ctx, s.keyer.SessionKey(role.String()))
	if redisclient.IsMissing(err) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, err
	}
	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return State{}, false, fmt.Errorf("decode session: %w", err)
	}
	return state, true, nil
}

func (s *RedisStore) Clear(ctx context.Context, role enums.Role) error {
	return s.kv.Del(ctx, s.keyer.SessionKey(role.String()))
}

// MemoryStore keeps state for the lifetime of the process only.
type MemoryStore struct {
	mu     sync.Mutex
	states map[enums.Role]State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: map[enums.Role]State{}}
}

func (s *MemoryStore) Save(_ context.Context, role enums.Role, state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[role] = state
	return nil
}

func (s *MemoryStore) Load(_ context.Context, role enums.Role) (State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[role]
	return state, ok, nil
}

func (s *MemoryStore) Clear(_ context.Context, role enums.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, role)
	return nil
}
