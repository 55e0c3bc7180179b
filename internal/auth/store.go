package auth

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "sync"
    "time"

    "github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned for a missing, expired or revoked session.
var ErrSessionNotFound = errors.New("auth: session not found")

// Session is the server-side half of a staff login.  The backend token
// never leaves the storefront.
type Session struct {
    Subject      string    `json:"subject"`
    Role         string    `json:"role"`
    BackendToken string    `json:"backendToken"`
    CreatedAt    time.Time `json:"createdAt"`
}

// Store persists sessions by id.
type Store interface {
    Put(ctx context.Context, id string, s Session, ttl time.Duration) error
    Get(ctx context.Context, id string) (Session, error)
    Delete(ctx context.Context, id string) error
}

// RedisStore keeps sessions in Redis as JSON with a TTL so every replica
// sees the same logins.
type RedisStore struct {
    rdb    *redis.Client
    prefix string
}

// NewRedisStore returns a Store backed by rdb.
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
    if prefix == "" {
        prefix = "session"
    }
    return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) key(id string) string { return s.prefix + ":" + id }

func (s *RedisStore) Put(ctx context.Context, id string, sess Session, ttl time.Duration) error {
    b, err := json.Marshal(sess)
    if err != nil {
        return fmt.Errorf("marshal session: %w", err)
    }
    return s.rdb.Set(ctx, s.key(id), b, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) (Session, error) {
    b, err := s.rdb.Get(ctx, s.key(id)).Bytes()
    if errors.Is(err, redis.Nil) {
        return Session{}, ErrSessionNotFound
    }
    if err != nil {
        return Session{}, err
    }
    var sess Session
    if err := json.Unmarshal(b, &sess); err != nil {
        return Session{}, fmt.Errorf("unmarshal session: %w", err)
    }
    return sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
    return s.rdb.Del(ctx, s.key(id)).Err()
}

// MemoryStore is a process-local Store used when Redis is unavailable.
type MemoryStore struct {
    mu    sync.Mutex
    items map[string]memoryEntry
    now   func() time.Time
}

type memoryEntry struct {
    session Session
    expires time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
    return &MemoryStore{items: map[string]memoryEntry{}, now: time.Now}
}

func (s *MemoryStore) Put(_ context.Context, id string, sess Session, ttl time.Duration) error {
    s.mu.Lock()
    s.items[id] = memoryEntry{session: sess, expires: s.now().Add(ttl)}
    s.mu.Unlock()
    return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Session, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    e, ok := s.items[id]
    if !ok {
        return Session{}, ErrSessionNotFound
    }
    if !s.now().Before(e.expires) {
        delete(s.items, id)
        return Session{}, ErrSessionNotFound
    }
    return e.session, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
    s.mu.Lock()
    delete(s.items, id)
    s.mu.Unlock()
    return nil
}
