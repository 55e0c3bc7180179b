package catalog

import (
    "context"
    "log"
    "sync"
    "time"

    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/event-ticket-storefront/internal/availability"
    "github.com/iliyamo/event-ticket-storefront/internal/queue"
)

// Blocker commits the blocked status of an event to the backend.
type Blocker interface {
    BlockEvent(ctx context.Context, eventID string) error
}

// ActivityPublisher publishes storefront activity.
type ActivityPublisher interface {
    Publish(ctx context.Context, ev queue.ActivityEvent) error
}

// Deduper claims a key for a while.  Only the first claimant gets true.
type Deduper interface {
    Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
    Release(ctx context.Context, key string) error
}

// BlockCommitter executes block commands fire-and-forget.  A failed commit
// is logged and not retried; the next refresh produces the command again.
type BlockCommitter struct {
    blocker   Blocker
    dedupe    Deduper
    publisher ActivityPublisher
    ttl       time.Duration
    timeout   time.Duration

    wg sync.WaitGroup
}

// NewBlockCommitter returns a committer.  dedupe may be a RedisDeduper to
// share claims across replicas, or a MemoryDeduper.
func NewBlockCommitter(b Blocker, dedupe Deduper, pub ActivityPublisher) *BlockCommitter {
    if dedupe == nil {
        dedupe = NewMemoryDeduper()
    }
    return &BlockCommitter{
        blocker:   b,
        dedupe:    dedupe,
        publisher: pub,
        ttl:       time.Minute,
        timeout:   10 * time.Second,
    }
}

// Dispatch runs Execute in the background.  The commit outlives a cancelled
// request context.
func (c *BlockCommitter) Dispatch(ctx context.Context, cmd availability.BlockCommand) {
    ctx = context.WithoutCancel(ctx)
    c.wg.Add(1)
    go func() {
        defer c.wg.Done()
        _ = c.Execute(ctx, cmd)
    }()
}

// Execute commits one block command.  It returns nil without calling the
// backend when another refresh or replica already claimed the event.
func (c *BlockCommitter) Execute(ctx context.Context, cmd availability.BlockCommand) error {
    key := "block:" + cmd.EventID
    ok, err := c.dedupe.Claim(ctx, key, c.ttl)
    if err != nil {
        log.Printf("catalog: block dedupe for event %s failed, committing anyway: %v", cmd.EventID, err)
        ok = true
    }
    if !ok {
        return nil
    }

    cctx, cancel := context.WithTimeout(ctx, c.timeout)
    defer cancel()
    if err := c.blocker.BlockEvent(cctx, cmd.EventID); err != nil {
        log.Printf("catalog: block event %s (%s) failed: %v", cmd.EventID, cmd.Reason, err)
        _ = c.dedupe.Release(ctx, key)
        return err
    }
    log.Printf("catalog: event %s blocked (%s)", cmd.EventID, cmd.Reason)
    if c.publisher != nil {
        _ = c.publisher.Publish(ctx, queue.ActivityEvent{
            Type:    queue.EventBlocked,
            EventID: cmd.EventID,
            Detail:  string(cmd.Reason),
        })
    }
    return nil
}

// Wait blocks until every dispatched commit has finished.
func (c *BlockCommitter) Wait() { c.wg.Wait() }

// RedisDeduper claims keys with SET NX and a TTL.
type RedisDeduper struct {
    rdb    *redis.Client
    prefix string
}

// NewRedisDeduper returns a deduper that namespaces keys under prefix.
func NewRedisDeduper(rdb *redis.Client, prefix string) *RedisDeduper {
    if prefix == "" {
        prefix = "storefront"
    }
    return &RedisDeduper{rdb: rdb, prefix: prefix}
}

func (d *RedisDeduper) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
    return d.rdb.SetNX(ctx, d.prefix+":"+key, 1, ttl).Result()
}

func (d *RedisDeduper) Release(ctx context.Context, key string) error {
    return d.rdb.Del(ctx, d.prefix+":"+key).Err()
}

// MemoryDeduper is an in-process Deduper.
type MemoryDeduper struct {
    mu     sync.Mutex
    claims map[string]time.Time
    now    func() time.Time
}

// NewMemoryDeduper returns an empty MemoryDeduper.
func NewMemoryDeduper() *MemoryDeduper {
    return &MemoryDeduper{claims: map[string]time.Time{}, now: time.Now}
}

func (d *MemoryDeduper) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
    d.mu.Lock()
    defer d.mu.Unlock()
    now := d.now()
    if exp, ok := d.claims[key]; ok && now.Before(exp) {
        return false, nil
    }
    d.claims[key] = now.Add(ttl)
    return true, nil
}

func (d *MemoryDeduper) Release(_ context.Context, key string) error {
    d.mu.Lock()
    delete(d.claims, key)
    d.mu.Unlock()
    return nil
}
