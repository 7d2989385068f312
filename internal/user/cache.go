package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/redmonkez12/identity-api/internal/logging"
)

// DefaultCacheTTL bounds how long a cached user may be served
const DefaultCacheTTL = 5 * time.Minute

// generationGrace keeps a generation counter alive past every entry tagged
// with it.
const generationGrace = time.Hour

// CachedRepository is a read-through Redis cache in front of a Store.
// Only FindByEmail is served from the cache; every write evicts the owning
// user's entry. Redis failures are logged and the inner store answers.
//
// Each email has a generation counter that writes bump after the inner store
// commits. Entries carry the generation read before the inner lookup and are
// served only while it is current, so a reader racing a write cannot publish
// the row the write replaced.
type CachedRepository struct {
	inner  Store
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

func NewCachedRepository(inner Store, client *redis.Client, ttl time.Duration, logger *logging.Logger) *CachedRepository {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedRepository{inner: inner, client: client, ttl: ttl, logger: logger}
}

// cacheEntry is the serialized form stored under the email key
type cacheEntry struct {
	Generation int64 `json:"generation"`
	User       User  `json:"user"`
}

// getEmailKey generates the Redis key holding a serialized user
func getEmailKey(email string) string {
	return fmt.Sprintf("user:email:%s", email)
}

// getIDKey generates the Redis key mapping a user ID to its email
func getIDKey(id int64) string {
	return fmt.Sprintf("user:id:%d", id)
}

// getGenerationKey generates the Redis key counting writes to a user
func getGenerationKey(email string) string {
	return fmt.Sprintf("user:gen:%s", email)
}

func (c *CachedRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return c.inner.ExistsByEmail(ctx, email)
}

// FindByEmail serves from Redis when possible and populates it on a miss
func (c *CachedRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	generation, cached, ok := c.lookup(ctx, email)
	if cached != nil {
		return cached, nil
	}

	u, err := c.inner.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if ok {
		c.store(ctx, u, generation)
	}
	return u, nil
}

// lookup reads the entry and the current generation together. ok is false
// when Redis could not answer, in which case nothing should be written back.
func (c *CachedRepository) lookup(ctx context.Context, email string) (int64, *User, bool) {
	vals, err := c.client.MGet(ctx, getEmailKey(email), getGenerationKey(email)).Result()
	if err != nil {
		c.logger.Warn("user cache read failed", "error", err.Error())
		return 0, nil, false
	}

	var generation int64
	if raw, isString := vals[1].(string); isString {
		generation, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.logger.Warn("dropping unreadable cache generation", "email", email)
			return 0, nil, false
		}
	}

	raw, isString := vals[0].(string)
	if !isString {
		return generation, nil, true
	}

	var entry cacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		c.logger.Warn("dropping undecodable cached user", "email", email)
		return generation, nil, true
	}
	if entry.Generation != generation {
		return generation, nil, true
	}
	return generation, &entry.User, true
}

func (c *CachedRepository) SaveUser(ctx context.Context, u *User) (*User, error) {
	saved, err := c.inner.SaveUser(ctx, u)
	if err != nil {
		return nil, err
	}
	c.evict(ctx, saved.Email)
	return saved, nil
}

func (c *CachedRepository) DeleteByEmail(ctx context.Context, email string) error {
	if err := c.inner.DeleteByEmail(ctx, email); err != nil {
		return err
	}
	c.evict(ctx, email)
	return nil
}

func (c *CachedRepository) FindAddressByID(ctx context.Context, id int64) (*Address, error) {
	return c.inner.FindAddressByID(ctx, id)
}

func (c *CachedRepository) SaveAddress(ctx context.Context, a *Address) (*Address, error) {
	saved, err := c.inner.SaveAddress(ctx, a)
	if err != nil {
		return nil, err
	}
	c.evictByID(ctx, saved.UserID)
	return saved, nil
}

func (c *CachedRepository) FindPhoneByID(ctx context.Context, id int64) (*Phone, error) {
	return c.inner.FindPhoneByID(ctx, id)
}

func (c *CachedRepository) SavePhone(ctx context.Context, p *Phone) (*Phone, error) {
	saved, err := c.inner.SavePhone(ctx, p)
	if err != nil {
		return nil, err
	}
	c.evictByID(ctx, saved.UserID)
	return saved, nil
}

func (c *CachedRepository) store(ctx context.Context, u *User, generation int64) {
	data, err := json.Marshal(cacheEntry{Generation: generation, User: *u})
	if err != nil {
		c.logger.Warn("failed to encode user for cache", "error", err.Error())
		return
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, getEmailKey(u.Email), data, c.ttl)
	pipe.Set(ctx, getIDKey(u.ID), u.Email, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("user cache write failed", "error", err.Error())
	}
}

// evict drops the entry and bumps the generation so that entries loaded
// before the write are never served.
func (c *CachedRepository) evict(ctx context.Context, email string) {
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, getEmailKey(email))
	pipe.Incr(ctx, getGenerationKey(email))
	pipe.Expire(ctx, getGenerationKey(email), c.ttl+generationGrace)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("user cache eviction failed", "email", email, "error", err.Error())
	}
}

// evictByID resolves the owner's email through the ID key. Without it
// nothing of that user can be cached, so there is nothing to evict.
func (c *CachedRepository) evictByID(ctx context.Context, userID int64) {
	email, err := c.client.Get(ctx, getIDKey(userID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("user cache lookup failed", "user_id", userID, "error", err.Error())
		}
		return
	}
	c.evict(ctx, email)
}
