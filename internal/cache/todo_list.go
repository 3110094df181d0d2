package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// TodoListCache stores rendered list pages per user. Every user has a
// generation counter; pages are keyed by it, so bumping the counter makes
// all earlier pages unreachable and they age out through their TTL.
type TodoListCache struct {
	cache Cache
	ttl   time.Duration
}

func NewTodoListCache(c Cache, ttl time.Duration) *TodoListCache {
	return &TodoListCache{cache: c, ttl: ttl}
}

func generationKey(userID string) string {
	return fmt.Sprintf("todos:ver:%s", userID)
}

func pageKey(userID, generation, variant string) string {
	return fmt.Sprintf("todos:list:%s:%s:%s", userID, generation, variant)
}

func (t *TodoListCache) generation(ctx context.Context, userID string) (string, error) {
	gen, err := t.cache.Get(ctx, generationKey(userID))
	if errors.Is(err, ErrCacheMiss) {
		return "0", nil
	}
	return gen, err
}

// Get loads the page identified by variant into dest. It always returns
// the generation it looked at so a later Put can store under the same one;
// a page computed before a concurrent Invalidate then never becomes visible.
// ErrCacheMiss is returned when nothing is cached for that generation.
func (t *TodoListCache) Get(ctx context.Context, userID, variant string, dest interface{}) (string, error) {
	gen, err := t.generation(ctx, userID)
	if err != nil {
		return "", err
	}
	return gen, t.cache.GetJSON(ctx, pageKey(userID, gen, variant), dest)
}

// Put stores a page under the given generation.
func (t *TodoListCache) Put(ctx context.Context, userID, generation, variant string, page interface{}) error {
	return t.cache.SetJSON(ctx, pageKey(userID, generation, variant), page, t.ttl)
}

// Invalidate drops every cached page of the user.
func (t *TodoListCache) Invalidate(ctx context.Context, userID string) error {
	_, err := t.cache.Incr(ctx, generationKey(userID))
	return err
}
