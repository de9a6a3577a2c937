package cache

import (
	"context"
	"fmt"
	"time"
)

// Single posts are never cached: retrieval by ID carries the view-counter
// side effect and must always reach the database.
const (
	UserKeyPrefix = "user:%d"
	PostsListKey  = "posts:recent"
)

const (
	UserTTL      = 5 * time.Minute
	PostsListTTL = 30 * time.Second
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidatePostsList(ctx context.Context) {
	Invalidate(ctx, PostsListKey)
}
