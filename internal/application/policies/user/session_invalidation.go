package policies

import (
	"context"

	"rightsdesk-backend/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// UserSessionsPrefix keys the set of session ids held by one user.
const UserSessionsPrefix = "user_sessions:"

// DestroyUserSessions deletes every session:<sid> listed in user_sessions:<user_id>, then the set.
func DestroyUserSessions(ctx context.Context, rdb *redis.Client, userID string) {
	if rdb == nil || userID == "" {
		return
	}
	key := UserSessionsPrefix + userID
	sessionIDs, err := rdb.SMembers(ctx, key).Result()
	if err == nil {
		for _, sid := range sessionIDs {
			rdb.Del(ctx, middleware.SessionRedisPrefix+sid)
		}
	}
	rdb.Del(ctx, key)
}
