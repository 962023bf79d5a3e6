package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix      = "user:%d"
	InventoryKeyPrefix = "inventory:game:%d"
)

const (
	UserTTL      = 5 * time.Minute
	InventoryTTL = 10 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// InventoryKey caches owned-platform lookups per IGDB game.
func InventoryKey(igdbGameID int64) string {
	return fmt.Sprintf(InventoryKeyPrefix, igdbGameID)
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}
