// Package inventory checks requested games against the RomM library
// database so users can see which platforms already own a title.
package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"backlog/internal/cache"
	"backlog/internal/middleware"
	"backlog/internal/models"

	_ "github.com/go-sql-driver/mysql"
)

// ownedPlatformsQuery resolves which platforms own a ROM for the given IGDB
// game id. RomM stores the IGDB ids on both roms and platforms.
const ownedPlatformsQuery = `
SELECT DISTINCT p.igdb_id
FROM roms r
JOIN platforms p ON p.id = r.platform_id
WHERE r.igdb_id = ? AND p.igdb_id IS NOT NULL`

// Checker answers "which platforms already have this game" against the RomM
// database. A nil Checker (unconfigured DSN) reports nothing owned.
type Checker struct {
	db *sql.DB
}

// NewChecker opens a read-only connection to the RomM MySQL database.
// Returns (nil, nil) when dsn is empty, which disables inventory checks.
func NewChecker(dsn string) (*Checker, error) {
	if dsn == "" {
		return nil, nil
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open romm database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		// The library DB being down should not take the portal down with it.
		middleware.Logger.Warn("RomM database unreachable, inventory checks degraded", "error", err)
	}

	return &Checker{db: db}, nil
}

// NewCheckerWithDB wraps an existing connection. Intended for tests.
func NewCheckerWithDB(db *sql.DB) *Checker {
	return &Checker{db: db}
}

// Enabled reports whether a library database is configured.
func (c *Checker) Enabled() bool {
	return c != nil && c.db != nil
}

// OwnedPlatforms returns the IGDB platform ids that already hold the game.
// Results are cached; an empty slice means the game is absent everywhere.
func (c *Checker) OwnedPlatforms(ctx context.Context, igdbGameID int64) ([]int64, error) {
	if !c.Enabled() {
		return []int64{}, nil
	}
	if igdbGameID <= 0 {
		return nil, models.NewValidationError("igdb_game_id must be a positive integer")
	}

	var platforms []int64
	err := cache.Aside(ctx, cache.InventoryKey(igdbGameID), &platforms, cache.InventoryTTL, func() error {
		rows, err := c.db.QueryContext(ctx, ownedPlatformsQuery, igdbGameID)
		if err != nil {
			return models.NewUpstreamError("game library", fmt.Errorf("romm owned platforms query: %w", err))
		}
		defer rows.Close()

		platforms = []int64{}
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				return models.NewUpstreamError("game library", err)
			}
			platforms = append(platforms, id)
		}
		if err := rows.Err(); err != nil {
			return models.NewUpstreamError("game library", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if platforms == nil {
		platforms = []int64{}
	}
	return platforms, nil
}

// Close releases the underlying connection pool.
func (c *Checker) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}
