// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"backlog/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// wellKnownGames keeps seeded requests recognizable in the UI.
var wellKnownGames = []struct {
	igdbID int64
	name   string
	cover  string
}{
	{1020, "Grand Theft Auto V", "co2lbd"},
	{1942, "The Witcher 3: Wild Hunt", "co1wyy"},
	{7346, "The Legend of Zelda: Breath of the Wild", "co3p2d"},
	{119171, "Hades", "co39vc"},
	{26192, "Outer Wilds", "co65ac"},
	{121, "Minecraft", "co49x5"},
	{1877, "Cyberpunk 2077", "co7497"},
	{19560, "Hollow Knight", "co93cr"},
}

var wellKnownPlatforms = []struct {
	igdbID int64
	name   string
}{
	{6, "PC (Microsoft Windows)"},
	{48, "PlayStation 4"},
	{167, "PlayStation 5"},
	{130, "Nintendo Switch"},
	{169, "Xbox Series X|S"},
}

// Seeder populates the database with fake users and requests.
type Seeder struct {
	db  *gorm.DB
	rng *rand.Rand
}

// NewSeeder creates a new Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// ClearAll removes all seeded entities.
func (s *Seeder) ClearAll() error {
	if err := s.db.Exec("DELETE FROM game_requests").Error; err != nil {
		return fmt.Errorf("clear game_requests: %w", err)
	}
	if err := s.db.Exec("DELETE FROM users").Error; err != nil {
		return fmt.Errorf("clear users: %w", err)
	}
	return nil
}

// CreateUser constructs and persists a sample user. Optional override
// functions may modify the generated user before saving.
func (s *Seeder) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		OIDCSub:     "seed|" + gofakeit.UUID(),
		Email:       gofakeit.Email(),
		DisplayName: gofakeit.Username(),
	}
	for _, override := range overrides {
		override(user)
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateRequest constructs and persists a sample request for the user.
func (s *Seeder) CreateRequest(user *models.User, overrides ...func(*models.GameRequest)) (*models.GameRequest, error) {
	game := wellKnownGames[s.rng.Intn(len(wellKnownGames))]
	platform := wellKnownPlatforms[s.rng.Intn(len(wellKnownPlatforms))]
	cover := fmt.Sprintf("https://images.igdb.com/igdb/image/upload/t_cover_big/%s.jpg", game.cover)

	req := &models.GameRequest{
		UserID:         user.ID,
		IgdbGameID:     game.igdbID,
		GameName:       game.name,
		GameCoverURL:   &cover,
		PlatformName:   platform.name,
		PlatformIgdbID: platform.igdbID,
		Status:         models.RequestStatusPending,
		CreatedAt:      time.Now().Add(-time.Duration(s.rng.Intn(60*24)) * time.Hour),
	}
	for _, override := range overrides {
		override(req)
	}

	if req.Status == models.RequestStatusFulfilled && req.FulfilledAt == nil {
		at := req.CreatedAt.Add(time.Duration(s.rng.Intn(72)) * time.Hour)
		req.FulfilledAt = &at
	}

	if err := s.db.Create(req).Error; err != nil {
		return nil, err
	}
	return req, nil
}

// SeedPortal creates numUsers users (first one an admin) with a spread of
// pending, fulfilled, and rejected requests. Duplicate pending triples are
// skipped so the seed respects the dedup rule.
func (s *Seeder) SeedPortal(numUsers, requestsPerUser int) ([]models.User, error) {
	users := make([]models.User, 0, numUsers)
	type triple struct {
		userID   uint
		game     int64
		platform int64
	}
	seenPending := map[triple]bool{}

	for i := 0; i < numUsers; i++ {
		user, err := s.CreateUser(func(u *models.User) {
			if i == 0 {
				u.DisplayName = "admin"
				u.Email = "admin@example.com"
				u.IsAdmin = true
			}
		})
		if err != nil {
			return nil, fmt.Errorf("seed user %d: %w", i, err)
		}
		users = append(users, *user)

		for j := 0; j < requestsPerUser; j++ {
			status := models.RequestStatusPending
			switch s.rng.Intn(4) {
			case 0:
				status = models.RequestStatusFulfilled
			case 1:
				status = models.RequestStatusRejected
			}

			_, err := s.CreateRequest(user, func(r *models.GameRequest) {
				r.Status = status
				if status == models.RequestStatusPending {
					key := triple{user.ID, r.IgdbGameID, r.PlatformIgdbID}
					for seenPending[key] {
						game := wellKnownGames[s.rng.Intn(len(wellKnownGames))]
						platform := wellKnownPlatforms[s.rng.Intn(len(wellKnownPlatforms))]
						r.IgdbGameID = game.igdbID
						r.GameName = game.name
						r.PlatformIgdbID = platform.igdbID
						r.PlatformName = platform.name
						key = triple{user.ID, r.IgdbGameID, r.PlatformIgdbID}
					}
					seenPending[key] = true
				}
				if status == models.RequestStatusRejected {
					notes := gofakeit.Sentence(8)
					r.AdminNotes = &notes
				}
			})
			if err != nil {
				return nil, fmt.Errorf("seed request for user %d: %w", user.ID, err)
			}
		}
	}

	return users, nil
}
