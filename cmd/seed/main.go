// Command seed populates the database with demo users and requests.
package main

import (
	"flag"
	"log"

	"backlog/internal/config"
	"backlog/internal/database"
	"backlog/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 10, "Number of users to create")
	requestsPerUser := flag.Int("requests", 4, "Number of requests per user")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("Database Seeder")
	log.Printf("Target: %d users, %d requests each, clean=%v\n", *numUsers, *requestsPerUser, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db)

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	users, err := s.SeedPortal(*numUsers, *requestsPerUser)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Done. Seeded %d users; admin login is admin@example.com", len(users))
}
