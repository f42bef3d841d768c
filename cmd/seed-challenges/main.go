package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"greenMuensterAPI/internal/catalog"
	"greenMuensterAPI/internal/logger"
	"greenMuensterAPI/internal/store"
	"greenMuensterAPI/services"
)

func main() {
	path := flag.String("catalog", "challenges.toml", "path to the challenge catalog")
	dryRun := flag.Bool("dry-run", false, "validate the catalog without writing")
	flag.Parse()

	_ = godotenv.Load()
	log := logger.New("seed-challenges", os.Getenv("LOG_LEVEL"))

	list, err := catalog.Load(*path)
	if err != nil {
		log.WithError(err).Fatal("Invalid catalog")
	}
	log.WithField("challenges", len(list)).Info("Catalog loaded")

	if *dryRun {
		for _, c := range list {
			log.WithFields(logrus.Fields{
				"title":  c.Title,
				"type":   c.Type,
				"target": c.TargetValue,
				"unit":   c.TargetUnit,
			}).Info("Would seed")
		}
		return
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.WithError(err).Fatal("Unable to connect to database")
	}
	defer pool.Close()

	svc := services.NewChallengeService(store.New(pool), log)
	n, err := svc.Seed(ctx, list)
	if err != nil {
		log.WithError(err).WithField("seeded", n).Fatal("Seeding stopped")
	}

	log.WithField("seeded", n).Info("Challenges seeded")
}
