// Command seed applies the schema and loads the baseline catalog rows:
// the free starter package and the purchasable feature unlocks.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"resume-ai-credits/internal/config"
	"resume-ai-credits/internal/domain/model"
	"resume-ai-credits/internal/domain/ports/repository"
	"resume-ai-credits/internal/infra/db/postgres"
	"resume-ai-credits/internal/infra/logging"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer pool.Close()

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("schema apply failed")
	}
	log.Info().Msg("schema applied")

	packages := postgres.NewCoinPackageRepo(pool)
	catalog := postgres.NewFeatureCatalogRepo(pool)

	seedPackages := []*model.CoinPackage{
		{
			ID:          uuid.NewString(),
			Name:        "Free Starter",
			Tag:         model.FreePackageTag,
			PriceAmount: 0,
			CoinAmount:  50,
		},
		{
			ID:          uuid.NewString(),
			Name:        "Pro Pack",
			PriceAmount: 990,
			CoinAmount:  200,
		},
		{
			ID:          uuid.NewString(),
			Name:        "Power Pack",
			PriceAmount: 2490,
			CoinAmount:  600,
		},
	}
	// Keep the seed idempotent: the free package is unique by tag, so skip it
	// when one already exists.
	if _, err := packages.FindFreePackage(ctx, repository.NoTX); err == nil {
		log.Info().Msg("free package already present, skipping packages")
	} else {
		for _, p := range seedPackages {
			if err := packages.Save(ctx, repository.NoTX, p); err != nil {
				log.Fatal().Err(err).Str("name", p.Name).Msg("package seed failed")
			}
			log.Info().Str("name", p.Name).Int64("coins", p.CoinAmount).Msg("package seeded")
		}
	}

	seedFeatures := []*model.FeatureCost{
		{Key: "cover_letter_plus", Name: "Cover Letter Plus", CoinCost: 3},
		{Key: "interview_coach", Name: "Interview Coach", CoinCost: 5},
		{Key: "priority_review", Name: "Priority Review", CoinCost: 10},
	}
	for _, f := range seedFeatures {
		if err := catalog.Save(ctx, repository.NoTX, f); err != nil {
			log.Fatal().Err(err).Str("key", f.Key).Msg("feature seed failed")
		}
		log.Info().Str("key", f.Key).Int64("cost", f.CoinCost).Msg("feature seeded")
	}

	log.Info().Msg("seed complete")
}
