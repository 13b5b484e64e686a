// Package main imports or deletes the development data set.
//
//	seed --import    load users, tours and reviews
//	seed --delete    remove all data
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/yasinhessnawi1/Natours_Backend/internal/auth"
	"github.com/yasinhessnawi1/Natours_Backend/internal/config"
	"github.com/yasinhessnawi1/Natours_Backend/internal/database"
	"github.com/yasinhessnawi1/Natours_Backend/internal/utils"
	"github.com/yasinhessnawi1/Natours_Backend/migrations"
	"github.com/yasinhessnawi1/Natours_Backend/scripts"
)

func init() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found or couldn't be loaded")
	}
}

func main() {
	var (
		configPath string
		doImport   bool
		doDelete   bool
	)
	flag.StringVar(&configPath, "config", "./configs/config.yaml", "Path to configuration file")
	flag.BoolVar(&doImport, "import", false, "Import the development data")
	flag.BoolVar(&doDelete, "delete", false, "Delete all data")
	flag.Parse()

	if doImport == doDelete {
		fmt.Println("Usage: seed --import | --delete")
		os.Exit(2)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	utils.InitLogger(cfg)
	utils.InitValidator()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	ctx := context.Background()

	migrator := migrations.NewMigrator(db)
	missing, err := migrator.VerifyTables(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to verify schema")
	}
	if len(missing) > 0 {
		log.Info().Strs("tables", missing).Msg("Schema incomplete, running migrations")
		if err := migrator.RunMigrations(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
	}

	seeder := scripts.NewSeeder(db, auth.NewArgon2Hasher(auth.ConfigFromAppConfig(cfg)))

	if doImport {
		err = seeder.Import(ctx)
	} else {
		err = seeder.Delete(ctx)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Seeding failed")
	}
}
