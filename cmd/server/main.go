// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Olga Voronova

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/ovoronova/circlevault/internal/config"
	"github.com/ovoronova/circlevault/internal/crypto"
	"github.com/ovoronova/circlevault/internal/logger"
	"github.com/ovoronova/circlevault/internal/sanitizer"
	"github.com/ovoronova/circlevault/internal/store"
	"github.com/ovoronova/circlevault/internal/workers"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("circlevault")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	log.Debug().Any("config", cfg).Msg("received configs")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = log.WithContext(ctx)

	db, err := store.NewConnectPostgres(ctx, cfg.Storage.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error connecting to database")
	}
	defer db.Close()

	if err = db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("error applying migrations")
	}

	storages := store.NewStorages(db, log)

	engine := crypto.NewEngine(cfg.Crypto)

	sanity := sanitizer.NewSanitizer(
		storages.MemberRepository,
		storages.DataRepository,
		engine,
		db,
		cfg.Workers,
		log,
	)

	background := workers.NewWorkers(workers.NewSanitizerJob(sanity, cfg.Workers, log))
	background.Run(ctx)
	defer background.Stop()

	log.Info().Msg("circlevault server started")

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
