package main

import (
	"log"

	"github.com/albertaspends/grants-dashboard/internal/api"
	"github.com/albertaspends/grants-dashboard/internal/config"
	"github.com/albertaspends/grants-dashboard/internal/engine"
	"github.com/albertaspends/grants-dashboard/internal/store"
	"github.com/albertaspends/grants-dashboard/internal/upstream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	st, err := store.LoadBundled(cfg.DatasetPath)
	if err != nil {
		log.Fatalf("Failed to load dataset: %v", err)
	}
	log.Printf("Loaded %d grants", st.Len())

	criteria, err := engine.LoadCriteria(cfg.CriteriaPath)
	if err != nil {
		log.Fatalf("Failed to load flagging criteria: %v", err)
	}

	var up *upstream.Client
	if cfg.UpstreamURL != "" {
		up = upstream.NewClient(cfg.UpstreamURL, cfg.UpstreamWait)
	}

	srv := api.NewServer(st, criteria, up, cfg.CORSOrigins)
	log.Printf("Server starting on port %s...", cfg.Port)
	if err := srv.Start(cfg.Port); err != nil {
		log.Fatal(err)
	}
}
