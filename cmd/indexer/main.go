package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/openvaers/analyzer-backend/internal/adapters/database"
	"github.com/openvaers/analyzer-backend/internal/adapters/search"
	"github.com/openvaers/analyzer-backend/internal/domain/repositories"
	"github.com/openvaers/analyzer-backend/internal/infrastructure/clients/postgres"
	"github.com/openvaers/analyzer-backend/internal/infrastructure/clients/typesense"
	"github.com/openvaers/analyzer-backend/pkg/config"
)

const indexPageSize = 500

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete existing Typesense collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	var err error
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatalf("Invalid interval %q: %v", intervalValue, err)
		}
		if interval <= 0 {
			log.Fatalf("Interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, reset); err != nil {
			log.Printf("Reindex failed: %v", err)
		}

		if interval <= 0 {
			break
		}

		reset = false
		log.Printf("Reindex complete. Next run in %s.", interval)

		select {
		case <-ctx.Done():
			log.Println("Reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, reset bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	reportRepo := database.NewReportAdapter(pgClient)

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		return err
	}

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		log.Println("Deleting symptoms collection before reindex")
		_, err := tsClient.Client().Collection(typesense.SymptomsCollection).Delete(ctx)
		if err != nil {
			log.Printf("Warning: failed to delete collection: %v", err)
		}
	}

	if err := tsClient.InitSchema(ctx); err != nil {
		return err
	}

	indexer := search.NewTypesenseAdapter(tsClient)

	indexed := 0
	for offset := 0; ; offset += indexPageSize {
		reports, total, err := reportRepo.List(ctx, repositories.ReportFilter{
			Limit:  indexPageSize,
			Offset: offset,
		})
		if err != nil {
			return err
		}
		if len(reports) == 0 {
			break
		}

		for _, report := range reports {
			if report == nil {
				continue
			}

			detail, err := reportRepo.GetDetail(ctx, report.ID)
			if err != nil {
				log.Printf("Warning: failed to load report %s: %v", report.VaersID, err)
				continue
			}

			for i := range detail.Symptoms {
				if err := indexer.IndexSymptom(ctx, detail.VaersID, &detail.Symptoms[i]); err != nil {
					log.Printf("Failed to index symptom for %s: %v", detail.VaersID, err)
					continue
				}
				indexed++
			}
		}

		log.Printf("Indexed %d/%d reports...", offset+len(reports), total)
		if offset+len(reports) >= total {
			break
		}
	}

	log.Printf("Indexing complete. %d symptoms indexed.", indexed)
	return nil
}
