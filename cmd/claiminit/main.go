// Command claiminit seeds the session_claims table for an event cycle.
// It inserts one available claim row per existing session with the
// original speaker list snapshotted, stamps the sessions with the event
// year, streaming flag and a claim deadline, and is safe to re-run:
// seeding is insert-if-absent and the stamp never touches the
// is_claimed flag of a session whose claim has progressed past
// available.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/niranjanbala/remoteinbound-claims/internal/config"
	"github.com/niranjanbala/remoteinbound-claims/internal/database"
	"github.com/niranjanbala/remoteinbound-claims/internal/repository"
)

var (
	eventYear    int
	deadlineDays int
	batchSize    int
	initSchema   bool
)

func main() {
	cmd := &cobra.Command{
		Use:   "claiminit",
		Short: "Seed session claim rows for an event cycle",
		Long: `claiminit creates one available session_claims row per existing
session, snapshotting each session's original speaker list, and stamps
the sessions with the event year, youtube_enabled and a claim deadline.
Inserts use insert-if-absent semantics so the command is idempotent.`,
		RunE: run,
	}
	cmd.Flags().IntVar(&eventYear, "event-year", 0, "event edition to stamp on sessions (required)")
	cmd.Flags().IntVar(&deadlineDays, "deadline-days", 30, "days from now until the claim deadline")
	cmd.Flags().IntVar(&batchSize, "batch-size", 100, "rows per insert batch")
	cmd.Flags().BoolVar(&initSchema, "init-schema", false, "apply the embedded schema DDL before seeding")
	_ = cmd.MarkFlagRequired("event-year")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()
	dbc := config.LoadDB()

	db, err := database.Open(dbc.User, dbc.Pass, dbc.Host, dbc.Port, dbc.Name)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	if initSchema {
		if err := database.ApplySchema(ctx, db); err != nil {
			return err
		}
		log.Printf("claiminit: schema applied")
	}

	sessionRepo := repository.NewSessionRepo(db)
	claimRepo := repository.NewClaimRepo(db)

	sources, err := sessionRepo.ListForSeeding(ctx)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		log.Printf("claiminit: no sessions found, nothing to seed")
		return nil
	}

	deadline := time.Now().UTC().Add(time.Duration(deadlineDays) * 24 * time.Hour)
	var inserted int64
	var failed int

	// Batches are independent: a failure in one is reported but does not
	// abort the rest of the run.
	for start := 0; start < len(sources); start += batchSize {
		end := start + batchSize
		if end > len(sources) {
			end = len(sources)
		}
		batch := sources[start:end]

		seeds := make([]repository.ClaimSeed, 0, len(batch))
		ids := make([]string, 0, len(batch))
		for _, src := range batch {
			seeds = append(seeds, repository.ClaimSeed{SessionID: src.ID, OriginalSpeakerIDs: src.SpeakerIDs})
			ids = append(ids, src.ID)
		}

		n, err := claimRepo.SeedAvailable(ctx, seeds)
		if err != nil {
			log.Printf("claiminit: batch %d-%d seed failed: %v", start, end-1, err)
			failed++
			continue
		}
		inserted += n

		if err := sessionRepo.StampClaimWindow(ctx, ids, eventYear, deadline); err != nil {
			log.Printf("claiminit: batch %d-%d stamp failed: %v", start, end-1, err)
			failed++
		}
	}

	log.Printf("claiminit: %d sessions seen, %d claim rows inserted, %d failed batches, deadline %s",
		len(sources), inserted, failed, deadline.Format(time.RFC3339))
	return nil
}
