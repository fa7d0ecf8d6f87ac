// seed is a command-line tool that loads a campaign export file into the
// scribe database, with dry-run and validation support.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"campaign-scribe/internal/config"
	"campaign-scribe/internal/logging"
	"campaign-scribe/internal/storage"
	"campaign-scribe/pkg/types"
)

// SeedFile is the JSON export format consumed by the tool.
type SeedFile struct {
	Campaign      types.Campaign       `json:"campaign"`
	Characters    []types.Character    `json:"characters"`
	Locations     []types.Location     `json:"locations"`
	Sessions      []types.Session      `json:"sessions"`
	Events        []types.Event        `json:"events"`
	Possessions   []types.Possession   `json:"possessions"`
	StatSnapshots []types.StatSnapshot `json:"stat_snapshots"`
}

// SeedStats tracks the progress of a seed run.
type SeedStats struct {
	Characters    int           `json:"characters"`
	Locations     int           `json:"locations"`
	Sessions      int           `json:"sessions"`
	Events        int           `json:"events"`
	Possessions   int           `json:"possessions"`
	StatSnapshots int           `json:"stat_snapshots"`
	StartTime     time.Time     `json:"start_time"`
	Duration      time.Duration `json:"duration"`
}

func main() {
	var (
		inputPath    = flag.String("file", "", "Path to the campaign export JSON file")
		dryRun       = flag.Bool("dry-run", false, "Validate and report without writing to the database")
		validateOnly = flag.Bool("validate-only", false, "Only validate the export file, don't connect to storage")
	)
	flag.Parse()

	if *inputPath == "" {
		log.Fatal("the -file flag is required")
	}

	seed, err := loadSeedFile(*inputPath)
	if err != nil {
		log.Fatalf("Failed to load export file: %v", err)
	}
	if err := validateSeed(seed); err != nil {
		log.Fatalf("Export file is invalid: %v", err)
	}
	if *validateOnly {
		fmt.Println("Export file is valid.")
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := logging.NewLogger(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.JSON)

	stats := &SeedStats{StartTime: time.Now()}
	if *dryRun {
		countSeed(seed, stats)
		stats.Duration = time.Since(stats.StartTime)
		report(stats, true)
		return
	}

	store, err := storage.NewSQLStore(cfg.Storage, logger)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	if err := importSeed(context.Background(), store, seed, stats); err != nil {
		log.Fatalf("Seed failed: %v", err)
	}
	stats.Duration = time.Since(stats.StartTime)
	report(stats, false)
}

func loadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied export path
	if err != nil {
		return nil, err
	}
	var seed SeedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("not a valid export file: %w", err)
	}
	return &seed, nil
}

func validateSeed(seed *SeedFile) error {
	if seed.Campaign.ID == "" {
		return fmt.Errorf("campaign.id is required")
	}
	for i, c := range seed.Characters {
		if c.Name == "" {
			return fmt.Errorf("characters[%d] has no name", i)
		}
	}
	for i, s := range seed.StatSnapshots {
		if !s.Stat.IsValid() {
			return fmt.Errorf("stat_snapshots[%d] has unknown stat %q", i, s.Stat)
		}
	}
	for i, s := range seed.Sessions {
		if s.Number < 1 {
			return fmt.Errorf("sessions[%d] has invalid number %d", i, s.Number)
		}
	}
	return nil
}

func countSeed(seed *SeedFile, stats *SeedStats) {
	stats.Characters = len(seed.Characters)
	stats.Locations = len(seed.Locations)
	stats.Sessions = len(seed.Sessions)
	stats.Events = len(seed.Events)
	stats.Possessions = len(seed.Possessions)
	stats.StatSnapshots = len(seed.StatSnapshots)
}

func importSeed(ctx context.Context, store *storage.SQLStore, seed *SeedFile, stats *SeedStats) error {
	if err := store.InsertCampaign(ctx, seed.Campaign); err != nil {
		return err
	}

	for _, c := range seed.Characters {
		fillDefaults(&c.ID, seed.Campaign.ID, &c.CampaignID)
		if c.Level < 1 {
			c.Level = types.DefaultCharacterLevel
		}
		if err := store.InsertCharacter(ctx, c); err != nil {
			return err
		}
		stats.Characters++
	}
	for _, l := range seed.Locations {
		fillDefaults(&l.ID, seed.Campaign.ID, &l.CampaignID)
		if err := store.InsertLocation(ctx, l); err != nil {
			return err
		}
		stats.Locations++
	}
	for _, s := range seed.Sessions {
		fillDefaults(&s.ID, seed.Campaign.ID, &s.CampaignID)
		if err := store.InsertSession(ctx, s); err != nil {
			return err
		}
		stats.Sessions++
	}
	for _, e := range seed.Events {
		fillDefaults(&e.ID, seed.Campaign.ID, &e.CampaignID)
		if err := store.InsertEvent(ctx, e); err != nil {
			return err
		}
		stats.Events++
	}
	for _, p := range seed.Possessions {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if err := store.InsertPossession(ctx, p); err != nil {
			return err
		}
		stats.Possessions++
	}
	for _, s := range seed.StatSnapshots {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		if err := store.InsertStatSnapshot(ctx, s); err != nil {
			return err
		}
		stats.StatSnapshots++
	}
	return nil
}

// fillDefaults assigns a fresh id and the campaign scope when missing.
func fillDefaults(id *string, campaignID string, scope *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if *scope == "" {
		*scope = campaignID
	}
}

func report(stats *SeedStats, dryRun bool) {
	verb := "Imported"
	if dryRun {
		verb = "Would import"
	}
	fmt.Printf("%s %d characters, %d locations, %d sessions, %d events, %d possessions, %d stat snapshots in %s\n",
		verb, stats.Characters, stats.Locations, stats.Sessions, stats.Events,
		stats.Possessions, stats.StatSnapshots, stats.Duration.Round(time.Millisecond))
}
