// Command scan runs one pipeline pass from the terminal and prints the
// outcome plus the current top leads.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/david/signalscout/internal/config"
	"github.com/david/signalscout/internal/db"
	"github.com/david/signalscout/internal/scan"
	"github.com/david/signalscout/internal/scan/sources"
	"github.com/jedib0t/go-pretty/v6/table"
)

func main() {
	configPath := flag.String("config", os.Getenv("SIGNALSCOUT_CONFIG"), "path to config.yaml")
	topN := flag.Int("top", 20, "number of top leads to print")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	store := db.NewStore(pool)
	pipeline := scan.NewPipeline(store, sources.All(), cfg)

	summary, err := pipeline.Run(ctx, cfg)
	if err != nil {
		log.Fatalf("Scan #%d failed: %v", summary.ScanID, err)
	}
	fmt.Printf("Scan #%d %s: %d signals, %d leads\n",
		summary.ScanID, summary.Status, summary.TotalSignals, summary.LeadsFound)

	leads, err := store.ListLeads(ctx, db.LeadFilter{SortBy: "score", Limit: *topN})
	if err != nil {
		log.Fatalf("Failed to list leads: %v", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "Score", "Intent", "Source", "Title", "URL"})
	for i, lead := range leads {
		title := lead.Title
		if runes := []rune(title); len(runes) > 60 {
			title = string(runes[:60])
		}
		score := lead.Score
		if lead.AIScore != nil {
			score = *lead.AIScore
		}
		t.AppendRow(table.Row{i + 1, fmt.Sprintf("%.1f", score), lead.IntentCategory, lead.Source, title, lead.URL})
	}
	t.Render()
}
