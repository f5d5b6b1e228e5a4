package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/xelth-com/soletrack/internal/config"
	"github.com/xelth-com/soletrack/internal/database"
	"github.com/xelth-com/soletrack/internal/models"
	"github.com/xelth-com/soletrack/internal/services/alerts"
	"github.com/xelth-com/soletrack/internal/services/report"
)

// Exit codes for cron callers
const (
	exitOK      = 0
	exitFailed  = 1
	exitUsage   = 2
	exitPartial = 3
	exitSheet   = 4
)

type options struct {
	asJSON  bool
	pdfPath string
}

func parseArgs(args []string) (options, error) {
	var opts options
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--json":
			opts.asJSON = true
		case "--pdf":
			if i+1 >= len(args) {
				return opts, errors.New("--pdf needs an output file")
			}
			i++
			opts.pdfPath = args[i]
		default:
			return opts, fmt.Errorf("unknown argument %q", args[i])
		}
	}
	return opts, nil
}

// exitCode maps a finished run to the process status. A sheet failure wins
// over a partial run so a missing file is never mistaken for stale data.
func exitCode(res *alerts.Result, sheetErr error) int {
	switch {
	case sheetErr != nil:
		return exitSheet
	case res.Status == models.RunStatusPartial:
		return exitPartial
	case res.Status == models.RunStatusError:
		return exitFailed
	default:
		return exitOK
	}
}

// Runs one alert generation pass and exits. Meant for cron or manual backfills.
func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := parseArgs(args)
	if err != nil {
		log.Printf("❌ %v (usage: generate_alerts [--json] [--pdf alerts.pdf])", err)
		return exitUsage
	}

	alertsCfg, err := config.LoadAlertsConfig()
	if err != nil {
		log.Printf("❌ Failed to load alert config: %v", err)
		return exitFailed
	}
	policy, err := alerts.ParsePolicy(alertsCfg.Policy)
	if err != nil {
		log.Printf("❌ Invalid ALERT_POLICY: %v", err)
		return exitFailed
	}

	db, err := database.Connect(config.LoadDatabaseConfig())
	if err != nil {
		log.Printf("❌ Failed to connect to database: %v", err)
		return exitFailed
	}
	// also stops the embedded postgres
	defer db.Close()

	if err := db.AutoMigrate(models.All()...); err != nil {
		log.Printf("❌ Migration failed: %v", err)
		return exitFailed
	}

	ctx, cancel := context.WithTimeout(context.Background(), alertsCfg.RunTimeout())
	defer cancel()

	svc := alerts.NewService(alerts.NewGormStore(db), alertsCfg.Rules, policy)
	res, err := svc.Generate(ctx, models.RunTriggerCLI)
	if errors.Is(err, alerts.ErrRunInProgress) {
		fmt.Println("⏭️  Another alert run is in progress, nothing to do")
		return exitOK
	}
	if err != nil {
		log.Printf("❌ Alert generation failed: %v", err)
		return exitFailed
	}

	var sheetErr error
	if opts.pdfPath != "" {
		if sheetErr = writeSheet(ctx, svc, opts.pdfPath); sheetErr != nil {
			log.Printf("❌ %v", sheetErr)
		} else {
			log.Printf("📄 Alert sheet written to %s", opts.pdfPath)
		}
	}

	if opts.asJSON {
		out, _ := json.MarshalIndent(res, "", "  ")
		fmt.Println(string(out))
	} else {
		printSummary(res)
	}
	return exitCode(res, sheetErr)
}

func printSummary(res *alerts.Result) {
	fmt.Printf("Run %s: %s\n", res.RunID, res.Status)
	fmt.Printf("  created  %d\n  skipped  %d (updated %d)\n  resolved %d\n  invalid  %d\n  failed   %d\n",
		res.CreatedCount, res.SkippedCount, res.UpdatedCount, res.ResolvedCount, res.InvalidCount, res.FailedCount)
	for _, a := range res.Created {
		fmt.Printf("  [%-6s] %s\n", a.Severity, a.Message)
	}
	for _, w := range res.Warnings {
		fmt.Printf("  ⚠️  %s\n", w)
	}
}

func writeSheet(ctx context.Context, svc *alerts.Service, path string) error {
	list, err := svc.ListAlerts(ctx, alerts.AlertQuery{})
	if err != nil {
		return fmt.Errorf("failed to list alerts for sheet: %w", err)
	}
	pdf, err := report.AlertSheet(list, report.SheetConfig{BaseURL: os.Getenv("PUBLIC_URL")})
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return fmt.Errorf("failed to write alert sheet: %w", err)
	}
	return nil
}
