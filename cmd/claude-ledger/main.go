package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/revja/claude-ledger/internal/config"
	"github.com/revja/claude-ledger/internal/domain"
	"github.com/revja/claude-ledger/internal/parser"
	"github.com/revja/claude-ledger/internal/pipeline"
	"github.com/revja/claude-ledger/internal/pricing"
	"github.com/revja/claude-ledger/internal/watcher"
)

// version is set by goreleaser via ldflags.
var version = "dev"

func main() {
	var (
		configPath  = flag.String("config", config.DefaultPath(), "config file path")
		roots       = flag.String("roots", "", "comma-separated log root directories (overrides config)")
		view        = flag.String("view", "summary", "view: daily, monthly, sessions, blocks, summary")
		timezone    = flag.String("timezone", "", "override timezone (e.g., Asia/Seoul)")
		since       = flag.String("since", "", "filter records from this date (YYYY-MM-DD)")
		until       = flag.String("until", "", "filter records until this date (YYYY-MM-DD)")
		offline     = flag.Bool("offline", false, "skip the remote pricing fetch, static table only")
		watch       = flag.Bool("watch", false, "re-run and re-emit the view when logs change")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("claude-ledger", version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Apply CLI overrides
	if *timezone != "" {
		cfg.General.Timezone = *timezone
	}
	if *roots != "" {
		cfg.Logs.Roots = splitRoots(*roots)
	}
	if *offline {
		cfg.Pricing.Offline = true
	}

	tz, err := cfg.Location()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	for _, df := range []struct{ name, val string }{{"--since", *since}, {"--until", *until}} {
		if df.val != "" {
			if _, err := time.Parse("2006-01-02", df.val); err != nil {
				fmt.Fprintf(os.Stderr, "Invalid %s date (use YYYY-MM-DD): %s\n", df.name, df.val)
				os.Exit(1)
			}
		}
	}

	var remote pricing.Source
	if !cfg.Pricing.Offline {
		remote = pricing.NewRemoteSource(time.Duration(cfg.Pricing.RefreshMinutes) * time.Minute)
	}

	opts := pipeline.Options{
		Roots:         cfg.Logs.Roots,
		Timezone:      tz,
		BlockDuration: cfg.BlockDuration(),
		Since:         *since,
		Until:         *until,
		Source:        pricing.NewTieredSource(remote),
		Mode:          pricing.CostMode(cfg.Pricing.Mode),
		FileTimeout:   cfg.FileTimeout(),
		MaxEntries:    cfg.General.MaxEntries,
	}

	if err := runOnce(opts, *view); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if !*watch {
		return
	}

	logRoots := cfg.Logs.Roots
	if len(logRoots) == 0 {
		logRoots = parser.DefaultRoots()
	}
	w := watcher.New(logRoots, time.Duration(cfg.Watch.PollSeconds)*time.Second, func() {
		if err := runOnce(opts, *view); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	})
	w.Prime()
	if err := w.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting watcher: %v\n", err)
		os.Exit(1)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	w.Stop()
}

func runOnce(opts pipeline.Options, view string) error {
	res, err := pipeline.Run(context.Background(), opts)
	if err != nil {
		return err
	}

	if res.Stats.Malformed > 0 || res.Stats.Abandoned > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d malformed lines, %d abandoned files\n",
			res.Stats.Malformed, res.Stats.Abandoned)
	}

	var data interface{}
	switch view {
	case "daily":
		data = res.Daily()
	case "monthly":
		data = res.Monthly()
	case "sessions":
		data = res.Sessions()
	case "blocks":
		data = blockViews(res.Blocks(), time.Now())
	case "summary":
		data = res.Summary()
	default:
		return fmt.Errorf("unknown view: %s (use daily, monthly, sessions, blocks, or summary)", view)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// blockView annotates a block with its active status, evaluated
// against the clock at emit time.
type blockView struct {
	*domain.BillingBlock
	Active bool `json:"is_active"`
}

func blockViews(blocks []*domain.BillingBlock, now time.Time) []blockView {
	views := make([]blockView, 0, len(blocks))
	for _, b := range blocks {
		views = append(views, blockView{BillingBlock: b, Active: b.IsActive(now)})
	}
	return views
}

func splitRoots(s string) []string {
	var roots []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			roots = append(roots, part)
		}
	}
	return roots
}
