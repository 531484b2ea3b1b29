package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/recenseo/internal/browser"
	"github.com/ternarybob/recenseo/internal/common"
	"github.com/ternarybob/recenseo/internal/export"
	"github.com/ternarybob/recenseo/internal/xapi"
	"github.com/ternarybob/recenseo/internal/xauth"
)

var (
	// Command-line flags
	configFile   = flag.String("config", "", "Configuration file path")
	configFileC  = flag.String("c", "", "Configuration file path (shorthand)")
	cdpURL       = flag.String("cdp-url", "", "Chrome DevTools Protocol URL (overrides config, default http://localhost:9222)")
	checkOnly    = flag.Bool("check", false, "Check browser connection and auth status")
	discover     = flag.Bool("discover", false, "List available X lists")
	listID       = flag.String("list-id", "", "List ID to export")
	listIDL      = flag.String("l", "", "List ID to export (shorthand)")
	listName     = flag.String("list-name", "", "List name to export (partial match)")
	listNameN    = flag.String("n", "", "List name to export (shorthand)")
	output       = flag.String("output", "", "Output JSON file (overrides config, default list_export.json)")
	outputO      = flag.String("o", "", "Output JSON file (shorthand)")
	quiet        = flag.Bool("quiet", false, "Suppress progress output")
	quietQ       = flag.Bool("q", false, "Suppress progress output (shorthand)")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	// Global state
	config *common.Config
	logger arbor.ILogger
)

// consoleSink prints a progress line per fetched page.
type consoleSink struct{}

func (consoleSink) OnPage(fetched int) {
	fmt.Printf("  Fetched %d members...\r", fetched)
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			crashPath := common.WriteCrashFile(r, string(debug.Stack()))
			fmt.Fprintf(os.Stderr, "fatal error, crash report written to %s\n", crashPath)
			os.Exit(2)
		}
	}()

	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Recenseo version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	// Merge shorthand flags (shorthand takes precedence)
	finalConfig := mergeFlag(*configFile, *configFileC)
	finalListID := mergeFlag(*listID, *listIDL)
	finalListName := mergeFlag(*listName, *listNameN)
	finalOutput := mergeFlag(*output, *outputO)
	finalQuiet := *quiet || *quietQ

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Initialize logger
	// 4. Print banner
	var err error
	config, err = common.LoadFromFile(finalConfig)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	common.ApplyFlagOverrides(config, *cdpURL, finalOutput, finalQuiet)

	if err := config.Validate(); err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Err(err).Msg("Invalid configuration")
		os.Exit(1)
	}

	logger = common.InitLogger(config)

	if !finalQuiet {
		common.PrintBanner(common.GetVersion())
	}

	// One shot, cancel on interrupt. Cancellation is honored at the top of
	// each pagination iteration and before both suspension points.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *checkOnly || (!*discover && finalListID == "" && finalListName == "") {
		runCheck(ctx, finalQuiet)
		return
	}

	run(ctx, finalListID, finalListName, finalQuiet)
}

func mergeFlag(long, short string) string {
	if short != "" {
		return short
	}
	return long
}

// runCheck probes the remote-debugging endpoint and, when reachable,
// verifies that usable credentials can be extracted.
func runCheck(ctx context.Context, quiet bool) {
	status := browser.Check(ctx, config.CDP.URL, config.CDP.ConnectTimeout)
	if !status.Connected {
		fmt.Printf("Cannot connect to browser at %s: %s\n", config.CDP.URL, status.Error)
		fmt.Println("\nStart Chrome with: google-chrome --remote-debugging-port=9222")
		os.Exit(1)
	}

	fmt.Printf("Connected to %s\n", status.Browser)
	fmt.Printf("  %d tabs open\n", status.Tabs)
	if status.PlatformTab {
		fmt.Printf("  X tab found: %s\n", status.PlatformTabURL)
	} else {
		fmt.Println("  No X tab found (will try to extract auth anyway)")
	}

	session, err := browser.Connect(ctx, config.CDP.URL, config.CDP.ConnectTimeout, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Browser attach failed")
		os.Exit(1)
	}
	defer session.Close()

	if _, err := xauth.Extract(session.Tab(), logger); err != nil {
		logger.Fatal().Err(err).Msg("Authentication check failed, log in at x.com and retry")
		os.Exit(1)
	}

	fmt.Println("  Auth extracted successfully")
	if !quiet {
		fmt.Println("\nRun with --discover to see available lists")
	}
}

// run executes discover or export against an attached, authenticated session.
func run(ctx context.Context, listID, listName string, quiet bool) {
	session, err := browser.Connect(ctx, config.CDP.URL, config.CDP.ConnectTimeout, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Browser attach failed")
		os.Exit(1)
	}
	defer session.Close()

	auth, err := xauth.Extract(session.Tab(), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Authentication failed")
		os.Exit(1)
	}

	api := xapi.NewClient(session, auth, config.API.RequestTimeout, logger)

	if *discover {
		runDiscover(ctx, api)
		return
	}

	if listID == "" && listName != "" {
		list, err := api.ResolveByName(ctx, listName)
		if err != nil {
			var ambiguous *xapi.AmbiguousMatchError
			if errors.As(err, &ambiguous) {
				fmt.Printf("Multiple lists match %q:\n", listName)
				for _, m := range ambiguous.Matches {
					fmt.Printf("  - %s (ID: %s)\n", m.Name, m.ID)
				}
				fmt.Println("\nUse --list-id to specify which one.")
				os.Exit(1)
			}
			logger.Fatal().Err(err).Msg("List resolution failed")
			os.Exit(1)
		}
		listID = list.ID
		if !quiet {
			fmt.Printf("Found list: %s\n", list.Name)
		}
	}

	if listID == "" {
		fmt.Println("Please specify --list-id or --list-name")
		fmt.Println("Run with --discover to see available lists")
		os.Exit(1)
	}

	paginator := xapi.NewPaginator(api, config.API.PageSize, config.API.PageDelay, logger)
	exporter := export.NewService(api, paginator, logger)

	var sink xapi.ProgressSink
	if !quiet {
		sink = consoleSink{}
	}

	result, err := exporter.Export(ctx, listID, config.Export.Output, sink)
	if err != nil {
		logger.Fatal().Err(err).Msg("Export failed")
		os.Exit(1)
	}

	if !quiet {
		fmt.Printf("\nExported %d members to %s\n", result.MemberCount, config.Export.Output)
		fmt.Printf("  List: %s\n", result.List.Name)
	}
}

// runDiscover enumerates the caller's lists.
func runDiscover(ctx context.Context, api *xapi.Client) {
	lists, err := api.OwnedLists(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to fetch lists")
		os.Exit(1)
	}

	fmt.Printf("\nFound %d lists:\n\n", len(lists))
	for _, list := range lists {
		fmt.Printf("  [%s] %s\n", list.Mode, list.Name)
		fmt.Printf("     ID: %s\n", list.ID)
		fmt.Printf("     Members: %d\n", list.MemberCount)
		if list.OwnerHandle != "" {
			fmt.Printf("     Owner: @%s\n", list.OwnerHandle)
		}
		fmt.Println()
	}

	fmt.Println("To export a list:")
	fmt.Println("  recenseo --list-id <ID> -o export.json")
}
