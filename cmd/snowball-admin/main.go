package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pressroom/snowball/internal/core"
	"github.com/pressroom/snowball/internal/di"
	"github.com/pressroom/snowball/internal/factory"
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run dispatches the requested operation against the engine
func run(
	flags *di.CLIFlags,
	logger *zap.Logger,
	engine *core.SnowballService,
	store *factory.Store,
) error {
	defer logger.Sync()
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close store", zap.Error(err))
		}
	}()

	if flags.RepoID == "" {
		return fmt.Errorf("missing -repo")
	}

	ctx := context.Background()

	switch flags.Mode {
	case "distribute":
		return runDistribute(ctx, flags, logger, engine, store)
	case "confirm":
		return runConfirm(ctx, flags, engine)
	case "optout":
		return runOptOut(ctx, flags, engine)
	case "analytics":
		return runAnalytics(ctx, flags, engine)
	default:
		return fmt.Errorf("unsupported mode: %s", flags.Mode)
	}
}

func runDistribute(
	ctx context.Context,
	flags *di.CLIFlags,
	logger *zap.Logger,
	engine *core.SnowballService,
	store *factory.Store,
) error {
	if flags.UserID == "" {
		return fmt.Errorf("missing -user")
	}

	// Seed the repository so ad hoc runs against a fresh store work
	if _, err := store.Entries.GetRepository(ctx, flags.RepoID); err != nil {
		if !errors.Is(err, core.ErrRepoNotFound) {
			return err
		}
		repo := &core.Repository{
			ID:      flags.RepoID,
			OwnerID: flags.UserID,
			Name:    flags.RepoID,
		}
		if err := store.Entries.PutRepository(ctx, repo); err != nil {
			return fmt.Errorf("failed to seed repository: %w", err)
		}
		logger.Info("Seeded repository", zap.String("repository_id", flags.RepoID))
	}

	emails, err := readCandidates(flags.File, logger)
	if err != nil {
		return err
	}

	startTime := time.Now()
	result, err := engine.Distribute(ctx, flags.RepoID, emails, flags.UserID)
	if err != nil {
		return err
	}
	duration := time.Since(startTime)

	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Batch ID: %s\n", result.BatchID)
	fmt.Printf("Candidates: %d\n", len(emails))
	fmt.Printf("Sent: %d\n", result.Sent)
	fmt.Printf("Failed: %d\n", result.Failed)
	for _, r := range result.Results {
		if r.Status == core.ResultSent {
			continue
		}
		fmt.Printf("  %s: %s (%s)\n", r.Email, r.Status, r.Reason)
	}
	fmt.Printf("Processing time: %v\n", duration)
	return nil
}

func runConfirm(ctx context.Context, flags *di.CLIFlags, engine *core.SnowballService) error {
	if flags.Email == "" || flags.Token == "" {
		return fmt.Errorf("confirm requires -email and -token")
	}

	contribution, err := engine.ConfirmOptIn(ctx, flags.RepoID, flags.Email, flags.Token)
	if err != nil {
		return err
	}

	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Verified: %s\n", flags.Email)
	fmt.Printf("Potential reach: %d\n", contribution.PotentialReach)
	fmt.Printf("Domain quality score: %.4f\n", contribution.DomainQualityScore)
	fmt.Printf("Estimated growth: %.2f\n", contribution.EstimatedGrowth)
	return nil
}

func runOptOut(ctx context.Context, flags *di.CLIFlags, engine *core.SnowballService) error {
	if flags.Email == "" || flags.Token == "" {
		return fmt.Errorf("optout requires -email and -token")
	}

	if err := engine.OptOut(ctx, flags.RepoID, flags.Email, flags.Token); err != nil {
		return err
	}

	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Opted out: %s\n", flags.Email)
	return nil
}

func runAnalytics(ctx context.Context, flags *di.CLIFlags, engine *core.SnowballService) error {
	report, err := engine.Analytics(ctx, flags.RepoID, flags.Days, flags.Top)
	if err != nil {
		return err
	}

	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Conversion rate: %.4f\n", report.ConversionRate)
	fmt.Printf("Network reach: %d\n", report.NetworkReach)
	fmt.Printf("Top contributors:\n")
	for _, c := range report.TopContributors {
		fmt.Printf("  %s: %d verified, reach %d\n", c.UserID, c.VerifiedCount, c.PotentialReach)
	}
	fmt.Printf("Growth timeline (%d days):\n", flags.Days)
	for _, d := range report.GrowthTimeline {
		fmt.Printf("  %s: %d\n", d.Day.Format("2006-01-02"), d.Count)
	}
	return nil
}

// readCandidates reads one candidate email per line from the file or stdin
func readCandidates(inputFile string, logger *zap.Logger) ([]string, error) {
	var reader io.Reader
	if inputFile != "" {
		file, err := os.Open(inputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		reader = file
		logger.Info("Reading candidates from file", zap.String("file", inputFile))
	} else {
		reader = os.Stdin
		logger.Info("Reading candidates from stdin")
	}

	var emails []string
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		emails = append(emails, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read candidates: %w", err)
	}
	return emails, nil
}
