package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hongminglow/budget-be/internal/auth"
	"github.com/hongminglow/budget-be/internal/bootstrap"
	"github.com/hongminglow/budget-be/internal/config"
	"github.com/hongminglow/budget-be/internal/logger"
	"github.com/hongminglow/budget-be/internal/seed"
	"github.com/hongminglow/budget-be/internal/storage"
)

func main() {
	_ = godotenv.Load()
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("dbreset", flag.ContinueOnError)
	fs.SetOutput(stderr)

	force := fs.Bool("force", false, "Skip the confirmation prompt")
	noFixtures := fs.Bool("no-fixtures", false, "Leave the database empty after the reset")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadStorage()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	if !*force {
		fmt.Fprintf(stdout, "This drops every table of the %s database. Continue? [y/N] ", cfg.StorageDriver)
		if !confirmed(stdin) {
			fmt.Fprintln(stdout, "Aborted.")
			return nil
		}
	}

	store, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	resetter, ok := store.(storage.Resetter)
	if !ok {
		return fmt.Errorf("storage driver %q cannot be reset", cfg.StorageDriver)
	}
	if err := resetter.Reset(ctx); err != nil {
		return err
	}
	log.Info("database reset", zap.String("driver", cfg.StorageDriver))
	fmt.Fprintln(stdout, "Database reset.")

	if *noFixtures {
		return nil
	}
	res, err := seed.Load(ctx, store, auth.NewBcryptHasher(cfg.BcryptCost), seed.Options{}, log)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Loaded %d budgets and %d transactions for %s (password %s).\n",
		len(res.Budgets), res.Transactions, seed.Email, seed.Password)
	return nil
}

func confirmed(stdin io.Reader) bool {
	scanner := bufio.NewScanner(stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}
