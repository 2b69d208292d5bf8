package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"rciconnect/internal/database"
	"rciconnect/internal/models"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		contentPath = flag.String("content", "configs/content.yaml", "path to content.yaml")
		dbPath      = flag.String("db", "./data/rciconnect.db", "path to sqlite db")
		force       = flag.Bool("force", false, "replace existing content rows")
	)
	flag.Parse()

	data, err := os.ReadFile(*contentPath)
	if err != nil {
		return fmt.Errorf("read content: %w", err)
	}
	var seed database.ContentSeed
	if err = yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse content: %w", err)
	}
	if len(seed.Testimonials) == 0 && len(seed.FAQs) == 0 && len(seed.Services) == 0 {
		return fmt.Errorf("no content in yaml")
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *force {
		for _, table := range []string{"testimonials", "faqs", "services"} {
			if _, err = db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
	}

	if err = db.SeedContent(ctx, seed); err != nil {
		return fmt.Errorf("seed content: %w", err)
	}
	if err = db.SeedTimezones(ctx, models.DefaultTimezones); err != nil {
		return fmt.Errorf("seed timezones: %w", err)
	}

	fmt.Printf("done: testimonials=%d faqs=%d services=%d timezones=%d\n",
		len(seed.Testimonials), len(seed.FAQs), len(seed.Services), len(models.DefaultTimezones))
	return nil
}
