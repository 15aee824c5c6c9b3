package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	dbfs "github.com/garnizeh/innohub/db"
	"github.com/garnizeh/innohub/internal/config"
	"github.com/garnizeh/innohub/internal/db"
	"github.com/garnizeh/innohub/internal/repository/sqlite"
	"github.com/garnizeh/innohub/internal/seed"
)

func main() {
	configPath := flag.String("config", "", "Path to config YAML file")
	file := flag.String("file", "", "Seed YAML document (default: embedded demo data)")
	adminUser := flag.String("admin", "", "Also create this superuser if missing")
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	logger := cfg.Log.NewLogger()

	var raw []byte
	if *file != "" {
		raw, err = os.ReadFile(*file)
	} else {
		raw, err = seed.DefaultDocument()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Seed file error: %v\n", err)
		os.Exit(1)
	}
	doc, err := seed.Parse(ctx, raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Seed file error: %v\n", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DatabasePath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "DB init error: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()
	if err := db.Migrate(ctx, database, dbfs.Migrations); err != nil {
		fmt.Fprintf(os.Stderr, "Migration runner error: %v\n", err)
		os.Exit(1)
	}

	repo := sqlite.New(database, logger)
	seeder := seed.NewSeeder(seed.Stores{
		Users:        repo.Users(),
		Laboratories: repo.Laboratories(),
		Programs:     repo.Programs(),
		Events:       repo.Events(),
		Projects:     repo.Projects(),
		Partners:     repo.Partners(),
		News:         repo.News(),
		Settings:     repo.Settings(),
	}, logger)

	admin := seed.Admin{Username: *adminUser, Password: os.Getenv("INNOHUB_ADMIN_PASSWORD")}
	rep, err := seeder.Run(ctx, doc, admin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Seed error: %v\n", err)
		os.Exit(1)
	}

	kinds := make([]string, 0, len(rep.Created)+len(rep.Existing))
	seen := map[string]bool{}
	for _, m := range []map[string]int{rep.Created, rep.Existing} {
		for k := range m {
			if !seen[k] {
				seen[k] = true
				kinds = append(kinds, k)
			}
		}
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Printf("%-14s created %3d, already present %3d\n", k, rep.Created[k], rep.Existing[k])
	}
	fmt.Println("Database seeded successfully.")
}
