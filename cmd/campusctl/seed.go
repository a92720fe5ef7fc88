package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/campusnav/campus-navigator-go/internal/catalog"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace the building catalog from a YAML seed",
	Long: `Replace every building and alias in the database with the entries of a
YAML seed file. Without --file the bundled IISER TVM catalog is used.
Each building's lowercased name is added as an alias.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "seed YAML file (default: bundled catalog)")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	file := seedFile
	if file == "" {
		file = e.cfg.Data.SeedFile
	}
	seed, err := catalog.LoadSeed(file)
	if err != nil {
		return err
	}
	// Validates names and aliases before anything is written.
	if _, err := seed.Catalog(); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	section("Catalog seed")
	if err := e.db.ReplaceCatalog(ctx, seed.Buildings); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	source := file
	if source == "" {
		source = "bundled"
	}
	success("Seeded %d buildings", len(seed.Buildings))
	field(os.Stderr, "campus", seed.Campus)
	field(os.Stderr, "source", source)
	field(os.Stderr, "database", e.db.Path())
	return nil
}
