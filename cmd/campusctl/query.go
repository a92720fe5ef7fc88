package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/campusnav/campus-navigator-go/internal/app"
	"github.com/campusnav/campus-navigator-go/internal/genai"
	"github.com/campusnav/campus-navigator-go/internal/ratelimit"
	"github.com/campusnav/campus-navigator-go/internal/resolver"
	"github.com/campusnav/campus-navigator-go/internal/warmup"
)

var queryOffline bool

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Resolve a query against the local database",
	Long: `Resolve one query the way the server would and print the JSON result.
With --offline no LLM provider is called, so answers use the fixed fallback.`,
	Example: `  campusctl query "where is the library?"
  campusctl query "how do I get from lhc to i cafe" --offline`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().BoolVar(&queryOffline, "offline", false, "skip LLM providers")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	snap, err := warmup.Build(ctx, e.db, "local")
	if err != nil {
		return err
	}

	var (
		emb resolver.Embedder
		gen resolver.TextGenerator
	)
	if !queryOffline && e.cfg.HasLLMProvider() {
		llm := app.BuildLLMConfig(e.cfg, e.log)
		opts := []genai.ChainOption{
			genai.WithLimiter(ratelimit.New(e.cfg.RateLimit.LLMBurst, e.cfg.RateLimit.LLMRefill)),
			genai.WithLogger(e.log.WithModule("genai").Logger),
		}
		if g, err := genai.NewGenerator(ctx, llm, opts...); err != nil {
			return err
		} else if g != nil {
			gen = g
		}
		if em, err := genai.NewEmbedder(ctx, llm, opts...); err != nil {
			return err
		} else if em != nil {
			emb = em
		}
	}

	rc := resolver.DefaultConfig()
	rc.CampusName = e.cfg.Resolver.CampusName
	rc.TopK = e.cfg.Resolver.TopK
	res, err := resolver.New(rc, resolver.NewStore(snap), emb, gen,
		resolver.WithLogger(e.log.WithModule("resolver").Logger))
	if err != nil {
		return err
	}

	result := res.Resolve(ctx, strings.Join(args, " "))
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
