package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/stemsi/exstem-scoring/internal/scoring"
)

func newScoreCmd() *cobra.Command {
	var (
		testPath    string
		answersPath string
		variant     string
		details     bool
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score an answers file against a test file",
		Example: `  scorectl score --test reading-1.json --answers candidate.json
  scorectl score --test listening.json --answers a.json --variant listening --details`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log := loadEnv(cmd)

			testRaw, err := os.ReadFile(testPath)
			if err != nil {
				return fmt.Errorf("read test: %w", err)
			}
			answersRaw, err := os.ReadFile(answersPath)
			if err != nil {
				return fmt.Errorf("read answers: %w", err)
			}

			def, err := scoring.ParseTestDefinition(testRaw)
			if err != nil {
				return fmt.Errorf("parse test: %w", err)
			}
			bag, err := scoring.ParseAnswerBag(answersRaw)
			if err != nil {
				return fmt.Errorf("parse answers: %w", err)
			}
			if variant != "" {
				def.Variant = variant
			}

			res := scoring.New(scoring.WithLogger(log)).Score(def, bag)
			if !details {
				res.Details = nil
			}
			return printJSON(cmd, res)
		},
	}

	cmd.Flags().StringVar(&testPath, "test", "", "Path to the test definition JSON")
	cmd.Flags().StringVar(&answersPath, "answers", "", "Path to the answers JSON")
	cmd.Flags().StringVar(&variant, "variant", "", "Band table: reading or listening")
	cmd.Flags().BoolVar(&details, "details", false, "Include per-question details")
	_ = cmd.MarkFlagRequired("test")
	_ = cmd.MarkFlagRequired("answers")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
