package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/stemsi/exstem-scoring/internal/model"
	"github.com/stemsi/exstem-scoring/internal/scoring"
)

func newBandCmd() *cobra.Command {
	var variant string

	cmd := &cobra.Command{
		Use:   "band <correct>",
		Short: "Convert a correct-answer count into a band",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			correct, err := strconv.Atoi(args[0])
			if err != nil || correct < 0 {
				return fmt.Errorf("correct must be a non-negative integer, got %q", args[0])
			}

			v := scoring.ParseVariant(variant)
			return printJSON(cmd, model.BandResponse{
				Correct: correct,
				Variant: string(v),
				Band:    scoring.BandFromCorrect(correct, v),
			})
		},
	}

	cmd.Flags().StringVar(&variant, "variant", string(scoring.VariantReading), "Band table: reading or listening")
	return cmd
}
