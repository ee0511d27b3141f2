package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/temcen/cinematch/internal/engine"
)

func newRecommendCommand(ctx *commandContext) *cobra.Command {
	var movie string
	var userID int64
	var alpha float64

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend movies similar to a title, personalised for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("user") {
				userID = cfg.Recommendation.DefaultUserID
			}
			if !cmd.Flags().Changed("alpha") {
				alpha = cfg.Recommendation.Alpha
			}

			model, err := ctx.ensureModel(cmd.Context())
			if err != nil {
				return err
			}

			result, err := model.Ranker.Recommend(movie, userID, alpha)
			if err != nil {
				if errors.Is(err, engine.ErrNotFound) {
					return fmt.Errorf("movie not found: %q", movie)
				}
				return err
			}

			if ctx.jsonMode() {
				return writeJSON(cmd, result)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Matched %q (score %.2f) for user %d, alpha %.2f\n",
				result.Matched.Title, result.Matched.Score, userID, alpha)
			fmt.Fprint(out, renderTable(
				[]string{"#", "Title", "Content", "Preference", "Hybrid"},
				buildRecommendationRows(result.Recommendations),
				[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().StringVarP(&movie, "movie", "m", "", "Movie title to start from")
	cmd.Flags().Int64VarP(&userID, "user", "u", 0, "User ID for preference scoring")
	cmd.Flags().Float64VarP(&alpha, "alpha", "a", 0, "Content weight in [0,1]")
	_ = cmd.MarkFlagRequired("movie")

	return cmd
}

func buildRecommendationRows(recs []engine.Recommendation) [][]string {
	rows := make([][]string, len(recs))
	for i, rec := range recs {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			rec.Item.Title,
			formatScore(rec.ContentScore),
			formatScore(rec.PreferenceScore),
			formatScore(rec.Score),
		}
	}
	return rows
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
