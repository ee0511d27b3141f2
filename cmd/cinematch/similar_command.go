package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/temcen/cinematch/internal/engine"
)

func newSimilarCommand(ctx *commandContext) *cobra.Command {
	var movieID int64
	var k int

	cmd := &cobra.Command{
		Use:   "similar",
		Short: "List the closest content neighbours of a movie",
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := ctx.ensureModel(cmd.Context())
			if err != nil {
				return err
			}

			neighbors, err := model.Ranker.Similar(movieID, k)
			if err != nil {
				if errors.Is(err, engine.ErrNotFound) {
					return fmt.Errorf("no movie with id %d", movieID)
				}
				return err
			}

			if ctx.jsonMode() {
				return writeJSON(cmd, neighbors)
			}

			rows := make([][]string, len(neighbors))
			for i, n := range neighbors {
				rows[i] = []string{
					strconv.Itoa(i + 1),
					strconv.FormatInt(n.Item.ID, 10),
					n.Item.Title,
					formatScore(n.ContentScore),
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable(
				[]string{"#", "ID", "Title", "Similarity"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignLeft, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().Int64Var(&movieID, "id", 0, "Catalog movie ID")
	cmd.Flags().IntVar(&k, "k", 10, "Number of neighbours")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}
