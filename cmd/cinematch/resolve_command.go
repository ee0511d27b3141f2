package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/temcen/cinematch/internal/engine"
	"github.com/temcen/cinematch/pkg/models"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Show the catalog title a query resolves to",
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := ctx.ensureModel(cmd.Context())
			if err != nil {
				return err
			}

			match, err := model.Resolver.Resolve(query)
			if err != nil {
				if errors.Is(err, engine.ErrNotFound) {
					return fmt.Errorf("no title matches %q", query)
				}
				return err
			}

			resp := models.ResolveResponse{
				Query: query,
				ID:    model.Catalog[match.Index].ID,
				Title: match.Title,
				Score: match.Score,
			}
			if ctx.jsonMode() {
				return writeJSON(cmd, resp)
			}

			fmt.Fprint(cmd.OutOrStdout(), renderTable(
				[]string{"Query", "ID", "Title", "Score"},
				[][]string{{resp.Query, strconv.FormatInt(resp.ID, 10), resp.Title, formatScore(resp.Score)}},
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Free-text movie title")
	_ = cmd.MarkFlagRequired("query")

	return cmd
}
