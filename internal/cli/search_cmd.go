package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsvfield/tsvfield/tsvfield/storage/postgres"
)

func newSearchCmd() *cobra.Command {
	var (
		dsn      string
		field    string
		config   string
		headline string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "search <manifest.yaml> <model> <query>",
		Short: "Run a ranked text search against a model's vector column",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			models, _, err := LoadManifest(args[0])
			if err != nil {
				return err
			}
			model, err := FindModel(models, args[1])
			if err != nil {
				return err
			}
			if field == "" {
				vfs := model.VectorFields()
				if len(vfs) != 1 {
					return fmt.Errorf("model %s has %d search vector fields, pass --field", model.Name, len(vfs))
				}
				field = vfs[0].Name
			}

			ed := postgres.New(dsn)
			db, err := ed.Connect(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			results, err := ed.Search(cmd.Context(), db, model, field, args[2], postgres.SearchOptions{
				Config:   config,
				Headline: headline,
				Limit:    limit,
			})
			if err != nil {
				return err
			}
			for _, r := range results {
				if r.Headline != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "%d\t%.4f\t%s\n", r.ID, r.Rank, r.Headline)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%.4f\n", r.ID, r.Rank)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dsn, "dsn", "", "Postgres DSN")
	cmd.Flags().StringVar(&field, "field", "", "Search vector field (defaults to the model's only one)")
	cmd.Flags().StringVar(&config, "config", "english", "Text search configuration")
	cmd.Flags().StringVar(&headline, "headline", "", "Textual column to render a headline from")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum results")
	_ = cmd.MarkFlagRequired("dsn")
	return cmd
}
