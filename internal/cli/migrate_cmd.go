package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tsvfield/tsvfield/tsvfield"
	"github.com/tsvfield/tsvfield/tsvfield/migrate"
	"github.com/tsvfield/tsvfield/tsvfield/storage"
)

// initialPlan compiles a manifest into the plan that creates every
// declared model from scratch, with trigger operations spliced in for the
// Postgres engine.
func initialPlan(models []tsvfield.Model, backend storage.Backend) []migrate.PlanEntry {
	m := &migrate.Migration{Name: "0001_initial"}
	for _, model := range models {
		m.Operations = append(m.Operations, migrate.CreateModel{Model: model})
	}
	plan := []migrate.PlanEntry{{Migration: m}}
	if backend == storage.BackendPostgres {
		migrate.InjectTriggerOperations(plan)
	}
	return plan
}

func failOnDiagnostics(out io.Writer, diags []tsvfield.Diagnostic) error {
	for _, d := range diags {
		fmt.Fprintln(out, d.String())
	}
	if len(diags) > 0 {
		return fmt.Errorf("manifest has %d problem(s); fix them before migrating", len(diags))
	}
	return nil
}

func newSQLMigrateCmd() *cobra.Command {
	var engine string

	cmd := &cobra.Command{
		Use:   "sqlmigrate <manifest.yaml>",
		Short: "Print the DDL an initial migration would execute",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			models, diags, err := LoadManifest(args[0])
			if err != nil {
				return err
			}
			if err := failOnDiagnostics(cmd.OutOrStdout(), diags); err != nil {
				return err
			}

			ed, err := newEditor(engine, "")
			if err != nil {
				return err
			}
			exec := migrate.NewExecutor(ed, nil)
			stmts, err := exec.Plan(initialPlan(models, ed.Backend()))
			if err != nil {
				return err
			}
			for _, stmt := range stmts {
				fmt.Fprintln(cmd.OutOrStdout(), stmt+";")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&engine, "engine", "postgres", "Target engine (postgres or sqlite)")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	var (
		engine  string
		dsn     string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "migrate <manifest.yaml>",
		Short: "Apply the initial migration for a manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			models, diags, err := LoadManifest(args[0])
			if err != nil {
				return err
			}
			if err := failOnDiagnostics(cmd.OutOrStdout(), diags); err != nil {
				return err
			}

			ed, err := newEditor(engine, dsn)
			if err != nil {
				return err
			}
			logger, err := newLogger(verbose)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			exec := migrate.NewExecutor(ed, logger)
			return exec.Apply(cmd.Context(), initialPlan(models, ed.Backend()))
		},
	}

	cmd.Flags().StringVar(&engine, "engine", "postgres", "Target engine (postgres or sqlite)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "Database DSN (postgres URL or sqlite path)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Log each staged operation")
	_ = cmd.MarkFlagRequired("dsn")
	return cmd
}

func newReindexCmd() *cobra.Command {
	var (
		engine string
		dsn    string
		field  string
	)

	cmd := &cobra.Command{
		Use:   "reindex <manifest.yaml> <model>",
		Short: "Queue a full recomputation of a model's search vector",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			models, diags, err := LoadManifest(args[0])
			if err != nil {
				return err
			}
			if err := failOnDiagnostics(cmd.OutOrStdout(), diags); err != nil {
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

			ed, err := newEditor(engine, dsn)
			if err != nil {
				return err
			}
			logger, err := newLogger(false)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			plan := []migrate.PlanEntry{{Migration: &migrate.Migration{
				Name:       "reindex_" + model.Name,
				Operations: []migrate.Operation{migrate.IndexSearchVector{Model: model, Field: field}},
			}}}
			return migrate.NewExecutor(ed, logger).Apply(cmd.Context(), plan)
		},
	}

	cmd.Flags().StringVar(&engine, "engine", "postgres", "Target engine (postgres only for now)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "Database DSN")
	cmd.Flags().StringVar(&field, "field", "", "Search vector field (defaults to the model's only one)")
	_ = cmd.MarkFlagRequired("dsn")
	return cmd
}
