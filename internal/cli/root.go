package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tsvfield/tsvfield/tsvfield"
	"github.com/tsvfield/tsvfield/tsvfield/storage"
	"github.com/tsvfield/tsvfield/tsvfield/storage/postgres"
	"github.com/tsvfield/tsvfield/tsvfield/storage/sqlite"
)

// Execute runs the CLI and returns an exit code.
func Execute(argv []string) int {
	root := newRootCmd()
	root.SetArgs(argv)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "tsvfield: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tsvfield",
		Short:         "Manage trigger-maintained search vector columns",
		Long:          "tsvfield keeps PostgreSQL tsvector columns synchronized with their weighted source columns via database triggers, driven by a YAML model manifest.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(
		newCheckCmd(),
		newSQLMigrateCmd(),
		newMigrateCmd(),
		newReindexCmd(),
		newSearchCmd(),
	)
	return cmd
}

func newEditor(engine, dsn string) (storage.SchemaEditor, error) {
	switch storage.Backend(engine) {
	case storage.BackendPostgres:
		return postgres.New(dsn), nil
	case storage.BackendSQLite:
		return sqlite.New(dsn), nil
	}
	return nil, tsvfield.New(tsvfield.ErrManifest, fmt.Sprintf("unknown engine %q (postgres or sqlite)", engine))
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}
