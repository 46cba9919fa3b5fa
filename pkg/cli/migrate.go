package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/platinummonkey/garage/pkg/storage/postgres"
)

func newMigrateCommand(e *env) *Command {
	cmd := &Command{
		Name:        "migrate",
		Description: "Create any missing database tables",
		Flags:       flag.NewFlagSet("migrate", flag.ContinueOnError),
	}
	cmd.Run = func(ctx context.Context, args []string) error {
		if err := flag.NewFlagSet("migrate", flag.ContinueOnError).Parse(args); err != nil {
			return err
		}
		return e.withBackend(ctx, func(b *Backend) error {
			if err := postgres.EnsureSchema(ctx, b.DB, b.Driver); err != nil {
				return err
			}
			fmt.Fprintln(e.out, "Schema is up to date")
			return nil
		})
	}
	return cmd
}
