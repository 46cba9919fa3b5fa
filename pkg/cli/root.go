package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"sort"

	"github.com/platinummonkey/garage/pkg/observability"
	"github.com/platinummonkey/garage/pkg/storage"
)

// Command represents a CLI command
type Command struct {
	Name        string
	Description string
	Run         func(ctx context.Context, args []string) error
	Subcommands map[string]*Command
	Flags       *flag.FlagSet
}

// Backend is the database a command works against
type Backend struct {
	DB     *sql.DB
	Driver string
	Store  storage.Store
	Close  func() error
}

// Opener connects to the backend. Commands that need no database never
// call it.
type Opener func(ctx context.Context) (*Backend, error)

// env is shared by every subcommand
type env struct {
	open   Opener
	out    io.Writer
	logger *observability.Logger
}

// NewRootCommand creates the garagectl root command
func NewRootCommand(open Opener, out io.Writer, logger *observability.Logger) *Command {
	e := &env{open: open, out: out, logger: logger}
	root := &Command{
		Name:        "garagectl",
		Description: "Garage console administration",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("garagectl", flag.ContinueOnError),
	}

	root.Subcommands["migrate"] = newMigrateCommand(e)
	root.Subcommands["invite"] = newInviteCommand(e)
	root.Subcommands["invitations"] = newInvitationsCommand(e)
	root.Subcommands["members"] = newMembersCommand(e)
	root.Subcommands["plans"] = newPlansCommand(e)

	return root
}

// Execute runs the subcommand named by args[0]
func (c *Command) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return c.usage(c.Flags.Output())
	}

	if args[0] == "-h" || args[0] == "--help" {
		return c.usage(c.Flags.Output())
	}

	if subcmd, ok := c.Subcommands[args[0]]; ok {
		return subcmd.Run(ctx, args[1:])
	}

	return fmt.Errorf("unknown command: %s", args[0])
}

func (c *Command) usage(w io.Writer) error {
	names := make([]string, 0, len(c.Subcommands))
	for name := range c.Subcommands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(w, "Usage: %s <command> [args]\n\n", c.Name)
	fmt.Fprintf(w, "Commands:\n")
	for _, name := range names {
		fmt.Fprintf(w, "  %-15s %s\n", name, c.Subcommands[name].Description)
	}
	return nil
}

// withBackend opens the backend for the duration of fn
func (e *env) withBackend(ctx context.Context, fn func(b *Backend) error) error {
	b, err := e.open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if b.Close != nil {
		defer b.Close()
	}
	return fn(b)
}
