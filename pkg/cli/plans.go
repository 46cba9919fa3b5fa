package cli

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/platinummonkey/garage/pkg/billing"
)

func newPlansCommand(e *env) *Command {
	cmd := &Command{
		Name:        "plans",
		Description: "List billing plans and their limits",
		Flags:       flag.NewFlagSet("plans", flag.ContinueOnError),
	}
	cmd.Run = func(ctx context.Context, args []string) error {
		if err := flag.NewFlagSet("plans", flag.ContinueOnError).Parse(args); err != nil {
			return err
		}

		tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PLAN\tPRICE\tSUB-ACCOUNTS\tTEAM MEMBERS")
		for _, p := range billing.Plans() {
			fmt.Fprintf(tw, "%s\t$%d.%02d\t%s\t%s\n", p.Plan,
				p.BasePriceCents/100, p.BasePriceCents%100,
				limit(p.IncludedSubAccounts), limit(p.IncludedTeamMembers))
		}
		return tw.Flush()
	}
	return cmd
}

func limit(n int) string {
	if n < 0 {
		return "unlimited"
	}
	return strconv.Itoa(n)
}
