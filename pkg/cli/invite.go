package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/platinummonkey/garage/pkg/auth"
	"github.com/platinummonkey/garage/pkg/billing"
	"github.com/platinummonkey/garage/pkg/garages"
	"github.com/platinummonkey/garage/pkg/notifications"
)

var errGarageRequired = errors.New("-garage is required")

func (e *env) garageService(b *Backend) *garages.Service {
	activity := notifications.NewActivityLogger(b.Store, e.logger, nil)
	return garages.NewService(b.Store, nil, activity, billing.NewService(b.Store, e.logger), e.logger, nil)
}

func newInviteCommand(e *env) *Command {
	cmd := &Command{
		Name:        "invite",
		Description: "Invite an email address to a garage",
		Flags:       flag.NewFlagSet("invite", flag.ContinueOnError),
	}
	cmd.Flags.String("garage", "", "Garage ID")
	cmd.Flags.String("email", "", "Email address to invite")
	cmd.Flags.String("role", string(auth.DefaultRole), "Role granted on acceptance")

	cmd.Run = func(ctx context.Context, args []string) error {
		flags := flag.NewFlagSet("invite", flag.ContinueOnError)
		garageID := flags.String("garage", "", "Garage ID")
		email := flags.String("email", "", "Email address to invite")
		role := flags.String("role", string(auth.DefaultRole), "Role granted on acceptance")
		if err := flags.Parse(args); err != nil {
			return err
		}
		if *garageID == "" {
			return errGarageRequired
		}
		r, err := auth.ParseRole(*role)
		if err != nil {
			return err
		}

		return e.withBackend(ctx, func(b *Backend) error {
			inv, err := e.garageService(b).Invite(ctx, *garageID, *email, r)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Invited %s to %s as %s (%s)\n", inv.Email, inv.GarageID, inv.Role, inv.ID)
			return nil
		})
	}
	return cmd
}

func newInvitationsCommand(e *env) *Command {
	cmd := &Command{
		Name:        "invitations",
		Description: "List the invitations of a garage",
		Flags:       flag.NewFlagSet("invitations", flag.ContinueOnError),
	}
	cmd.Flags.String("garage", "", "Garage ID")

	cmd.Run = func(ctx context.Context, args []string) error {
		flags := flag.NewFlagSet("invitations", flag.ContinueOnError)
		garageID := flags.String("garage", "", "Garage ID")
		if err := flags.Parse(args); err != nil {
			return err
		}
		if *garageID == "" {
			return errGarageRequired
		}

		return e.withBackend(ctx, func(b *Backend) error {
			invitations, err := e.garageService(b).ListInvitations(ctx, *garageID)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "EMAIL\tROLE\tSTATUS")
			for _, inv := range invitations {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", inv.Email, inv.Role, inv.Status)
			}
			return tw.Flush()
		})
	}
	return cmd
}

func newMembersCommand(e *env) *Command {
	cmd := &Command{
		Name:        "members",
		Description: "List the members of a garage",
		Flags:       flag.NewFlagSet("members", flag.ContinueOnError),
	}
	cmd.Flags.String("garage", "", "Garage ID")

	cmd.Run = func(ctx context.Context, args []string) error {
		flags := flag.NewFlagSet("members", flag.ContinueOnError)
		garageID := flags.String("garage", "", "Garage ID")
		if err := flags.Parse(args); err != nil {
			return err
		}
		if *garageID == "" {
			return errGarageRequired
		}

		return e.withBackend(ctx, func(b *Backend) error {
			members, err := e.garageService(b).ListMembers(ctx, *garageID)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "EMAIL\tNAME\tROLE")
			for _, u := range members {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", u.Email, u.Name, u.Role)
			}
			return tw.Flush()
		})
	}
	return cmd
}
