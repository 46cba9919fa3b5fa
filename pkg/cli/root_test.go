package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/garage/pkg/auth"
	"github.com/platinummonkey/garage/pkg/domain"
	"github.com/platinummonkey/garage/pkg/observability"
	"github.com/platinummonkey/garage/pkg/storage/postgres"
	"github.com/platinummonkey/garage/pkg/storage/storagetest"
)

func newTestRoot(t *testing.T) (*Command, *postgres.Store, *bytes.Buffer) {
	t.Helper()
	store := storagetest.NewStore(t)
	open := func(context.Context) (*Backend, error) {
		return &Backend{DB: store.DB(), Driver: postgres.DriverSQLite, Store: store}, nil
	}
	out := &bytes.Buffer{}
	return NewRootCommand(open, out, observability.NopLogger()), store, out
}

func seedGarage(t *testing.T, store *postgres.Store, id string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, store.InsertGarage(context.Background(), &domain.Garage{
		ID:           id,
		Name:         "Acme Motors",
		CompanyEmail: "owner@acme.test",
		Goal:         domain.DefaultGoal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}))
}

func TestNewRootCommand(t *testing.T) {
	root, _, _ := newTestRoot(t)

	assert.Equal(t, "garagectl", root.Name)
	assert.NotNil(t, root.Flags)

	expectedCommands := []string{"migrate", "invite", "invitations", "members", "plans"}
	for _, cmdName := range expectedCommands {
		assert.Contains(t, root.Subcommands, cmdName, "Expected subcommand %s to be registered", cmdName)
	}
	assert.Equal(t, len(expectedCommands), len(root.Subcommands))
}

func TestCommandUsage(t *testing.T) {
	root, _, _ := newTestRoot(t)

	var buf bytes.Buffer
	require.NoError(t, root.usage(&buf))

	output := buf.String()
	assert.Contains(t, output, "Usage: garagectl <command> [args]")
	assert.Contains(t, output, "Commands:")
	assert.Contains(t, output, "invite")
	assert.Contains(t, output, "migrate")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("invitations")), bytes.Index(buf.Bytes(), []byte("plans")))
}

func TestCommandExecute_UnknownCommand(t *testing.T) {
	root, _, _ := newTestRoot(t)

	err := root.Execute(context.Background(), []string{"frobnicate"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command: frobnicate")
}

func TestMigrateCommand(t *testing.T) {
	root, _, out := newTestRoot(t)

	require.NoError(t, root.Execute(context.Background(), []string{"migrate"}))
	assert.Contains(t, out.String(), "Schema is up to date")
}

func TestMigrateCommand_OpenFails(t *testing.T) {
	open := func(context.Context) (*Backend, error) { return nil, errors.New("connection refused") }
	root := NewRootCommand(open, &bytes.Buffer{}, observability.NopLogger())

	err := root.Execute(context.Background(), []string{"migrate"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open database")
}

func TestInviteCommand(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name: "invites with default role",
			args: []string{"-garage", "G1", "-email", "Alice@Example.com"},
		},
		{
			name:    "missing garage flag",
			args:    []string{"-email", "alice@example.com"},
			wantErr: "-garage is required",
		},
		{
			name:    "unknown garage",
			args:    []string{"-garage", "nope", "-email", "alice@example.com"},
			wantErr: "not found",
		},
		{
			name:    "invalid role",
			args:    []string{"-garage", "G1", "-email", "alice@example.com", "-role", "ROOT"},
			wantErr: "invalid role",
		},
		{
			name:    "owner role cannot be granted",
			args:    []string{"-garage", "G1", "-email", "alice@example.com", "-role", string(auth.RoleGarageOwner)},
			wantErr: "cannot be granted by invitation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, store, out := newTestRoot(t)
			seedGarage(t, store, "G1")

			err := root.Execute(ctx, append([]string{"invite"}, tt.args...))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out.String(), "Invited alice@example.com to G1 as "+string(auth.DefaultRole))

			inv, err := store.FindPendingInvitationByEmail(ctx, "alice@example.com")
			require.NoError(t, err)
			assert.Equal(t, "G1", inv.GarageID)
		})
	}
}

func TestInvitationsCommand(t *testing.T) {
	ctx := context.Background()
	root, store, out := newTestRoot(t)
	seedGarage(t, store, "G1")

	require.NoError(t, root.Execute(ctx, []string{"invite", "-garage", "G1", "-email", "bob@example.com", "-role", string(auth.RoleGarageAdmin)}))
	out.Reset()

	require.NoError(t, root.Execute(ctx, []string{"invitations", "-garage", "G1"}))
	assert.Contains(t, out.String(), "EMAIL")
	assert.Contains(t, out.String(), "bob@example.com")
	assert.Contains(t, out.String(), string(auth.RoleGarageAdmin))

	err := root.Execute(ctx, []string{"invitations"})
	assert.ErrorIs(t, err, errGarageRequired)
}

func TestMembersCommand(t *testing.T) {
	ctx := context.Background()
	root, store, out := newTestRoot(t)
	seedGarage(t, store, "G1")

	garageID := "G1"
	require.NoError(t, store.CreateUser(ctx, &auth.User{
		Email:    "owner@acme.test",
		Name:     "Olivia Owner",
		Role:     auth.RoleGarageOwner,
		GarageID: &garageID,
	}))

	require.NoError(t, root.Execute(ctx, []string{"members", "-garage", "G1"}))
	assert.Contains(t, out.String(), "owner@acme.test")
	assert.Contains(t, out.String(), "Olivia Owner")
}

func TestPlansCommand(t *testing.T) {
	open := func(context.Context) (*Backend, error) {
		t.Fatal("plans must not open the database")
		return nil, nil
	}
	out := &bytes.Buffer{}
	root := NewRootCommand(open, out, observability.NopLogger())

	require.NoError(t, root.Execute(context.Background(), []string{"plans"}))
	assert.Contains(t, out.String(), "starter")
	assert.Contains(t, out.String(), "unlimited")
}
