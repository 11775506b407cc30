package main

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hekima/shindano/core/user"
	"github.com/hekima/shindano/storage/database/dummy"
)

func newTestCLI(t *testing.T) (*commandLine, user.Repository) {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	repo := dummydb.NewUserRepository(db)
	// the zero sqlx.DB is enough for commands whose runner is mocked out
	return &commandLine{db: &sqlx.DB{}, usrRepo: repo}, repo
}

func mockPassword(t *testing.T, pwd string) {
	t.Helper()

	orig := readPasswordFunc
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = orig })
}

func Test_cli_run_help(t *testing.T) {
	cli, _ := newTestCLI(t)

	tests := []struct {
		name string
		args []string
	}{
		{"no command", []string{"admin"}},
		{"unknown command", []string{"admin", "frobnicate"}},
		{"migrate without subcommand", []string{"admin", "migrate"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, errHelp, cli.run(tt.args))
		})
	}
}

func Test_cli_createSuperAdmin(t *testing.T) {
	ctx := context.Background()
	cli, repo := newTestCLI(t)
	mockPassword(t, "s3cret")

	t.Run("missing flags", func(t *testing.T) {
		err := cli.run([]string{"admin", "createsuperadmin", "-username", "root"})
		assert.Equal(t, errHelp, err)
	})

	t.Run("creates a fresh account", func(t *testing.T) {
		err := cli.run([]string{"admin", "createsuperadmin", "-username", "Root", "-email", "Root@test.cd"})
		require.NoError(t, err)

		usr, err := repo.GetUserByUsername(ctx, "root") // cleaned and lowered
		require.NoError(t, err)
		assert.Equal(t, user.SuperAdmin, usr.AdminType)
		assert.Equal(t, "root@test.cd", usr.Email)
		assert.True(t, usr.HasEmailAuth)
		assert.False(t, usr.IsDisabled)
		assert.NoError(t, usr.CheckPassword("s3cret"))
	})

	t.Run("promotes an existing account", func(t *testing.T) {
		existing := user.User{
			Username:   "hero",
			Email:      "hero@test.cd",
			AdminType:  user.RegularUser,
			IsDisabled: true,
		}
		existing, err := repo.CreateUser(ctx, existing)
		require.NoError(t, err)

		err = cli.run([]string{"admin", "createsuperadmin", "-username", "hero", "-email", "hero@test.cd"})
		require.NoError(t, err)

		usr, err := repo.GetUserByID(ctx, existing.ID)
		require.NoError(t, err)
		assert.Equal(t, user.SuperAdmin, usr.AdminType)
		assert.False(t, usr.IsDisabled)
		assert.True(t, usr.HasEmailAuth)
	})

	t.Run("empty password aborts", func(t *testing.T) {
		mockPassword(t, "")
		err := cli.run([]string{"admin", "createsuperadmin", "-username", "ghost", "-email", "ghost@test.cd"})
		assert.Equal(t, errHelp, err)

		_, err = repo.GetUserByUsername(ctx, "ghost")
		assert.Error(t, err)
	})
}

func Test_cli_resetPassword(t *testing.T) {
	ctx := context.Background()
	cli, repo := newTestCLI(t)
	mockPassword(t, "fresh-pw")

	usr := user.User{Username: "hero", Email: "hero@test.cd", AdminType: user.RegularUser}
	require.NoError(t, usr.SetPassword("old-pw"))
	usr, err := repo.CreateUser(ctx, usr)
	require.NoError(t, err)

	t.Run("unknown user", func(t *testing.T) {
		err := cli.run([]string{"admin", "resetpassword", "-username", "ghost"})
		assert.EqualError(t, err, "User does not exist")
	})

	t.Run("resets the password", func(t *testing.T) {
		err := cli.run([]string{"admin", "resetpassword", "-username", "HERO"})
		require.NoError(t, err)

		refreshed, err := repo.GetUserByID(ctx, usr.ID)
		require.NoError(t, err)
		assert.NoError(t, refreshed.CheckPassword("fresh-pw"))
		assert.Error(t, refreshed.CheckPassword("old-pw"))
	})
}

func Test_cli_migrate(t *testing.T) {
	cli, _ := newTestCLI(t)

	var gotCommand, gotDir string
	var gotArgs []string
	orig := gooseRunFunc
	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
		gotCommand, gotDir, gotArgs = command, dir, args
		return nil
	}
	t.Cleanup(func() { gooseRunFunc = orig })

	err := cli.run([]string{"admin", "migrate", "up-to", "20210601000000"})
	require.NoError(t, err)
	assert.Equal(t, "up-to", gotCommand)
	assert.Equal(t, "migrations", gotDir)
	assert.Equal(t, []string{"20210601000000"}, gotArgs)
}
