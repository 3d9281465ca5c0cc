package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOURLY_CONFIG_PATH", "")
	t.Setenv("HOURLY_AUTH_ENABLED", "false")

	flagDriver, flagDBPath, flagDataDir, flagActor, flagRole, flagVerbose = "", "", "", "", "", false
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSeedThenListContracts(t *testing.T) {
	dir := t.TempDir()
	store := []string{"--driver", "file", "--data-dir", dir}

	out, err := run(t, "", append([]string{"seed"}, store...)...)
	require.NoError(t, err)
	require.Contains(t, out, "Demo data seeded.")

	out, err = run(t, "", append([]string{"seed"}, store...)...)
	require.NoError(t, err)
	require.Contains(t, out, "nothing seeded")

	out, err = run(t, "", append([]string{"contracts", "--actor", "ops", "--role", "admin"}, store...)...)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Greater(t, len(lines), 1)
	require.True(t, strings.HasPrefix(lines[0], "ID"))
}

func TestAPIKeyNeedsSQLite(t *testing.T) {
	_, err := run(t, "", "apikey", "add", "tok", "--user", "u1", "--driver", "memory")
	require.ErrorContains(t, err, "sqlite")
}

func TestAPIKeyAdd(t *testing.T) {
	db := t.TempDir() + "/hourly.db"
	out, err := run(t, "", "apikey", "add", "tok", "--user", "u1", "--key-role", "client", "--db", db)
	require.NoError(t, err)
	require.Contains(t, out, "u1 (client)")

	_, err = run(t, "", "apikey", "add", "tok2", "--user", "u1", "--key-role", "owner", "--db", db)
	require.Error(t, err)
}

func TestConfirm(t *testing.T) {
	var out bytes.Buffer
	require.True(t, confirm(strings.NewReader("y\n"), &out, "Pay?"))
	require.True(t, confirm(strings.NewReader("YES\n"), &out, "Pay?"))
	require.False(t, confirm(strings.NewReader("\n"), &out, "Pay?"))
	require.False(t, confirm(strings.NewReader(""), &out, "Pay?"))
	require.Contains(t, out.String(), "Pay? [y/N]")
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", truncate("short", 10))
	require.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
