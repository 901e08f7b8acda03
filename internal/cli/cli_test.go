package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/autoservice/internal/dto"
)

func setupEnv(t *testing.T) {
	t.Helper()

	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", "file:"+filepath.Join(t.TempDir(), "service.db")+"?_fk=1&_busy_timeout=5000")
	t.Setenv("DB_AUTO_MIGRATE", "true")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("MESSAGING_ENABLED", "false")
	t.Setenv("OBS_ENABLE_METRICS", "false")
	t.Setenv("OBS_ENABLE_TRACING", "false")
	t.Setenv("OBS_LOG_LEVEL", "error")
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()

	out, _, err := run(t, args...)
	require.NoError(t, err, strings.Join(args, " "))
	return out
}

func rows(out string) []string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	return lines[1:]
}

func TestOrderCommands(t *testing.T) {
	setupEnv(t)

	out := mustRun(t, "order", "create", "--customer", "Ivanov", "--car", "Toyota Camry", "--description", "oil change")
	assert.Contains(t, out, "ID")
	require.Len(t, rows(out), 1)
	assert.True(t, strings.HasPrefix(rows(out)[0], "1 "))
	assert.Contains(t, out, "oil change")

	mustRun(t, "order", "create", "--customer", "Petrov", "--car", "Honda Civic")

	listed := rows(mustRun(t, "order", "list"))
	require.Len(t, listed, 2)
	assert.True(t, strings.HasPrefix(listed[0], "2 "), listed[0])
	assert.True(t, strings.HasPrefix(listed[1], "1 "), listed[1])

	out = mustRun(t, "order", "update", "1", "--customer", "Ivanov", "--car", "Toyota Camry", "--description", "oil change + filter")
	assert.Contains(t, out, "oil change + filter")

	out = mustRun(t, "order", "delete", "2")
	assert.Equal(t, "order 2 deleted\n", out)

	out, stderr, err := run(t, "order", "get", "2")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, stderr, "warning: order not found")

	out = mustRun(t, "order", "get", "1", "--json")
	var got []dto.OrderResponse
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
	require.NotNil(t, got[0].Description)
	assert.Equal(t, "oil change + filter", *got[0].Description)
}

func TestOrderUpdateWithoutDescriptionClearsIt(t *testing.T) {
	setupEnv(t)

	mustRun(t, "order", "create", "--customer", "Ivanov", "--car", "Toyota Camry", "--description", "oil change")
	mustRun(t, "order", "update", "1", "--customer", "Ivanov", "--car", "Toyota Corolla")

	var got []dto.OrderResponse
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "order", "list", "--json")), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Toyota Corolla", got[0].CarInfo)
	assert.Nil(t, got[0].Description)
}

func TestOrderCommandErrors(t *testing.T) {
	setupEnv(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "non numeric id", args: []string{"order", "get", "abc"}, wantErr: "invalid order id"},
		{name: "zero id", args: []string{"order", "delete", "0"}, wantErr: "invalid order id"},
		{name: "missing required flag", args: []string{"order", "create", "--customer", "Ivanov"}, wantErr: `"car" not set`},
		{name: "empty customer rejected by store", args: []string{"order", "create", "--customer", "", "--car", "Lada"}, wantErr: "order rejected by store"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	listed := mustRun(t, "order", "list", "--json")
	assert.JSONEq(t, "[]", listed)
}

func TestMigrateAndSeed(t *testing.T) {
	setupEnv(t)
	t.Setenv("DB_AUTO_MIGRATE", "false")

	out := mustRun(t, "migrate", "status")
	assert.Contains(t, out, "00001_create_orders.sql")
	assert.Contains(t, out, "pending")

	assert.Equal(t, "migrations applied\n", mustRun(t, "migrate", "up"))
	assert.Contains(t, mustRun(t, "migrate", "status"), "applied")

	assert.Equal(t, "seeded 2 orders\n", mustRun(t, "seed"))
	assert.Contains(t, mustRun(t, "seed"), "nothing seeded")

	listed := rows(mustRun(t, "order", "list"))
	require.Len(t, listed, 2)
	assert.Contains(t, listed[0], "Petrov")
	assert.Contains(t, listed[1], "Ivanov")

	assert.Equal(t, "migrations rolled back\n", mustRun(t, "migrate", "down", "--all"))
	assert.Contains(t, mustRun(t, "migrate", "status"), "pending")
}
