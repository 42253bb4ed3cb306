package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/delivery-radius-service/internal/domain"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"query", "lookup", "search"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestQueryCommand_Flags(t *testing.T) {
	for _, name := range []string{"source", "radius", "threshold", "all", "override", "format"} {
		require.NotNil(t, queryCmd.Flags().Lookup(name), "query command should have --%s flag", name)
	}
	assert.Equal(t, "csv", queryCmd.Flags().Lookup("format").DefValue)
}

// Auburn WA area: from 98001, 98002 is ~2.2 mi, 98354 ~4.3 mi, 98030 ~5.4 mi.
const testReference = "US\t98001\tAuburn\tWashington\tWA\tKing\t033\t\t\t47.3034\t-122.2637\t4\n" +
	"US\t98002\tAuburn\tWashington\tWA\tKing\t033\t\t\t47.3085\t-122.2171\t4\n" +
	"US\t98030\tKent\tWashington\tWA\tKing\t033\t\t\t47.3678\t-122.1976\t4\n" +
	"US\t98354\tMilton\tWashington\tWA\tPierce\t053\t\t\t47.2515\t-122.3160\t4\n"

func setupEnv(t *testing.T) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "US.txt")
	require.NoError(t, os.WriteFile(path, []byte(testReference), 0o600))
	t.Setenv("REFERENCE_DATA_PATH", path)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Pairs []domain.CoordinatePair `json:"pairs"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp := domain.DriveTimeResponse{Errors: []string{}}
		for i := range req.Pairs {
			minutes := 12.4
			resp.Results = append(resp.Results, domain.DriveTimeOutcome{Index: i, Minutes: &minutes, Status: domain.StatusOK})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	t.Setenv("DRIVE_TIME_API_URL", srv.URL)
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestQueryCommand_WritesCSV(t *testing.T) {
	setupEnv(t)

	// 98354 and 98030 fall in the edge zone and are confirmed by drive time.
	stdout, stderr, err := execute(t, "query", "--source", "98001", "--radius", "5", "--all")
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(stdout)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, domain.ExportHeader, records[0])
	assert.Equal(t, []string{"98002", "98354", "98030"}, []string{records[1][1], records[2][1], records[3][1]})
	assert.Equal(t, "12", records[3][6])
	assert.Equal(t, "Yes", records[3][8])
	assert.Contains(t, stderr, "98001: 3 candidates, 3 included")
}

func TestQueryCommand_UnknownSource(t *testing.T) {
	setupEnv(t)

	_, _, err := execute(t, "query", "--source", "00000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown source zip code")
}

func TestLookupCommand(t *testing.T) {
	setupEnv(t)

	stdout, _, err := execute(t, "lookup", "98354", "99999")
	require.NoError(t, err)
	assert.Contains(t, stdout, "98354 - Milton, WA (Pierce)")
	assert.Contains(t, stdout, "99999 - not found")
}

func TestSearchCommand(t *testing.T) {
	setupEnv(t)

	stdout, _, err := execute(t, "search", "auburn", "--limit", "1")
	require.NoError(t, err)
	assert.Equal(t, "98001 - Auburn, WA (King)\n", stdout)
}
