package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-brine/infrastructure/store"
	"github.com/ahrav/go-brine/internal/application"
	"github.com/ahrav/go-brine/internal/ports"
)

const (
	kumamotoID = "3f1a9d2e-6b1c-4c1e-9f41-1b2c3d4e5f60"
	broadID    = "7c4b1e0a-2d3f-4a5b-8c6d-9e0f1a2b3c4d"
	reviewID   = "a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d"
	reviewerID = "0f9e8d7c-6b5a-4c3d-8e2f-1a0b9c8d7e6f"
)

// runCLI executes the root command with args and returns what it wrote to
// stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// writeConfig writes a configuration pointing at a fresh SQLite file.
func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	return writeFile(t, dir, "brine.yaml", fmt.Sprintf(`version: "1.0.0"
store:
  driver: sqlite
  dsn: %s
  auto_migrate: true
telemetry:
  log_level: error
`, filepath.Join(dir, "brine.db")))
}

const catalogYAML = `reviewers:
  - id: ` + reviewerID + `
    name: Ada
    credibility: 1.2
oysters:
  - id: ` + kumamotoID + `
    name: Kumamoto
    seed_size: 5
    seed_body: 5
    seed_sweet_brininess: 5
    seed_flavorfulness: 5
    seed_creaminess: 5
    reviews:
      - id: ` + reviewID + `
        reviewer_id: ` + reviewerID + `
        rating: LOVE_IT
        size: 9
        body: 8
  - id: ` + broadID + `
    name: Broadbill
    seed_size: 4
    seed_body: 4
    seed_sweet_brininess: 4
    seed_flavorfulness: 4
    seed_creaminess: 4
    reviews:
      - rating: AMAZING
        size: 6
`

func TestDescribe(t *testing.T) {
	tests := []struct {
		score string
		want  string
	}{
		{"9.3", "LOVE_IT"},
		{"8", "LOVE_IT"},
		{"7.99", "LIKE_IT"},
		{"4.2", "MEH"},
		{"0", "WHATEVER"},
		{"-3", "WHATEVER"},
	}
	for _, tt := range tests {
		t.Run(tt.score, func(t *testing.T) {
			out, err := runCLI(t, "describe", "--log-level", "error", "--", tt.score)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(out, tt.want), "got %q", out)
		})
	}

	out, err := runCLI(t, "describe", "--log-level", "error")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 4)

	_, err = runCLI(t, "describe", "--log-level", "error", "very good")
	assert.ErrorContains(t, err, "invalid score")
}

func TestScore(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "oyster.yaml", `name: Shigoku
seed_size: 5
seed_body: 5
seed_sweet_brininess: 5
seed_flavorfulness: 5
seed_creaminess: 5
reviews:
  - rating: LOVE_IT
    size: 10
  - rating: LIKE_IT
    size: 10
    reviewer_credibility: 0
`)

	out, err := runCLI(t, "score", "--log-level", "error", path)
	require.NoError(t, err)

	var got scoreOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Shigoku", got.Name)
	assert.Equal(t, 2, got.Aggregates.TotalReviews)
	// The zero-credibility review carries no influence.
	assert.Equal(t, 9.0, got.Aggregates.OverallScore)
	assert.Equal(t, 5.0, got.Aggregates.AvgBody)
	assert.Equal(t, "LOVE_IT", string(got.Band.Rating))

	bad := writeFile(t, dir, "bad.yaml", "name: X\nsalinity: 3\n")
	_, err = runCLI(t, "score", "--log-level", "error", bad)
	assert.Error(t, err)
}

func TestLoadRecomputeAndReviewChanges(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	catalog := writeFile(t, dir, "catalog.yaml", catalogYAML)

	out, err := runCLI(t, "--config", cfg, "load", catalog)
	require.NoError(t, err)
	assert.Contains(t, out, "loaded 2 oysters, 2 reviews, 1 reviewers")
	assert.Contains(t, out, kumamotoID)

	out, err = runCLI(t, "--config", cfg, "recompute", "--all")
	var ee *exitErr
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 2, ee.code)

	var report application.BatchReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Updated, 1)
	assert.Equal(t, kumamotoID, report.Updated[0].String())
	require.Len(t, report.Failed, 1)
	assert.Equal(t, broadID, report.Failed[0].OysterID.String())
	assert.Contains(t, report.Failed[0].Error, "AMAZING")

	out, err = runCLI(t, "--config", cfg, "recompute", "--oyster", kumamotoID, "--metrics")
	require.NoError(t, err)
	var single oysterResult
	require.NoError(t, json.Unmarshal([]byte(out), &single))
	assert.Equal(t, 1, single.Aggregates.TotalReviews)
	assert.Equal(t, 9.0, single.Aggregates.OverallScore)
	assert.Equal(t, "LOVE_IT", string(single.Verdict))

	out, err = runCLI(t, "--config", cfg, "review", "weight", reviewID, "0.5")
	require.NoError(t, err)
	single = oysterResult{}
	require.NoError(t, json.Unmarshal([]byte(out), &single))
	assert.Equal(t, kumamotoID, single.OysterID.String())
	assert.Equal(t, 9.0, single.Aggregates.OverallScore)

	out, err = runCLI(t, "--config", cfg, "review", "delete", reviewID)
	require.NoError(t, err)
	single = oysterResult{}
	require.NoError(t, json.Unmarshal([]byte(out), &single))
	assert.Equal(t, 0, single.Aggregates.TotalReviews)
	assert.Equal(t, 5.0, single.Aggregates.OverallScore)
	assert.Equal(t, 5.0, single.Aggregates.AvgSize)

	_, err = runCLI(t, "--config", cfg, "review", "delete", reviewID)
	assert.Error(t, err)
}

func TestLoad_ReviewCredibilityKeepsReviewerName(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	catalog := writeFile(t, dir, "catalog.yaml", `reviewers:
  - id: `+reviewerID+`
    name: Ada
    credibility: 1.2
oysters:
  - id: `+kumamotoID+`
    name: Kumamoto
    seed_size: 5
    seed_body: 5
    seed_sweet_brininess: 5
    seed_flavorfulness: 5
    seed_creaminess: 5
    reviews:
      - id: `+reviewID+`
        reviewer_id: `+reviewerID+`
        reviewer_credibility: 0.8
        rating: LIKE_IT
`)

	_, err := runCLI(t, "--config", cfg, "load", catalog)
	require.NoError(t, err)

	db, err := store.Open("sqlite", filepath.Join(dir, "brine.db"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	var (
		name        string
		credibility float64
	)
	require.NoError(t, db.Raw(
		"SELECT display_name, credibility FROM reviewers WHERE id = ?", reviewerID,
	).Row().Scan(&name, &credibility))
	assert.Equal(t, "Ada", name)
	assert.Equal(t, 0.8, credibility)
}

func TestRecompute_FlagValidation(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)

	_, err := runCLI(t, "--config", cfg, "recompute")
	assert.Error(t, err)

	_, err = runCLI(t, "--config", cfg, "recompute", "--all", "--oyster", kumamotoID)
	assert.Error(t, err)

	_, err = runCLI(t, "--config", cfg, "recompute", "--oyster", "not-a-uuid")
	assert.ErrorContains(t, err, "invalid oyster id")
}

func TestRecompute_TraceWritesSpans(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	catalog := writeFile(t, dir, "catalog.yaml", catalogYAML)
	_, err := runCLI(t, "--config", cfg, "load", catalog)
	require.NoError(t, err)

	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"--config", cfg, "recompute", "--oyster", kumamotoID, "--trace"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	assert.Contains(t, errOut.String(), "Recompute.Oyster")
	assert.Contains(t, errOut.String(), kumamotoID)
}

func TestConfigCommands(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)

	out, err := runCLI(t, "config", "validate", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "valid (version 1.0.0")

	bad := writeFile(t, dir, "bad.yaml", "version: \"1.0.0\"\nservice:\n  concurrency: 0\n")
	_, err = runCLI(t, "config", "validate", bad)
	assert.ErrorContains(t, err, "Concurrency")

	_, err = runCLI(t, "config", "validate", filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, ports.ErrConfigNotFound)

	out, err = runCLI(t, "--config", cfg, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "trust_ramp:")
	assert.Contains(t, out, filepath.Join(dir, "brine.db"))
}

func TestGenerateThenLoad(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	catalog := filepath.Join(dir, "generated.yaml")

	_, err := runCLI(t, "generate", "--oysters", "6", "--max-reviews", "4", "--seed", "7", "--out", catalog)
	require.NoError(t, err)

	again, err := runCLI(t, "generate", "--oysters", "6", "--max-reviews", "4", "--seed", "7")
	require.NoError(t, err)
	written, err := os.ReadFile(catalog)
	require.NoError(t, err)
	assert.Equal(t, string(written), again, "same seed must produce the same catalog")

	out, err := runCLI(t, "--config", cfg, "load", "--recompute", catalog)
	require.NoError(t, err)
	assert.Contains(t, out, "loaded 6 oysters")
	assert.Contains(t, out, "recomputed 6 oysters, 0 failed")
}
