package cli

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/headline-goat/hlg-stats/internal/stats"
	"github.com/headline-goat/hlg-stats/internal/store"
)

const threeVariantSnapshot = `
name = "hero"
goal = "signup click"

[[variants]]
name = "Ship Faster"
views = 1000
conversions = 50

[[variants]]
name = "Build Better"
views = 1000
conversions = 60

[[variants]]
name = "Launch Today"
views = 1000
conversions = 80
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// run executes the command tree with an empty config file so local
// hlg-stats.toml files cannot leak into tests.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cfg := writeFile(t, "hlg-stats.toml", "")
	cmd := newRootCmd()

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", cfg}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func seedDatabase(t *testing.T) string {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "hlg.db")
	s, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer s.Close()

	db := s.DB()
	if _, err := db.Exec(`INSERT INTO tests (name, variants, conversion_goal, state, created_at, updated_at)
		VALUES ('hero', '["Ship Faster","Build Better"]', 'signup', 'running', 1700000000, 1700000000)`); err != nil {
		t.Fatalf("failed to insert test: %v", err)
	}

	insert := func(variant, n int, eventType string) {
		for i := 0; i < n; i++ {
			if _, err := db.Exec(`INSERT INTO events (test_name, variant, event_type, visitor_id) VALUES ('hero', ?, ?, ?)`,
				variant, eventType, fmt.Sprintf("v%d-%d", variant, i)); err != nil {
				t.Fatalf("failed to insert event: %v", err)
			}
		}
	}
	insert(0, 1000, store.EventView)
	insert(0, 50, store.EventConvert)
	insert(1, 1000, store.EventView)
	insert(1, 75, store.EventConvert)

	return dbPath
}

func TestResults_FromSnapshot(t *testing.T) {
	path := writeFile(t, "hero.toml", threeVariantSnapshot)

	output, err := run(t, "results", "--file", path)
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}

	expectations := []string{
		"TEST: hero",
		"GOAL: signup click",
		"Ship Faster",
		"control",
		"5.00%",
		"8.00%",
		"← WINNER",
		`confident "Launch Today" is the winner`,
	}
	for _, expected := range expectations {
		if !strings.Contains(output, expected) {
			t.Errorf("output missing expected content: %s\n\nGot:\n%s", expected, output)
		}
	}
}

func TestResults_InsufficientData(t *testing.T) {
	path := writeFile(t, "hero.toml", threeVariantSnapshot)

	output, err := run(t, "results", "--file", path, "--min-sample", "5000")
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}

	if !strings.Contains(output, "Not enough data (every variant needs at least 5,000 views)") {
		t.Errorf("expected insufficient data message, got:\n%s", output)
	}
	if strings.Contains(output, "WINNER") {
		t.Errorf("no winner should be marked, got:\n%s", output)
	}
}

func TestResults_FromDatabase(t *testing.T) {
	dbPath := seedDatabase(t)

	output, err := run(t, "--db", dbPath, "results", "hero")
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}

	for _, expected := range []string{"STATE: running", "CREATED: 2023-11-1", "Build Better", `"Build Better" is the winner`} {
		if !strings.Contains(output, expected) {
			t.Errorf("output missing expected content: %s\n\nGot:\n%s", expected, output)
		}
	}
}

func TestResults_CompletedShowsDeclaredWinner(t *testing.T) {
	dbPath := seedDatabase(t)

	s, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if _, err := s.DB().Exec(`UPDATE tests SET state = ?, winner_variant = 1 WHERE name = 'hero'`, string(store.StateCompleted)); err != nil {
		t.Fatalf("failed to update test: %v", err)
	}
	s.Close()

	output, err := run(t, "--db", dbPath, "results", "hero")
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}

	for _, expected := range []string{"STATE: completed", "Test is completed.", "DECLARED WINNER: Build Better"} {
		if !strings.Contains(output, expected) {
			t.Errorf("output missing expected content: %s\n\nGot:\n%s", expected, output)
		}
	}
}

func TestResults_MinSampleZeroIsHonoured(t *testing.T) {
	path := writeFile(t, "small.toml", `
name = "small"

[[variants]]
name = "control"
views = 50
conversions = 2

[[variants]]
name = "challenger"
views = 50
conversions = 20
`)

	output, err := run(t, "winner", "--file", path, "--min-sample", "0")
	if err != nil {
		t.Fatalf("winner failed: %v", err)
	}
	if strings.Contains(output, "Not enough data") {
		t.Errorf("a minimum of 0 should always be met, got:\n%s", output)
	}
	if !strings.Contains(output, `"challenger" is the winner`) {
		t.Errorf("expected challenger to win, got:\n%s", output)
	}
}

func TestResults_NegativeMinSample(t *testing.T) {
	path := writeFile(t, "hero.toml", threeVariantSnapshot)

	_, err := run(t, "results", "--file", path, "--min-sample", "-1")
	if !errors.Is(err, stats.ErrInvalidPolicy) {
		t.Errorf("expected ErrInvalidPolicy, got %v", err)
	}
}

func TestResults_NotFound(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")

	_, err := run(t, "--db", dbPath, "results", "missing")
	if err == nil || !strings.Contains(err.Error(), "test 'missing' not found") {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestResults_RequiresNameOrFile(t *testing.T) {
	_, err := run(t, "--db", filepath.Join(t.TempDir(), "x.db"), "results")
	if err == nil {
		t.Error("expected an error without a name or --file")
	}
}

func TestWinner_JSON(t *testing.T) {
	path := writeFile(t, "hero.toml", threeVariantSnapshot)

	output, err := run(t, "winner", "--file", path, "--json")
	if err != nil {
		t.Fatalf("winner failed: %v", err)
	}

	var got jsonVerdict
	if err := json.Unmarshal([]byte(output), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, output)
	}

	if got.WinnerIndex == nil || *got.WinnerIndex != 2 {
		t.Fatalf("expected winner 2, got %v", got.WinnerIndex)
	}
	if got.WinnerName != "Launch Today" {
		t.Errorf("expected winner name 'Launch Today', got '%s'", got.WinnerName)
	}
	if !got.SufficientData || got.ControlConfirmed {
		t.Errorf("unexpected flags: %+v", got)
	}
	if len(got.Results) != 2 || got.Results[0].Variant != 1 || got.Results[1].Name != "Launch Today" {
		t.Errorf("unexpected results: %+v", got.Results)
	}
}

func TestWinner_ExitCode(t *testing.T) {
	path := writeFile(t, "hero.toml", threeVariantSnapshot)

	output, err := run(t, "winner", "--file", path, "--threshold", "99.9", "--exit-code")
	if !errors.Is(err, errNoWinner) {
		t.Fatalf("expected errNoWinner, got %v", err)
	}
	if !strings.Contains(output, "No variant is significant at 99.9% yet") {
		t.Errorf("unexpected output: %s", output)
	}
}

func TestBayes_Exact(t *testing.T) {
	path := writeFile(t, "hero.toml", threeVariantSnapshot)

	output, err := run(t, "bayes", "--file", path, "--exact")
	if err != nil {
		t.Fatalf("bayes failed: %v", err)
	}

	for _, expected := range []string{"exact Beta quantiles", "Launch Today", "← BEST", "0.0000%"} {
		if !strings.Contains(output, expected) {
			t.Errorf("output missing expected content: %s\n\nGot:\n%s", expected, output)
		}
	}
}

func TestBayes_InvalidPrior(t *testing.T) {
	path := writeFile(t, "hero.toml", threeVariantSnapshot)

	if _, err := run(t, "bayes", "--file", path, "--prior-alpha", "-1"); err == nil {
		t.Error("expected an error for a negative prior")
	}
}

func TestPlan(t *testing.T) {
	output, err := run(t, "plan", "--baseline", "0.05")
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}

	for _, expected := range []string{"Views per variant:  31,2", "(2 variants)", "32 days"} {
		if !strings.Contains(output, expected) {
			t.Errorf("output missing expected content: %s\n\nGot:\n%s", expected, output)
		}
	}
}

func TestPlan_ConfigDefaults(t *testing.T) {
	cfg := writeFile(t, "custom.toml", "[planning]\nminimum_detectable_effect = 0.5\ndaily_traffic = 100\n")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--config", cfg, "plan", "--baseline", "0.2"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	if !strings.Contains(out.String(), "+50.0% relative") {
		t.Errorf("expected config MDE to apply, got:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "at 100 views/day") {
		t.Errorf("expected config daily traffic to apply, got:\n%s", out.String())
	}
}

func TestPlan_InvalidBaseline(t *testing.T) {
	if _, err := run(t, "plan", "--baseline", "1.5"); err == nil {
		t.Error("expected an error for baseline above 1")
	}
}

func TestList(t *testing.T) {
	dbPath := seedDatabase(t)

	output, err := run(t, "--db", dbPath, "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	for _, expected := range []string{"NAME", "hero", "RUNNING", "2,000", "125", "Build Better ("} {
		if !strings.Contains(output, expected) {
			t.Errorf("output missing expected content: %s\n\nGot:\n%s", expected, output)
		}
	}
}

func TestList_Empty(t *testing.T) {
	output, err := run(t, "--db", filepath.Join(t.TempDir(), "empty.db"), "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(output, "No tests yet.") {
		t.Errorf("unexpected output: %s", output)
	}
}

func TestExport_CSV(t *testing.T) {
	path := writeFile(t, "hero.toml", threeVariantSnapshot)

	output, err := run(t, "export", "--file", path, "--format", "csv")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(output)).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d", len(records))
	}
	if records[0][0] != "variant" || records[0][len(records[0])-1] != "winner" {
		t.Errorf("unexpected header %v", records[0])
	}
	if records[1][7] != "" {
		t.Errorf("control should have no z-score, got %q", records[1][7])
	}
	if records[3][len(records[3])-1] != "true" {
		t.Errorf("expected last variant to be the winner, got %v", records[3])
	}
}

func TestExport_JSON(t *testing.T) {
	path := writeFile(t, "hero.toml", threeVariantSnapshot)

	output, err := run(t, "export", "--file", path, "--format", "json")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var got jsonExport
	if err := json.Unmarshal([]byte(output), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Verdict.Experiment != "hero" || len(got.Variants) != 3 {
		t.Errorf("unexpected export: %+v", got)
	}
	if got.Variants[2].ExpectedLoss != 0 {
		t.Errorf("best variant should have zero expected loss, got %f", got.Variants[2].ExpectedLoss)
	}
}

func TestExport_InvalidFormat(t *testing.T) {
	if _, err := run(t, "export", "--file", "unused.toml", "--format", "xml"); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestParseRate(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{"0.05", 0.05, false},
		{" 5% ", 0.05, false},
		{"12.5%", 0.125, false},
		{"0", 0, true},
		{"100%", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		got, err := parseRate(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseRate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && (got < tt.want-1e-12 || got > tt.want+1e-12) {
			t.Errorf("parseRate(%q) = %f, want %f", tt.input, got, tt.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{31234, "31,234"},
		{1234567, "1,234,567"},
		{-4500, "-4,500"},
		{100000, "100,000"},
		{math.MinInt, "-9,223,372,036,854,775,808"},
	}

	for _, tt := range tests {
		if got := formatNumber(tt.n); got != tt.want {
			t.Errorf("formatNumber(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
