package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pitchdna/internal/testsupport"
)

type cliTestEnv struct {
	dir        string
	configPath string
}

func setupCLITestEnv(t *testing.T, statsAPIURL string) *cliTestEnv {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("HOME", filepath.Join(dir, "home"))
	if statsAPIURL == "" {
		statsAPIURL = "http://127.0.0.1:1/api/v1"
	}
	configPath := testsupport.WriteLines(t, filepath.Join(dir, "pitchdna.toml"),
		"[paths]",
		fmt.Sprintf("work_dir = %q", filepath.Join(dir, "work")),
		fmt.Sprintf("log_dir = %q", filepath.Join(dir, "logs")),
		"[statsapi]",
		fmt.Sprintf("base_url = %q", statsAPIURL),
		"max_retries = 0",
		"requests_per_second = 0.0",
		"[statcast]",
		`base_url = "http://127.0.0.1:1/statcast_search/csv"`,
		"max_retries = 0",
		"[logging]",
		`format = "json"`,
		`level = "warn"`,
	)
	return &cliTestEnv{dir: dir, configPath: configPath}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q in output:\n%s", needle, haystack)
	}
}

func TestIdentifyCommandEndToEnd(t *testing.T) {
	env := setupCLITestEnv(t, "")
	reference := testsupport.WriteLines(t, filepath.Join(env.dir, "ids.csv"),
		"name,player_id",
		"Shohei Ohtani,660271",
		`"Acuña Jr., Ronald",660670`,
	)
	input := testsupport.WriteCSV(t, filepath.Join(env.dir, "pitches.csv"), []string{"name"},
		[]string{"Ohtani, Shohei"},
		[]string{"Ronald Acuna Jr."},
		[]string{"Nobody Known"},
	)

	out, _, err := runCLI(t, []string{"identify", "--input", input, "--reference", reference, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	var report struct {
		Output  string `json:"output"`
		Summary struct {
			Processed int            `json:"processed"`
			Statuses  map[string]int `json:"statuses"`
		} `json:"summary"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report %q: %v", out, err)
	}
	if report.Summary.Processed != 3 || report.Summary.Statuses["resolved"] != 2 {
		t.Fatalf("unexpected summary %+v", report.Summary)
	}
	if report.Output != filepath.Join(env.dir, "pitches.identify.csv") {
		t.Fatalf("unexpected output path %q", report.Output)
	}
	table := testsupport.MustLoadTable(t, report.Output)
	if table.Get(0, "player_id") != "660271" || table.Get(1, "player_id") != "660670" {
		t.Fatalf("unexpected ids %q %q", table.Get(0, "player_id"), table.Get(1, "player_id"))
	}
	if got := table.Get(2, "identify_status"); got != "low_confidence" {
		t.Fatalf("row 2 status = %q", got)
	}
}

func TestIdentifyRequiresReference(t *testing.T) {
	env := setupCLITestEnv(t, "")
	input := testsupport.WriteCSV(t, filepath.Join(env.dir, "in.csv"), []string{"name"}, []string{"x"})
	_, _, err := runCLI(t, []string{"identify", "--input", input}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "reference") {
		t.Fatalf("expected missing reference error, got %v", err)
	}
}

func TestLinkCommandAgainstStatsAPI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/game/745612/playByPlay" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"allPlays":[{"about":{"atBatIndex":0},
			"matchup":{"pitcher":{"id":605400,"fullName":"Aaron Nola"}},
			"playEvents":[
				{"isPitch":true,"pitchNumber":1,"playId":"aaaa-1111","details":{"type":{"code":"FF"}},"pitchData":{"startSpeed":93.4}},
				{"isPitch":true,"pitchNumber":2,"playId":"bbbb-2222","details":{"type":{"code":"KC"}},"pitchData":{"startSpeed":79.8}}
			]}]}`)
	}))
	defer server.Close()

	env := setupCLITestEnv(t, server.URL+"/api/v1")
	input := testsupport.WriteCSV(t, filepath.Join(env.dir, "located.csv"),
		[]string{"name", "pitch_type", "game_pk", "pitch_number"},
		[]string{"Nola, Aaron", "KC", "745612", "2"},
		[]string{"Aaron Nola", "FF", "999", "1"},
	)
	output := filepath.Join(env.dir, "linked.csv")

	out, _, err := runCLI(t, []string{"link", "-i", input, "-o", output, "--no-progress"}, env.configPath)
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	requireContains(t, out, "Outcomes")
	requireContains(t, out, "fetch_failure")

	table := testsupport.MustLoadTable(t, output)
	if got := table.Get(0, "play_id"); got != "bbbb-2222" {
		t.Fatalf("play_id = %q", got)
	}
	if got := table.Get(0, "video_url"); got != "https://baseballsavant.mlb.com/sporty-videos?playId=bbbb-2222" {
		t.Fatalf("video_url = %q", got)
	}
	if got := table.Get(1, "link_status"); got != "fetch_failure" {
		t.Fatalf("row 1 status = %q", got)
	}
}

func TestStageCommandRequiresInput(t *testing.T) {
	env := setupCLITestEnv(t, "")
	if _, _, err := runCLI(t, []string{"verify"}, env.configPath); err == nil {
		t.Fatal("expected missing --input to fail")
	}
}

func TestConfigInitShowAndPath(t *testing.T) {
	env := setupCLITestEnv(t, "")
	target := filepath.Join(env.dir, "new", "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}

	out, _, err = runCLI(t, []string{"config", "path"}, target)
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	requireContains(t, out, target)

	out, _, err = runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "base_url")
	requireContains(t, out, "checkpoint_every = 100")
}

func TestConfigCheckReportsUnreachableCatalog(t *testing.T) {
	env := setupCLITestEnv(t, "")
	out, _, err := runCLI(t, []string{"config", "check"}, env.configPath)
	if err == nil {
		t.Fatal("expected unreachable statsapi to fail the check")
	}
	requireContains(t, out, "StatsAPI")
	requireContains(t, out, "FAIL")
}

func TestCheckCommandMarksMissingClips(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("playId") == "gone" {
			fmt.Fprint(w, "<html><h2>No Video Found</h2></html>")
			return
		}
		fmt.Fprint(w, `<html><video src="clip.mp4"></video></html>`)
	}))
	defer server.Close()

	env := setupCLITestEnv(t, "")
	configPath := testsupport.WriteLines(t, filepath.Join(env.dir, "check.toml"),
		"[paths]",
		fmt.Sprintf("work_dir = %q", filepath.Join(env.dir, "work")),
		`log_dir = ""`,
		"[savant]",
		fmt.Sprintf("video_url = %q", server.URL+"/sporty-videos"),
		"requests_per_second = 0.0",
		"max_retries = 0",
		"[logging]",
		`format = "json"`,
		`level = "warn"`,
	)
	input := testsupport.WriteCSV(t, filepath.Join(env.dir, "linked.csv"),
		[]string{"name", "video_url"},
		[]string{"Aaron Nola", server.URL + "/sporty-videos?playId=live"},
		[]string{"Aaron Nola", server.URL + "/sporty-videos?playId=gone"},
	)
	output := filepath.Join(env.dir, "checked.csv")

	if _, _, err := runCLI(t, []string{"check", "-i", input, "-o", output, "--no-progress"}, configPath); err != nil {
		t.Fatalf("check: %v", err)
	}
	table := testsupport.MustLoadTable(t, output)
	if got := table.Get(0, "video_available"); got != "true" {
		t.Fatalf("row 0 video_available = %q", got)
	}
	if table.Get(1, "video_available") != "false" || table.Get(1, "check_status") != "no_candidate" {
		t.Fatalf("row 1 video_available=%q status=%q", table.Get(1, "video_available"), table.Get(1, "check_status"))
	}
}
