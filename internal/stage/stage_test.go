package stage

import (
	"context"
	"errors"
	"testing"

	"pitchdna/internal/batch"
	"pitchdna/internal/catalog"
	"pitchdna/internal/config"
	"pitchdna/internal/events"
	"pitchdna/internal/features"
	"pitchdna/internal/identity"
	"pitchdna/internal/records"
	"pitchdna/internal/rescache"
	"pitchdna/internal/testsupport"
)

var inputHeader = []string{"name", "player_id", "year", "pitch_type", "game_pk", "pitch_number", "play_id", "video_url", "avg_speed", "avg_spin", "avg_break_x", "avg_break_z"}

func row(values map[string]string) []string {
	out := make([]string, len(inputHeader))
	for i, col := range inputHeader {
		out[i] = values[col]
	}
	return out
}

func pitch(seq int, code, owner string, speed, spin float64, ref catalog.EventRef) catalog.Candidate {
	return catalog.Candidate{
		Sequence:    seq,
		HasSequence: true,
		Code:        code,
		Owner:       owner,
		Features: features.Vector{
			features.Of(features.Speed, speed),
			features.Of(features.Spin, spin),
		},
		Ref: ref,
	}
}

func runStage(t *testing.T, proc batch.Processor, table *records.Table) batch.Summary {
	t.Helper()
	summary, err := batch.New(proc, nil, batch.Options{}).Run(context.Background(), table, 0)
	if err != nil {
		t.Fatalf("run %s: %v", proc.Name(), err)
	}
	return summary
}

func referenceResolver() *identity.Resolver {
	table := identity.NewTable([]identity.Entry{
		{Name: "Shohei Ohtani", ID: 660271},
		{Name: "Ronald Acuña Jr.", ID: 660670},
	})
	return identity.NewResolver(table, nil, 0)
}

func TestIdentifyWritesIDsAndCandidates(t *testing.T) {
	table := testsupport.NewTable(t, inputHeader,
		row(map[string]string{"name": "Ohtani, Shohei"}),
		row(map[string]string{"name": "ronald acuna jr"}),
		row(map[string]string{"name": "Zack Wheeler"}),
		row(map[string]string{"name": "  "}),
	)
	proc := NewIdentify(referenceResolver(), config.DefaultColumns())
	summary := runStage(t, proc, table)

	if got := table.Get(0, "player_id"); got != "660271" {
		t.Fatalf("row 0 player_id = %q", got)
	}
	if table.Get(0, ColumnPlayerMatch) != identity.MatchExact || table.Get(0, ColumnPlayerScore) != "1.0000" {
		t.Fatalf("row 0 match = %q score = %q", table.Get(0, ColumnPlayerMatch), table.Get(0, ColumnPlayerScore))
	}
	if got := table.Get(1, "player_id"); got != "660670" {
		t.Fatalf("row 1 player_id = %q", got)
	}
	if table.Get(2, "player_id") != "" || table.Get(2, ColumnPlayerCandidate) == "" {
		t.Fatalf("row 2 should carry only a candidate, got id=%q candidate=%q", table.Get(2, "player_id"), table.Get(2, ColumnPlayerCandidate))
	}
	if got := table.Get(2, "identify_status"); got != "low_confidence" {
		t.Fatalf("row 2 status = %q", got)
	}
	if got := table.Get(3, "identify_status"); got != "missing_input" {
		t.Fatalf("row 3 status = %q", got)
	}
	if summary.Statuses["resolved"] != 2 {
		t.Fatalf("unexpected statuses %v", summary.Statuses)
	}
}

func TestIdentifyHealthCheck(t *testing.T) {
	empty := NewIdentify(identity.NewResolver(nil, nil, 0), config.DefaultColumns())
	if empty.HealthCheck(context.Background()).Ready {
		t.Fatal("expected empty reference table to be unhealthy")
	}
	if !NewIdentify(referenceResolver(), config.DefaultColumns()).HealthCheck(context.Background()).Ready {
		t.Fatal("expected loaded reference table to be healthy")
	}
}

func TestLocatePicksNearestPitch(t *testing.T) {
	fake := testsupport.NewFakeCatalog().Add(catalog.PitcherSeasonKey(660271, 2023),
		pitch(1, "FF", "Ohtani, Shohei", 95.0, 2300, catalog.EventRef{GamePK: 1, PitchNumber: 1}),
		pitch(4, "FF", "Ohtani, Shohei", 99.1, 2450, catalog.EventRef{GamePK: 2, PitchNumber: 4}),
		pitch(2, "ST", "Ohtani, Shohei", 84.0, 2600, catalog.EventRef{GamePK: 3, PitchNumber: 2}),
	)
	table := testsupport.NewTable(t, inputHeader,
		row(map[string]string{"name": "Shohei Ohtani", "player_id": "660271", "year": "2023", "pitch_type": "FF", "avg_speed": "99.0", "avg_spin": "2440"}),
		row(map[string]string{"name": "Shohei Ohtani", "year": "2023", "pitch_type": "ST", "avg_speed": "84"}),
		row(map[string]string{"name": "Shohei Ohtani", "player_id": "660271", "pitch_type": "FF"}),
	)
	cache := rescache.New(fake, nil)
	proc := NewLocate(cache, events.NewResolver(nil, 0, nil), referenceResolver(), config.DefaultColumns(), nil)
	runStage(t, proc, table)

	if table.Get(0, "game_pk") != "2" || table.Get(0, "pitch_number") != "4" {
		t.Fatalf("row 0 located game=%q pitch=%q", table.Get(0, "game_pk"), table.Get(0, "pitch_number"))
	}
	if got := table.Get(0, "locate_status"); got != "resolved" {
		t.Fatalf("row 0 status = %q", got)
	}
	if table.Get(1, "game_pk") != "3" {
		t.Fatalf("row 1 should resolve its player id through the reference table, got game=%q status=%q", table.Get(1, "game_pk"), table.Get(1, "locate_status"))
	}
	if got := table.Get(2, "locate_status"); got != "missing_input" {
		t.Fatalf("row 2 status = %q", got)
	}
	if calls := fake.Calls(catalog.PitcherSeasonKey(660271, 2023)); calls != 1 {
		t.Fatalf("expected one catalog fetch, got %d", calls)
	}
}

func TestLinkWritesPlayIDAndVideoURL(t *testing.T) {
	key := catalog.GameKey(717465)
	fake := testsupport.NewFakeCatalog().Add(key,
		pitch(3, "FF", "Gerrit Cole", 97, 2500, catalog.EventRef{GamePK: 717465, PitchNumber: 3, PlayID: "abc-1"}),
		pitch(4, "FF", "Gerrit Cole", 97, 2500, catalog.EventRef{GamePK: 717465, PitchNumber: 4, PlayID: "abc-2"}),
	)
	table := testsupport.NewTable(t, inputHeader,
		row(map[string]string{"name": "Cole, Gerrit", "pitch_type": "FF", "game_pk": "717465", "pitch_number": "3.0"}),
		row(map[string]string{"name": "Gerrit Cole", "pitch_type": "SL", "game_pk": "717465", "pitch_number": "3"}),
		row(map[string]string{"name": "Gerrit Cole", "pitch_type": "FF"}),
	)
	proc := NewLink(rescache.New(fake, nil), events.NewResolver(nil, 0, nil), config.DefaultColumns(), catalog.DefaultVideoURL, nil)
	runStage(t, proc, table)

	if got := table.Get(0, "play_id"); got != "abc-1" {
		t.Fatalf("row 0 play_id = %q", got)
	}
	if got := table.Get(0, "video_url"); got != "https://baseballsavant.mlb.com/sporty-videos?playId=abc-1" {
		t.Fatalf("row 0 video_url = %q", got)
	}
	if table.Get(1, "play_id") != "" || table.Get(1, "link_status") != "no_candidate" {
		t.Fatalf("row 1 wrong pitch type should be unresolved, got %q / %q", table.Get(1, "play_id"), table.Get(1, "link_status"))
	}
	if got := table.Get(2, "link_status"); got != "missing_input" {
		t.Fatalf("row 2 status = %q", got)
	}
}

func TestLinkRequiresPitchNumber(t *testing.T) {
	key := catalog.GameKey(717465)
	fake := testsupport.NewFakeCatalog().Add(key,
		pitch(5, "FF", "Gerrit Cole", 97, 2500, catalog.EventRef{GamePK: 717465, PitchNumber: 5, PlayID: "abc-5"}),
	)
	table := testsupport.NewTable(t, inputHeader,
		row(map[string]string{"name": "Gerrit Cole", "pitch_type": "FF", "game_pk": "717465", "pitch_number": ""}),
		row(map[string]string{"name": "Gerrit Cole", "pitch_type": "FF", "game_pk": "717465", "pitch_number": "not found"}),
	)
	proc := NewLink(rescache.New(fake, nil), events.NewResolver(nil, 0, nil), config.DefaultColumns(), catalog.DefaultVideoURL, nil)
	runStage(t, proc, table)

	for i := range 2 {
		if got := table.Get(i, "link_status"); got != "missing_input" {
			t.Fatalf("row %d status = %q, want missing_input", i, got)
		}
		if got := table.Get(i, "play_id"); got != "" {
			t.Fatalf("row %d play_id = %q, want empty", i, got)
		}
	}
	if calls := fake.Calls(key); calls != 0 {
		t.Fatalf("catalog fetched %d times for rows without a pitch number", calls)
	}
}

func TestLinkFetchFailureDoesNotStopLaterRows(t *testing.T) {
	fake := testsupport.NewFakeCatalog().
		Fail(catalog.GameKey(1), errors.New("connection reset")).
		Add(catalog.GameKey(2), pitch(1, "CU", "Max Fried", 75, 2700, catalog.EventRef{GamePK: 2, PitchNumber: 1, PlayID: "p-2"}))
	table := testsupport.NewTable(t, inputHeader,
		row(map[string]string{"name": "Max Fried", "pitch_type": "CU", "game_pk": "1", "pitch_number": "1"}),
		row(map[string]string{"name": "Max Fried", "pitch_type": "CU", "game_pk": "2", "pitch_number": "1"}),
	)
	proc := NewLink(rescache.New(fake, nil), events.NewResolver(nil, 0, nil), config.DefaultColumns(), "", nil)
	runStage(t, proc, table)

	if got := table.Get(0, "link_status"); got != "fetch_failure" {
		t.Fatalf("row 0 status = %q", got)
	}
	if got := table.Get(1, "play_id"); got != "p-2" {
		t.Fatalf("row 1 play_id = %q", got)
	}
}

func TestVerifyComparesPitcher(t *testing.T) {
	key := catalog.GameKey(5)
	fake := testsupport.NewFakeCatalog().Add(key,
		pitch(1, "FF", "Spencer Strider", 98, 2500, catalog.EventRef{GamePK: 5, PitchNumber: 1, PlayID: "play-1"}),
	)
	table := testsupport.NewTable(t, inputHeader,
		row(map[string]string{"name": "Strider, Spencer", "game_pk": "5", "play_id": "play-1"}),
		row(map[string]string{"name": "Chris Sale", "game_pk": "5", "video_url": "https://baseballsavant.mlb.com/sporty-videos?playId=play-1"}),
		row(map[string]string{"name": "Spencer Strider", "game_pk": "5", "play_id": "play-9"}),
		row(map[string]string{"name": "Spencer Strider", "game_pk": "5"}),
	)
	proc := NewVerify(rescache.New(fake, nil), nil, 0, config.DefaultColumns(), nil)
	runStage(t, proc, table)

	if table.Get(0, ColumnPitcherVerified) != "true" || table.Get(0, ColumnPitcherScore) != "1.0000" {
		t.Fatalf("row 0 verified=%q score=%q", table.Get(0, ColumnPitcherVerified), table.Get(0, ColumnPitcherScore))
	}
	if got := table.Get(0, "verify_status"); got != "resolved" {
		t.Fatalf("row 0 status = %q", got)
	}
	if table.Get(1, ColumnPitcherVerified) != "false" || table.Get(1, "verify_status") != "low_confidence" {
		t.Fatalf("row 1 verified=%q status=%q", table.Get(1, ColumnPitcherVerified), table.Get(1, "verify_status"))
	}
	if got := table.Get(2, "verify_status"); got != "no_candidate" {
		t.Fatalf("row 2 status = %q", got)
	}
	if got := table.Get(3, "verify_status"); got != "missing_input" {
		t.Fatalf("row 3 status = %q", got)
	}
}

type clipPages map[string]error

// Check treats a missing entry as unavailable and a nil entry as available.
func (p clipPages) Check(_ context.Context, clipURL string) (bool, error) {
	err, ok := p[clipURL]
	if !ok {
		return false, nil
	}
	return err == nil, err
}

func TestCheckMarksClipAvailability(t *testing.T) {
	live := "https://baseballsavant.mlb.com/sporty-videos?playId=live"
	dead := "https://baseballsavant.mlb.com/sporty-videos?playId=dead"
	flaky := "https://baseballsavant.mlb.com/sporty-videos?playId=flaky"
	pages := clipPages{live: nil, flaky: errors.New("connection reset")}
	table := testsupport.NewTable(t, inputHeader,
		row(map[string]string{"video_url": live}),
		row(map[string]string{"video_url": dead}),
		row(map[string]string{"video_url": flaky}),
		row(map[string]string{}),
	)
	runStage(t, NewCheck(pages, config.DefaultColumns(), nil), table)

	if table.Get(0, ColumnVideoAvailable) != "true" || table.Get(0, "check_status") != "resolved" {
		t.Fatalf("row 0 available=%q status=%q", table.Get(0, ColumnVideoAvailable), table.Get(0, "check_status"))
	}
	if table.Get(1, ColumnVideoAvailable) != "false" || table.Get(1, "check_status") != "no_candidate" {
		t.Fatalf("row 1 available=%q status=%q", table.Get(1, ColumnVideoAvailable), table.Get(1, "check_status"))
	}
	if table.Get(2, ColumnVideoAvailable) != "" || table.Get(2, "check_status") != "fetch_failure" {
		t.Fatalf("row 2 available=%q status=%q", table.Get(2, ColumnVideoAvailable), table.Get(2, "check_status"))
	}
	if got := table.Get(3, "check_status"); got != "missing_input" {
		t.Fatalf("row 3 status = %q", got)
	}
}

func TestBreakerHealth(t *testing.T) {
	if !breakerHealth(NameLink, nil).Ready {
		t.Fatal("nil transport should be healthy")
	}
	transport := catalog.NewTransport(catalog.TransportOptions{Name: "test"}, nil, nil)
	if !breakerHealth(NameLink, transport).Ready {
		t.Fatal("closed breaker should be healthy")
	}
}
