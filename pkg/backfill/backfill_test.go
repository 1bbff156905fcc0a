package backfill

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/arbworks/odds-core/pkg/logger"
)

type fakeSource struct {
	quota    int
	cost     int
	failSnap map[string]error
	calls    []string
	payload  json.RawMessage
}

func (f *fakeSource) FetchHistorical(ctx context.Context, sport, snapshotTime string) (json.RawMessage, int, error) {
	f.calls = append(f.calls, snapshotTime)
	if err, ok := f.failSnap[snapshotTime]; ok {
		return nil, f.quota, err
	}
	f.quota -= f.cost
	if f.payload != nil {
		return f.payload, f.quota, nil
	}
	return json.RawMessage(fmt.Sprintf(`{"timestamp":%q,"data":[]}`, snapshotTime)), f.quota, nil
}

func (f *fakeSource) RemainingQuota() int {
	return f.quota
}

type fakeStore struct {
	keys     []string
	objects  map[string]string
	failKeys map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string]string)}
}

func (f *fakeStore) PutJSON(ctx context.Context, key string, payload any) error {
	if err, ok := f.failKeys[key]; ok {
		return err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	f.keys = append(f.keys, key)
	f.objects[key] = string(body)
	return nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testOptions() Options {
	return Options{
		SportKey:     "basketball_nba",
		QuotaFloor:   400,
		ErrorCeiling: 5,
		StrictErrors: true,
	}
}

func newTestRunner(source *fakeSource, store *fakeStore, opts Options) *Runner {
	return NewRunner(source, store, opts, logger.New("backfill-test"))
}

func TestDateRange(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{"single day", day(2023, 1, 15), day(2023, 1, 15), 1},
		{"one week", day(2023, 1, 1), day(2023, 1, 7), 7},
		{"across month boundary", day(2023, 1, 30), day(2023, 2, 2), 4},
		{"start after end", day(2023, 1, 15), day(2023, 1, 14), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DateRange(tt.start, tt.end)
			if len(got) != tt.want {
				t.Errorf("DateRange() produced %d days, want %d", len(got), tt.want)
			}
			for i := 1; i < len(got); i++ {
				if !got[i].After(got[i-1]) {
					t.Errorf("Days not in ascending order at index %d", i)
				}
			}
		})
	}
}

func TestRunPersistsEveryDay(t *testing.T) {
	source := &fakeSource{quota: 1000, cost: 1}
	store := newFakeStore()
	runner := newTestRunner(source, store, testOptions())

	state := runner.Run(context.Background(), day(2023, 1, 15), day(2023, 1, 19))

	if state.StopReason != StopNone {
		t.Errorf("Expected no stop reason, got %q", state.StopReason)
	}
	if state.ErrorCount != 0 {
		t.Errorf("Expected no errors, got %d", state.ErrorCount)
	}
	if len(store.keys) != 5 {
		t.Fatalf("Expected 5 artifacts, got %d", len(store.keys))
	}

	want := []string{
		"odds_data/raw_data/nba/nba_2023-01-15.json",
		"odds_data/raw_data/nba/nba_2023-01-16.json",
		"odds_data/raw_data/nba/nba_2023-01-17.json",
		"odds_data/raw_data/nba/nba_2023-01-18.json",
		"odds_data/raw_data/nba/nba_2023-01-19.json",
	}
	for i, key := range want {
		if store.keys[i] != key {
			t.Errorf("Artifact %d = %q, want %q", i, store.keys[i], key)
		}
	}
}

func TestRunIsIdempotent(t *testing.T) {
	payload := json.RawMessage(`{"timestamp":"fixed","data":[]}`)

	first := newFakeStore()
	source := &fakeSource{quota: 1000, cost: 1, payload: payload}
	newTestRunner(source, first, testOptions()).Run(context.Background(), day(2023, 1, 15), day(2023, 1, 17))

	second := newFakeStore()
	source = &fakeSource{quota: 1000, cost: 1, payload: payload}
	newTestRunner(source, second, testOptions()).Run(context.Background(), day(2023, 1, 15), day(2023, 1, 17))

	if len(first.objects) != len(second.objects) {
		t.Fatalf("Key sets differ: %d vs %d", len(first.objects), len(second.objects))
	}
	for key, body := range first.objects {
		if second.objects[key] != body {
			t.Errorf("Content differs for %s", key)
		}
	}
}

func TestQuotaFloorStopsRun(t *testing.T) {
	// Quota starts at 403 and each fetch costs 1: after day 3 the counter
	// sits at the floor, so day 4 must not be fetched.
	source := &fakeSource{quota: 403, cost: 1}
	store := newFakeStore()
	runner := newTestRunner(source, store, testOptions())

	state := runner.Run(context.Background(), day(2023, 1, 15), day(2023, 1, 21))

	if state.StopReason != StopQuotaFloor {
		t.Errorf("Expected quota floor stop, got %q", state.StopReason)
	}
	if len(source.calls) != 3 {
		t.Errorf("Expected 3 fetches before the floor tripped, got %d", len(source.calls))
	}
	if len(store.keys) != 3 {
		t.Errorf("Expected exactly 3 artifacts, got %d", len(store.keys))
	}
	if state.RemainingQuota != 400 {
		t.Errorf("Expected final quota 400, got %d", state.RemainingQuota)
	}
}

func TestFetchFailureSkipsDayAndContinues(t *testing.T) {
	source := &fakeSource{
		quota:    1000,
		cost:     1,
		failSnap: map[string]error{"2023-01-16T12:00:00Z": errors.New("upstream 502")},
	}
	store := newFakeStore()
	runner := newTestRunner(source, store, testOptions())

	state := runner.Run(context.Background(), day(2023, 1, 15), day(2023, 1, 17))

	if state.ErrorCount != 1 {
		t.Errorf("Expected error count 1, got %d", state.ErrorCount)
	}
	if len(source.calls) != 3 {
		t.Errorf("Expected all 3 days attempted, got %d", len(source.calls))
	}
	if _, ok := store.objects["odds_data/raw_data/nba/nba_2023-01-16.json"]; ok {
		t.Error("Failed day must not produce an artifact")
	}
	if _, ok := store.objects["odds_data/raw_data/nba/nba_2023-01-17.json"]; !ok {
		t.Error("Day after a failure must still be attempted")
	}
}

func TestPersistFailureCountsAsError(t *testing.T) {
	source := &fakeSource{quota: 1000, cost: 1}
	store := newFakeStore()
	store.failKeys = map[string]error{
		"odds_data/raw_data/nba/nba_2023-01-15.json": errors.New("store unreachable"),
	}
	runner := newTestRunner(source, store, testOptions())

	state := runner.Run(context.Background(), day(2023, 1, 15), day(2023, 1, 16))

	if state.ErrorCount != 1 {
		t.Errorf("Expected error count 1, got %d", state.ErrorCount)
	}
	// The fetch is not re-attempted after a persist failure.
	if len(source.calls) != 2 {
		t.Errorf("Expected 2 fetches, got %d", len(source.calls))
	}
	if len(store.keys) != 1 || store.keys[0] != "odds_data/raw_data/nba/nba_2023-01-16.json" {
		t.Errorf("Expected only the second day persisted, got %v", store.keys)
	}
}

func TestErrorCeilingStopsStrictRun(t *testing.T) {
	source := &fakeSource{quota: 1000, cost: 1, failSnap: map[string]error{}}
	for d := 15; d <= 21; d++ {
		source.failSnap[fmt.Sprintf("2023-01-%dT12:00:00Z", d)] = errors.New("boom")
	}
	store := newFakeStore()

	opts := testOptions()
	opts.ErrorCeiling = 2
	runner := newTestRunner(source, store, opts)

	state := runner.Run(context.Background(), day(2023, 1, 15), day(2023, 1, 21))

	if state.StopReason != StopErrorCeiling {
		t.Errorf("Expected error ceiling stop, got %q", state.StopReason)
	}
	if state.ErrorCount != 2 {
		t.Errorf("Expected 2 errors before the ceiling tripped, got %d", state.ErrorCount)
	}
	if len(source.calls) != 2 {
		t.Errorf("Expected fetching to stop after 2 failed days, got %d calls", len(source.calls))
	}
}

func TestErrorCeilingLenientRunContinues(t *testing.T) {
	source := &fakeSource{quota: 1000, cost: 1, failSnap: map[string]error{}}
	for d := 15; d <= 21; d++ {
		source.failSnap[fmt.Sprintf("2023-01-%dT12:00:00Z", d)] = errors.New("boom")
	}
	store := newFakeStore()

	opts := testOptions()
	opts.ErrorCeiling = 2
	opts.StrictErrors = false
	runner := newTestRunner(source, store, opts)

	state := runner.Run(context.Background(), day(2023, 1, 15), day(2023, 1, 21))

	if state.StopReason != StopNone {
		t.Errorf("Lenient run must not stop on the ceiling, got %q", state.StopReason)
	}
	if len(source.calls) != 7 {
		t.Errorf("Expected all 7 days attempted, got %d", len(source.calls))
	}
	if state.ErrorCount != 7 {
		t.Errorf("Expected 7 errors, got %d", state.ErrorCount)
	}
}

func TestKeyAndSnapshotDerivation(t *testing.T) {
	source := &fakeSource{quota: 1000, cost: 1}
	store := newFakeStore()
	runner := newTestRunner(source, store, testOptions())

	runner.Run(context.Background(), day(2023, 1, 15), day(2023, 1, 15))

	if len(source.calls) != 1 || source.calls[0] != "2023-01-15T12:00:00Z" {
		t.Errorf("Expected snapshot time 2023-01-15T12:00:00Z, got %v", source.calls)
	}
	if len(store.keys) != 1 || store.keys[0] != "odds_data/raw_data/nba/nba_2023-01-15.json" {
		t.Errorf("Expected key odds_data/raw_data/nba/nba_2023-01-15.json, got %v", store.keys)
	}
}

func TestEmptyRangeDoesNothing(t *testing.T) {
	source := &fakeSource{quota: 1000, cost: 1}
	store := newFakeStore()
	runner := newTestRunner(source, store, testOptions())

	state := runner.Run(context.Background(), day(2023, 1, 15), day(2023, 1, 10))

	if len(source.calls) != 0 {
		t.Errorf("Expected no fetches for an empty range, got %d", len(source.calls))
	}
	if state.StopReason != StopNone || state.ErrorCount != 0 {
		t.Errorf("Unexpected state for empty range: %+v", state)
	}
}
