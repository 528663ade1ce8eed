package model_test

import (
	"errors"
	"strings"
	"testing"

	"locktrack/internal/interval"
	"locktrack/internal/loader"
	"locktrack/internal/model"
)

func mustInterval(t *testing.T, start, end int64) interval.Interval {
	t.Helper()
	iv, err := interval.New(start, end)
	if err != nil {
		t.Fatalf("interval.New(%d, %d): %v", start, end, err)
	}
	return iv
}

func TestAddLockRejectsBlankResourceID(t *testing.T) {
	reg := model.NewRegistry(nil, nil)
	iv := mustInterval(t, 0, 10)

	for _, id := range []string{"", "   ", "\t\n"} {
		if err := reg.AddLock(id, iv); !errors.Is(err, model.ErrInvalidResourceID) {
			t.Fatalf("AddLock(%q) err=%v want ErrInvalidResourceID", id, err)
		}
	}
	if err := reg.AddLock("R1", iv); err != nil {
		t.Fatalf("AddLock(R1): %v", err)
	}
}

func TestQueriesValidateInputs(t *testing.T) {
	reg := model.NewRegistry(nil, nil)

	if _, err := reg.StatusAt(" ", 5); !errors.Is(err, model.ErrInvalidResourceID) {
		t.Fatalf("StatusAt blank id err=%v", err)
	}
	if _, err := reg.StatusAt("R1", -1); !errors.Is(err, interval.ErrInvalidTime) {
		t.Fatalf("StatusAt negative t err=%v", err)
	}
	if _, err := reg.HasCollisionAt("R1", -1); !errors.Is(err, interval.ErrInvalidTime) {
		t.Fatalf("HasCollisionAt negative t err=%v", err)
	}
	if _, err := reg.FirstCollision(""); !errors.Is(err, model.ErrInvalidResourceID) {
		t.Fatalf("FirstCollision blank id err=%v", err)
	}
	if _, err := reg.AllCollisions(""); !errors.Is(err, model.ErrInvalidResourceID) {
		t.Fatalf("AllCollisions blank id err=%v", err)
	}
}

func TestUnknownResourceAnswersFree(t *testing.T) {
	reg := model.NewRegistry(nil, nil)

	st, err := reg.StatusAt("never-seen", 42)
	if err != nil || st != interval.StatusFree {
		t.Fatalf("StatusAt unknown: %s, %v", st, err)
	}
	col, err := reg.HasCollisionAt("never-seen", 42)
	if err != nil || col {
		t.Fatalf("HasCollisionAt unknown: %v, %v", col, err)
	}
	pairs, err := reg.FirstCollision("never-seen")
	if err != nil || len(pairs) != 0 {
		t.Fatalf("FirstCollision unknown: %v, %v", pairs, err)
	}
	pairs, err = reg.AllCollisions("never-seen")
	if err != nil || len(pairs) != 0 {
		t.Fatalf("AllCollisions unknown: %v, %v", pairs, err)
	}
}

func TestRegistryScenario(t *testing.T) {
	reg := model.NewRegistry(nil, nil)

	if err := reg.AddLock("R1", mustInterval(t, 10, 20)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := reg.AddLock("R1", mustInterval(t, 18, 25)); err != nil {
		t.Fatalf("add: %v", err)
	}

	st, _ := reg.StatusAt("R1", 15)
	if st != interval.StatusLocked {
		t.Fatalf("StatusAt(15)=%s", st)
	}
	st, _ = reg.StatusAt("R1", 22)
	if st != interval.StatusLocked {
		t.Fatalf("StatusAt(22)=%s", st)
	}
	col, _ := reg.HasCollisionAt("R1", 19)
	if !col {
		t.Fatalf("expected collision at 19")
	}

	pairs, _ := reg.FirstCollision("R1")
	if len(pairs) != 1 {
		t.Fatalf("FirstCollision: %v", pairs)
	}
	want := interval.Pair{A: mustInterval(t, 10, 20), B: mustInterval(t, 18, 25)}
	if pairs[0] != want {
		t.Fatalf("FirstCollision pair=%v want %v", pairs[0], want)
	}

	// Resources are isolated.
	st, _ = reg.StatusAt("R2", 15)
	if st != interval.StatusFree {
		t.Fatalf("R2 must be free, got %s", st)
	}
}

func TestLoadRecordsSkipsBadRecordsAndContinues(t *testing.T) {
	reg := model.NewRegistry(nil, nil)

	records := []loader.Record{
		{ResourceID: "R1", Start: 1000, End: 2000},
		{ResourceID: "R1", Start: 1500, End: 1000}, // inverted
		{ResourceID: "  ", Start: 0, End: 5},       // blank id
		{ResourceID: "R2", Start: -5, End: 5},      // negative bound
		{ResourceID: "R2", Start: 3000, End: 4000},
	}

	rep := reg.LoadRecords(records)
	if rep.Loaded != 2 || rep.Skipped != 3 {
		t.Fatalf("report=%+v want loaded=2 skipped=3", rep)
	}

	st, _ := reg.StatusAt("R1", 1500)
	if st != interval.StatusLocked {
		t.Fatalf("R1@1500=%s", st)
	}
	st, _ = reg.StatusAt("R2", 3500)
	if st != interval.StatusLocked {
		t.Fatalf("R2@3500=%s", st)
	}
	// The skipped negative-bound record must not have created a lock.
	st, _ = reg.StatusAt("R2", 2)
	if st != interval.StatusFree {
		t.Fatalf("R2@2=%s want FREE", st)
	}
}

func TestLoadRecordsRoundTrip(t *testing.T) {
	// Loading N well-formed records produces exactly N insertions
	// spread over the distinct resource ids.
	reg := model.NewRegistry(nil, nil)

	var records []loader.Record
	ids := []string{"A", "B", "C"}
	for i := 0; i < 30; i++ {
		records = append(records, loader.Record{
			ResourceID: ids[i%len(ids)],
			Start:      int64(i * 10),
			End:        int64(i*10 + 5),
		})
	}

	rep := reg.LoadRecords(records)
	if rep.Loaded != 30 || rep.Skipped != 0 {
		t.Fatalf("report=%+v", rep)
	}

	st := reg.Stats()
	if st.Resources != 3 || st.Intervals != 30 {
		t.Fatalf("stats=%+v want 3 resources, 30 intervals", st)
	}
}

func TestLoadRecordsFromParsedBatch(t *testing.T) {
	// End-to-end shape of the documented batch: only the first record
	// survives; the bad type dies in the loader, the inverted range in
	// the registry.
	in := `[["R1", 1000, 2000], ["R2", "x", 3000], ["R1", 1500, 1000]]`
	records, shapeSkipped, err := loader.ParseRecords(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	reg := model.NewRegistry(nil, nil)
	rep := reg.LoadRecords(records)

	if rep.Loaded != 1 {
		t.Fatalf("loaded=%d want 1", rep.Loaded)
	}
	if rep.Skipped+shapeSkipped != 2 {
		t.Fatalf("total skipped=%d want 2", rep.Skipped+shapeSkipped)
	}

	st, _ := reg.StatusAt("R1", 1500)
	if st != interval.StatusLocked {
		t.Fatalf("R1@1500=%s", st)
	}
	st, _ = reg.StatusAt("R2", 2999)
	if st != interval.StatusFree {
		t.Fatalf("R2@2999=%s want FREE", st)
	}
}

func TestStatsCountsCollisionPairs(t *testing.T) {
	reg := model.NewRegistry(nil, nil)
	_ = reg.AddLock("R1", mustInterval(t, 10, 20))
	_ = reg.AddLock("R1", mustInterval(t, 18, 25))
	_ = reg.AddLock("R2", mustInterval(t, 0, 10))

	st := reg.Stats()
	if st.Resources != 2 || st.Intervals != 3 || st.CollisionPairs != 1 {
		t.Fatalf("stats=%+v", st)
	}
}
