package exportview

import (
	"testing"

	"github.com/alex-berlin-tv/rafo/internal/export"
)

func TestBoardReplacesByTarget(t *testing.T) {
	b := NewBoard()
	b.Apply(export.Event{Target: export.TargetLoad, State: export.StateRunning})
	b.Apply(export.Event{Target: export.TargetLoad, State: export.StateDone})
	b.Apply(export.Event{Target: export.TargetGuard, State: export.StateRunning})

	rows := b.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Target != export.TargetLoad || rows[0].State != export.StateDone {
		t.Fatalf("unexpected first row %+v", rows[0])
	}
	if rows[1].Target != export.TargetGuard || rows[1].State != export.StateRunning {
		t.Fatalf("unexpected second row %+v", rows[1])
	}
}

func TestBoardOutcome(t *testing.T) {
	b := NewBoard()
	b.Apply(export.Event{Target: export.TargetLoad, State: export.StateDone})
	b.Apply(export.Event{Target: export.TargetReferenceCheck, State: export.StateWarning})
	var copyable export.Pairs
	copyable.Add("Platform ID", "9001")
	b.Apply(export.Event{Target: export.TargetFinalize, State: export.StateDone, CopyableValues: copyable})
	b.Close()

	finalized, worst := b.Outcome()
	if !finalized || worst != export.StateWarning {
		t.Fatalf("expected finalized with warning, got %v %s", finalized, worst)
	}
	if id, ok := b.Copyable().Get("Platform ID"); !ok || id != "9001" {
		t.Fatalf("expected platform id, got %q", id)
	}
	if !b.Closed() {
		t.Fatal("expected closed board")
	}
}

func TestBoardFatalRun(t *testing.T) {
	b := NewBoard()
	b.Apply(export.Event{Target: export.TargetLoad, State: export.StateDone})
	b.Apply(export.Event{Target: export.TargetGuard, State: export.StateError})

	finalized, worst := b.Outcome()
	if finalized || worst != export.StateError {
		t.Fatalf("expected unfinished error run, got %v %s", finalized, worst)
	}
	if _, ok := b.Get(export.TargetFinalize); ok {
		t.Fatal("finalize must be absent")
	}
}
