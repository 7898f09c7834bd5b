package report

import (
	"testing"

	"cyberarena/internal/protocol"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_MissionLifecycle(t *testing.T) {
	s := openTestStore(t)

	id, err := s.BeginMission("SQL_INJECTION")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	rec, err := s.Mission(id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec.MissionType != "SQL_INJECTION" {
		t.Fatalf("expected mission type preserved, got %s", rec.MissionType)
	}
	if rec.FinishedAt != nil || rec.FinalDamage != nil {
		t.Fatalf("fresh mission must not be finished: %+v", rec)
	}

	if err := s.FinishMission(id, 12); err != nil {
		t.Fatalf("finish: %v", err)
	}

	rec, err = s.Mission(id)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if rec.FinishedAt == nil || rec.FinalDamage == nil || *rec.FinalDamage != 12 {
		t.Fatalf("finish not recorded: %+v", rec)
	}
}

func TestStore_FinishUnknownMission(t *testing.T) {
	s := openTestStore(t)
	if err := s.FinishMission("no-such-id", 5); err == nil {
		t.Fatalf("expected error for unknown mission")
	}
}

func TestStore_EventsKeepOrder(t *testing.T) {
	s := openTestStore(t)

	id, err := s.BeginMission("NETWORK_FLOOD")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	events := []protocol.Event{
		protocol.NewStateUpdate("RED_SCANNER", protocol.StatusThinking),
		protocol.NewAgentMessage("RED_SCANNER", "scan complete"),
		protocol.NewImpact(20),
	}
	for i, ev := range events {
		if err := s.RecordEvent(id, i, ev.EventType(), ev); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	got, err := s.Events(id)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	for i, rec := range got {
		if rec.Seq != i {
			t.Fatalf("events out of order: %+v", got)
		}
		if rec.EventType != events[i].EventType() {
			t.Fatalf("event %d type mismatch: %s", i, rec.EventType)
		}
	}
}

func TestStore_RecentMissionsNewestFirst(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.BeginMission("NETWORK_FLOOD"); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := s.BeginMission("MITM_ATTACK"); err != nil {
		t.Fatalf("begin: %v", err)
	}

	recent, err := s.RecentMissions(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 missions, got %d", len(recent))
	}
}
