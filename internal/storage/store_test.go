package storage

import (
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateAndGetRoom(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateRoom("AB12CD"); err != nil {
		t.Fatalf("create room: %v", err)
	}
	row, err := s.GetRoom("AB12CD")
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if row.Code != "AB12CD" {
		t.Fatalf("expected code AB12CD, got %s", row.Code)
	}
	if row.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}
}

func TestGetMissingRoom(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetRoom("NOPE"); err == nil {
		t.Fatal("expected error for missing room")
	}
}

func TestDuplicateRoomCode(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateRoom("AB12CD"); err != nil {
		t.Fatalf("create room: %v", err)
	}
	if err := s.CreateRoom("AB12CD"); err == nil {
		t.Fatal("expected error for duplicate room code")
	}
}

func TestRecordAndListResults(t *testing.T) {
	s := newTestStore(t)
	if err := s.RecordResult("AB12CD", "alice", "bob", 3, 17); err != nil {
		t.Fatalf("record result: %v", err)
	}
	if err := s.RecordResult("AB12CD", "bob", "alice", 6, 24); err != nil {
		t.Fatalf("record result: %v", err)
	}

	results, err := s.ListResults(10)
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	// Newest first
	if results[0].Winner != "bob" || results[1].Winner != "alice" {
		t.Fatalf("unexpected order: %+v", results)
	}
	if results[0].LoserCards != 6 || results[0].Moves != 24 {
		t.Fatalf("unexpected result row: %+v", results[0])
	}
	if results[0].FinishedAt.IsZero() {
		t.Fatal("expected finished_at to be set")
	}
}

func TestListResultsLimit(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 5; i++ {
		if err := s.RecordResult("AB12CD", "alice", "bob", i, i); err != nil {
			t.Fatalf("record result: %v", err)
		}
	}
	results, err := s.ListResults(3)
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
}

func TestDeleteRoomKeepsResults(t *testing.T) {
	s := newTestStore(t)
	s.CreateRoom("AB12CD")
	s.RecordResult("AB12CD", "alice", "bob", 2, 9)

	if err := s.DeleteRoom("AB12CD"); err != nil {
		t.Fatalf("delete room: %v", err)
	}
	if _, err := s.GetRoom("AB12CD"); err == nil {
		t.Fatal("room still present after delete")
	}
	results, err := s.ListResults(10)
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected results to survive room deletion, got %d", len(results))
	}
}
