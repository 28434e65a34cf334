package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	snap, err := NewSnapshotStore(dir)
	if err != nil {
		t.Fatalf("NewSnapshotStore: %v", err)
	}

	groups := NewGroupStore(nil, snap)
	groups.EnsureDefaultGroup()
	g := groups.CreateGroup("dev", "alice")
	groups.JoinGroup(g.ID, "bob")
	msg := testMessage("m1", "c1", "alice", "hello")
	if err := groups.AppendMessage(DefaultGroupID, msg); err != nil {
		t.Fatalf("append: %v", err)
	}
	groups.MarkRead(DefaultGroupID, "m1", "c2")

	accounts := NewAccountRegistry(nil, snap)
	if _, err := accounts.Authenticate("alice", "pw", ProfileDefaults{}); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Simulate a restart: load a fresh store pair from the same directory.
	reloaded, err := snap.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	groups2 := NewGroupStore(reloaded.Groups, snap)
	accounts2 := NewAccountRegistry(reloaded.Accounts, snap)

	general, ok := groups2.Get(DefaultGroupID)
	if !ok {
		t.Fatalf("general group lost")
	}
	m, _ := general.FindMessage("m1")
	if m == nil || m.Body != "hello" {
		t.Fatalf("message lost: %+v", m)
	}
	if !m.ReadByConn("c1") || !m.ReadByConn("c2") {
		t.Errorf("readBy lost: %v", m.ReadBy)
	}

	dev, ok := groups2.Get(g.ID)
	if !ok || !dev.HasMember("alice") || !dev.HasMember("bob") {
		t.Errorf("membership lost: %+v", dev)
	}

	// Listing order survives: general first, then creation order.
	list := groups2.List()
	if list[0].ID != DefaultGroupID || list[1].ID != g.ID {
		t.Errorf("order after reload: %s, %s", list[0].ID, list[1].ID)
	}

	acct, ok := accounts2.Get("alice")
	if !ok || acct.PasswordHash == "" {
		t.Errorf("account lost: %+v", acct)
	}
}

func TestLoadMissingFiles(t *testing.T) {
	snap, err := NewSnapshotStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewSnapshotStore: %v", err)
	}
	cols, err := snap.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cols.Groups) != 0 || len(cols.Accounts) != 0 {
		t.Errorf("expected empty collections, got %d groups %d accounts", len(cols.Groups), len(cols.Accounts))
	}
}

func TestLoadCorruptFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "groups.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}
	snap, err := NewSnapshotStore(dir)
	if err != nil {
		t.Fatalf("NewSnapshotStore: %v", err)
	}
	cols, err := snap.Load()
	if err != nil {
		t.Fatalf("Load should not fail on corrupt input: %v", err)
	}
	if len(cols.Groups) != 0 {
		t.Errorf("corrupt file produced %d groups", len(cols.Groups))
	}
}

func TestLoadNormalizesNilSlices(t *testing.T) {
	dir := t.TempDir()
	raw := `{"general": {"id": "general", "name": "General", "messages": [{"id": "m1", "user": {"id": "c1"}, "message": "hi"}]}}`
	if err := os.WriteFile(filepath.Join(dir, "groups.json"), []byte(raw), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	snap, err := NewSnapshotStore(dir)
	if err != nil {
		t.Fatalf("NewSnapshotStore: %v", err)
	}
	cols, err := snap.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	g := cols.Groups["general"]
	if g.Members == nil {
		t.Errorf("members left nil")
	}
	if g.Messages[0].ReadBy == nil {
		t.Errorf("readBy left nil")
	}
}
