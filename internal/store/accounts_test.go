package store

import (
	"errors"
	"testing"
	"time"

	"github.com/noteduco342/wavechat-backend/internal/models"
)

type countingAccountFlusher struct {
	calls int
	last  map[string]*models.Account
}

func (f *countingAccountFlusher) FlushAccounts(accounts map[string]*models.Account) error {
	f.calls++
	f.last = accounts
	return nil
}

func TestAuthenticateRegistersUnknownUsername(t *testing.T) {
	flusher := &countingAccountFlusher{}
	reg := NewAccountRegistry(nil, flusher)

	acct, err := reg.Authenticate("alice", "hunter2", ProfileDefaults{Avatar: "🐙"})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if acct.Username != "alice" {
		t.Errorf("username = %q", acct.Username)
	}
	if acct.Avatar != "🐙" {
		t.Errorf("avatar = %q", acct.Avatar)
	}
	if acct.PasswordHash == "hunter2" || acct.PasswordHash == "" {
		t.Errorf("credential stored without hashing")
	}
	if flusher.calls != 1 {
		t.Errorf("flush calls = %d, want 1", flusher.calls)
	}
}

func TestAuthenticateKnownUsername(t *testing.T) {
	flusher := &countingAccountFlusher{}
	reg := NewAccountRegistry(nil, flusher)

	if _, err := reg.Authenticate("bob", "secret", ProfileDefaults{}); err != nil {
		t.Fatalf("register: %v", err)
	}

	acct, err := reg.Authenticate("bob", "secret", ProfileDefaults{Avatar: "🦊"})
	if err != nil {
		t.Fatalf("re-auth: %v", err)
	}
	// Profile defaults only apply on first registration.
	if acct.Avatar != defaultAvatar {
		t.Errorf("avatar = %q, want %q", acct.Avatar, defaultAvatar)
	}
}

func TestAuthenticateWrongPassword(t *testing.T) {
	flusher := &countingAccountFlusher{}
	reg := NewAccountRegistry(nil, flusher)

	if _, err := reg.Authenticate("carol", "right", ProfileDefaults{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	callsAfterRegister := flusher.calls

	_, err := reg.Authenticate("carol", "wrong", ProfileDefaults{})
	if !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("err = %v, want ErrInvalidCredential", err)
	}
	if flusher.calls != callsAfterRegister {
		t.Errorf("rejected auth mutated state: flush calls %d -> %d", callsAfterRegister, flusher.calls)
	}
	acct, _ := reg.Get("carol")
	if acct.LastSeen != nil || acct.TotalMessages != 0 {
		t.Errorf("rejected auth touched the account: %+v", acct)
	}
}

func TestRecordMessageSent(t *testing.T) {
	flusher := &countingAccountFlusher{}
	reg := NewAccountRegistry(nil, flusher)
	if _, err := reg.Authenticate("dave", "pw", ProfileDefaults{}); err != nil {
		t.Fatalf("register: %v", err)
	}

	reg.RecordMessageSent("dave")
	reg.RecordMessageSent("dave")
	reg.RecordMessageSent("nobody")

	acct, _ := reg.Get("dave")
	if acct.TotalMessages != 2 {
		t.Errorf("totalMessages = %d, want 2", acct.TotalMessages)
	}
	if _, ok := reg.Get("nobody"); ok {
		t.Errorf("RecordMessageSent created an account")
	}
}

func TestTouchLastSeen(t *testing.T) {
	reg := NewAccountRegistry(nil, &countingAccountFlusher{})
	if _, err := reg.Authenticate("erin", "pw", ProfileDefaults{}); err != nil {
		t.Fatalf("register: %v", err)
	}

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	reg.TouchLastSeen("erin", at)

	acct, _ := reg.Get("erin")
	if acct.LastSeen == nil || !acct.LastSeen.Equal(at) {
		t.Errorf("lastSeen = %v, want %v", acct.LastSeen, at)
	}

	// Unknown username must not panic or register.
	reg.TouchLastSeen("ghost", at)
}
