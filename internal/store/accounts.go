package store

import (
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/noteduco342/wavechat-backend/internal/models"
)

// ErrInvalidCredential is the only auth failure surfaced to clients.
var ErrInvalidCredential = errors.New("invalid credential")

const defaultAvatar = "👤"

// ProfileDefaults seeds a brand-new account on first join.
type ProfileDefaults struct {
	Avatar string
}

// AccountRegistry holds the durable username→account records. Every mutation
// is write-through: the whole collection is flushed before the call returns.
// Flush failures are logged and never rolled back; live state wins over
// durability consistency.
type AccountRegistry struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
	flusher  AccountFlusher
}

func NewAccountRegistry(accounts map[string]*models.Account, flusher AccountFlusher) *AccountRegistry {
	if accounts == nil {
		accounts = make(map[string]*models.Account)
	}
	return &AccountRegistry{accounts: accounts, flusher: flusher}
}

// Authenticate resolves username+password into an account. Unknown usernames
// register on the spot with the supplied credential (hashed) and the profile
// defaults; known usernames must present a credential matching the stored
// hash or the call fails with ErrInvalidCredential and mutates nothing.
func (r *AccountRegistry) Authenticate(username, password string, defaults ProfileDefaults) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if acct, ok := r.accounts[username]; ok {
		if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
			return nil, ErrInvalidCredential
		}
		return acct, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	avatar := defaults.Avatar
	if avatar == "" {
		avatar = defaultAvatar
	}
	acct := &models.Account{
		Username:     username,
		PasswordHash: string(hash),
		Avatar:       avatar,
		JoinedAt:     time.Now().UTC(),
	}
	r.accounts[username] = acct
	r.flushLocked()
	return acct, nil
}

// RecordMessageSent increments the lifetime message counter. Unknown
// usernames are a no-op.
func (r *AccountRegistry) RecordMessageSent(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acct, ok := r.accounts[username]
	if !ok {
		return
	}
	acct.TotalMessages++
	r.flushLocked()
}

// TouchLastSeen stamps the account's last-seen time; called on disconnect.
// Unknown usernames are a no-op.
func (r *AccountRegistry) TouchLastSeen(username string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acct, ok := r.accounts[username]
	if !ok {
		return
	}
	t := at.UTC()
	acct.LastSeen = &t
	r.flushLocked()
}

func (r *AccountRegistry) Get(username string) (*models.Account, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acct, ok := r.accounts[username]
	return acct, ok
}

// Flush forces a write of the collection; used for the final flush at
// shutdown.
func (r *AccountRegistry) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushLocked()
}

func (r *AccountRegistry) flushLocked() {
	if r.flusher == nil {
		return
	}
	if err := r.flusher.FlushAccounts(r.accounts); err != nil {
		log.Printf("Error flushing accounts: %v", err)
	}
}
