package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/noteduco342/wavechat-backend/internal/models"
)

const (
	groupsFile = "groups.json"
	usersFile  = "users.json"
)

// Collections is everything the durable sink holds: the two independent
// top-level maps of the persisted layout.
type Collections struct {
	Groups   map[string]*models.Group
	Accounts map[string]*models.Account
}

// GroupFlusher and AccountFlusher are the write-through contracts the stores
// depend on. Keeping them as interfaces lets tests count flushes with fakes.
type GroupFlusher interface {
	FlushGroups(groups map[string]*models.Group) error
}

type AccountFlusher interface {
	FlushAccounts(accounts map[string]*models.Account) error
}

// SnapshotStore owns the on-disk representation: one JSON document per
// collection under the data directory. Every flush rewrites the whole
// collection; the read-by sets serialize as ordered lists of connection ids.
type SnapshotStore struct {
	mu  sync.Mutex
	dir string
}

func NewSnapshotStore(dir string) (*SnapshotStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &SnapshotStore{dir: dir}, nil
}

// Load reads both collections. Missing files bootstrap empty collections;
// corrupt files are logged and treated as empty rather than aborting startup.
func (s *SnapshotStore) Load() (*Collections, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cols := &Collections{
		Groups:   make(map[string]*models.Group),
		Accounts: make(map[string]*models.Account),
	}

	if err := s.readFile(groupsFile, &cols.Groups); err != nil {
		log.Printf("Error loading %s: %v (starting with empty groups)", groupsFile, err)
		cols.Groups = make(map[string]*models.Group)
	}
	if err := s.readFile(usersFile, &cols.Accounts); err != nil {
		log.Printf("Error loading %s: %v (starting with empty accounts)", usersFile, err)
		cols.Accounts = make(map[string]*models.Account)
	}

	// Normalize nil slices so the invariant "readBy/members are sets, never
	// null" holds after a reload.
	for _, g := range cols.Groups {
		if g.Members == nil {
			g.Members = []string{}
		}
		if g.Messages == nil {
			g.Messages = []*models.Message{}
		}
		for _, m := range g.Messages {
			if m.ReadBy == nil {
				m.ReadBy = []string{}
			}
		}
	}
	return cols, nil
}

func (s *SnapshotStore) readFile(name string, v interface{}) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (s *SnapshotStore) FlushGroups(groups map[string]*models.Group) error {
	return s.writeFile(groupsFile, groups)
}

func (s *SnapshotStore) FlushAccounts(accounts map[string]*models.Account) error {
	return s.writeFile(usersFile, accounts)
}

// writeFile rewrites a collection atomically: marshal, write a temp file in
// the same directory, rename over the target.
func (s *SnapshotStore) writeFile(name string, v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	target := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("temp file for %s: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}
