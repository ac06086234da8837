// Package campaign keeps the append-only log of completed sends. The log is
// ordered most-recent-first and re-serialized through its Store on every
// mutation, so a crash after a write loses nothing.
package campaign

import (
	"errors"
	"fmt"
)

// Campaign statuses.
const (
	StatusSent   = "sent"
	StatusDraft  = "draft"
	StatusFailed = "failed"
)

// Campaign is one completed send.
type Campaign struct {
	Subject        string   `json:"subject"`
	Body           string   `json:"body"`
	RecipientCount int      `json:"recipient_count"`
	Date           string   `json:"date"`
	Status         string   `json:"status"`
	Recipients     []string `json:"recipients"`
}

// ErrIndexOutOfRange is returned for a Delete past the end of the log.
var ErrIndexOutOfRange = errors.New("campaign index out of range")

// Store persists the whole log as one unit. Load runs once at startup; Save
// rewrites the full list on every mutation.
type Store interface {
	Load() ([]Campaign, error)
	Save([]Campaign) error
}

// Log is the in-memory campaign history backed by a Store.
type Log struct {
	store     Store
	campaigns []Campaign
}

// NewLog loads the persisted history. A missing slot yields an empty log.
func NewLog(store Store) (*Log, error) {
	campaigns, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading campaign log: %w", err)
	}
	return &Log{store: store, campaigns: campaigns}, nil
}

// Append prepends a campaign and persists the full log.
func (l *Log) Append(c Campaign) error {
	updated := make([]Campaign, 0, len(l.campaigns)+1)
	updated = append(updated, c)
	updated = append(updated, l.campaigns...)
	if err := l.store.Save(updated); err != nil {
		return fmt.Errorf("persisting campaign log: %w", err)
	}
	l.campaigns = updated
	return nil
}

// Delete removes the campaign at index (0 = most recent) and persists.
// Indexes come straight from the history view; single-client usage makes the
// stale-index race acceptable.
func (l *Log) Delete(index int) error {
	if index < 0 || index >= len(l.campaigns) {
		return ErrIndexOutOfRange
	}
	updated := make([]Campaign, 0, len(l.campaigns)-1)
	updated = append(updated, l.campaigns[:index]...)
	updated = append(updated, l.campaigns[index+1:]...)
	if err := l.store.Save(updated); err != nil {
		return fmt.Errorf("persisting campaign log: %w", err)
	}
	l.campaigns = updated
	return nil
}

// All returns a copy of the log, most recent first.
func (l *Log) All() []Campaign {
	return append([]Campaign(nil), l.campaigns...)
}

// Len returns the number of recorded campaigns.
func (l *Log) Len() int { return len(l.campaigns) }
