// Package contacts holds the in-memory contact book and selection used by the
// compose flow. Contacts live for the session only; the selection is always a
// subset of the current book.
package contacts

import (
	"errors"
	"regexp"
	"strings"
)

// Contact is a single outreach target.
type Contact struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
}

var (
	ErrMissingFields = errors.New("name, email and company are required")
	ErrInvalidEmail  = errors.New("invalid email address")
	ErrUnknownEmail  = errors.New("email not found in contact book")
)

// emailPattern is the syntactic shape required at send time: local@domain.tld
// with no whitespace. Deliverability is the mail provider's problem.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail reports whether email has the local@domain.tld shape.
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidateEmails reports whether every email in the list is syntactically valid.
func ValidateEmails(emails []string) bool {
	for _, e := range emails {
		if !ValidateEmail(e) {
			return false
		}
	}
	return true
}

// Store is the session contact book plus the current selection. It is not
// safe for concurrent use; the owning session serializes access.
type Store struct {
	contacts []Contact
	selected map[string]bool
	order    []string // selection in insertion order
}

// NewStore creates an empty contact store.
func NewStore() *Store {
	return &Store{selected: make(map[string]bool)}
}

// ReplaceAll swaps the entire contact book, e.g. after a CSV import. Any
// selection referencing the old book is dropped.
func (s *Store) ReplaceAll(list []Contact) {
	s.contacts = append([]Contact(nil), list...)
	s.selected = make(map[string]bool)
	s.order = nil
}

// Add appends a manually entered contact after validating its fields.
// Duplicate emails are not rejected; the book mirrors whatever the user typed.
func (s *Store) Add(c Contact) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Company = strings.TrimSpace(c.Company)
	if c.Name == "" || c.Email == "" || c.Company == "" {
		return ErrMissingFields
	}
	if !ValidateEmail(c.Email) {
		return ErrInvalidEmail
	}
	s.contacts = append(s.contacts, c)
	return nil
}

// Remove deletes every contact with the given email and drops it from the
// selection, keeping the selection a subset of the book.
func (s *Store) Remove(email string) {
	kept := s.contacts[:0]
	for _, c := range s.contacts {
		if c.Email != email {
			kept = append(kept, c)
		}
	}
	s.contacts = kept
	s.deselect(email)
}

// Contacts returns a copy of the contact book.
func (s *Store) Contacts() []Contact {
	return append([]Contact(nil), s.contacts...)
}

// Len returns the number of contacts in the book.
func (s *Store) Len() int { return len(s.contacts) }

// Select marks an email as selected. The email must exist in the book.
func (s *Store) Select(email string) error {
	if !s.has(email) {
		return ErrUnknownEmail
	}
	if !s.selected[email] {
		s.selected[email] = true
		s.order = append(s.order, email)
	}
	return nil
}

// Deselect removes an email from the selection.
func (s *Store) Deselect(email string) {
	s.deselect(email)
}

// SetSelection replaces the selection. Emails not present in the book are
// rejected wholesale so the subset invariant can never be violated.
func (s *Store) SetSelection(emails []string) error {
	for _, e := range emails {
		if !s.has(e) {
			return ErrUnknownEmail
		}
	}
	s.selected = make(map[string]bool)
	s.order = nil
	for _, e := range emails {
		if !s.selected[e] {
			s.selected[e] = true
			s.order = append(s.order, e)
		}
	}
	return nil
}

// Selection returns the selected emails in selection order.
func (s *Store) Selection() []string {
	return append([]string(nil), s.order...)
}

// SelectionSize returns the number of selected emails.
func (s *Store) SelectionSize() int { return len(s.order) }

// ClearSelection empties the selection without touching the book.
func (s *Store) ClearSelection() {
	s.selected = make(map[string]bool)
	s.order = nil
}

// SelectedContacts returns the full records for the current selection. When
// the book holds duplicate emails the first match wins.
func (s *Store) SelectedContacts() []Contact {
	out := make([]Contact, 0, len(s.order))
	for _, email := range s.order {
		for _, c := range s.contacts {
			if c.Email == email {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func (s *Store) has(email string) bool {
	for _, c := range s.contacts {
		if c.Email == email {
			return true
		}
	}
	return false
}

func (s *Store) deselect(email string) {
	if !s.selected[email] {
		return
	}
	delete(s.selected, email)
	kept := s.order[:0]
	for _, e := range s.order {
		if e != email {
			kept = append(kept, e)
		}
	}
	s.order = kept
}
