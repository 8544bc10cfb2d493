package grn

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/sirupsen/logrus"
)

// Tab-scoped storage keys
const (
	KeySession = "grn_session_kol"
	KeyChallan = "grn_challan_kol"
)

// Session is the logged-in user of one tab
type Session struct {
	UserID           ID                `json:"userId"`
	LedgerID         ID                `json:"ledgerId"`
	Machines         []json.RawMessage `json:"machines"`
	SelectedDatabase string            `json:"selectedDatabase"`
	Username         string            `json:"username"`
	ChallanBarcode   ID                `json:"challanBarcode,omitempty"`
}

// Valid reports whether the session carries the fields a restore needs
func (s *Session) Valid() bool {
	return s != nil && s.Username != "" && s.SelectedDatabase != ""
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Machines = append([]json.RawMessage(nil), s.Machines...)
	return &c
}

// ChallanDraft is the challan opened by the last successful initiate
type ChallanDraft struct {
	Barcode    ID     `json:"barcode"`
	LedgerName string `json:"ledgerName"`
}

// SessionStore persists the session and the draft challan
type SessionStore struct {
	storage SessionStorage
	logger  *logrus.Logger
}

func NewSessionStore(storage SessionStorage, logger *logrus.Logger) *SessionStore {
	return &SessionStore{storage: storage, logger: logger}
}

// Restore returns the stored session, or nil when there is none or it lacks a
// username or database. A stored session that cannot be read or parsed wipes
// both entries. A broken draft is ignored.
func (s *SessionStore) Restore(ctx context.Context) (*Session, *ChallanDraft) {
	raw, ok, err := s.storage.Get(ctx, KeySession)
	if err != nil {
		LogError(s.logger, "session", "Restore", "read session", nil, err)
		s.reset(ctx)
		return nil, nil
	}
	if !ok {
		return nil, nil
	}

	var saved *Session
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		LogError(s.logger, "session", "Restore", "parse session", nil, err)
		s.reset(ctx)
		return nil, nil
	}
	if !saved.Valid() {
		return nil, nil
	}

	var draft *ChallanDraft
	if rawDraft, ok, err := s.storage.Get(ctx, KeyChallan); err == nil && ok {
		if err := json.Unmarshal([]byte(rawDraft), &draft); err != nil {
			s.logger.WithError(err).Warn("ignoring unreadable challan draft")
			draft = nil
		}
	}
	return saved, draft
}

// Save persists the session
func (s *SessionStore) Save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.storage.Set(ctx, KeySession, string(data))
}

// SaveDraft persists the draft challan
func (s *SessionStore) SaveDraft(ctx context.Context, draft *ChallanDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	return s.storage.Set(ctx, KeyChallan, string(data))
}

// Clear removes both entries
func (s *SessionStore) Clear(ctx context.Context) error {
	return errors.Join(
		s.storage.Remove(ctx, KeySession),
		s.storage.Remove(ctx, KeyChallan),
	)
}

func (s *SessionStore) reset(ctx context.Context) {
	if err := s.Clear(ctx); err != nil {
		s.logger.WithError(err).Warn("cannot clear stored session")
	}
}
