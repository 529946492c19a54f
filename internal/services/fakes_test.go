package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/filmrelay/go-movie-backend/internal/domain"
)

// memStore is an in-memory SessionStore with the same contract as the real
// backends: atomic lock acquisition, monotonic state writes, and
// domain.ErrSessionNotFound for missing sessions.
type memStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	locks    map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		sessions: make(map[string]*domain.Session),
		locks:    make(map[string]bool),
	}
}

func (m *memStore) Create(ctx context.Context, s *domain.Session) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.State == "" {
		s.State = domain.StatePending
	}
	cp := *s
	m.sessions[s.ID] = &cp
	return s.ID, nil
}

func (m *memStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) TryLock(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false, nil
	}
	if m.locks[id] {
		return false, nil
	}
	m.locks[id] = true
	return true, nil
}

func (m *memStore) Unlock(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, id)
	return nil
}

func (m *memStore) SetState(ctx context.Context, id string, state domain.SessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil
	}
	if s.State.Rank() < state.Rank() {
		s.State = state
	}
	return nil
}

func (m *memStore) SetDelivered(ctx context.Context, id, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if s.State != domain.StateDelivered {
		s.State = domain.StateDelivered
		s.DeliveredFile = fileID
	}
	return nil
}

func (m *memStore) SetSource(ctx context.Context, id, source string) error {
	return m.mutate(id, func(s *domain.Session) { s.Source = source })
}

func (m *memStore) SetQuality(ctx context.Context, id, quality string) error {
	return m.mutate(id, func(s *domain.Session) { s.Quality = quality })
}

func (m *memStore) ExtendExpiry(ctx context.Context, id string, until time.Time) error {
	return m.mutate(id, func(s *domain.Session) { s.ExpiresAt = until })
}

func (m *memStore) mutate(id string, fn func(*domain.Session)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		fn(s)
	}
	return nil
}

func (m *memStore) locked(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locks[id]
}

// fakeEntitlements answers the gates from fixed values.
type fakeEntitlements struct {
	verified, premium bool
	verifiedErr       error
	premiumErr        error
}

func (f *fakeEntitlements) IsVerified(ctx context.Context, userID int64) (bool, error) {
	return f.verified, f.verifiedErr
}

func (f *fakeEntitlements) IsPremium(ctx context.Context, userID int64) (bool, error) {
	return f.premium, f.premiumErr
}

// fakeFiles serves a fixed record, optionally failing the first failures
// calls to exercise the retry path.
type fakeFiles struct {
	mu       sync.Mutex
	rec      *domain.FileRecord
	err      error
	failures int
	calls    int
}

func (f *fakeFiles) Lookup(ctx context.Context, sel domain.Selection) (*domain.FileRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return nil, f.err
	}
	return f.rec, nil
}

func (f *fakeFiles) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type sendCall struct {
	chatID  int64
	fileID  string
	caption string
}

// fakeSender records sends, optionally failing or panicking.
type fakeSender struct {
	mu       sync.Mutex
	calls    []sendCall
	err      error
	panicMsg string
}

func (f *fakeSender) SendDocument(ctx context.Context, chatID int64, fileID, caption string) error {
	f.mu.Lock()
	f.calls = append(f.calls, sendCall{chatID: chatID, fileID: fileID, caption: caption})
	f.mu.Unlock()
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.err
}

func (f *fakeSender) sent() []sendCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sendCall, len(f.calls))
	copy(out, f.calls)
	return out
}

// fakeAudit collects appended entries.
type fakeAudit struct {
	mu      sync.Mutex
	entries []domain.DeliveryLogEntry
}

func (f *fakeAudit) Append(ctx context.Context, entry *domain.DeliveryLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAudit) all() []domain.DeliveryLogEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.DeliveryLogEntry, len(f.entries))
	copy(out, f.entries)
	return out
}

// fakeNotifier collects operator alerts.
type fakeNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (f *fakeNotifier) Notify(ctx context.Context, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, text)
}

func (f *fakeNotifier) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.msgs))
	copy(out, f.msgs)
	return out
}
