// Package render turns a page document plus live binding state into the
// interactive node tree a host presents, and owns the per-view session
// state that interpretation needs: the binding store, table rows, select
// options, refresh tokens, and the fences that keep stale async results
// from overwriting newer ones.
package render

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/pageforge/internal/binding"
	"github.com/matthewbaird/pageforge/internal/schema"
)

// Session owns all runtime state for one page view. It is created when the
// view mounts and closed when it unmounts; closing cancels the session
// context so in-flight requests are abandoned without mutating state.
type Session struct {
	ID  string
	Doc *schema.PageDocument

	bindings *binding.Store

	mu            sync.Mutex
	refreshSeq    uint64
	refreshTokens map[string]uint64 // table name -> current refresh token
	fetchedTokens map[string]uint64 // table name -> token of last applied rows
	fences        map[string]uint64 // component key -> newest issued fence
	tableRows     map[string][]map[string]any
	tableLoading  map[string]bool
	selectOptions map[string][]schema.Option
	selectLoading map[string]bool

	createdAt    time.Time
	lastActiveAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// NewSession creates a session for one page view. Initial bindings, when
// given, seed the binding store.
func NewSession(doc *schema.PageDocument, initial map[string]any) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:            uuid.New().String(),
		Doc:           doc,
		bindings:      binding.NewStore(),
		refreshTokens: make(map[string]uint64),
		fetchedTokens: make(map[string]uint64),
		fences:        make(map[string]uint64),
		tableRows:     make(map[string][]map[string]any),
		tableLoading:  make(map[string]bool),
		selectOptions: make(map[string][]schema.Option),
		selectLoading: make(map[string]bool),
		createdAt:     time.Now(),
		lastActiveAt:  time.Now(),
		ctx:           ctx,
		cancel:        cancel,
	}
	s.bindings.SetAll(initial)
	return s
}

// Context returns the session context. It is cancelled on Close; effect
// requests must be issued with it so unmount abandons them.
func (s *Session) Context() context.Context { return s.ctx }

// Close cancels in-flight work and releases the session.
func (s *Session) Close() { s.cancel() }

// Touch updates the last activity timestamp.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActiveAt = time.Now()
	s.mu.Unlock()
}

// IsExpired reports whether the session exceeded the given max age.
func (s *Session) IsExpired(maxAge time.Duration) bool {
	return time.Since(s.createdAt) > maxAge
}

// IsIdle reports whether the session has been idle longer than the timeout.
func (s *Session) IsIdle(timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastActiveAt) > timeout
}

// Bindings returns a snapshot of the current form values. This is half the
// imperative handle the hosting page gets; ResetBindings is the other.
func (s *Session) Bindings() map[string]any { return s.bindings.Snapshot() }

// ResetBindings clears every form value.
func (s *Session) ResetBindings() { s.bindings.Reset() }

// Store exposes the binding store to the dispatcher, which holds the only
// mutation authority beyond direct user edits.
func (s *Session) Store() *binding.Store { return s.bindings }

// SetValue records a user edit on the named component. Edits on components
// the document does not declare, or whose permissions forbid writing, are
// ignored rather than rejected: the renderer never presents such an input,
// so an edit for one can only come from a stale or hostile client.
func (s *Session) SetValue(name string, value any) {
	c := s.Doc.FindComponent(name)
	if c == nil || (c.Type != schema.TypeField && c.Type != schema.TypeSelect) {
		return
	}
	if !writable(c) {
		return
	}
	s.bindings.Set(name, value)
	s.Touch()
}

// Value returns the current value bound to name.
func (s *Session) Value(name string) (any, bool) { return s.bindings.Get(name) }

// ── Refresh tokens ───────────────────────────────────────────────────────────

// RefreshToken returns the current refresh token for a table.
func (s *Session) RefreshToken(table string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshTokens[table]
}

// BumpRefresh issues a new, strictly larger refresh token for the table and
// returns it. The token sequence is shared session-wide so tokens are
// monotonic across tables too.
func (s *Session) BumpRefresh(table string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshSeq++
	s.refreshTokens[table] = s.refreshSeq
	return s.refreshSeq
}

// StaleTables returns the names of tables whose refresh token has moved
// past the last applied fetch, i.e. tables that need a (re)fetch.
func (s *Session) StaleTables() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stale []string
	for name, tok := range s.refreshTokens {
		if s.fetchedTokens[name] != tok {
			stale = append(stale, name)
		}
	}
	return stale
}

// ── Table row state ──────────────────────────────────────────────────────────

// BeginTableFetch marks the table loading and returns the refresh token the
// fetch is fenced by.
func (s *Session) BeginTableFetch(table string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tableLoading[table] = true
	return s.refreshTokens[table]
}

// ApplyTableRows stores fetched rows if the fence token still matches the
// table's current refresh token. A stale result (a newer trigger fired
// while the fetch was in flight) is dropped. The loading flag clears in
// either case.
func (s *Session) ApplyTableRows(table string, token uint64, rows []map[string]any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tableLoading[table] = false
	if s.refreshTokens[table] != token {
		return false
	}
	s.tableRows[table] = rows
	s.fetchedTokens[table] = token
	return true
}

// EndTableFetch clears the loading flag without applying rows, for the
// failure paths.
func (s *Session) EndTableFetch(table string) {
	s.mu.Lock()
	s.tableLoading[table] = false
	s.mu.Unlock()
}

// TableRows returns the currently applied rows for a table.
func (s *Session) TableRows(table string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tableRows[table]
}

// ── Fences ───────────────────────────────────────────────────────────────────

// NextFence issues a new fence for the given component key. Later fences
// supersede earlier ones: a result is applied only while its fence is the
// newest issued.
func (s *Session) NextFence(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fences[key]++
	return s.fences[key]
}

// FenceCurrent reports whether the fence is still the newest for its key.
func (s *Session) FenceCurrent(key string, fence uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fences[key] == fence
}

// ── Select option state ──────────────────────────────────────────────────────

// BeginOptionsFetch marks an api-mode select loading and fences the fetch.
func (s *Session) BeginOptionsFetch(name string) uint64 {
	s.mu.Lock()
	s.selectLoading[name] = true
	s.mu.Unlock()
	return s.NextFence("select:" + name)
}

// ApplyOptions stores fetched options if the fence is still current.
func (s *Session) ApplyOptions(name string, fence uint64, opts []schema.Option) bool {
	if !s.FenceCurrent("select:"+name, fence) {
		s.mu.Lock()
		s.selectLoading[name] = false
		s.mu.Unlock()
		return false
	}
	s.mu.Lock()
	s.selectOptions[name] = opts
	s.selectLoading[name] = false
	s.mu.Unlock()
	return true
}

// EndOptionsFetch clears the loading flag without applying options.
func (s *Session) EndOptionsFetch(name string) {
	s.mu.Lock()
	s.selectLoading[name] = false
	s.mu.Unlock()
}

// Options returns the applied options for an api-mode select.
func (s *Session) Options(name string) []schema.Option {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectOptions[name]
}

func (s *Session) tableIsLoading(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tableLoading[name]
}

func (s *Session) selectIsLoading(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectLoading[name]
}
