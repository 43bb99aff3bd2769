package history

import (
	"sync"

	"github.com/mendhq/mend/pkg/types"
)

// DefaultCapacity bounds the in-memory rings. Insertion past the cap
// evicts the oldest record first.
const DefaultCapacity = 1000

// ErrorStats aggregates the recorded classified errors
type ErrorStats struct {
	Total                int                       `json:"total"`
	ByKind               map[types.ErrorKind]int   `json:"by_kind"`
	BySeverity           map[types.Severity]int    `json:"by_severity"`
	ResolvedCount        int                       `json:"resolved_count"`
	AutoRecoverableCount int                       `json:"auto_recoverable_count"`
}

// RecoveryStats aggregates the recorded recovery actions
type RecoveryStats struct {
	Attempts  int                      `json:"attempts"`
	Succeeded int                      `json:"succeeded"`
	Failed    int                      `json:"failed"`
	ByAction  map[types.ActionType]int `json:"by_action"`
}

// Store is the bounded, time-ordered record of classified errors and
// recovery actions. It exclusively owns ClassifiedError records and their
// mutable fields; callers only ever see copies.
type Store struct {
	mu       sync.RWMutex
	capacity int

	errors  []*types.ClassifiedError // oldest first
	byID    map[string]*types.ClassifiedError
	actions []*types.RecoveryAction // oldest first

	archive *Archive // optional bbolt mirror, may be nil
}

// Option configures a Store
type Option func(*Store)

// WithCapacity overrides the default ring capacity
func WithCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithArchive mirrors records into a bbolt archive
func WithArchive(a *Archive) Option {
	return func(s *Store) {
		s.archive = a
	}
}

// NewStore creates a new history store
func NewStore(opts ...Option) *Store {
	s := &Store{
		capacity: DefaultCapacity,
		byID:     make(map[string]*types.ClassifiedError),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rehydrate seeds the rings from the archive so attempt counts and
// resolution survive daemon restarts. Call once at startup before
// concurrent use; restored records are not re-mirrored.
func (s *Store) Rehydrate() error {
	if s.archive == nil {
		return nil
	}
	errs, err := s.archive.LoadErrors()
	if err != nil {
		return err
	}
	actions, err := s.archive.LoadActions()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(errs) > s.capacity {
		errs = errs[len(errs)-s.capacity:]
	}
	s.errors = errs
	s.byID = make(map[string]*types.ClassifiedError, len(errs))
	for _, cerr := range errs {
		s.byID[cerr.ID] = cerr
	}

	if len(actions) > s.capacity {
		actions = actions[len(actions)-s.capacity:]
	}
	s.actions = actions
	return nil
}

// Record appends a classified error, evicting the oldest past capacity
func (s *Store) Record(cerr *types.ClassifiedError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.errors = append(s.errors, cerr)
	s.byID[cerr.ID] = cerr
	if len(s.errors) > s.capacity {
		evicted := s.errors[0]
		s.errors = s.errors[1:]
		delete(s.byID, evicted.ID)
	}

	if s.archive != nil {
		s.archive.putError(cerr, s.capacity)
	}
}

// RecordAction appends a recovery action record
func (s *Store) RecordAction(action *types.RecoveryAction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.actions = append(s.actions, action)
	if len(s.actions) > s.capacity {
		s.actions = s.actions[1:]
	}

	if s.archive != nil {
		s.archive.putAction(action, s.capacity)
	}
}

// Recent returns up to limit errors, most-recent-first, as copies
func (s *Store) Recent(limit int) []*types.ClassifiedError {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.errors) {
		limit = len(s.errors)
	}

	out := make([]*types.ClassifiedError, 0, limit)
	for i := len(s.errors) - 1; i >= len(s.errors)-limit; i-- {
		out = append(out, copyError(s.errors[i]))
	}
	return out
}

// RecentActions returns up to limit recovery actions, most-recent-first
func (s *Store) RecentActions(limit int) []*types.RecoveryAction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.actions) {
		limit = len(s.actions)
	}

	out := make([]*types.RecoveryAction, 0, limit)
	for i := len(s.actions) - 1; i >= len(s.actions)-limit; i-- {
		a := *s.actions[i]
		out = append(out, &a)
	}
	return out
}

// Get returns a copy of the error with the given id
func (s *Store) Get(id string) (*types.ClassifiedError, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cerr, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return copyError(cerr), true
}

// MarkResolved sets resolved=true for the given error id. Resolution is
// monotonic: once set it is never reset.
func (s *Store) MarkResolved(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cerr, ok := s.byID[id]
	if !ok {
		return false
	}
	cerr.Resolved = true
	if s.archive != nil {
		s.archive.putError(cerr, s.capacity)
	}
	return true
}

// MergeContext folds extra context keys into the stored record so
// findings made during recovery (an alternate port, a pruned path)
// outlive the point-in-time copies handed to actions
func (s *Store) MergeContext(id string, context map[string]string) bool {
	if len(context) == 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cerr, ok := s.byID[id]
	if !ok {
		return false
	}
	if cerr.Context == nil {
		cerr.Context = make(map[string]string, len(context))
	}
	for k, v := range context {
		cerr.Context[k] = v
	}
	if s.archive != nil {
		s.archive.putError(cerr, s.capacity)
	}
	return true
}

// IncrementAttempts bumps the recovery attempt counter for the given
// error id and returns the new count
func (s *Store) IncrementAttempts(id string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cerr, ok := s.byID[id]
	if !ok {
		return 0, false
	}
	cerr.RecoveryAttempts++
	if s.archive != nil {
		s.archive.putError(cerr, s.capacity)
	}
	return cerr.RecoveryAttempts, true
}

// Attempts returns the current attempt counter for the given error id
func (s *Store) Attempts(id string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cerr, ok := s.byID[id]
	if !ok {
		return 0, false
	}
	return cerr.RecoveryAttempts, true
}

// Resolved reports whether the given error id has been resolved
func (s *Store) Resolved(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cerr, ok := s.byID[id]
	return ok && cerr.Resolved
}

// Stats returns a point-in-time aggregate over the error ring
func (s *Store) Stats() ErrorStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := ErrorStats{
		Total:      len(s.errors),
		ByKind:     make(map[types.ErrorKind]int),
		BySeverity: make(map[types.Severity]int),
	}
	for _, cerr := range s.errors {
		stats.ByKind[cerr.Kind]++
		stats.BySeverity[cerr.Severity]++
		if cerr.Resolved {
			stats.ResolvedCount++
		}
		if cerr.AutoRecoverable {
			stats.AutoRecoverableCount++
		}
	}
	return stats
}

// ActionStats returns a point-in-time aggregate over the action ring
func (s *Store) ActionStats() RecoveryStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := RecoveryStats{
		ByAction: make(map[types.ActionType]int),
	}
	stats.Attempts = len(s.actions)
	for _, a := range s.actions {
		stats.ByAction[a.ActionType]++
		if a.Success {
			stats.Succeeded++
		} else {
			stats.Failed++
		}
	}
	return stats
}

// Len returns the number of errors currently held
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.errors)
}

func copyError(cerr *types.ClassifiedError) *types.ClassifiedError {
	cp := *cerr
	if cerr.Context != nil {
		cp.Context = make(map[string]string, len(cerr.Context))
		for k, v := range cerr.Context {
			cp.Context[k] = v
		}
	}
	return &cp
}
