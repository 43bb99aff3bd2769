package history

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mendhq/mend/pkg/types"
)

func testError(id string, kind types.ErrorKind) *types.ClassifiedError {
	return &types.ClassifiedError{
		ID:              id,
		Kind:            kind,
		Severity:        types.SeverityMedium,
		Message:         "test error " + id,
		AutoRecoverable: true,
	}
}

func TestRecordAndGet(t *testing.T) {
	s := NewStore()
	s.Record(testError("e-1", types.ErrorKindPortConflict))

	got, ok := s.Get("e-1")
	require.True(t, ok)
	assert.Equal(t, "e-1", got.ID)
	assert.Equal(t, types.ErrorKindPortConflict, got.Kind)

	_, ok = s.Get("nope")
	assert.False(t, ok)
}

func TestCapacityEvictsOldestFirst(t *testing.T) {
	s := NewStore(WithCapacity(3))

	for i := 1; i <= 5; i++ {
		s.Record(testError(fmt.Sprintf("e-%d", i), types.ErrorKindUnknown))
	}

	assert.Equal(t, 3, s.Len())

	// e-1 and e-2 evicted, e-3..e-5 retained
	_, ok := s.Get("e-1")
	assert.False(t, ok)
	_, ok = s.Get("e-2")
	assert.False(t, ok)
	_, ok = s.Get("e-3")
	assert.True(t, ok)
	_, ok = s.Get("e-5")
	assert.True(t, ok)
}

func TestRecentOrdering(t *testing.T) {
	s := NewStore()
	for i := 1; i <= 4; i++ {
		s.Record(testError(fmt.Sprintf("e-%d", i), types.ErrorKindUnknown))
	}

	recent := s.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "e-4", recent[0].ID)
	assert.Equal(t, "e-3", recent[1].ID)

	// Zero limit means everything
	all := s.Recent(0)
	assert.Len(t, all, 4)
}

// Mutating a returned record must not leak into the store.
func TestReadsReturnCopies(t *testing.T) {
	s := NewStore()
	cerr := testError("e-1", types.ErrorKindPortConflict)
	cerr.Context = map[string]string{"port": "6379"}
	s.Record(cerr)

	got, ok := s.Get("e-1")
	require.True(t, ok)
	got.Resolved = true
	got.Context["port"] = "9999"

	again, _ := s.Get("e-1")
	assert.False(t, again.Resolved)
	assert.Equal(t, "6379", again.Context["port"])
}

func TestMarkResolvedIsMonotonic(t *testing.T) {
	s := NewStore()
	s.Record(testError("e-1", types.ErrorKindUnknown))

	assert.True(t, s.MarkResolved("e-1"))
	assert.True(t, s.Resolved("e-1"))

	// Repeat calls keep it resolved
	assert.True(t, s.MarkResolved("e-1"))
	assert.True(t, s.Resolved("e-1"))

	assert.False(t, s.MarkResolved("missing"))
}

func TestIncrementAttempts(t *testing.T) {
	s := NewStore()
	s.Record(testError("e-1", types.ErrorKindUnknown))

	n, ok := s.IncrementAttempts("e-1")
	require.True(t, ok)
	assert.Equal(t, 1, n)

	n, _ = s.IncrementAttempts("e-1")
	assert.Equal(t, 2, n)

	n, ok = s.Attempts("e-1")
	require.True(t, ok)
	assert.Equal(t, 2, n)

	_, ok = s.IncrementAttempts("missing")
	assert.False(t, ok)
}

func TestStats(t *testing.T) {
	s := NewStore()
	s.Record(testError("e-1", types.ErrorKindPortConflict))
	s.Record(testError("e-2", types.ErrorKindPortConflict))

	unk := testError("e-3", types.ErrorKindUnknown)
	unk.AutoRecoverable = false
	s.Record(unk)

	s.MarkResolved("e-1")

	stats := s.Stats()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.ByKind[types.ErrorKindPortConflict])
	assert.Equal(t, 1, stats.ByKind[types.ErrorKindUnknown])
	assert.Equal(t, 1, stats.ResolvedCount)
	assert.Equal(t, 2, stats.AutoRecoverableCount)
}

func TestActionStats(t *testing.T) {
	s := NewStore()
	s.RecordAction(&types.RecoveryAction{
		ID: "a-1", ErrorID: "e-1", ActionType: types.ActionRestartService, Success: true,
	})
	s.RecordAction(&types.RecoveryAction{
		ID: "a-2", ErrorID: "e-1", ActionType: types.ActionRestartService, Success: false,
	})
	s.RecordAction(&types.RecoveryAction{
		ID: "a-3", ErrorID: "e-2", ActionType: types.ActionPruneDiskSpace, Success: true,
	})

	stats := s.ActionStats()
	assert.Equal(t, 3, stats.Attempts)
	assert.Equal(t, 2, stats.Succeeded)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 2, stats.ByAction[types.ActionRestartService])

	recent := s.RecentActions(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "a-3", recent[0].ID)
}

func TestMergeContext(t *testing.T) {
	s := NewStore()
	cerr := testError("e-1", types.ErrorKindPortConflict)
	cerr.Context = map[string]string{"port": "6379"}
	s.Record(cerr)

	assert.True(t, s.MergeContext("e-1", map[string]string{"alternate_port": "6380"}))
	assert.False(t, s.MergeContext("missing", map[string]string{"k": "v"}))
	assert.False(t, s.MergeContext("e-1", nil))

	got, ok := s.Get("e-1")
	require.True(t, ok)
	assert.Equal(t, "6379", got.Context["port"])
	assert.Equal(t, "6380", got.Context["alternate_port"])
}

func TestArchiveRoundTrip(t *testing.T) {
	dir := t.TempDir()

	archive, err := NewArchive(dir)
	require.NoError(t, err)

	s := NewStore(WithArchive(archive))
	s.Record(testError("e-1", types.ErrorKindPortConflict))
	s.RecordAction(&types.RecoveryAction{
		ID: "a-1", ErrorID: "e-1", ActionType: types.ActionFindAlternatePort, Success: true,
	})
	s.MarkResolved("e-1")
	require.NoError(t, archive.Close())

	// Reopen and verify the records survived
	archive, err = NewArchive(dir)
	require.NoError(t, err)
	defer archive.Close()

	errs, err := archive.LoadErrors()
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "e-1", errs[0].ID)
	assert.True(t, errs[0].Resolved)

	actions, err := archive.LoadActions()
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, types.ActionFindAlternatePort, actions[0].ActionType)
}

// Resolution and attempt updates re-put under the same key; a full
// archive must not evict anything for them.
func TestArchiveKeepsCapOnInPlaceUpdates(t *testing.T) {
	dir := t.TempDir()

	archive, err := NewArchive(dir)
	require.NoError(t, err)

	s := NewStore(WithCapacity(3), WithArchive(archive))
	for i := 0; i < 3; i++ {
		s.Record(testError(fmt.Sprintf("e-%d", i), types.ErrorKindUnknown))
	}
	s.MarkResolved("e-1")
	s.IncrementAttempts("e-2")
	require.NoError(t, archive.Close())

	archive, err = NewArchive(dir)
	require.NoError(t, err)
	defer archive.Close()

	errs, err := archive.LoadErrors()
	require.NoError(t, err)
	require.Len(t, errs, 3)
	assert.Equal(t, "e-0", errs[0].ID)
	assert.True(t, errs[1].Resolved)
	assert.Equal(t, 1, errs[2].RecoveryAttempts)
}

func TestRehydrateRestoresState(t *testing.T) {
	dir := t.TempDir()

	archive, err := NewArchive(dir)
	require.NoError(t, err)

	s := NewStore(WithArchive(archive))
	s.Record(testError("e-1", types.ErrorKindHealthCheckFailed))
	s.Record(testError("e-2", types.ErrorKindPortConflict))
	s.IncrementAttempts("e-1")
	s.IncrementAttempts("e-1")
	s.MarkResolved("e-2")
	s.RecordAction(&types.RecoveryAction{
		ID: "a-1", ErrorID: "e-2", ActionType: types.ActionRestartService, Success: true,
	})
	require.NoError(t, archive.Close())

	// Restart: fresh store over the same archive
	archive, err = NewArchive(dir)
	require.NoError(t, err)
	defer archive.Close()

	s = NewStore(WithArchive(archive))
	require.NoError(t, s.Rehydrate())

	n, ok := s.Attempts("e-1")
	require.True(t, ok)
	assert.Equal(t, 2, n)
	assert.True(t, s.Resolved("e-2"))
	assert.Equal(t, 2, s.Len())

	actions := s.RecentActions(0)
	require.Len(t, actions, 1)
	assert.Equal(t, "a-1", actions[0].ID)
}

func TestRehydrateHonorsCapacity(t *testing.T) {
	dir := t.TempDir()

	archive, err := NewArchive(dir)
	require.NoError(t, err)

	s := NewStore(WithCapacity(10), WithArchive(archive))
	for i := 0; i < 5; i++ {
		s.Record(testError(fmt.Sprintf("e-%d", i), types.ErrorKindUnknown))
	}
	require.NoError(t, archive.Close())

	archive, err = NewArchive(dir)
	require.NoError(t, err)
	defer archive.Close()

	// Smaller ring than the archive holds: keep only the newest
	s = NewStore(WithCapacity(2), WithArchive(archive))
	require.NoError(t, s.Rehydrate())

	assert.Equal(t, 2, s.Len())
	_, ok := s.Get("e-0")
	assert.False(t, ok)
	_, ok = s.Get("e-4")
	assert.True(t, ok)
}
