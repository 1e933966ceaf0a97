package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGet(t *testing.T) {
	store := NewStore()

	id := store.Create()
	require.NotEmpty(t, id)

	sess, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, id, sess.ID)
	assert.NotNil(t, sess.Data)
	assert.Equal(t, 1, store.Len())
}

func TestGetUnknownSession(t *testing.T) {
	store := NewStore()

	_, err := store.Get("01J00000000000000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetAndDelete(t *testing.T) {
	store := NewStore()

	id := store.Create()
	store.Set(id, "greeting", "hello")

	sess, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "hello", sess.Data["greeting"])

	store.Delete(id)
	_, err = store.Get(id)
	assert.ErrorIs(t, err, ErrNotFound)

	// Delete is idempotent.
	store.Delete(id)

	// Set on a deleted session is a silent no-op.
	store.Set(id, "greeting", "again")
	assert.Equal(t, 0, store.Len())
}

func TestGetRefreshesActivity(t *testing.T) {
	store := NewStore(WithTimeout(40 * time.Millisecond))

	id := store.Create()

	// Keep touching the session past its original lifetime.
	for i := 0; i < 4; i++ {
		time.Sleep(20 * time.Millisecond)
		_, err := store.Get(id)
		require.NoError(t, err)
	}

	store.Sweep()
	_, err := store.Get(id)
	assert.NoError(t, err, "an active session must survive the sweep")
}

func TestSweepRemovesIdleSessions(t *testing.T) {
	store := NewStore(WithTimeout(10 * time.Millisecond))

	idle := store.Create()
	time.Sleep(25 * time.Millisecond)
	fresh := store.Create()

	// Present before the sweep, gone after.
	assert.Equal(t, 2, store.Len())
	store.Sweep()

	_, err := store.Get(idle)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(fresh)
	assert.NoError(t, err)
}

func TestBackgroundSweep(t *testing.T) {
	store := NewStore(
		WithTimeout(10*time.Millisecond),
		WithSweepInterval(20*time.Millisecond),
	)
	store.Start()
	defer store.Stop()

	store.Create()
	require.Eventually(t, func() bool {
		return store.Len() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestConcurrentAccess(t *testing.T) {
	store := NewStore(WithTimeout(time.Millisecond), WithSweepInterval(time.Millisecond))
	store.Start()
	defer store.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := store.Create()
				store.Set(id, "n", j)
				store.Get(id)
				store.Delete(id)
			}
		}()
	}
	wg.Wait()
}

func TestSessionIDsAreUnique(t *testing.T) {
	store := NewStore()

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := store.Create()
		require.False(t, seen[id], "duplicate session id %s", id)
		seen[id] = true
	}
}

func TestGetReturnsDetachedCopy(t *testing.T) {
	store := NewStore()
	id := store.Create()
	store.Set(id, "k", "v")

	first, err := store.Get(id)
	require.NoError(t, err)
	second, err := store.Get(id)
	require.NoError(t, err)
	assert.NotSame(t, first, second)

	// Writing through a returned session must not reach the store.
	first.Data["rogue"] = true
	fresh, err := store.Get(id)
	require.NoError(t, err)
	assert.NotContains(t, fresh.Data, "rogue")
	assert.Equal(t, "v", fresh.Data["k"])
}
