package session

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/medconnect/agent/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AcquireCreatesAndFinds(t *testing.T) {
	store := NewStore(time.Minute)

	sess, release := store.Acquire(uuid.Nil)
	require.NotNil(t, sess)
	id := sess.ID
	sess.Slots[domain.SlotPatientName] = "Ali"
	release()

	again, release := store.Acquire(id)
	defer release()
	assert.Equal(t, id, again.ID)
	assert.Equal(t, "Ali", again.Slots[domain.SlotPatientName])
	assert.Equal(t, 1, store.Len())
}

func TestStore_UnknownIDYieldsFreshSession(t *testing.T) {
	store := NewStore(time.Minute)

	sess, release := store.Acquire(uuid.New())
	defer release()

	require.NotNil(t, sess)
	assert.Equal(t, domain.StateStart, sess.State)
	assert.Empty(t, sess.Turns)
}

func TestStore_AcquireSerializesTurns(t *testing.T) {
	store := NewStore(time.Minute)

	sess, release := store.Acquire(uuid.Nil)
	id := sess.ID
	release()

	const turns = 50
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, rel := store.Acquire(id)
			defer rel()
			s.Record(domain.RoleUser, "hello")
		}()
	}
	wg.Wait()

	snap, ok := store.Snapshot(id)
	require.True(t, ok)
	assert.Len(t, snap.Turns, turns)
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	store := NewStore(time.Minute)

	sess, release := store.Acquire(uuid.Nil)
	id := sess.ID
	sess.Slots[domain.SlotReason] = "checkup"
	release()

	snap, ok := store.Snapshot(id)
	require.True(t, ok)

	snap.Slots[domain.SlotReason] = "mutated"
	snap.Turns = append(snap.Turns, domain.Turn{Role: domain.RoleUser, Content: "x"})

	live, release := store.Acquire(id)
	defer release()
	assert.Equal(t, "checkup", live.Slots[domain.SlotReason])
	assert.Empty(t, live.Turns)
}

func TestStore_Delete(t *testing.T) {
	store := NewStore(time.Minute)

	sess, release := store.Acquire(uuid.Nil)
	id := sess.ID
	release()

	store.Delete(id)
	_, ok := store.Snapshot(id)
	assert.False(t, ok)
}
