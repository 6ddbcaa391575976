package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"walkieDesk/internal/audit"
	"walkieDesk/internal/store"
)

func TestAddItemStartsAvailable(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	item, err := l.AddItem(ctx, Walkies, intPtr(5), "spare battery")
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, 5, item.Number)
	assert.Equal(t, "spare battery", item.Notes)
	assert.Nil(t, item.AssignedTo)
	assert.Nil(t, item.AssignedAt)
	assert.False(t, item.Unusable)
}

func TestAddItemRequiresNumber(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.AddItem(context.Background(), Walkies, nil, "")
	assert.ErrorIs(t, err, ErrNumberRequired)
}

func TestNumberUniquePerCollection(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	_, err := l.AddItem(ctx, Walkies, intPtr(5), "")
	require.NoError(t, err)

	// Scenario D: a second walkie #5 is rejected.
	_, err = l.AddItem(ctx, Walkies, intPtr(5), "")
	assert.ErrorIs(t, err, ErrNumberExists)

	// A lift card may reuse the number; pools are independent.
	_, err = l.AddItem(ctx, LiftCards, intPtr(5), "")
	require.NoError(t, err)

	items, err := l.Items(ctx, Walkies)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestUpdateItemNumberCollision(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	a, err := l.AddItem(ctx, Walkies, intPtr(1), "")
	require.NoError(t, err)
	_, err = l.AddItem(ctx, Walkies, intPtr(2), "")
	require.NoError(t, err)

	_, err = l.UpdateItem(ctx, Walkies, a.ID, ItemUpdate{Number: intPtr(2)})
	assert.ErrorIs(t, err, ErrNumberExists)

	// Re-submitting an item's own number is not a collision.
	updated, err := l.UpdateItem(ctx, Walkies, a.ID, ItemUpdate{Number: intPtr(1), Notes: strPtr("tagged")})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Number)
	assert.Equal(t, "tagged", updated.Notes)
}

func TestUpdateItemNotFound(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.UpdateItem(context.Background(), Walkies, "missing", ItemUpdate{Notes: strPtr("x")})
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestSignOutAndReturnLifecycle(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	v, err := l.AddVolunteer(ctx, "Ada", "Lovelace", "")
	require.NoError(t, err)
	item, err := l.AddItem(ctx, Walkies, intPtr(5), "")
	require.NoError(t, err)

	// Scenario A: sign-out succeeds and appends one audit entry.
	out, err := l.SignOut(ctx, Walkies, item.ID, v.ID)
	require.NoError(t, err)
	require.NotNil(t, out.AssignedTo)
	assert.Equal(t, v.ID, *out.AssignedTo)
	require.NotNil(t, out.AssignedAt)

	entries, err := l.AuditLog(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "sign-out", entries[0].Action)
	assert.Equal(t, "walkie", entries[0].ItemType)
	assert.Equal(t, 5, entries[0].ItemNumber)
	assert.Equal(t, v.ID, entries[0].VolunteerID)
	assert.Equal(t, "Ada Lovelace", entries[0].VolunteerName)

	// Scenario B: a second sign-out fails and changes nothing.
	v2, err := l.AddVolunteer(ctx, "Grace", "Hopper", "")
	require.NoError(t, err)
	_, err = l.SignOut(ctx, Walkies, item.ID, v2.ID)
	assert.ErrorIs(t, err, ErrAlreadySignedOut)

	got, err := l.Item(ctx, Walkies, item.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AssignedTo)
	assert.Equal(t, v.ID, *got.AssignedTo)

	entries, err = l.AuditLog(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// Scenario C: return clears the assignment and appends a return entry.
	returned, err := l.Return(ctx, Walkies, item.ID)
	require.NoError(t, err)
	assert.Nil(t, returned.AssignedTo)
	assert.Nil(t, returned.AssignedAt)

	entries, err = l.AuditLog(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	actions := []string{entries[0].Action, entries[1].Action}
	assert.Contains(t, actions, "sign-out")
	assert.Contains(t, actions, "return")
	for _, e := range entries {
		assert.Equal(t, v.ID, e.VolunteerID)
		assert.Equal(t, 5, e.ItemNumber)
	}
}

func TestSignOutNotFound(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.SignOut(context.Background(), Walkies, "missing", "someone")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestSignOutUnusableRejected(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	item, err := l.AddItem(ctx, LiftCards, intPtr(3), "")
	require.NoError(t, err)
	_, err = l.ToggleUnusable(ctx, LiftCards, item.ID)
	require.NoError(t, err)

	_, err = l.SignOut(ctx, LiftCards, item.ID, "someone")
	assert.ErrorIs(t, err, ErrItemUnusable)

	got, err := l.Item(ctx, LiftCards, item.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AssignedTo)

	entries, err := l.AuditLog(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestToggleUnusableRoundTrip(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	item, err := l.AddItem(ctx, Walkies, intPtr(7), "crackly")
	require.NoError(t, err)

	flipped, err := l.ToggleUnusable(ctx, Walkies, item.ID)
	require.NoError(t, err)
	assert.True(t, flipped.Unusable)

	restored, err := l.ToggleUnusable(ctx, Walkies, item.ID)
	require.NoError(t, err)
	assert.False(t, restored.Unusable)
	assert.Equal(t, item, restored)
}

func TestToggleUnusableKeepsAssignment(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	v, err := l.AddVolunteer(ctx, "Ada", "", "")
	require.NoError(t, err)
	item, err := l.AddItem(ctx, Walkies, intPtr(9), "")
	require.NoError(t, err)
	_, err = l.SignOut(ctx, Walkies, item.ID, v.ID)
	require.NoError(t, err)

	flipped, err := l.ToggleUnusable(ctx, Walkies, item.ID)
	require.NoError(t, err)
	assert.True(t, flipped.Unusable)
	require.NotNil(t, flipped.AssignedTo)
	assert.Equal(t, v.ID, *flipped.AssignedTo)

	// An unusable item can still come back.
	returned, err := l.Return(ctx, Walkies, item.ID)
	require.NoError(t, err)
	assert.Nil(t, returned.AssignedTo)
	assert.True(t, returned.Unusable)
}

func TestReturnIsIdempotent(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	v, err := l.AddVolunteer(ctx, "Ada", "", "")
	require.NoError(t, err)
	item, err := l.AddItem(ctx, Walkies, intPtr(5), "")
	require.NoError(t, err)
	_, err = l.SignOut(ctx, Walkies, item.ID, v.ID)
	require.NoError(t, err)

	first, err := l.Return(ctx, Walkies, item.ID)
	require.NoError(t, err)

	second, err := l.Return(ctx, Walkies, item.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// The no-op return appends no audit entry.
	entries, err := l.AuditLog(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestReturnNotFound(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Return(context.Background(), Walkies, "missing")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestResetAllClearsAssignmentsWithoutAudit(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	v, err := l.AddVolunteer(ctx, "Ada", "", "")
	require.NoError(t, err)

	for n := 1; n <= 3; n++ {
		item, err := l.AddItem(ctx, Walkies, intPtr(n), "")
		require.NoError(t, err)
		_, err = l.SignOut(ctx, Walkies, item.ID, v.ID)
		require.NoError(t, err)
		_, err = l.Return(ctx, Walkies, item.ID)
		require.NoError(t, err)
		_, err = l.SignOut(ctx, Walkies, item.ID, v.ID)
		require.NoError(t, err)
	}
	unusableItem, err := l.AddItem(ctx, Walkies, intPtr(4), "")
	require.NoError(t, err)
	_, err = l.ToggleUnusable(ctx, Walkies, unusableItem.ID)
	require.NoError(t, err)

	before, err := l.AuditLog(ctx)
	require.NoError(t, err)

	// Scenario E: the reset clears every assignment silently.
	require.NoError(t, l.ResetAll(ctx, Walkies))

	items, err := l.Items(ctx, Walkies)
	require.NoError(t, err)
	require.Len(t, items, 4)
	for _, item := range items {
		assert.Nil(t, item.AssignedTo)
		assert.Nil(t, item.AssignedAt)
	}

	// Unusable flags survive the reset.
	got, err := l.Item(ctx, Walkies, unusableItem.ID)
	require.NoError(t, err)
	assert.True(t, got.Unusable)

	after, err := l.AuditLog(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(before))
}

func TestDeleteItemWhileAssigned(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	v, err := l.AddVolunteer(ctx, "Ada", "", "")
	require.NoError(t, err)
	item, err := l.AddItem(ctx, Walkies, intPtr(5), "")
	require.NoError(t, err)
	_, err = l.SignOut(ctx, Walkies, item.ID, v.ID)
	require.NoError(t, err)

	// Deleting a signed-out item is allowed; the audit trail keeps the
	// denormalized number.
	require.NoError(t, l.DeleteItem(ctx, Walkies, item.ID))

	entries, err := l.AuditLog(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 5, entries[0].ItemNumber)
}

func TestAssignmentFieldsAlwaysPaired(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	v, err := l.AddVolunteer(ctx, "Ada", "", "")
	require.NoError(t, err)
	item, err := l.AddItem(ctx, Walkies, intPtr(1), "")
	require.NoError(t, err)

	check := func() {
		items, err := l.Items(ctx, Walkies)
		require.NoError(t, err)
		for _, it := range items {
			assert.Equal(t, it.AssignedTo == nil, it.AssignedAt == nil,
				"assignedTo and assignedAt must be set or cleared together")
		}
	}

	check()
	_, err = l.SignOut(ctx, Walkies, item.ID, v.ID)
	require.NoError(t, err)
	check()
	_, err = l.Return(ctx, Walkies, item.ID)
	require.NoError(t, err)
	check()
	require.NoError(t, l.ResetAll(ctx, Walkies))
	check()
}

// slowStore widens the window between a read and the following write so a
// non-serialized read-validate-write cycle would be caught interleaving.
type slowStore struct {
	store.Store
}

func (s slowStore) ReadCollection(ctx context.Context, name string) ([]byte, error) {
	time.Sleep(2 * time.Millisecond)
	return s.Store.ReadCollection(ctx, name)
}

func TestConcurrentSignOutSingleWinner(t *testing.T) {
	logger := zerolog.Nop()
	st := slowStore{Store: store.NewMemStore()}
	auditLog := audit.New(st, &logger)
	l := New(st, auditLog, &logger, "1234")
	ctx := context.Background()

	vA, err := l.AddVolunteer(ctx, "Ada", "Lovelace", "")
	require.NoError(t, err)
	vB, err := l.AddVolunteer(ctx, "Grace", "Hopper", "")
	require.NoError(t, err)
	item, err := l.AddItem(ctx, Walkies, intPtr(1), "")
	require.NoError(t, err)

	// Two desks race for the same walkie; exactly one may win.
	errs := make(chan error, 2)
	for _, volunteerID := range []string{vA.ID, vB.ID} {
		go func(id string) {
			_, err := l.SignOut(ctx, Walkies, item.ID, id)
			errs <- err
		}(volunteerID)
	}

	var successes, conflicts int
	for i := 0; i < 2; i++ {
		if err := <-errs; err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ErrAlreadySignedOut)
			conflicts++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)

	got, err := l.Item(ctx, Walkies, item.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AssignedTo)

	entries, err := l.AuditLog(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, *got.AssignedTo, entries[0].VolunteerID)
}
