package donation

import (
	"context"
	"testing"

	"food-rescue-api-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreConditionalUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Insert(ctx, models.Donation{ID: "d1", SourceID: "r1", Status: models.StatusAvailable}))

	d, err := s.UpdateStatusAndAssignee(ctx, "d1", models.StatusAvailable, models.StatusAccepted, AssignBroker, "n1")
	require.NoError(t, err)
	assert.Equal(t, "n1", d.BrokerID)

	// A stale writer gets the current document back.
	d, err = s.UpdateStatusAndAssignee(ctx, "d1", models.StatusAvailable, models.StatusAccepted, AssignBroker, "n2")
	assert.ErrorIs(t, err, ErrStatusMismatch)
	assert.Equal(t, models.StatusAccepted, d.Status)
	assert.Equal(t, "n1", d.BrokerID)

	_, err = s.UpdateStatusAndAssignee(ctx, "nope", models.StatusAvailable, models.StatusAccepted, AssignBroker, "n1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryActors(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryActors()
	require.NoError(t, m.Create(ctx, models.Actor{ID: "a", Role: models.RoleVolunteer, Email: "Rider@Example.com"}))
	assert.ErrorIs(t, m.Create(ctx, models.Actor{ID: "b", Email: "rider@example.com"}), ErrDuplicateEmail)

	a, err := m.FindByEmail(ctx, "RIDER@example.com")
	require.NoError(t, err)
	assert.Equal(t, "a", a.ID)

	ok, err := m.Exists(ctx, "a", models.RoleNGO)
	require.NoError(t, err)
	assert.False(t, ok)

	loc, err := m.LocationOf(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, loc)

	_, err = m.LocationOf(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}
