package database

import (
	"context"
	"testing"

	"food-rescue-api-server/internal/auth"
	"food-rescue-api-server/internal/donation"
	"food-rescue-api-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedDemoActors(t *testing.T) {
	ctx := context.Background()
	actors := donation.NewMemoryActors()

	require.NoError(t, SeedDemoActors(ctx, actors))
	require.NoError(t, SeedDemoActors(ctx, actors))

	all, err := actors.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	ngo, err := actors.FindByEmail(ctx, "ngo@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleNGO, ngo.Role)
	assert.NotNil(t, ngo.Location)
	assert.True(t, auth.CheckPasswordHash(demoPassword, ngo.PasswordHash))

	volunteer, err := actors.FindByEmail(ctx, "volunteer@example.com")
	require.NoError(t, err)
	assert.Nil(t, volunteer.Location)
}
