package geo

import (
	"encoding/json"
	"testing"

	"food-rescue-api-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceOrdering(t *testing.T) {
	assert.True(t, Km(3).Less(Km(7)))
	assert.False(t, Km(7).Less(Km(3)))
	assert.True(t, Km(500).Less(Unavailable))
	assert.False(t, Unavailable.Less(Km(1)))
	assert.False(t, Unavailable.Less(Unavailable))
}

func TestDistanceRounding(t *testing.T) {
	km, ok := Km(12.3456).Kilometres()
	require.True(t, ok)
	assert.Equal(t, 12.35, km)

	_, ok = Unavailable.Kilometres()
	assert.False(t, ok)
}

func TestDistanceJSON(t *testing.T) {
	out, err := json.Marshal(map[string]Distance{"a": Km(4.5), "b": Unavailable})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 4.5, "b": "N/A"}`, string(out))
}

func TestKeyIsOrderSensitive(t *testing.T) {
	a := models.Coordinate{Latitude: 1, Longitude: 2}
	b := models.Coordinate{Latitude: 3, Longitude: 4}
	assert.Equal(t, KeyFor(a, b), KeyFor(a, b))
	assert.NotEqual(t, KeyFor(a, b), KeyFor(b, a))
}
