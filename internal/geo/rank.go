package geo

import (
	"context"
	"sort"

	"food-rescue-api-server/internal/models"

	"golang.org/x/sync/errgroup"
)

// DistanceLookup is satisfied by *Cache.
type DistanceLookup interface {
	DistanceBetween(ctx context.Context, a, b models.Coordinate) Distance
}

// Ranked pairs an item with its distance from the ranking origin.
type Ranked[T any] struct {
	Item     T
	Distance Distance
}

// Rank resolves the distance from origin to every item in parallel, at most parallelism at a time,
// and sorts ascending with unavailable distances last. Items keep their input order among equals.
// locate returns nil for items without a coordinate; they rank as unavailable.
func Rank[T any](ctx context.Context, lookup DistanceLookup, parallelism int, origin models.Coordinate, items []T, locate func(T) *models.Coordinate) []Ranked[T] {
	out := make([]Ranked[T], len(items))

	var g errgroup.Group
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}
	for i, item := range items {
		out[i] = Ranked[T]{Item: item, Distance: Unavailable}
		loc := locate(item)
		if loc == nil {
			continue
		}
		g.Go(func() error {
			out[i].Distance = lookup.DistanceBetween(ctx, origin, *loc)
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Distance.Less(out[j].Distance)
	})
	return out
}
