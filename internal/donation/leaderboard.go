package donation

import (
	"context"
	"sort"

	"food-rescue-api-server/internal/models"
)

// Leaderboard counts what every actor contributed: donations created by restaurants, donations
// received by NGOs and deliveries completed by volunteers. Highest total first.
func Leaderboard(ctx context.Context, store Store, actors ActorRegistry) ([]models.LeaderboardEntry, error) {
	all, err := actors.List(ctx)
	if err != nil {
		return nil, storeFailure("list actors", err)
	}
	ds, err := store.ListByFilter(ctx, Filter{})
	if err != nil {
		return nil, storeFailure("list donations", err)
	}

	entries := make(map[string]*models.LeaderboardEntry, len(all))
	board := make([]*models.LeaderboardEntry, 0, len(all))
	for _, a := range all {
		e := &models.LeaderboardEntry{ActorID: a.ID, Name: a.Name, Role: a.Role}
		entries[a.ID] = e
		board = append(board, e)
	}

	for _, d := range ds {
		if e, ok := entries[d.SourceID]; ok {
			e.Donations++
		}
		if d.Status.HasBroker() {
			if e, ok := entries[d.BrokerID]; ok {
				e.Received++
			}
		}
		if d.Status == models.StatusDelivered {
			if e, ok := entries[d.CarrierID]; ok {
				e.Transports++
			}
		}
	}

	sort.SliceStable(board, func(i, j int) bool {
		return board[i].Total() > board[j].Total()
	})
	out := make([]models.LeaderboardEntry, len(board))
	for i, e := range board {
		out[i] = *e
	}
	return out, nil
}
