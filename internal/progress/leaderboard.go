package progress

import (
	"cmp"
	"context"
	"slices"
	"time"
)

// DefaultLeaderboardSize and MaxLeaderboardSize bound Leaderboard's top argument.
const (
	DefaultLeaderboardSize = 10
	MaxLeaderboardSize     = 100
)

// LeaderboardEntry is one ranked learner.
type LeaderboardEntry struct {
	Rank             int       `json:"rank"`
	UserID           string    `json:"userId"`
	DisplayName      string    `json:"displayName"`
	CompletedLessons int       `json:"completedLessons"`
	LastActivity     time.Time `json:"lastActivity"`
}

// Leaderboard ranks authenticated learners by completed lessons, most
// recent activity first on ties. Rows that fail to decode are skipped.
func (t *Tracker) Leaderboard(ctx context.Context, top int) []LeaderboardEntry {
	if top <= 0 {
		top = DefaultLeaderboardSize
	}
	top = min(top, MaxLeaderboardSize)

	rows, err := t.durable.List(ctx)
	if err != nil {
		t.log.Warn("leaderboard scan failed", "error", err)
		return []LeaderboardEntry{}
	}

	entries := make([]LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		p, err := decode(row.Progress)
		if err != nil {
			t.log.Debug("skipping unreadable progress row", "user_id", row.UserID, "error", err)
			continue
		}
		name := row.DisplayName
		if name == "" {
			name = p.Settings.DisplayName
		}
		last := row.LastActivity
		if last.IsZero() {
			last = p.LastActivity
		}
		entries = append(entries, LeaderboardEntry{
			UserID:           row.UserID,
			DisplayName:      name,
			CompletedLessons: p.CompletedLessons(),
			LastActivity:     last,
		})
	}

	slices.SortStableFunc(entries, func(a, b LeaderboardEntry) int {
		if c := cmp.Compare(b.CompletedLessons, a.CompletedLessons); c != 0 {
			return c
		}
		return b.LastActivity.Compare(a.LastActivity)
	})

	if len(entries) > top {
		entries = entries[:top]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
