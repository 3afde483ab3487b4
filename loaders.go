package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/graph-gophers/dataloader/v7"
)

// PeerSummary is the slim per-user view the matches list shows.
type PeerSummary struct {
	UserID   string `json:"id"`
	Email    string `json:"email"`
	Bio      string `json:"bio"`
	IsOnline bool   `json:"is_online"`
}

// newPeerSummaryLoader batches the per-peer lookups of one request into a
// single IN (...) query.
func newPeerSummaryLoader(db *sql.DB) *dataloader.Loader[string, *PeerSummary] {
	return dataloader.NewBatchedLoader(
		peerSummaryBatchFn(db),
		dataloader.WithWait[string, *PeerSummary](16*time.Millisecond),
	)
}

func peerSummaryBatchFn(db *sql.DB) dataloader.BatchFunc[string, *PeerSummary] {
	return func(ctx context.Context, keys []string) []*dataloader.Result[*PeerSummary] {
		results := make([]*dataloader.Result[*PeerSummary], len(keys))

		// Track which index in results each key resolves to
		keyMap := make(map[string]int)
		for i, key := range keys {
			keyMap[key] = i
			results[i] = &dataloader.Result[*PeerSummary]{}
		}

		if len(keys) == 0 {
			return results
		}

		// Build placeholders for the IN clause
		placeholders := make([]string, len(keys))
		args := make([]interface{}, len(keys))
		for i, key := range keys {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args[i] = key
		}

		query := fmt.Sprintf(`
			SELECT u.id, u.email, COALESCE(p.bio, ''),
			       COALESCE(u.last_online > NOW() - INTERVAL '90 seconds', FALSE)
			FROM users u
			LEFT JOIN profiles p ON p.user_id = u.id
			WHERE u.id IN (%s)
		`, joinPlaceholders(placeholders))

		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			for i := range results {
				results[i].Error = err
			}
			return results
		}
		defer rows.Close()

		for rows.Next() {
			var summary PeerSummary
			if err := rows.Scan(&summary.UserID, &summary.Email, &summary.Bio, &summary.IsOnline); err != nil {
				for i := range results {
					if results[i].Data == nil && results[i].Error == nil {
						results[i].Error = err
					}
				}
				return results
			}
			if idx, ok := keyMap[summary.UserID]; ok {
				s := summary
				results[idx].Data = &s
			}
		}

		return results
	}
}

// Helper function to join placeholders for IN clause
func joinPlaceholders(placeholders []string) string {
	if len(placeholders) == 0 {
		return ""
	}
	result := placeholders[0]
	for i := 1; i < len(placeholders); i++ {
		result += ", " + placeholders[i]
	}
	return result
}
