package main

import (
	"database/sql"
	"log"
	"net/http"
)

// GET /matches
// Lists the caller's matches, newest first, with a slim summary of the
// other member. Peer summaries load through the batched dataloader so a
// long match list costs one query, not one per row.
func matchesHandler(db *sql.DB, matches MatchStore) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		userID := r.Context().Value(userIDKey).(string)

		list, err := matches.MatchesFor(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			log.Println("matchesHandler list error:", err)
			return
		}

		loader := newPeerSummaryLoader(db)
		thunks := make([]func() (*PeerSummary, error), len(list))
		for i, m := range list {
			peerID := m.UserAID
			if peerID == userID {
				peerID = m.UserBID
			}
			thunks[i] = loader.Load(r.Context(), peerID)
		}

		payload := make([]map[string]interface{}, 0, len(list))
		for i, m := range list {
			peer, err := thunks[i]()
			if err != nil {
				writeError(w, http.StatusInternalServerError, "db_error")
				log.Println("matchesHandler peer load error:", err)
				return
			}
			entry := map[string]interface{}{
				"matchId":   m.ID,
				"createdAt": m.CreatedAt,
			}
			if peer != nil {
				entry["otherUserId"] = peer.UserID
				entry["otherEmail"] = peer.Email
				entry["otherBio"] = peer.Bio
				entry["otherIsOnline"] = peer.IsOnline
			}
			payload = append(payload, entry)
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"matches": payload})
	})
}
