package main

import (
	"database/sql"
	"log"
	"net/http"
)

// Presence is heartbeat-based: clients POST /me/ping while active and the
// peer loader treats anyone seen within the last 90 seconds as online.
func mePingHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		userID := r.Context().Value(userIDKey).(string)
		_, err := db.ExecContext(r.Context(),
			"UPDATE users SET last_online = NOW() WHERE id = $1", userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			log.Println("mePingHandler error:", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
}
