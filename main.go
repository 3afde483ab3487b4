package main

import (
	"log"
	"net/http"
	"os"
)

// JWT secret from environment variable or fallback
func getJWTSecret() []byte {
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		return []byte(secret)
	}
	return []byte("your_secret_key_please_change_in_production")
}

var jwtSecret = getJWTSecret()

func main() {
	db := openDB()
	defer db.Close()

	store := newPGStore(db)
	hub := newHub()
	ranker := NewCandidateRanker(store)
	engine := NewMatchEngine(store, store, store, hub)

	mux := http.NewServeMux()

	// Core auth & user endpoints
	mux.Handle("/register", registerHandler(db))
	mux.Handle("/login", loginHandler(db))
	mux.Handle("/me", meHandler(store))
	mux.Handle("/me/profile", meProfileHandler(store))
	mux.Handle("/me/profile/complete", completeOnboardingHandler(store)) // POST/PATCH alias

	// Ping: mark this user as online "now"
	mux.Handle("/me/ping", mePingHandler(db)) // POST

	// Candidate discovery & swipes
	mux.Handle("/candidates", candidatesHandler(ranker)) // GET /candidates?limit=N
	mux.Handle("/like/", likeHandler(engine))            // POST /like/{userId}
	mux.Handle("/pass/", passHandler(engine))            // POST /pass/{userId}

	// Matches & chat history
	mux.Handle("/matches", matchesHandler(db, store))
	mux.Handle("/matches/", matchMessagesHandler(db)) // GET /matches/{id}/messages

	// WebSocket chat endpoint
	mux.Handle("/ws/chat", wsChatHandler(db, hub))

	// Health check endpoint for Docker
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Default().Println("Starting Roomio backend on port " + port + "...")
	http.ListenAndServe(":"+port, withCORS(mux))
}
