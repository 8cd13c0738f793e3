package api

import (
	"delivery-sim-service/internal/api/handlers"
	"delivery-sim-service/internal/ports"
	"net/http"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(repo ports.PackageRepository, sessions *handlers.SessionHandler) http.Handler {
	mux := http.NewServeMux()

	pkgHandler := &handlers.PackageHandler{Repo: repo}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/packages", pkgHandler.List)
	mux.HandleFunc("/sessions", sessions.Sessions)
	mux.HandleFunc("/sessions/state", sessions.State)
	mux.HandleFunc("/sessions/stop", sessions.Stop)
	mux.HandleFunc("/sessions/clear", sessions.Clear)
	mux.HandleFunc("/simulation/fast-forward", sessions.FastForward)

	return requestIDMiddleware(loggingMiddleware(mux))
}
