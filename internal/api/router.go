package api

import (
	"net/http"

	"chatstream-backend/internal/auth"
	"chatstream-backend/internal/config"
	"chatstream-backend/internal/handlers"
	"chatstream-backend/internal/models"
	"chatstream-backend/pkg/httputil"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterDependencies holds all the dependencies required by the router setup,
// primarily handlers and configuration.
type RouterDependencies struct {
	AuthHandler    *handlers.AuthHandler
	ChatHandler    *handlers.ChatHandler
	SessionHandler *handlers.SessionHandler
	Config         *config.Config
}

// NewRouter creates and configures the main Chi router for the application.
func NewRouter(deps RouterDependencies) *chi.Mux {
	r := chi.NewRouter()

	// --- Base Middleware Stack ---
	// No Timeout middleware here: the chat routes hold the connection open
	// for as long as the upstream model streams, and a blanket timeout
	// would sever streams mid-reply.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// --- CORS Configuration ---
	// Adjust AllowedOrigins for your frontend deployment(s)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Requested-With"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	// --- Public Routes (No JWT Required) ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if deps.AuthHandler == nil {
		panic("AuthHandler dependency is nil in router setup")
	}
	r.Post("/signup", deps.AuthHandler.HandleSignup)
	r.Post("/login", deps.AuthHandler.HandleLogin)

	if deps.ChatHandler == nil {
		panic("ChatHandler dependency is nil in router setup")
	}
	r.Post("/chat", deps.ChatHandler.HandleChatPost)
	r.Get("/chat", deps.ChatHandler.HandleChatGet)

	if deps.SessionHandler == nil {
		panic("SessionHandler dependency is nil in router setup")
	}
	r.Get("/chat/{sessionID}", deps.SessionHandler.HandleGetHistory)
	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", deps.SessionHandler.HandleListSessions)
		r.Delete("/{sessionID}", deps.SessionHandler.HandleDeleteSession)
		r.Put("/{sessionID}/rename", deps.SessionHandler.HandleRenameSession)
	})

	// --- Authenticated Routes (JWT Required) ---
	r.Group(func(r chi.Router) {
		r.Use(JwtAuthMiddleware(deps.Config.JWTSecret))

		r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
			userID, ok := auth.GetUserIDFromContext(r.Context())
			if !ok {
				httputil.RespondError(w, http.StatusUnauthorized, "Invalid token claims")
				return
			}
			username, ok := auth.GetUsernameFromContext(r.Context())
			if !ok {
				httputil.RespondError(w, http.StatusUnauthorized, "Invalid token claims")
				return
			}
			httputil.RespondJSON(w, http.StatusOK, models.UserResponse{ID: userID, Username: username})
		})
	})

	return r
}
