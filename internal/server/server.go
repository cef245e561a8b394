package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/duet-app/duet/internal/aggregate"
	"github.com/duet-app/duet/internal/handler"
	"github.com/duet-app/duet/internal/middleware"
	"github.com/duet-app/duet/internal/photo"
	"github.com/duet-app/duet/internal/push"
	"github.com/duet-app/duet/internal/store"
	ws "github.com/duet-app/duet/internal/websocket"
)

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	authH        *handler.AuthHandler
	profileH     *handler.ProfileHandler
	taskH        *handler.TaskHandler
	partnerTaskH *handler.PartnerTaskHandler
	friendshipH  *handler.FriendshipHandler
	feedH        *handler.FeedHandler
	dashboardH   *handler.DashboardHandler
	pushH        *handler.PushHandler
	sessionStore *store.SessionStore
	rateLimiter  *middleware.RateLimiter
	photoStore   *photo.Store
	pushService  *push.Service
	logger       *slog.Logger
}

func New(db *sql.DB, photoCfg photo.Config, pushCfg push.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	profileStore := store.NewProfileStore(db)
	sessionStore := store.NewSessionStore(db)
	taskStore := store.NewTaskStore(db)
	partnerTaskStore := store.NewPartnerTaskStore(db)
	friendshipStore := store.NewFriendshipStore(db)
	postStore := store.NewPostStore(db)
	pushStore := store.NewPushStore(db)

	photoStore := photo.New(photoCfg, logger.With("component", "photo"))

	var pushSvc *push.Service
	var notifier *push.Notifier
	if pushCfg.VAPIDPublicKey != "" && pushCfg.VAPIDPrivateKey != "" {
		pushSvc = push.NewService(pushCfg.VAPIDPublicKey, pushCfg.VAPIDPrivateKey)
		notifier = push.NewNotifier(pushSvc, pushStore, logger.With("component", "push"))
	}

	loader := aggregate.NewLoader(profileStore, taskStore, partnerTaskStore, friendshipStore, postStore)

	return &Server{
		db:           db,
		hub:          hub,
		authH:        handler.NewAuthHandler(profileStore, sessionStore, logger.With("component", "auth")),
		profileH:     handler.NewProfileHandler(profileStore, logger.With("component", "profile")),
		taskH:        handler.NewTaskHandler(taskStore, friendshipStore, photoStore, hub, logger.With("component", "task")),
		partnerTaskH: handler.NewPartnerTaskHandler(partnerTaskStore, profileStore, friendshipStore, photoStore, hub, notifier, logger.With("component", "partner_task")),
		friendshipH:  handler.NewFriendshipHandler(friendshipStore, profileStore, hub, notifier, logger.With("component", "friendship")),
		feedH:        handler.NewFeedHandler(postStore, logger.With("component", "feed")),
		dashboardH:   handler.NewDashboardHandler(loader, logger.With("component", "dashboard")),
		pushH:        handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push_handler")),
		sessionStore: sessionStore,
		rateLimiter:  middleware.NewRateLimiter(),
		photoStore:   photoStore,
		pushService:  pushSvc,
		logger:       logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/auth/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)

	// Profile
	mux.HandleFunc("GET /api/profile", s.profileH.Get)
	mux.HandleFunc("PUT /api/profile", s.profileH.Update)

	// Dashboard snapshot
	mux.HandleFunc("GET /api/dashboard", s.dashboardH.Get)

	// Solo tasks
	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("PUT /api/tasks/{id}", s.taskH.Update)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)
	mux.HandleFunc("POST /api/tasks/{id}/complete", s.taskH.Complete)
	mux.HandleFunc("DELETE /api/tasks/{id}/completions/{completion_id}", s.taskH.UndoComplete)

	// Partner tasks
	mux.HandleFunc("POST /api/partner-tasks", s.partnerTaskH.Create)
	mux.HandleFunc("GET /api/partner-tasks", s.partnerTaskH.List)
	mux.HandleFunc("POST /api/partner-tasks/{id}/accept", s.partnerTaskH.Accept)
	mux.HandleFunc("POST /api/partner-tasks/{id}/decline", s.partnerTaskH.Decline)
	mux.HandleFunc("DELETE /api/partner-tasks/{id}", s.partnerTaskH.Delete)
	mux.HandleFunc("POST /api/partner-tasks/{id}/complete", s.partnerTaskH.Complete)
	mux.HandleFunc("DELETE /api/partner-tasks/{id}/complete", s.partnerTaskH.UndoComplete)

	// Friendships
	mux.HandleFunc("POST /api/friendships", s.friendshipH.Send)
	mux.HandleFunc("GET /api/friendships", s.friendshipH.List)
	mux.HandleFunc("POST /api/friendships/{id}/accept", s.friendshipH.Accept)
	mux.HandleFunc("DELETE /api/friendships/{id}", s.friendshipH.Delete)

	// Feed
	mux.HandleFunc("GET /api/feed", s.feedH.List)

	// Push notifications
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("POST /api/push/unsubscribe", s.pushH.Unsubscribe)
	mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}
