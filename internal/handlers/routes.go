package handlers

import "net/http"

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{Checks: deps.Health}
	auth := AuthHandler{Users: deps.Users, Sessions: deps.Sessions, Limiter: deps.AuthLimiter}
	videos := VideoHandler{Videos: deps.Videos, Users: deps.Users, Feed: deps.Feed}
	search := SearchHandler{Search: deps.Search, Limiter: deps.SearchLimiter}
	engagement := EngagementHandler{Engagement: deps.Engagement}
	profile := ProfileHandler{Profiles: deps.Profiles, Users: deps.Users}
	uploads := UploadHandler{Storage: deps.Storage, MaxSize: deps.MaxUploadSize}

	mux.HandleFunc("/healthz", health.Handle)

	mux.HandleFunc("/api/v1/auth/login", auth.Login)
	mux.HandleFunc("/api/v1/auth/signup", auth.SignUp)
	mux.HandleFunc("/api/v1/auth/refresh", auth.Refresh)
	mux.HandleFunc("/api/v1/auth/logout", auth.Logout)

	mux.HandleFunc("/api/v1/search", search.Handle)

	mux.HandleFunc("/api/v1/videos", videos.Collection)
	mux.HandleFunc("/api/v1/videos/like", engagement.Like)
	mux.HandleFunc("/api/v1/videos/comment", engagement.Comments)
	mux.HandleFunc("/api/v1/videos/{id}", videos.Item)
	mux.HandleFunc("/api/v1/users/videos", videos.ByOwner)

	mux.HandleFunc("/api/v1/profile", profile.Handle)

	mux.HandleFunc("/api/v1/uploads/auth", uploads.Authorize)
	mux.HandleFunc("/api/v1/uploads", uploads.Upload)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Sessions      SessionManager
	Videos        VideoStore
	Feed          FeedLister
	Search        Searcher
	Engagement    Engagement
	Profiles      ProfileStore
	Storage       MediaStorage
	MaxUploadSize int64
	AuthLimiter   RateLimiter
	SearchLimiter RateLimiter
	Health        map[string]HealthCheck
}
