package routes

import (
	"net/http"

	"github.com/proovit/proovit/internal/app"
	"github.com/proovit/proovit/internal/handler"
	"github.com/proovit/proovit/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.DB)
	goal := handler.NewGoalHandler(app.GoalService, app.StreakEngine)
	proof := handler.NewProofHandler(app.GoalService, app.ProofService, app.Cfg.ProofMaxImageBytes)
	verify := handler.NewVerifyHandler(app.Verifier)
	profile := handler.NewProfileHandler(app.ProfileService)
	feed := handler.NewFeedHandler(app.FeedService)

	// Proof submissions and verify-proof calls hit the vision model, so they share a budget
	modelLimiter := middleware.NewRateLimiter(app.Cfg.ProofRatePerMinute, app.Cfg.ProofRatePerMinute)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /healthz", health.Health)

	// ============================================================================
	// PROTECTED ROUTES (/api/*, /functions/*)
	// ============================================================================

	// Profile
	mux.HandleFunc("GET /api/me", middleware.RequireAuth(profile.Me))
	mux.HandleFunc("PATCH /api/me", middleware.RequireAuth(profile.UpdateMe))
	mux.HandleFunc("GET /api/profiles", middleware.RequireAuth(profile.Search))
	mux.HandleFunc("GET /api/profiles/{id}", middleware.RequireAuth(profile.Get))
	mux.HandleFunc("GET /api/profiles/{id}/stats", middleware.RequireAuth(profile.Stats))
	mux.HandleFunc("GET /api/profiles/{id}/followers", middleware.RequireAuth(profile.Followers))
	mux.HandleFunc("GET /api/profiles/{id}/following", middleware.RequireAuth(profile.Following))
	mux.HandleFunc("POST /api/profiles/{id}/follow", middleware.RequireAuth(profile.Follow))
	mux.HandleFunc("DELETE /api/profiles/{id}/follow", middleware.RequireAuth(profile.Unfollow))

	// Goals
	mux.HandleFunc("GET /api/goals", middleware.RequireAuth(goal.List))
	mux.HandleFunc("POST /api/goals", middleware.RequireAuth(goal.Create))
	mux.HandleFunc("GET /api/goals/{id}", middleware.RequireAuth(goal.Get))
	mux.HandleFunc("PATCH /api/goals/{id}", middleware.RequireAuth(goal.Update))
	mux.HandleFunc("GET /api/goals/{id}/streak", middleware.RequireAuth(goal.Streak))

	// Proofs
	mux.HandleFunc("GET /api/goals/{id}/proofs", middleware.RequireAuth(proof.List))
	mux.HandleFunc("POST /api/goals/{id}/proofs", middleware.RequireAuth(modelLimiter.Limit(proof.Submit)))
	mux.HandleFunc("PATCH /api/proofs/{id}/verification", middleware.RequireAuth(proof.UpdateVerification))

	// Feed
	mux.HandleFunc("GET /api/feed", middleware.RequireAuth(feed.Feed))

	// Verification function
	mux.HandleFunc("POST /functions/verify-proof", middleware.RequireAuth(modelLimiter.Limit(verify.VerifyProof)))

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.RequestLogging,
		middleware.AuthMiddleware(app.AuthService, app.ProfileService),
	)

	return handler
}
