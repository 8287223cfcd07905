package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/itchan-dev/kanaal/backend/internal/setup"
	"github.com/itchan-dev/kanaal/shared/csrf"
	mw "github.com/itchan-dev/kanaal/shared/middleware"
	"github.com/itchan-dev/kanaal/shared/middleware/metrics"
	rl "github.com/itchan-dev/kanaal/shared/middleware/ratelimiter"
)

// New creates and configures a chi router with all the routes.
// IMPORTANT! a limiter passed to Use is shared by every route of that group
func New(deps *setup.Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Public.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", csrf.HeaderName},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(mw.SecurityHeaders(deps.Config.Public.SecureCookies))
	r.Use(csrf.Protect(mw.AccessTokenCookie, deps.Config.Public.SecureCookies))

	h := deps.Handler
	authMw := deps.AuthMiddleware

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(mw.RateLimit(rl.New(50, 300, time.Hour), mw.GetIP)) // per peer, before auth

		// Gateway callbacks carry a service token, never a user session
		v1.With(
			mw.GlobalRateLimit(rl.New(20, 50, time.Hour)),
			deps.GatewayAuth.GatewayOnly(),
		).Delete("/identity/users/{externalId}", h.GatewayDeleteUser)

		v1.Group(func(loggedIn chi.Router) {
			loggedIn.Use(authMw.NeedAuth())
			loggedIn.Use(mw.RateLimit(rl.New(100, 100, time.Hour), mw.GetUserIDFromContext)) // 100 RPS per user

			// CreateThread: 1 per minute per user with a small burst
			createThread := mw.RateLimit(rl.New(1.0/60, 3, time.Hour), mw.GetUserIDFromContext)
			// CreateComment: 1 per second per user
			createComment := mw.RateLimit(rl.New(1, 5, time.Hour), mw.GetUserIDFromContext)

			loggedIn.Get("/me", h.GetMe)
			loggedIn.Patch("/me", h.UpdateMe)
			loggedIn.Delete("/me", h.DeleteMe)
			loggedIn.Post("/me/onboarding", h.CompleteOnboardingStep)

			loggedIn.Get("/sections", h.ListSections)
			loggedIn.Get("/channels", h.ListChannels)
			loggedIn.Get("/channels/{slug}", h.GetChannel)
			loggedIn.Get("/channels/{channelId}/threads", h.ListThreads)
			loggedIn.With(createThread).Post("/channels/{channelId}/threads", h.CreateThread)

			loggedIn.Get("/threads/{threadId}", h.GetThread)
			loggedIn.Delete("/threads/{threadId}", h.DeleteThread)
			loggedIn.Get("/t/{slug}/{number}", h.GetThreadBySlugNumber)
			loggedIn.Post("/threads/{threadId}/upvote", h.UpvoteThread)
			loggedIn.Post("/threads/{threadId}/vote", h.Vote)
			loggedIn.Get("/threads/{threadId}/poll", h.PollResults)
			loggedIn.Get("/threads/{threadId}/comments", h.ListComments)
			loggedIn.With(createComment).Post("/threads/{threadId}/comments", h.CreateComment)

			loggedIn.Post("/comments/{commentId}/like", h.LikeComment)
			loggedIn.Delete("/comments/{commentId}", h.DeleteComment)

			loggedIn.Get("/search", h.Search)
		})

		v1.Route("/admin", func(ar chi.Router) {
			ar.Group(func(mod chi.Router) {
				mod.Use(authMw.ModeratorOnly())

				mod.Put("/threads/{threadId}/sticky", h.SetSticky)
				mod.Post("/threads/{threadId}/sticky/toggle", h.ToggleSticky)
			})

			admin := ar.With(authMw.AdminOnly())

			admin.Post("/sections", h.CreateSection)
			admin.Put("/sections/order", h.ReorderSections)
			admin.Patch("/sections/{sectionId}", h.UpdateSection)
			admin.Delete("/sections/{sectionId}", h.DeleteSection)
			admin.Put("/sections/{sectionId}/channels", h.ReorderChannels)

			admin.Post("/channels", h.CreateChannel)
			admin.Post("/channels/drop", h.DropChannel)
			admin.Patch("/channels/{channelId}", h.UpdateChannel)
			admin.Delete("/channels/{channelId}", h.DeleteChannel)
			admin.Post("/channels/{channelId}/move", h.MoveChannel)

			admin.Delete("/threads/{threadId}", h.DeleteThread)

			admin.Put("/users/{userId}/role", h.SetRole)
			admin.Delete("/users/{userId}", h.DeleteUser)

			admin.Post("/curate/{operation}", h.Curate)
			admin.Get("/sweep", h.SweepStatus)
		})
	})

	return r
}
