package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/profhack/profhack-backend/handlers"
	"github.com/profhack/profhack-backend/middleware"
)

type Config struct {
	JWTSecret     []byte
	AllowedOrigin string

	Auth          *handlers.AuthHandler
	User          *handlers.UserHandler
	Team          *handlers.TeamHandler
	Notification  *handlers.NotificationHandler
	Submission    *handlers.SubmissionHandler
	WebSocket     *handlers.WebSocketHandler
}

func SetupRoutes(router *chi.Mux, cfg Config) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "api/openapi.json")
	})
	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", cfg.Auth.Register)
		r.Post("/login", cfg.Auth.Login)
		r.Post("/otp/send", cfg.Auth.SendOTP)
		r.Post("/otp/resend", cfg.Auth.ResendOTP)
		r.Post("/otp/verify", cfg.Auth.VerifyOTP)
		r.Post("/forgot-password", cfg.Auth.ForgotPassword)
		r.Post("/reset-password", cfg.Auth.ResetPassword)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(cfg.JWTSecret))

		r.Route("/user", func(r chi.Router) {
			r.Get("/profile", cfg.User.GetProfile)
			r.Put("/profile", cfg.User.UpdateProfile)
			r.Get("/available", cfg.User.ListAvailable)
			r.Get("/invitations", cfg.User.ListInvitations)
			r.Post("/invitations/{invitationID}/accept", cfg.User.AcceptInvitation)
			r.Post("/invitations/{invitationID}/decline", cfg.User.DeclineInvitation)
			r.Get("/notifications", cfg.Notification.List)
			r.Put("/notifications/{notificationID}/read", cfg.Notification.MarkRead)
		})

		r.Route("/teams", func(r chi.Router) {
			r.Get("/", cfg.Team.ListTeams)
			r.Post("/", cfg.Team.CreateTeam)
			r.Get("/leaderboard", cfg.Team.Leaderboard)
			r.Get("/{teamID}", cfg.Team.GetTeam)
			r.Delete("/{teamID}", cfg.Team.DeleteTeam)
			r.Post("/{teamID}/join", cfg.Team.RequestJoin)
			r.Post("/{teamID}/invite", cfg.Team.InviteMember)
			r.Post("/{teamID}/members", cfg.Team.AddMember)
			r.Delete("/{teamID}/members/{memberID}", cfg.Team.RemoveMember)
			r.Delete("/{teamID}/leave", cfg.Team.Leave)
			r.Get("/{teamID}/available-faculty", cfg.Team.AvailableFaculty)
		})

		r.Route("/submissions", func(r chi.Router) {
			r.Post("/ppt", cfg.Submission.Submit)
			r.Get("/team/{teamID}", cfg.Submission.GetByTeam)
		})

		r.Get("/ws/notifications", cfg.WebSocket.ServeNotifications)
	})
}
