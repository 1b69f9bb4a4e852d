package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Dosada05/clay-tournament/handlers"
	"github.com/Dosada05/clay-tournament/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	Logger         *slog.Logger
	JWTSecret      []byte
	AllowedOrigins []string
}

func SetupRoutes(
	router chi.Router,
	opts Options,
	tournamentHandler *handlers.TournamentHandler,
	scheduleHandler *handlers.ScheduleHandler,
	scoreHandler *handlers.ScoreHandler,
	leaderboardHandler *handlers.LeaderboardHandler,
	rosterHandler *handlers.RosterHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestLogger(opts.Logger))
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Публичные маршруты
	router.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(15 * time.Second))

		r.Get("/tournaments", tournamentHandler.ListTournaments)
		r.Get("/tournaments/{tournamentID}", tournamentHandler.GetTournamentByID)
		r.Get("/tournaments/{tournamentID}/registrations", tournamentHandler.ListRegistrations)
		r.Get("/tournaments/{tournamentID}/athletes/{athleteID}/scores", scoreHandler.ListAthleteScores)
		r.Get("/tournaments/{tournamentID}/disciplines/{disciplineID}/leaderboard", leaderboardHandler.GetLeaderboard)
		r.Get("/disciplines", tournamentHandler.ListDisciplines)
		r.Get("/squads/{squadID}/progress", scheduleHandler.SquadProgress)
		r.Get("/athletes/{athleteID}", rosterHandler.GetAthlete)
		r.Get("/teams/{teamID}", rosterHandler.GetTeam)
		r.Get("/classifications/scales", leaderboardHandler.ListScales)
	})

	// Маршруты, требующие аутентификации
	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(opts.JWTSecret))

		r.With(middleware.Require(middleware.CapManageTournaments)).Group(func(r chi.Router) {
			r.Post("/tournaments", tournamentHandler.CreateTournament)
			r.Patch("/tournaments/{tournamentID}/dates", tournamentHandler.UpdateTournamentDates)
			r.Patch("/tournaments/{tournamentID}/status", tournamentHandler.UpdateTournamentStatus)
			r.Post("/disciplines", tournamentHandler.CreateDiscipline)
			r.Post("/athletes", rosterHandler.CreateAthlete)
			r.Post("/tournaments/{tournamentID}/disciplines/{disciplineID}/leaderboard/publish", leaderboardHandler.PublishLeaderboard)
			r.Post("/tournaments/{tournamentID}/leaderboards/refresh", leaderboardHandler.RefreshTournament)
		})

		r.With(middleware.Require(middleware.CapRegister)).Group(func(r chi.Router) {
			r.Post("/tournaments/{tournamentID}/registrations", tournamentHandler.Register)
			r.Delete("/tournaments/{tournamentID}/registrations/{athleteID}", tournamentHandler.Unregister)
		})

		r.With(middleware.Require(middleware.CapManageSchedule)).Group(func(r chi.Router) {
			r.Post("/tournaments/{tournamentID}/timeslots", scheduleHandler.CreateTimeSlot)
			r.Get("/tournaments/{tournamentID}/timeslots", scheduleHandler.ListTimeSlots)
			r.Delete("/timeslots/{timeSlotID}", scheduleHandler.DeleteTimeSlot)
			r.Post("/tournaments/{tournamentID}/squads", scheduleHandler.CreateSquad)
			r.Get("/squads/{squadID}", scheduleHandler.GetSquad)
			r.Delete("/squads/{squadID}", scheduleHandler.DissolveSquad)
			r.Post("/squads/{squadID}/move", scheduleHandler.MoveSquad)
			r.Post("/squads/{squadID}/members", scheduleHandler.AssignAthlete)
			r.Delete("/squads/{squadID}/members/{athleteID}", scheduleHandler.RemoveAthlete)
		})

		r.With(middleware.Require(middleware.CapRecordScores)).Group(func(r chi.Router) {
			r.Post("/tournaments/{tournamentID}/scores", scoreHandler.RecordScore)
			r.Post("/tournaments/{tournamentID}/scores/import", scoreHandler.ImportScores)
			r.Get("/imports/{batchID}", scoreHandler.GetImportBatch)
			r.Post("/tournaments/{tournamentID}/disciplines/{disciplineID}/rounds/{round}/finalize", scoreHandler.FinalizeRound)
		})

		r.With(middleware.Require(middleware.CapCorrectScores)).Group(func(r chi.Router) {
			r.Post("/scores/{scoreID}/corrections", scoreHandler.CorrectScore)
			r.Get("/scores/{scoreID}/corrections", scoreHandler.ListCorrections)
		})

		r.With(middleware.Require(middleware.CapManageClassifications)).Group(func(r chi.Router) {
			r.Post("/athletes/{athleteID}/classifications/{body}", leaderboardHandler.Classify)
			r.Post("/classifications/{body}", leaderboardHandler.ClassifyAll)
		})

		r.With(middleware.Require(middleware.CapManageTeams)).Group(func(r chi.Router) {
			r.Post("/teams", rosterHandler.CreateTeam)
			r.Post("/teams/{teamID}/athletes/{athleteID}", rosterHandler.JoinTeam)
		})

		// athletes may leave on their own; the roster service checks ownership
		r.Delete("/teams/{teamID}/athletes/{athleteID}", rosterHandler.LeaveTeam)

		r.With(middleware.Require(middleware.CapRequestJoin)).
			Post("/teams/{teamID}/join-requests", rosterHandler.CreateJoinRequest)
	})
}
