// internal/api/routes.go
// Central route registration, grounded on the teacher's
// internal/api/routes.go (one Register* function per resource group,
// middleware chained per-group via router.Use).

package api

import (
	"github.com/gin-gonic/gin"

	"musicbattle-core/internal/actor"
	"musicbattle-core/internal/archiver"
	"musicbattle-core/internal/catalog"
	"musicbattle-core/internal/config"
	"musicbattle-core/internal/middleware"
	"musicbattle-core/internal/schedule"
	"musicbattle-core/internal/wsgateway"
)

// Dependencies bundles everything the route tree needs to construct its
// handlers.
type Dependencies struct {
	Registry *actor.Registry
	Archiver *archiver.MySQLArchiver
	Catalog  *catalog.Repository
	Schedule *schedule.Repository
	Gateway  *wsgateway.Gateway
	Config   *config.Config
}

// RegisterRoutes wires every endpoint in spec.md §6 onto router.
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	matchRouter := &MatchRouter{Registry: deps.Registry, Catalog: deps.Catalog}
	scheduleRouter := &ScheduleRouter{Schedule: deps.Schedule}
	historyRouter := &HistoryRouter{Archiver: deps.Archiver}

	api := router.Group("/api")
	api.Use(middleware.RequireAuth(deps.Config.Auth.JWTSecret))

	api.POST("/tournament_matches", scheduleRouter.HandleCreateScheduleShell())
	api.PUT("/tournament_matches/:id/confirm_setup", scheduleRouter.HandleConfirmSetup())
	api.POST("/tournament_matches/:id/start_live", matchRouter.HandleStartLive())

	liveMatch := api.Group("/live-match")
	{
		liveMatch.GET("/:id/state", matchRouter.HandleGetState())
		liveMatch.GET("/:id/websocket", func(c *gin.Context) {
			_, actorID, valid := parseMatchID(c)
			if !valid {
				return
			}
			deps.Gateway.HandleSubscribe(actorID)(c)
		})
		liveMatch.POST("/:id/calculate_round", matchRouter.HandleCalculateRound())
		liveMatch.POST("/:id/next_round", matchRouter.HandleNextRound())
		liveMatch.POST("/:id/resolve_draw", matchRouter.HandleResolveDraw())
		liveMatch.POST("/:id/select_tiebreaker_song", matchRouter.HandleSelectTiebreakerSong())
		liveMatch.POST("/:id/archive", matchRouter.HandleArchiveMatch())
	}

	api.GET("/match_history", historyRouter.HandleMatchHistory())
}
