// internal/api/match_handlers.go
// Live-match HTTP handlers: the Router in front of each match's Actor.
// Grounded on the teacher's internal/api/match_handlers.go (gin.HandlerFunc
// factories closing over a service, c.Param for the id, c.ShouldBindJSON
// for the body) adapted to forward typed RPCs to actor.Registry instead
// of a CRUD service.

package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"musicbattle-core/internal/actor"
	"musicbattle-core/internal/catalog"
	"musicbattle-core/internal/models"
)

// MatchRouter wires the live-match endpoints to the actor Registry and
// the song catalog (for SelectTiebreakerSong enrichment).
type MatchRouter struct {
	Registry *actor.Registry
	Catalog  *catalog.Repository
}

func parseMatchID(c *gin.Context) (int, string, bool) {
	idStr := c.Param("id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		fail(c, http.StatusBadRequest, "match id must be an integer")
		return 0, "", false
	}
	return id, actor.DeriveActorID(id), true
}

// HandleStartLive instantiates (or rehydrates) the match actor and runs
// InitializeFromSchedule. Team rosters and names are owned by the
// external team/member service (out of scope here); the Router is
// expected to have already fetched them and merged them with the
// confirmed player order and song list before calling this endpoint, so
// the full ScheduleData arrives as the request body.
func (mr *MatchRouter) HandleStartLive() gin.HandlerFunc {
	return func(c *gin.Context) {
		matchID, actorID, valid := parseMatchID(c)
		if !valid {
			return
		}
		var data models.ScheduleData
		if err := c.ShouldBindJSON(&data); err != nil {
			fail(c, http.StatusBadRequest, "invalid request body")
			return
		}
		data.TournamentMatchID = matchID

		a, err := mr.Registry.GetOrCreate(c.Request.Context(), actorID)
		if err != nil {
			failFromActorError(c, err)
			return
		}
		state, err := a.InitializeFromSchedule(c.Request.Context(), data)
		if err != nil {
			failFromActorError(c, err)
			return
		}
		ok(c, state)
	}
}

// HandleGetState returns the current snapshot for a live match.
func (mr *MatchRouter) HandleGetState() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, actorID, valid := parseMatchID(c)
		if !valid {
			return
		}
		a, err := mr.Registry.GetOrCreate(c.Request.Context(), actorID)
		if err != nil {
			failFromActorError(c, err)
			return
		}
		state, err := a.GetState(c.Request.Context())
		if err != nil {
			failFromActorError(c, err)
			return
		}
		ok(c, state)
	}
}

// HandleCalculateRound scores the current round.
func (mr *MatchRouter) HandleCalculateRound() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, actorID, valid := parseMatchID(c)
		if !valid {
			return
		}
		var input models.RoundInput
		if err := c.ShouldBindJSON(&input); err != nil {
			fail(c, http.StatusBadRequest, "invalid request body")
			return
		}
		a, err := mr.Registry.GetOrCreate(c.Request.Context(), actorID)
		if err != nil {
			failFromActorError(c, err)
			return
		}
		state, err := a.CalculateRound(c.Request.Context(), input)
		if err != nil {
			failFromActorError(c, err)
			return
		}
		ok(c, state)
	}
}

// HandleNextRound advances to the next scheduled song.
func (mr *MatchRouter) HandleNextRound() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, actorID, valid := parseMatchID(c)
		if !valid {
			return
		}
		a, err := mr.Registry.GetOrCreate(c.Request.Context(), actorID)
		if err != nil {
			failFromActorError(c, err)
			return
		}
		state, err := a.NextRound(c.Request.Context())
		if err != nil {
			failFromActorError(c, err)
			return
		}
		ok(c, state)
	}
}

// HandleResolveDraw picks a winner for a drawn match.
func (mr *MatchRouter) HandleResolveDraw() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, actorID, valid := parseMatchID(c)
		if !valid {
			return
		}
		var req struct {
			Winner models.Team `json:"winner" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Winner != models.TeamA && req.Winner != models.TeamB {
			fail(c, http.StatusBadRequest, "winner must be teamA or teamB")
			return
		}
		a, err := mr.Registry.GetOrCreate(c.Request.Context(), actorID)
		if err != nil {
			failFromActorError(c, err)
			return
		}
		state, err := a.ResolveDraw(c.Request.Context(), req.Winner)
		if err != nil {
			failFromActorError(c, err)
			return
		}
		ok(c, state)
	}
}

// HandleSelectTiebreakerSong resolves catalog metadata for the picked
// song/difficulty and forwards the enriched selection to the actor,
// keeping the actor itself catalog-free (spec.md §4.E).
func (mr *MatchRouter) HandleSelectTiebreakerSong() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, actorID, valid := parseMatchID(c)
		if !valid {
			return
		}
		var req struct {
			SongID             int    `json:"song_id" binding:"required"`
			SelectedDifficulty string `json:"selected_difficulty" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "invalid request body")
			return
		}

		song, err := mr.Catalog.FindByIDAndDifficulty(c.Request.Context(), req.SongID, req.SelectedDifficulty)
		if err != nil {
			fail(c, http.StatusBadRequest, "unknown song/difficulty combination")
			return
		}

		sel := models.TiebreakerSongSelection{
			SongID:         song.SongID,
			SongTitle:      song.Title,
			SongDifficulty: song.Difficulty,
			SongElement:    song.Element,
			CoverURL:       song.CoverURL,
			BPM:            song.BPM,
		}

		a, err := mr.Registry.GetOrCreate(c.Request.Context(), actorID)
		if err != nil {
			failFromActorError(c, err)
			return
		}
		state, err := a.SelectTiebreakerSong(c.Request.Context(), sel)
		if err != nil {
			failFromActorError(c, err)
			return
		}
		ok(c, state)
	}
}

// HandleArchiveMatch finalizes a match into the external store.
func (mr *MatchRouter) HandleArchiveMatch() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, actorID, valid := parseMatchID(c)
		if !valid {
			return
		}
		a, err := mr.Registry.GetOrCreate(c.Request.Context(), actorID)
		if err != nil {
			failFromActorError(c, err)
			return
		}
		state, err := a.ArchiveMatch(c.Request.Context())
		if err != nil {
			failFromActorError(c, err)
			return
		}
		ok(c, state)
	}
}
