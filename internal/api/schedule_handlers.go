// internal/api/schedule_handlers.go
// Pre-live schedule endpoints: create a tournament_matches shell, and
// confirm player orders + song list before start_live instantiates the
// actor. These never touch actor.Registry.

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"musicbattle-core/internal/models"
	"musicbattle-core/internal/schedule"
)

// ScheduleRouter wires the pre-live schedule endpoints to the schedule
// Repository.
type ScheduleRouter struct {
	Schedule *schedule.Repository
}

// HandleCreateScheduleShell creates the tournament_matches row that the
// rest of the pre-live flow fills in.
func (sr *ScheduleRouter) HandleCreateScheduleShell() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			RoundName     string  `json:"round_name" binding:"required"`
			TeamAID       string  `json:"team1_id" binding:"required"`
			TeamBID       string  `json:"team2_id" binding:"required"`
			ScheduledTime *string `json:"scheduled_time"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "invalid request body")
			return
		}

		var scheduledTime *time.Time
		if req.ScheduledTime != nil && *req.ScheduledTime != "" {
			parsed, err := time.Parse(time.RFC3339, *req.ScheduledTime)
			if err != nil {
				fail(c, http.StatusBadRequest, "invalid scheduled_time format")
				return
			}
			scheduledTime = &parsed
		}

		id, err := sr.Schedule.CreateShell(c.Request.Context(), req.RoundName, req.TeamAID, req.TeamBID, scheduledTime)
		if err != nil {
			fail(c, http.StatusInternalServerError, "failed to create schedule shell")
			return
		}
		ok(c, gin.H{"id": id})
	}
}

// HandleConfirmSetup records player orders and the song list for a
// previously created schedule shell.
func (sr *ScheduleRouter) HandleConfirmSetup() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			fail(c, http.StatusBadRequest, "match id must be an integer")
			return
		}

		var req struct {
			TeamAPlayerOrder []string          `json:"team1_player_order" binding:"required"`
			TeamBPlayerOrder []string          `json:"team2_player_order" binding:"required"`
			MatchSongList    []models.MatchSong `json:"match_song_list" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "invalid request body")
			return
		}
		if len(req.MatchSongList) == 0 {
			fail(c, http.StatusBadRequest, "match_song_list must not be empty")
			return
		}

		if err := sr.Schedule.ConfirmSetup(c.Request.Context(), id, req.TeamAPlayerOrder, req.TeamBPlayerOrder, req.MatchSongList); err != nil {
			fail(c, http.StatusInternalServerError, "failed to confirm setup")
			return
		}
		ok(c, gin.H{"id": id})
	}
}
