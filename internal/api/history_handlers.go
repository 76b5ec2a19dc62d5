// internal/api/history_handlers.go
// Read-only archived-match history, joining tournament_matches against
// match_rounds_history. Never talks to a live actor (spec.md §4.E).

package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"musicbattle-core/internal/archiver"
)

// HistoryRouter wires the read-only history endpoint to the MySQL archiver.
type HistoryRouter struct {
	Archiver *archiver.MySQLArchiver
}

// HandleMatchHistory returns archived matches joined with their rounds.
func (hr *HistoryRouter) HandleMatchHistory() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 100
		if raw := c.Query("limit"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
				limit = parsed
			}
		}

		rows, err := hr.Archiver.MatchHistory(c.Request.Context(), limit)
		if err != nil {
			fail(c, http.StatusInternalServerError, "failed to load match history")
			return
		}
		ok(c, rows)
	}
}
