// internal/archiver/archiver.go
// History Archiver: idempotent upsert of round and final-match records
// into MySQL. Grounded on the teacher's internal/repositories/match_repository.go
// (ExecContext + positional placeholders, context-aware), but every write
// here is an upsert keyed on a natural key rather than the teacher's plain
// INSERT — spec.md §4.D requires retry-safety, which the teacher's match
// CRUD never needed.

package archiver

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"musicbattle-core/internal/models"
)

// MySQLArchiver implements actor.Archiver against the external relational
// store described in spec.md §6.
type MySQLArchiver struct {
	db     *sql.DB
	logger *log.Logger
}

// NewMySQLArchiver wraps a MySQL connection pool for archival writes.
func NewMySQLArchiver(db *sql.DB, logger *log.Logger) *MySQLArchiver {
	return &MySQLArchiver{db: db, logger: logger}
}

// ArchiveRound upserts keyed on (tournament_match_id, round_number_in_match).
func (a *MySQLArchiver) ArchiveRound(ctx context.Context, tournamentMatchID int, roundNumberInMatch int, summary models.RoundSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal round summary: %w", err)
	}

	query := `
		INSERT INTO match_rounds_history (
			tournament_match_id, match_actor_id, round_number_in_match,
			song_id, selected_difficulty, picker_team_id, picker_member_id,
			team1_member_id, team2_member_id,
			team1_percentage, team2_percentage,
			team1_damage_dealt, team2_damage_dealt,
			team1_health_change, team2_health_change,
			team1_health_before, team2_health_before,
			team1_health_after, team2_health_after,
			team1_mirror_triggered, team2_mirror_triggered,
			team1_effect_value, team2_effect_value,
			is_tiebreaker_song, recorded_at, round_summary_json
		) VALUES (
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		)
		ON DUPLICATE KEY UPDATE
			song_id = VALUES(song_id),
			selected_difficulty = VALUES(selected_difficulty),
			picker_team_id = VALUES(picker_team_id),
			picker_member_id = VALUES(picker_member_id),
			team1_member_id = VALUES(team1_member_id),
			team2_member_id = VALUES(team2_member_id),
			team1_percentage = VALUES(team1_percentage),
			team2_percentage = VALUES(team2_percentage),
			team1_damage_dealt = VALUES(team1_damage_dealt),
			team2_damage_dealt = VALUES(team2_damage_dealt),
			team1_health_change = VALUES(team1_health_change),
			team2_health_change = VALUES(team2_health_change),
			team1_health_before = VALUES(team1_health_before),
			team2_health_before = VALUES(team2_health_before),
			team1_health_after = VALUES(team1_health_after),
			team2_health_after = VALUES(team2_health_after),
			team1_mirror_triggered = VALUES(team1_mirror_triggered),
			team2_mirror_triggered = VALUES(team2_mirror_triggered),
			team1_effect_value = VALUES(team1_effect_value),
			team2_effect_value = VALUES(team2_effect_value),
			is_tiebreaker_song = VALUES(is_tiebreaker_song),
			recorded_at = VALUES(recorded_at),
			round_summary_json = VALUES(round_summary_json)
	`

	_, err = a.db.ExecContext(ctx, query,
		tournamentMatchID,
		actorIDFor(tournamentMatchID),
		roundNumberInMatch,
		summary.SongID,
		summary.SongDifficulty,
		summary.PickerTeamID,
		summary.PickerMemberID,
		summary.TeamAMemberID,
		summary.TeamBMemberID,
		summary.TeamAPercentage,
		summary.TeamBPercentage,
		summary.TeamADealt,
		summary.TeamBDealt,
		summary.TeamAHealthAfter-summary.TeamAHealthBefore,
		summary.TeamBHealthAfter-summary.TeamBHealthBefore,
		summary.TeamAHealthBefore,
		summary.TeamBHealthBefore,
		summary.TeamAHealthAfter,
		summary.TeamBHealthAfter,
		summary.TeamAMirrorTriggered,
		summary.TeamBMirrorTriggered,
		summary.TeamAEffectValue,
		summary.TeamBEffectValue,
		summary.IsTiebreakerSong,
		time.Now(),
		summaryJSON,
	)
	if err != nil {
		return fmt.Errorf("upsert match_rounds_history: %w", err)
	}
	return nil
}

// FinalizeMatch upserts the tournament_matches row with the final status,
// winner, and scores, keyed on tournament_match_id.
func (a *MySQLArchiver) FinalizeMatch(ctx context.Context, tournamentMatchID int, state models.MatchState) error {
	var winnerTeamID sql.NullString
	if state.WinnerTeamID != nil {
		winnerTeamID = sql.NullString{String: *state.WinnerTeamID, Valid: true}
	}

	query := `
		INSERT INTO tournament_matches (
			id, status, final_score_team1, final_score_team2, winner_team_id,
			match_actor_id, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			status = VALUES(status),
			final_score_team1 = VALUES(final_score_team1),
			final_score_team2 = VALUES(final_score_team2),
			winner_team_id = VALUES(winner_team_id),
			match_actor_id = VALUES(match_actor_id),
			updated_at = VALUES(updated_at)
	`
	_, err := a.db.ExecContext(ctx, query,
		tournamentMatchID,
		string(state.Status),
		state.TeamAScore,
		state.TeamBScore,
		winnerTeamID,
		state.MatchActorID,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("upsert tournament_matches: %w", err)
	}
	return nil
}

func actorIDFor(tournamentMatchID int) string {
	return fmt.Sprintf("match-%d", tournamentMatchID)
}

// HistoryRow is one archived round joined against its parent match, for
// the read-only /api/match_history endpoint. This query never touches a
// live actor.
type HistoryRow struct {
	TournamentMatchID int       `json:"tournament_match_id"`
	RoundName         string    `json:"round_name"`
	FinalStatus       string    `json:"final_status"`
	WinnerTeamID      *string   `json:"winner_team_id,omitempty"`
	RoundNumber       int       `json:"round_number_in_match"`
	SongID            int       `json:"song_id"`
	SongDifficulty    string    `json:"selected_difficulty"`
	TeamAPercentage   float64   `json:"team1_percentage"`
	TeamBPercentage   float64   `json:"team2_percentage"`
	TeamAHealthAfter  int       `json:"team1_health_after"`
	TeamBHealthAfter  int       `json:"team2_health_after"`
	IsTiebreakerSong  bool      `json:"is_tiebreaker_song"`
	RecordedAt        time.Time `json:"recorded_at"`
}

// MatchHistory joins archived tournament_matches rows against their
// match_rounds_history rows, most recent match first.
func (a *MySQLArchiver) MatchHistory(ctx context.Context, limit int) ([]HistoryRow, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT
			tm.id, tm.round_name, tm.status, tm.winner_team_id,
			mrh.round_number_in_match, mrh.song_id, mrh.selected_difficulty,
			mrh.team1_percentage, mrh.team2_percentage,
			mrh.team1_health_after, mrh.team2_health_after,
			mrh.is_tiebreaker_song, mrh.recorded_at
		FROM tournament_matches tm
		JOIN match_rounds_history mrh ON mrh.tournament_match_id = tm.id
		ORDER BY tm.id DESC, mrh.round_number_in_match ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query match history: %w", err)
	}
	defer rows.Close()

	var out []HistoryRow
	for rows.Next() {
		var row HistoryRow
		var winnerTeamID sql.NullString
		if err := rows.Scan(
			&row.TournamentMatchID, &row.RoundName, &row.FinalStatus, &winnerTeamID,
			&row.RoundNumber, &row.SongID, &row.SongDifficulty,
			&row.TeamAPercentage, &row.TeamBPercentage,
			&row.TeamAHealthAfter, &row.TeamBHealthAfter,
			&row.IsTiebreakerSong, &row.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("scan match history row: %w", err)
		}
		if winnerTeamID.Valid {
			row.WinnerTeamID = &winnerTeamID.String
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate match history rows: %w", err)
	}
	return out, nil
}

// RoundsForMatch returns every archived round for a single match, oldest
// first, for the `matchctl history` operator command.
func (a *MySQLArchiver) RoundsForMatch(ctx context.Context, tournamentMatchID int) ([]HistoryRow, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT
			tm.id, tm.round_name, tm.status, tm.winner_team_id,
			mrh.round_number_in_match, mrh.song_id, mrh.selected_difficulty,
			mrh.team1_percentage, mrh.team2_percentage,
			mrh.team1_health_after, mrh.team2_health_after,
			mrh.is_tiebreaker_song, mrh.recorded_at
		FROM tournament_matches tm
		JOIN match_rounds_history mrh ON mrh.tournament_match_id = tm.id
		WHERE tm.id = ?
		ORDER BY mrh.round_number_in_match ASC
	`, tournamentMatchID)
	if err != nil {
		return nil, fmt.Errorf("query rounds for match %d: %w", tournamentMatchID, err)
	}
	defer rows.Close()

	var out []HistoryRow
	for rows.Next() {
		var row HistoryRow
		var winnerTeamID sql.NullString
		if err := rows.Scan(
			&row.TournamentMatchID, &row.RoundName, &row.FinalStatus, &winnerTeamID,
			&row.RoundNumber, &row.SongID, &row.SongDifficulty,
			&row.TeamAPercentage, &row.TeamBPercentage,
			&row.TeamAHealthAfter, &row.TeamBHealthAfter,
			&row.IsTiebreakerSong, &row.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("scan round row: %w", err)
		}
		if winnerTeamID.Valid {
			row.WinnerTeamID = &winnerTeamID.String
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate round rows: %w", err)
	}
	return out, nil
}

// ReplaySteps decodes the full RoundSummary (including per-team damage
// breakdown) for every archived round of a match, oldest first, for the
// `matchctl replay` operator command.
func (a *MySQLArchiver) ReplaySteps(ctx context.Context, tournamentMatchID int) ([]models.RoundSummary, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT round_summary_json
		FROM match_rounds_history
		WHERE tournament_match_id = ?
		ORDER BY round_number_in_match ASC
	`, tournamentMatchID)
	if err != nil {
		return nil, fmt.Errorf("query replay steps for match %d: %w", tournamentMatchID, err)
	}
	defer rows.Close()

	var out []models.RoundSummary
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan round_summary_json: %w", err)
		}
		var summary models.RoundSummary
		if err := json.Unmarshal(raw, &summary); err != nil {
			return nil, fmt.Errorf("unmarshal round_summary_json: %w", err)
		}
		out = append(out, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate replay rows: %w", err)
	}
	return out, nil
}
