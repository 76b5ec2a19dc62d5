// internal/schedule/schedule.go
// Pre-live schedule management against the external relational store:
// creating a tournament_matches shell and confirming player orders /
// song list before a match actor ever exists. Grounded on the teacher's
// internal/repositories/match_repository.go (ExecContext, positional
// placeholders, context-aware).

package schedule

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"musicbattle-core/internal/models"
)

// Record is a tournament_matches row as seen by the Router, before or
// after confirm_setup but before the match is live.
type Record struct {
	ID                  int
	RoundName           string
	TeamAID             string
	TeamBID             string
	TeamAPlayerOrderIDs []string
	TeamBPlayerOrderIDs []string
	MatchSongList       []models.MatchSong
	ScheduledTime        *time.Time
	Status              string
	MatchActorID        string
}

// Repository manages the tournament_matches row across its pre-live
// lifecycle (create shell -> confirm_setup -> start_live).
type Repository struct {
	db *sql.DB
}

// NewRepository wraps a MySQL connection pool for schedule management.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateShell inserts a new tournament_matches row with no player order
// or song list yet, returning its id.
func (r *Repository) CreateShell(ctx context.Context, roundName, teamAID, teamBID string, scheduledTime *time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO tournament_matches (
			round_name, team1_id, team2_id, scheduled_time, status,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, roundName, teamAID, teamBID, scheduledTime, "scheduled", time.Now(), time.Now())
	if err != nil {
		return 0, fmt.Errorf("insert tournament_matches shell: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted id: %w", err)
	}
	return int(id), nil
}

// ConfirmSetup records player orders and the song list for a previously
// created schedule shell.
func (r *Repository) ConfirmSetup(ctx context.Context, id int, teamAOrder, teamBOrder []string, songs []models.MatchSong) error {
	teamAJSON, err := json.Marshal(teamAOrder)
	if err != nil {
		return fmt.Errorf("marshal team1 player order: %w", err)
	}
	teamBJSON, err := json.Marshal(teamBOrder)
	if err != nil {
		return fmt.Errorf("marshal team2 player order: %w", err)
	}
	songsJSON, err := json.Marshal(songs)
	if err != nil {
		return fmt.Errorf("marshal match song list: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE tournament_matches
		SET team1_player_order_json = ?,
		    team2_player_order_json = ?,
		    match_song_list_json = ?,
		    updated_at = ?
		WHERE id = ?
	`, teamAJSON, teamBJSON, songsJSON, time.Now(), id)
	if err != nil {
		return fmt.Errorf("update tournament_matches setup: %w", err)
	}
	return nil
}

// GetByID loads one tournament_matches row by id.
func (r *Repository) GetByID(ctx context.Context, id int) (Record, error) {
	var rec Record
	var teamAJSON, teamBJSON, songsJSON []byte
	var scheduledTime sql.NullTime
	var matchActorID sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT id, round_name, team1_id, team2_id,
		       team1_player_order_json, team2_player_order_json, match_song_list_json,
		       scheduled_time, status, match_actor_id
		FROM tournament_matches
		WHERE id = ?
	`, id).Scan(&rec.ID, &rec.RoundName, &rec.TeamAID, &rec.TeamBID,
		&teamAJSON, &teamBJSON, &songsJSON, &scheduledTime, &rec.Status, &matchActorID)
	if err == sql.ErrNoRows {
		return Record{}, fmt.Errorf("schedule %d: %w", id, sql.ErrNoRows)
	}
	if err != nil {
		return Record{}, fmt.Errorf("query tournament_matches %d: %w", id, err)
	}

	if len(teamAJSON) > 0 {
		if err := json.Unmarshal(teamAJSON, &rec.TeamAPlayerOrderIDs); err != nil {
			return Record{}, fmt.Errorf("unmarshal team1 player order: %w", err)
		}
	}
	if len(teamBJSON) > 0 {
		if err := json.Unmarshal(teamBJSON, &rec.TeamBPlayerOrderIDs); err != nil {
			return Record{}, fmt.Errorf("unmarshal team2 player order: %w", err)
		}
	}
	if len(songsJSON) > 0 {
		if err := json.Unmarshal(songsJSON, &rec.MatchSongList); err != nil {
			return Record{}, fmt.Errorf("unmarshal match song list: %w", err)
		}
	}
	if scheduledTime.Valid {
		rec.ScheduledTime = &scheduledTime.Time
	}
	if matchActorID.Valid {
		rec.MatchActorID = matchActorID.String
	}
	return rec, nil
}

// MarkLive stamps the match_actor_id on a tournament_matches row and sets
// its status to live.
func (r *Repository) MarkLive(ctx context.Context, id int, matchActorID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE tournament_matches
		SET match_actor_id = ?, status = ?, updated_at = ?
		WHERE id = ?
	`, matchActorID, "live", time.Now(), id)
	if err != nil {
		return fmt.Errorf("mark tournament_matches live: %w", err)
	}
	return nil
}
