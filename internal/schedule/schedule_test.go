package schedule

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"musicbattle-core/internal/models"
)

func TestCreateShell_ReturnsInsertedID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tournament_matches")).
		WillReturnResult(sqlmock.NewResult(42, 1))

	r := NewRepository(db)
	id, err := r.CreateShell(context.Background(), "Round 1", "team-a", "team-b", nil)
	if err != nil {
		t.Fatalf("CreateShell: %v", err)
	}
	if id != 42 {
		t.Errorf("expected id 42, got %d", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestConfirmSetup_MarshalsOrdersAndSongs(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE tournament_matches")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	r := NewRepository(db)
	songs := []models.MatchSong{{SongID: 1, SongDifficulty: "M 10"}}
	err = r.ConfirmSetup(context.Background(), 7, []string{"p1", "p2"}, []string{"p3", "p4"}, songs)
	if err != nil {
		t.Fatalf("ConfirmSetup: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetByID_UnmarshalsStoredJSON(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "round_name", "team1_id", "team2_id",
		"team1_player_order_json", "team2_player_order_json", "match_song_list_json",
		"scheduled_time", "status", "match_actor_id",
	}).AddRow(7, "Round 1", "team-a", "team-b",
		[]byte(`["p1","p2"]`), []byte(`["p3","p4"]`), []byte(`[]`),
		now, "scheduled", nil)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, round_name")).WillReturnRows(rows)

	r := NewRepository(db)
	rec, err := r.GetByID(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(rec.TeamAPlayerOrderIDs) != 2 || rec.TeamAPlayerOrderIDs[0] != "p1" {
		t.Errorf("unexpected team A order: %v", rec.TeamAPlayerOrderIDs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
