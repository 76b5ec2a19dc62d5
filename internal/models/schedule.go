// internal/models/schedule.go
// Input payloads accepted by the Match Actor's RPCs.

package models

// ScheduleData is the payload for InitializeFromSchedule: everything the
// Router's confirm_setup/start_live flow has gathered about a match
// before it goes live.
type ScheduleData struct {
	TournamentMatchID int `json:"tournament_match_id"`

	TeamAID   string `json:"team_a_id"`
	TeamBID   string `json:"team_b_id"`
	TeamAName string `json:"team_a_name"`
	TeamBName string `json:"team_b_name"`

	TeamARoster []Member `json:"team_a_roster"`
	TeamBRoster []Member `json:"team_b_roster"`

	TeamAPlayerOrderIDs []string `json:"team_a_player_order_ids"`
	TeamBPlayerOrderIDs []string `json:"team_b_player_order_ids"`

	MatchSongList []MatchSong `json:"match_song_list"`
}

// RoundInput is the payload for CalculateRound: the two teams' in-game
// completion percentages and any profession-independent effect values
// for the round.
type RoundInput struct {
	TeamAPercentage float64 `json:"team_a_percentage"`
	TeamBPercentage float64 `json:"team_b_percentage"`
	TeamAEffectValue int    `json:"team_a_effect_value"`
	TeamBEffectValue int    `json:"team_b_effect_value"`
}

// TiebreakerSongSelection is the payload for SelectTiebreakerSong, already
// enriched with catalog metadata by the Router (the Actor stays
// catalog-free).
type TiebreakerSongSelection struct {
	SongID         int     `json:"song_id"`
	SongTitle      string  `json:"song_title"`
	SongDifficulty string  `json:"song_difficulty"`
	SongElement    *string `json:"song_element,omitempty"`
	CoverURL       *string `json:"cover_url,omitempty"`
	BPM            *float64 `json:"bpm,omitempty"`
}
