// internal/models/match.go
// Match state, roster, song, and round-summary types for the live match engine.

package models

import "time"

// MatchStatus is the tagged state of a live match. Transitions are owned
// by the Match Actor's state machine; nothing outside internal/actor
// mutates a MatchState's Status directly.
type MatchStatus string

const (
	MatchScheduled            MatchStatus = "scheduled"
	MatchPendingScores         MatchStatus = "pending_scores"
	MatchRoundFinished         MatchStatus = "round_finished"
	MatchTiebreakerPendingSong MatchStatus = "tiebreaker_pending_song"
	MatchDrawPendingResolution MatchStatus = "draw_pending_resolution"
	MatchTeamAWins             MatchStatus = "team_a_wins"
	MatchTeamBWins              MatchStatus = "team_b_wins"
	MatchArchived              MatchStatus = "archived"
)

// Terminal reports whether no further score/round mutations are accepted
// in this status (spec invariant: scores frozen once a side has won, a
// draw is pending resolution, or the match is archived).
func (s MatchStatus) Terminal() bool {
	switch s {
	case MatchTeamAWins, MatchTeamBWins, MatchDrawPendingResolution, MatchArchived:
		return true
	default:
		return false
	}
}

// Team identifies one of the two sides of a match.
type Team string

const (
	TeamA Team = "teamA"
	TeamB Team = "teamB"
)

// Profession governs a player's round-skill and mirror-skill behavior.
type Profession string

const (
	ProfessionAttacker  Profession = "attacker"
	ProfessionDefender  Profession = "defender"
	ProfessionSupporter Profession = "supporter"
	ProfessionNone      Profession = "none"
)

// Member is a roster entry: one player belonging to one team.
type Member struct {
	MemberID   string     `json:"member_id"`
	Nickname   string     `json:"nickname"`
	Profession Profession `json:"profession"`
}

// MatchSongStatus is the lifecycle of a single scheduled song slot.
type MatchSongStatus string

const (
	SongPending   MatchSongStatus = "pending"
	SongOngoing   MatchSongStatus = "ongoing"
	SongCompleted MatchSongStatus = "completed"
)

// ReservedSystemPickerID marks the picker of an appended tiebreaker song
// slot, which has no human picker.
const ReservedSystemPickerID = "system"

// MatchSong is one scheduled song slot with picker identity, difficulty,
// and (once completed) the round's result fields.
type MatchSong struct {
	SongID         int     `json:"song_id"`
	SongTitle      string  `json:"song_title"`
	SongDifficulty string  `json:"song_difficulty"`
	SongElement    *string `json:"song_element,omitempty"`
	CoverURL       *string `json:"cover_url,omitempty"`
	BPM            *float64 `json:"bpm,omitempty"`

	PickerTeamID    string `json:"picker_team_id"`
	PickerMemberID  string `json:"picker_member_id"`
	IsTiebreakerSong bool  `json:"is_tiebreaker_song"`

	Status MatchSongStatus `json:"status"`

	// Result fields, populated when this song's round completes.
	TeamAMemberID     *string  `json:"team_a_member_id,omitempty"`
	TeamBMemberID     *string  `json:"team_b_member_id,omitempty"`
	TeamAPercentage   *float64 `json:"team_a_percentage,omitempty"`
	TeamBPercentage   *float64 `json:"team_b_percentage,omitempty"`
	TeamADamageDealt  *int     `json:"team_a_damage_dealt,omitempty"`
	TeamBDamageDealt  *int     `json:"team_b_damage_dealt,omitempty"`
	TeamAEffectValue  *int     `json:"team_a_effect_value,omitempty"`
	TeamBEffectValue  *int     `json:"team_b_effect_value,omitempty"`
	TeamAHealthAfter  *int     `json:"team_a_health_after,omitempty"`
	TeamBHealthAfter  *int     `json:"team_b_health_after,omitempty"`
	TeamAMirrorFired  *bool    `json:"team_a_mirror_fired,omitempty"`
	TeamBMirrorFired  *bool    `json:"team_b_mirror_fired,omitempty"`
}

// CurrentPlayer is a team's selection for the in-progress round, derived
// from player_order_ids + current_song_index by modular rotation.
type CurrentPlayer struct {
	MemberID   string     `json:"member_id"`
	Nickname   string     `json:"nickname"`
	Profession Profession `json:"profession"`
}

// RoundSummary is the immutable, complete report of one round.
type RoundSummary struct {
	RoundNumber int `json:"round_number"`

	// Identity fields copied from the scored MatchSong/current players so
	// RoundSummary is self-contained for archival (it is "the unit of
	// history storage").
	SongID         int    `json:"song_id"`
	SongDifficulty string `json:"song_difficulty"`
	PickerTeamID   string `json:"picker_team_id"`
	PickerMemberID string `json:"picker_member_id"`
	TeamAMemberID  string `json:"team_a_member_id"`
	TeamBMemberID  string `json:"team_b_member_id"`

	TeamAPercentage float64 `json:"team_a_percentage"`
	TeamBPercentage float64 `json:"team_b_percentage"`
	TeamADigits     [4]int  `json:"team_a_digits"`
	TeamBDigits     [4]int  `json:"team_b_digits"`

	TeamABaseDamage int `json:"team_a_base_damage"`
	TeamBBaseDamage int `json:"team_b_base_damage"`

	// Damage dealt after own-skill modifiers, before opponent-Defender
	// invalidation (resolves ambiguity (a) in spec.md §9: "after own
	// skills, before opponent defender").
	TeamADealt int `json:"team_a_dealt"`
	TeamBDealt int `json:"team_b_dealt"`

	// Damage actually received by the opponent after Defender invalidation.
	TeamAReceived int `json:"team_a_received"`
	TeamBReceived int `json:"team_b_received"`

	DefenderDrawA *int `json:"defender_draw_a,omitempty"`
	DefenderDrawB *int `json:"defender_draw_b,omitempty"`

	TeamARawOverflow int `json:"team_a_raw_overflow"`
	TeamBRawOverflow int `json:"team_b_raw_overflow"`

	TeamAMirrorTriggered bool `json:"team_a_mirror_triggered"`
	TeamBMirrorTriggered bool `json:"team_b_mirror_triggered"`
	SimultaneousMirror   bool `json:"simultaneous_mirror"`

	TeamASupporterHealBase  int `json:"team_a_supporter_heal_base"`
	TeamBSupporterHealBase  int `json:"team_b_supporter_heal_base"`
	TeamASupporterHealBonus int `json:"team_a_supporter_heal_bonus"`
	TeamBSupporterHealBonus int `json:"team_b_supporter_heal_bonus"`

	TeamAEffectValue int `json:"team_a_effect_value"`
	TeamBEffectValue int `json:"team_b_effect_value"`

	TeamAHealthBefore int `json:"team_a_health_before"`
	TeamBHealthBefore int `json:"team_b_health_before"`
	TeamAHealthAfter  int `json:"team_a_health_after"`
	TeamBHealthAfter  int `json:"team_b_health_after"`

	IsTiebreakerSong bool `json:"is_tiebreaker_song"`

	StepLog []string `json:"step_log"`
}

// MatchState is the authoritative live state of exactly one match, owned
// by its Match Actor.
type MatchState struct {
	MatchActorID      string `json:"match_actor_id"`
	TournamentMatchID int    `json:"tournament_match_id"`

	TeamAID   string `json:"team_a_id"`
	TeamBID   string `json:"team_b_id"`
	TeamAName string `json:"team_a_name"`
	TeamBName string `json:"team_b_name"`

	TeamARoster []Member `json:"team_a_roster"`
	TeamBRoster []Member `json:"team_b_roster"`

	TeamAPlayerOrderIDs []string `json:"team_a_player_order_ids"`
	TeamBPlayerOrderIDs []string `json:"team_b_player_order_ids"`

	CurrentSongIndex int         `json:"current_song_index"`
	MatchSongList    []MatchSong `json:"match_song_list"`

	TeamAScore int `json:"team_a_score"`
	TeamBScore int `json:"team_b_score"`

	TeamAMirrorAvailable bool `json:"team_a_mirror_available"`
	TeamBMirrorAvailable bool `json:"team_b_mirror_available"`

	TeamACurrentPlayer *CurrentPlayer `json:"team_a_current_player,omitempty"`
	TeamBCurrentPlayer *CurrentPlayer `json:"team_b_current_player,omitempty"`

	RoundSummary *RoundSummary `json:"round_summary,omitempty"`

	Status MatchStatus `json:"status"`

	ScheduleVersion int    `json:"schedule_version"`
	LastError       string `json:"last_error,omitempty"`

	WinnerTeamID *string `json:"winner_team_id,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// CurrentSong returns a pointer to the song at CurrentSongIndex, or nil if
// the index is out of range (e.g. a freshly Scheduled match).
func (m *MatchState) CurrentSong() *MatchSong {
	if m.CurrentSongIndex < 0 || m.CurrentSongIndex >= len(m.MatchSongList) {
		return nil
	}
	return &m.MatchSongList[m.CurrentSongIndex]
}

// RosterMember looks up a member by id within a team's roster.
func RosterMember(roster []Member, memberID string) (Member, bool) {
	for _, m := range roster {
		if m.MemberID == memberID {
			return m, true
		}
	}
	return Member{}, false
}
