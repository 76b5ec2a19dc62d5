// internal/actor/rotation.go
// Current-player derivation: player_order[index mod len], re-derived on
// every transition and on rehydration rather than stored independently
// (spec.md §4.B: "defensively re-derive current-song and current-player
// fields from current_song_index + player_order + match_song_list").

package actor

import "musicbattle-core/internal/models"

func deriveCurrentPlayer(roster []models.Member, order []string, index int) (*models.CurrentPlayer, error) {
	if len(order) == 0 {
		return nil, validationErrorf("player order is empty")
	}
	memberID := order[index%len(order)]
	member, ok := models.RosterMember(roster, memberID)
	if !ok {
		return nil, validationErrorf("player order references unknown member %q", memberID)
	}
	return &models.CurrentPlayer{
		MemberID:   member.MemberID,
		Nickname:   member.Nickname,
		Profession: member.Profession,
	}, nil
}

func deriveCurrentPlayers(state *models.MatchState) error {
	a, err := deriveCurrentPlayer(state.TeamARoster, state.TeamAPlayerOrderIDs, state.CurrentSongIndex)
	if err != nil {
		return err
	}
	b, err := deriveCurrentPlayer(state.TeamBRoster, state.TeamBPlayerOrderIDs, state.CurrentSongIndex)
	if err != nil {
		return err
	}
	state.TeamACurrentPlayer = a
	state.TeamBCurrentPlayer = b
	return nil
}
