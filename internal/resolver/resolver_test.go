package resolver

import (
	"testing"

	"musicbattle-core/internal/models"
)

// fixedRNG always returns the same index, for deterministic Defender draws.
type fixedRNG struct{ idx int }

func (r fixedRNG) Intn(n int) int {
	if r.idx >= n {
		return n - 1
	}
	return r.idx
}

func defaultTunables() Tunables {
	return Tunables{
		MirrorHealthRestore: 20,
		MaxDamageDigit:       10,
		StandardRoundsCount:  6,
	}
}

func TestDigitize(t *testing.T) {
	cases := []struct {
		name string
		pct  float64
		want [4]int
	}{
		{"clean attacker scenario A", 99.8765, [4]int{9, 8, 7, 6}},
		{"clean attacker scenario B", 50.0000, [4]int{5, 10, 10, 10}},
		{"boundary 100", 100.0000, [4]int{10, 10, 10, 10}},
		{"boundary 0", 0.0, [4]int{10, 10, 10, 10}},
		{"boundary 101", 101.0, [4]int{10, 10, 10, 10}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := digitize(tc.pct)
			if err != nil {
				t.Fatalf("digitize(%v) returned error: %v", tc.pct, err)
			}
			if got != tc.want {
				t.Fatalf("digitize(%v) = %v, want %v", tc.pct, got, tc.want)
			}
		})
	}
}

// scenario 1 in spec.md §8: clean A-attacker wins a round.
func TestResolve_CleanAttackerWin(t *testing.T) {
	snap := Snapshot{
		TeamAHealth:          100,
		TeamBHealth:          100,
		TeamAMirrorAvailable: true,
		TeamBMirrorAvailable: true,
		TeamAProfession:      models.ProfessionAttacker,
		TeamBProfession:      models.ProfessionDefender,
		RoundNumber:          0,
	}
	input := models.RoundInput{TeamAPercentage: 99.8765, TeamBPercentage: 50.0000}

	// digits A = [9,8,7,6], max 9, Attacker -> B (Defender) draws from A's
	// slot list [9,8,7,6,9] (the duplicated max since A is an Attacker).
	// Index 0 lands on A's first digit (9), matching the scenario text
	// verbatim: "choosing A's first digit (9), damage to B becomes 30".
	rng := fixedRNG{idx: 0}

	result, err := Resolve(snap, input, defaultTunables(), rng)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if result.Summary.TeamABaseDamage != 30 {
		t.Errorf("team A base damage = %d, want 30", result.Summary.TeamABaseDamage)
	}
	if result.Summary.TeamBBaseDamage != 35 {
		t.Errorf("team B base damage = %d, want 35", result.Summary.TeamBBaseDamage)
	}
	if result.Summary.TeamADealt != 39 {
		t.Errorf("team A dealt = %d, want 39 (30 base + max digit 9)", result.Summary.TeamADealt)
	}
	if result.Summary.TeamBDealt != 35 {
		t.Errorf("team B dealt = %d, want 35 (defender applies no own-skill modifier)", result.Summary.TeamBDealt)
	}
	if result.Summary.DefenderDrawB == nil {
		t.Fatalf("expected team B (Defender) to draw a slot")
	}
	if *result.Summary.DefenderDrawB != 9 {
		t.Errorf("team B's defender draw = %d, want 9 (A's first digit)", *result.Summary.DefenderDrawB)
	}
	if result.Summary.DefenderDrawA != nil {
		t.Errorf("team A is not a Defender, should not draw a slot")
	}
	if result.Summary.TeamBReceived != 30 {
		t.Errorf("team B received = %d, want 30", result.Summary.TeamBReceived)
	}
	if result.Summary.TeamAReceived != 35 {
		t.Errorf("team A received = %d, want 35 (A is not a Defender)", result.Summary.TeamAReceived)
	}
	if result.TeamBHealth != 70 {
		t.Errorf("team B health after = %d, want 70", result.TeamBHealth)
	}
	if result.TeamAHealth != 65 {
		t.Errorf("team A health after = %d, want 65", result.TeamAHealth)
	}
	if result.Outcome != OutcomeRoundFinished {
		t.Errorf("outcome = %s, want round_finished", result.Outcome)
	}
	if result.TeamAMirrorFiredThisRound || result.TeamBMirrorFiredThisRound {
		t.Errorf("no mirror should have fired this round")
	}
}

// scenario 2 in spec.md §8: simultaneous mirror trigger.
func TestResolve_SimultaneousMirror(t *testing.T) {
	snap := Snapshot{
		TeamAHealth:          5,
		TeamBHealth:          5,
		TeamAMirrorAvailable: true,
		TeamBMirrorAvailable: true,
		TeamAProfession:      models.ProfessionAttacker,
		TeamBProfession:      models.ProfessionAttacker,
		RoundNumber:          1,
	}
	// Both percentages produce damage >= 5 to each side.
	input := models.RoundInput{TeamAPercentage: 99.9999, TeamBPercentage: 99.9999}

	result, err := Resolve(snap, input, defaultTunables(), fixedRNG{idx: 0})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if !result.Summary.SimultaneousMirror {
		t.Fatalf("expected simultaneous mirror trigger")
	}
	if result.TeamAHealth != 20 || result.TeamBHealth != 20 {
		t.Errorf("both teams should be restored to 20, got A=%d B=%d", result.TeamAHealth, result.TeamBHealth)
	}
	if result.TeamAMirrorAvailable || result.TeamBMirrorAvailable {
		t.Errorf("both mirrors should be consumed")
	}
	if !result.TeamAMirrorFiredThisRound || !result.TeamBMirrorFiredThisRound {
		t.Errorf("both mirror-fired flags should be set")
	}
}

// scenario 3 in spec.md §8: chain-reaction mirror (A fires, knocks B
// below zero via Attacker bonus, B fires too; A does not re-fire).
func TestResolve_ChainReactionMirror(t *testing.T) {
	snap := Snapshot{
		TeamAHealth:          3,
		TeamBHealth:          100,
		TeamAMirrorAvailable: true,
		TeamBMirrorAvailable: true,
		TeamAProfession:      models.ProfessionAttacker,
		TeamBProfession:      models.ProfessionNone,
		RoundNumber:          2,
	}
	// B starts at 50 rather than 100: raw damage plus one max-digit
	// mirror bonus is at most 60, so a chain from 100 HP is unreachable.
	// A: 99.9990 -> [9,9,9,9], 36 base + 9 Attacker bonus = 45 dealt, so
	// B survives the raw exchange at 5. B: 10.0000 -> [1,10,10,10] = 31
	// dealt, so A drops to -28 and its mirror fires (A -> 20). A's mirror
	// bonus (max digit 9) then takes B to -4, and B's mirror fires in the
	// second pass (B -> 20).
	snap.TeamBHealth = 50
	input := models.RoundInput{TeamAPercentage: 99.9990, TeamBPercentage: 10.0000}

	result, err := Resolve(snap, input, defaultTunables(), fixedRNG{idx: 0})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if !result.TeamAMirrorFiredThisRound {
		t.Fatalf("expected team A mirror to fire")
	}
	if result.TeamAMirrorAvailable {
		t.Errorf("team A mirror should be consumed")
	}
	if result.Summary.SimultaneousMirror {
		t.Errorf("expected sequential mirror passes, not a simultaneous trigger")
	}
	if !result.TeamBMirrorFiredThisRound {
		t.Fatalf("expected team B mirror to fire after A's Attacker mirror bonus")
	}
	if result.TeamBMirrorAvailable {
		t.Errorf("team B mirror should be consumed")
	}
	if result.TeamAHealth != 20 || result.TeamBHealth != 20 {
		t.Errorf("both teams should end at 20, got A=%d B=%d", result.TeamAHealth, result.TeamBHealth)
	}
}

// scenario 4 in spec.md §8: tie-break at the end of standard rounds.
func TestResolve_TiebreakerPendingSong(t *testing.T) {
	snap := Snapshot{
		TeamAHealth:          80,
		TeamBHealth:          80,
		TeamAMirrorAvailable: false,
		TeamBMirrorAvailable: false,
		TeamAProfession:      models.ProfessionNone,
		TeamBProfession:      models.ProfessionNone,
		RoundNumber:          5, // last standard round, 0-based index 5 of 6
		IsTiebreakerSong:     false,
	}
	// 0% -> [10,10,10,10] = 40 damage each, leaving both teams alive at 40.
	input := models.RoundInput{TeamAPercentage: 0, TeamBPercentage: 0}

	result, err := Resolve(snap, input, defaultTunables(), fixedRNG{idx: 0})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result.TeamAHealth != result.TeamBHealth {
		t.Fatalf("expected tied health, got A=%d B=%d", result.TeamAHealth, result.TeamBHealth)
	}
	if result.Outcome != OutcomeTiebreakerPendingSong {
		t.Errorf("outcome = %s, want tiebreaker_pending_song", result.Outcome)
	}
}

// scenario 5 in spec.md §8: both dead, documented tie-break favors A.
func TestResolve_BothDeadTieBreak(t *testing.T) {
	snap := Snapshot{
		TeamAHealth:          3,
		TeamBHealth:          3,
		TeamAMirrorAvailable: false,
		TeamBMirrorAvailable: false,
		TeamAProfession:      models.ProfessionNone,
		TeamBProfession:      models.ProfessionNone,
		RoundNumber:          3,
	}
	input := models.RoundInput{TeamAPercentage: 60.0000, TeamBPercentage: 60.0000}

	result, err := Resolve(snap, input, defaultTunables(), fixedRNG{idx: 0})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result.TeamAHealth > 0 || result.TeamBHealth > 0 {
		t.Fatalf("expected both teams dead, got A=%d B=%d", result.TeamAHealth, result.TeamBHealth)
	}
	if result.TeamAHealth != result.TeamBHealth {
		t.Fatalf("expected exact tie on health, got A=%d B=%d", result.TeamAHealth, result.TeamBHealth)
	}
	if result.Outcome != OutcomeTeamAWins {
		t.Errorf("outcome = %s, want team_a_wins (documented double-death tie-break)", result.Outcome)
	}
}

func TestResolve_TiebreakerRoundTiedIsDrawPending(t *testing.T) {
	snap := Snapshot{
		TeamAHealth:          50,
		TeamBHealth:          50,
		TeamAMirrorAvailable: false,
		TeamBMirrorAvailable: false,
		TeamAProfession:      models.ProfessionNone,
		TeamBProfession:      models.ProfessionNone,
		RoundNumber:          6,
		IsTiebreakerSong:     true,
	}
	input := models.RoundInput{TeamAPercentage: 0, TeamBPercentage: 0}

	result, err := Resolve(snap, input, defaultTunables(), fixedRNG{idx: 0})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result.Outcome != OutcomeDrawPendingResolution {
		t.Errorf("outcome = %s, want draw_pending_resolution", result.Outcome)
	}
}

func TestResolve_SupporterHealAndMirrorBonus(t *testing.T) {
	snap := Snapshot{
		TeamAHealth:          2,
		TeamBHealth:          100,
		TeamAMirrorAvailable: true,
		TeamBMirrorAvailable: true,
		TeamAProfession:      models.ProfessionSupporter,
		TeamBProfession:      models.ProfessionNone,
		RoundNumber:          0,
	}
	input := models.RoundInput{TeamAPercentage: 11.1111, TeamBPercentage: 0}

	result, err := Resolve(snap, input, defaultTunables(), fixedRNG{idx: 0})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result.Summary.TeamASupporterHealBase != maxDigit(result.Summary.TeamADigits) {
		// The supporter removes its max digit from its own dealt damage,
		// and its heal base equals that same max digit.
		t.Errorf("supporter heal base = %d, want max digit %d",
			result.Summary.TeamASupporterHealBase, maxDigit(result.Summary.TeamADigits))
	}
	if result.TeamAMirrorFiredThisRound {
		if result.Summary.TeamASupporterHealBonus != 2*result.Summary.TeamASupporterHealBase {
			t.Errorf("supporter heal bonus = %d, want double heal base %d",
				result.Summary.TeamASupporterHealBonus, 2*result.Summary.TeamASupporterHealBase)
		}
	}
}

func TestRoundHalfAwayFromZero(t *testing.T) {
	cases := []struct {
		in   float64
		want int
	}{
		{2.5, 3},
		{-2.5, -3},
		{2.4, 2},
		{-2.4, -2},
		{0, 0},
	}
	for _, tc := range cases {
		if got := roundHalfAwayFromZero(tc.in); got != tc.want {
			t.Errorf("roundHalfAwayFromZero(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
