// internal/resolver/resolver.go
// Pure damage-resolution algorithm (spec component A). Resolve never
// touches storage, subscribers, or global time/randomness — the RNG used
// for the Defender-invalidation draw is injected so tests are
// deterministic.

package resolver

import (
	"fmt"
	"math"
	"strconv"

	"musicbattle-core/internal/models"
)

// RNG is the seam through which the Defender-invalidation draw (the only
// intentionally non-deterministic step in the algorithm) is injected.
// Production code wires actor.DefaultRNG, which draws each index from
// crypto/rand; tests wire a fixed sequence fake.
type RNG interface {
	Intn(n int) int
}

// Outcome is what CalculateRound should transition the Match Actor to
// after a round resolves.
type Outcome string

const (
	OutcomeRoundFinished         Outcome = "round_finished"
	OutcomeTeamAWins             Outcome = "team_a_wins"
	OutcomeTeamBWins             Outcome = "team_b_wins"
	OutcomeTiebreakerPendingSong Outcome = "tiebreaker_pending_song"
	OutcomeDrawPendingResolution Outcome = "draw_pending_resolution"
)

// Tunables groups the spec.md §6 constants the Resolver needs. Callers
// build this from config.MatchConfig.
type Tunables struct {
	MirrorHealthRestore int
	MaxDamageDigit       int
	StandardRoundsCount  int
}

// Snapshot is the subset of MatchState the Resolver needs to score one
// round: current health, mirror availability, and the two current
// players' professions.
type Snapshot struct {
	TeamAHealth int
	TeamBHealth int

	TeamAMirrorAvailable bool
	TeamBMirrorAvailable bool

	TeamAProfession models.Profession
	TeamBProfession models.Profession

	// RoundNumber is the 0-based current_song_index of the round being
	// scored.
	RoundNumber int
	// IsTiebreakerSong is the current song's is_tiebreaker_song flag.
	IsTiebreakerSong bool
}

// Result is everything CalculateRound needs to apply to MatchState.
type Result struct {
	TeamAHealth int
	TeamBHealth int

	TeamAMirrorAvailable bool
	TeamBMirrorAvailable bool

	TeamAMirrorFiredThisRound bool
	TeamBMirrorFiredThisRound bool

	Outcome Outcome
	Summary models.RoundSummary
}

// Resolve runs the full multi-pass damage/mirror/chain-reaction algorithm
// described in spec.md §4.A, in the exact order given there.
func Resolve(snap Snapshot, input models.RoundInput, tun Tunables, rng RNG) (Result, error) {
	if input.TeamAPercentage < 0 || input.TeamAPercentage > 101 {
		input.TeamAPercentage = clamp(input.TeamAPercentage, 0, 101)
	}
	if input.TeamBPercentage < 0 || input.TeamBPercentage > 101 {
		input.TeamBPercentage = clamp(input.TeamBPercentage, 0, 101)
	}

	// Step 1: digitization.
	digitsA, err := digitize(input.TeamAPercentage)
	if err != nil {
		return Result{}, fmt.Errorf("digitize team A percentage: %w", err)
	}
	digitsB, err := digitize(input.TeamBPercentage)
	if err != nil {
		return Result{}, fmt.Errorf("digitize team B percentage: %w", err)
	}

	// Step 2: base damage.
	baseA := sum(digitsA)
	baseB := sum(digitsB)
	maxA := maxDigit(digitsA)
	maxB := maxDigit(digitsB)

	// Step 3: own-skill damage modifiers.
	dealtA, supporterHealBaseA := applyOwnSkill(baseA, maxA, snap.TeamAProfession)
	dealtB, supporterHealBaseB := applyOwnSkill(baseB, maxB, snap.TeamBProfession)

	// Step 4: opponent-Defender invalidation. A Defender invalidates one
	// slot drawn from the *attacking* team's own digit pool (the digits
	// that produced the damage being dealt into the Defender), not its
	// own.
	receivedA := dealtB
	receivedB := dealtA
	var drawA, drawB *int

	if snap.TeamAProfession == models.ProfessionDefender {
		drawn := drawDefenderSlot(digitsB, maxB, snap.TeamBProfession, rng)
		drawA = &drawn
		receivedA = saturateSub(receivedA, drawn)
	}
	if snap.TeamBProfession == models.ProfessionDefender {
		drawn := drawDefenderSlot(digitsA, maxA, snap.TeamAProfession, rng)
		drawB = &drawn
		receivedB = saturateSub(receivedB, drawn)
	}

	// Step 5: apply raw damage.
	healthA := snap.TeamAHealth - receivedA
	healthB := snap.TeamBHealth - receivedB
	rawOverflowA := maxInt(0, -healthA)
	rawOverflowB := maxInt(0, -healthB)

	// Step 6: mirror pass.
	mirrorAvailableA := snap.TeamAMirrorAvailable
	mirrorAvailableB := snap.TeamBMirrorAvailable
	firedA, firedB := false, false
	simultaneous := false

	var supporterHealBonusA, supporterHealBonusB int

	triggerA := healthA <= 0 && mirrorAvailableA
	triggerB := healthB <= 0 && mirrorAvailableB

	if triggerA && triggerB {
		// Simultaneous: both consume their mirror, both restored, no
		// profession-specific mirror effect fires for either.
		simultaneous = true
		healthA = tun.MirrorHealthRestore
		healthB = tun.MirrorHealthRestore
		mirrorAvailableA = false
		mirrorAvailableB = false
		firedA = true
		firedB = true
	} else {
		// Pass 1: A.
		if healthA <= 0 && mirrorAvailableA {
			healthA = tun.MirrorHealthRestore
			mirrorAvailableA = false
			firedA = true
			oppDamage, ownHeal := mirrorEffect(snap.TeamAProfession, maxA, rawOverflowA, supporterHealBaseA)
			healthB -= oppDamage
			supporterHealBonusA += ownHeal
		}
		// Pass 2: B, using A's post-effect health.
		if healthB <= 0 && mirrorAvailableB {
			healthB = tun.MirrorHealthRestore
			mirrorAvailableB = false
			firedB = true
			oppDamage, ownHeal := mirrorEffect(snap.TeamBProfession, maxB, rawOverflowB, supporterHealBaseB)
			healthA -= oppDamage
			supporterHealBonusB += ownHeal
		}
		// Pass 3: re-evaluate A in case B's mirror effect knocked A
		// below zero; A cannot fire twice.
		if !firedA && healthA <= 0 && mirrorAvailableA {
			healthA = tun.MirrorHealthRestore
			mirrorAvailableA = false
			firedA = true
			oppDamage, ownHeal := mirrorEffect(snap.TeamAProfession, maxA, rawOverflowA, supporterHealBaseA)
			healthB -= oppDamage
			supporterHealBonusA += ownHeal
		}
	}

	// Step 7: healing.
	healthA += supporterHealBaseA + supporterHealBonusA
	healthB += supporterHealBaseB + supporterHealBonusB

	// Step 8: effect values.
	healthA += input.TeamAEffectValue
	healthB += input.TeamBEffectValue

	// Step 9: rounding (half away from zero).
	healthA = roundHalfAwayFromZero(float64(healthA))
	healthB = roundHalfAwayFromZero(float64(healthB))

	// Step 10: outcome.
	outcome := determineOutcome(healthA, healthB, snap.RoundNumber, snap.IsTiebreakerSong, tun.StandardRoundsCount)

	summary := models.RoundSummary{
		RoundNumber:             snap.RoundNumber,
		TeamAPercentage:         input.TeamAPercentage,
		TeamBPercentage:         input.TeamBPercentage,
		TeamADigits:             digitsA,
		TeamBDigits:             digitsB,
		TeamABaseDamage:         baseA,
		TeamBBaseDamage:         baseB,
		TeamADealt:              dealtA,
		TeamBDealt:              dealtB,
		TeamAReceived:           receivedA,
		TeamBReceived:           receivedB,
		DefenderDrawA:           drawA,
		DefenderDrawB:           drawB,
		TeamARawOverflow:        rawOverflowA,
		TeamBRawOverflow:        rawOverflowB,
		TeamAMirrorTriggered:    firedA,
		TeamBMirrorTriggered:    firedB,
		SimultaneousMirror:      simultaneous,
		TeamASupporterHealBase:  supporterHealBaseA,
		TeamBSupporterHealBase:  supporterHealBaseB,
		TeamASupporterHealBonus: supporterHealBonusA,
		TeamBSupporterHealBonus: supporterHealBonusB,
		TeamAEffectValue:        input.TeamAEffectValue,
		TeamBEffectValue:        input.TeamBEffectValue,
		TeamAHealthBefore:       snap.TeamAHealth,
		TeamBHealthBefore:       snap.TeamBHealth,
		TeamAHealthAfter:        healthA,
		TeamBHealthAfter:        healthB,
		IsTiebreakerSong:        snap.IsTiebreakerSong,
		StepLog:                 buildStepLog(snap, digitsA, digitsB, dealtA, dealtB, receivedA, receivedB, drawA, drawB, firedA, firedB, simultaneous, healthA, healthB, outcome),
	}

	return Result{
		TeamAHealth:               healthA,
		TeamBHealth:               healthB,
		TeamAMirrorAvailable:      mirrorAvailableA,
		TeamBMirrorAvailable:      mirrorAvailableB,
		TeamAMirrorFiredThisRound: firedA,
		TeamBMirrorFiredThisRound: firedB,
		Outcome:                   outcome,
		Summary:                   summary,
	}, nil
}

// digitize clamps pct to [0, 101], renders it with exactly 4 fractional
// digits, and extracts the four-digit damage tuple D: the tens digit of
// (floor(pct) mod 100) followed by the first three of the four rendered
// fractional digits. Each digit then maps 0 -> 10, otherwise unchanged.
//
// The worked examples are the contract here, not the summary prose: for
// pct=99.8765 the tuple is [9,8,7,6] (tens digit of 99, then .876,
// dropping the trailing 5); for pct=50.0000 it is [5,10,10,10] (tens
// digit of 50, then .000 mapped to 10s); for pct=100.0000, 100 mod 100
// is 0 so the tuple is [10,10,10,10].
func digitize(pct float64) ([4]int, error) {
	pct = clamp(pct, 0, 101)
	formatted := strconv.FormatFloat(pct, 'f', 4, 64)

	dot := -1
	for i, r := range formatted {
		if r == '.' {
			dot = i
			break
		}
	}
	if dot == -1 || len(formatted) < dot+5 {
		return [4]int{}, fmt.Errorf("unexpected percentage rendering %q", formatted)
	}

	intPart, err := strconv.Atoi(formatted[:dot])
	if err != nil {
		return [4]int{}, fmt.Errorf("unexpected integer part in %q", formatted)
	}
	tensDigit := (intPart % 100) / 10

	var digits [4]int
	digits[0] = normalizeDigit(tensDigit)
	for i := 0; i < 3; i++ {
		d := int(formatted[dot+1+i] - '0')
		if d < 0 || d > 9 {
			return [4]int{}, fmt.Errorf("unexpected digit in %q", formatted)
		}
		digits[i+1] = normalizeDigit(d)
	}
	return digits, nil
}

func normalizeDigit(d int) int {
	if d == 0 {
		return 10
	}
	return d
}

func applyOwnSkill(base, max int, profession models.Profession) (dealt int, supporterHealBase int) {
	switch profession {
	case models.ProfessionAttacker:
		return base + max, 0
	case models.ProfessionSupporter:
		return maxInt(0, base-max), max
	default: // Defender, None
		return base, 0
	}
}

// drawDefenderSlot forms the attacking team's damage slot list (the four
// digits that produced the damage being dealt into the Defender, plus
// that team's own max digit a second time if it is itself an Attacker,
// so the Defender can cancel the Attacker bonus) and draws one slot
// uniformly at random to invalidate.
func drawDefenderSlot(digits [4]int, max int, profession models.Profession, rng RNG) int {
	slots := make([]int, 0, 5)
	slots = append(slots, digits[:]...)
	if profession == models.ProfessionAttacker {
		slots = append(slots, max)
	}
	idx := rng.Intn(len(slots))
	return slots[idx]
}

// mirrorEffect applies a firing team's profession-specific mirror effect.
// It returns the damage to subtract from the opponent's health and the
// extra heal (supporter_heal_bonus) to add to the firing team's own
// health in step 7.
func mirrorEffect(profession models.Profession, maxDigit, rawOverflow, supporterHealBase int) (opponentDamage int, ownHealBonus int) {
	switch profession {
	case models.ProfessionAttacker:
		return maxDigit, 0
	case models.ProfessionDefender:
		return rawOverflow, 0
	case models.ProfessionSupporter:
		return 0, 2 * supporterHealBase
	default:
		return 0, 0
	}
}

func determineOutcome(healthA, healthB, roundNumber int, isTiebreakerSong bool, standardRoundsCount int) Outcome {
	aDead := healthA <= 0
	bDead := healthB <= 0

	switch {
	case aDead && bDead:
		switch {
		case healthA > healthB:
			return OutcomeTeamAWins
		case healthB > healthA:
			return OutcomeTeamBWins
		default:
			// Documented tie-break: exact tie on double death, Team A wins.
			return OutcomeTeamAWins
		}
	case aDead:
		return OutcomeTeamBWins
	case bDead:
		return OutcomeTeamAWins
	}

	// Neither team is dead.
	if isTiebreakerSong {
		switch {
		case healthA == healthB:
			return OutcomeDrawPendingResolution
		case healthA > healthB:
			return OutcomeTeamAWins
		default:
			return OutcomeTeamBWins
		}
	}

	isLastStandardRound := roundNumber == standardRoundsCount-1
	if isLastStandardRound {
		switch {
		case healthA == healthB:
			return OutcomeTiebreakerPendingSong
		case healthA > healthB:
			return OutcomeTeamAWins
		default:
			return OutcomeTeamBWins
		}
	}

	return OutcomeRoundFinished
}

func buildStepLog(
	snap Snapshot,
	digitsA, digitsB [4]int,
	dealtA, dealtB, receivedA, receivedB int,
	drawA, drawB *int,
	firedA, firedB, simultaneous bool,
	healthA, healthB int,
	outcome Outcome,
) []string {
	log := make([]string, 0, 8)
	log = append(log, fmt.Sprintf("digits A=%v B=%v", digitsA, digitsB))
	log = append(log, fmt.Sprintf("dealt A=%d B=%d", dealtA, dealtB))
	if drawA != nil {
		log = append(log, fmt.Sprintf("team A defender drew %d", *drawA))
	}
	if drawB != nil {
		log = append(log, fmt.Sprintf("team B defender drew %d", *drawB))
	}
	log = append(log, fmt.Sprintf("received A=%d B=%d", receivedA, receivedB))
	switch {
	case simultaneous:
		log = append(log, "both teams triggered mirror simultaneously")
	default:
		if firedA {
			log = append(log, "team A mirror triggered")
		}
		if firedB {
			log = append(log, "team B mirror triggered")
		}
	}
	log = append(log, fmt.Sprintf("health after A=%d B=%d", healthA, healthB))
	log = append(log, fmt.Sprintf("outcome=%s", outcome))
	return log
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sum(digits [4]int) int {
	total := 0
	for _, d := range digits {
		total += d
	}
	return total
}

func maxDigit(digits [4]int) int {
	m := digits[0]
	for _, d := range digits[1:] {
		if d > m {
			m = d
		}
	}
	return m
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func saturateSub(v, sub int) int {
	return maxInt(0, v-sub)
}

// roundHalfAwayFromZero rounds to the nearest integer, breaking ties away
// from zero in both directions (math.Round already does this for
// positive values; made explicit here since the Resolver's health deltas
// can be negative).
func roundHalfAwayFromZero(v float64) int {
	if v >= 0 {
		return int(math.Floor(v + 0.5))
	}
	return -int(math.Floor(-v + 0.5))
}
