// internal/actor/actor.go
// The Match Actor: a per-match single-writer state machine. Generalizes
// the teacher's websocket.Hub (internal/websocket/hub.go) — a single
// goroutine serializing register/unregister/broadcast over channels —
// from "one hub, many tournaments" into "one goroutine per match,
// arbitrarily many request kinds, one set of subscribers."

package actor

import (
	"context"
	"log"
	"time"

	"musicbattle-core/internal/models"
	"musicbattle-core/internal/resolver"
)

type opKind int

const (
	opInitialize opKind = iota
	opCalculateRound
	opNextRound
	opSelectTiebreakerSong
	opResolveDraw
	opArchiveMatch
	opGetState
	opSubscribe
	opUnsubscribe
	opStop
)

type command struct {
	kind    opKind
	payload interface{}
	reply   chan commandReply
}

type commandReply struct {
	state models.MatchState
	sub   chan models.MatchState
	err   error
}

// Actor owns exactly one match's live state. All fields below the
// commands channel are touched only from the Run goroutine; external
// callers interact exclusively through the typed methods, which go
// through the channel.
type Actor struct {
	id       string
	commands chan command

	store    StateStore
	archiver Archiver
	logger   *log.Logger

	initialHealth int
	tunables      resolver.Tunables
	rng           resolver.RNG

	subBufferSize        int
	dropOldestOnOverflow bool

	state       models.MatchState
	subscribers map[chan models.MatchState]struct{}
}

func newActor(
	id string,
	initial models.MatchState,
	store StateStore,
	archiver Archiver,
	logger *log.Logger,
	initialHealth int,
	tunables resolver.Tunables,
	rng resolver.RNG,
	subBufferSize int,
	dropOldestOnOverflow bool,
) *Actor {
	return &Actor{
		id:                    id,
		commands:              make(chan command),
		store:                 store,
		archiver:              archiver,
		logger:                logger,
		initialHealth:         initialHealth,
		tunables:              tunables,
		rng:                   rng,
		subBufferSize:         subBufferSize,
		dropOldestOnOverflow:  dropOldestOnOverflow,
		state:                 initial,
		subscribers:           make(map[chan models.MatchState]struct{}),
	}
}

// Run is the actor's single goroutine; it must be started exactly once.
func (a *Actor) Run(ctx context.Context) {
	for {
		select {
		case cmd := <-a.commands:
			a.dispatch(ctx, cmd)
			if cmd.kind == opStop {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (a *Actor) dispatch(ctx context.Context, cmd command) {
	switch cmd.kind {
	case opInitialize:
		err := a.handleInitialize(ctx, cmd.payload.(models.ScheduleData))
		cmd.reply <- commandReply{state: a.state, err: err}
	case opCalculateRound:
		err := a.handleCalculateRound(ctx, cmd.payload.(models.RoundInput))
		cmd.reply <- commandReply{state: a.state, err: err}
	case opNextRound:
		err := a.handleNextRound(ctx)
		cmd.reply <- commandReply{state: a.state, err: err}
	case opSelectTiebreakerSong:
		err := a.handleSelectTiebreakerSong(ctx, cmd.payload.(models.TiebreakerSongSelection))
		cmd.reply <- commandReply{state: a.state, err: err}
	case opResolveDraw:
		err := a.handleResolveDraw(ctx, cmd.payload.(models.Team))
		cmd.reply <- commandReply{state: a.state, err: err}
	case opArchiveMatch:
		err := a.handleArchiveMatch(ctx)
		cmd.reply <- commandReply{state: a.state, err: err}
	case opGetState:
		cmd.reply <- commandReply{state: a.state}
	case opSubscribe:
		sub := a.handleSubscribe()
		cmd.reply <- commandReply{state: a.state, sub: sub}
	case opUnsubscribe:
		a.handleUnsubscribe(cmd.payload.(chan models.MatchState))
		cmd.reply <- commandReply{}
	case opStop:
		a.closeSubscribers()
		cmd.reply <- commandReply{}
	}
}

// call is the synchronous request/response bridge every public method
// uses: send a command, wait for its reply, respecting ctx cancellation
// on both legs.
func (a *Actor) call(ctx context.Context, kind opKind, payload interface{}) (models.MatchState, chan models.MatchState, error) {
	reply := make(chan commandReply, 1)
	select {
	case a.commands <- command{kind: kind, payload: payload, reply: reply}:
	case <-ctx.Done():
		return models.MatchState{}, nil, ctx.Err()
	}
	select {
	case r := <-reply:
		return r.state, r.sub, r.err
	case <-ctx.Done():
		return models.MatchState{}, nil, ctx.Err()
	}
}

// InitializeFromSchedule replaces state atomically from a freshly
// Scheduled (or already-initialized, idempotently) actor.
func (a *Actor) InitializeFromSchedule(ctx context.Context, data models.ScheduleData) (models.MatchState, error) {
	state, _, err := a.call(ctx, opInitialize, data)
	return state, err
}

// CalculateRound scores the current song and advances the state machine.
func (a *Actor) CalculateRound(ctx context.Context, input models.RoundInput) (models.MatchState, error) {
	state, _, err := a.call(ctx, opCalculateRound, input)
	return state, err
}

// NextRound archives the finished round and opens the next one.
func (a *Actor) NextRound(ctx context.Context) (models.MatchState, error) {
	state, _, err := a.call(ctx, opNextRound, nil)
	return state, err
}

// SelectTiebreakerSong appends the system-picked tiebreaker song.
func (a *Actor) SelectTiebreakerSong(ctx context.Context, sel models.TiebreakerSongSelection) (models.MatchState, error) {
	state, _, err := a.call(ctx, opSelectTiebreakerSong, sel)
	return state, err
}

// ResolveDraw picks the winner of a drawn match and archives it.
func (a *Actor) ResolveDraw(ctx context.Context, winner models.Team) (models.MatchState, error) {
	state, _, err := a.call(ctx, opResolveDraw, winner)
	return state, err
}

// ArchiveMatch finalizes the match into the external store and archives
// the actor.
func (a *Actor) ArchiveMatch(ctx context.Context) (models.MatchState, error) {
	state, _, err := a.call(ctx, opArchiveMatch, nil)
	return state, err
}

// GetState returns a read-only snapshot.
func (a *Actor) GetState(ctx context.Context) (models.MatchState, error) {
	state, _, err := a.call(ctx, opGetState, nil)
	return state, err
}

// Subscribe opens a long-lived channel that receives the current state
// immediately, then every subsequent transition. The returned
// unsubscribe func must be called when the caller is done listening.
func (a *Actor) Subscribe(ctx context.Context) (models.MatchState, <-chan models.MatchState, func(), error) {
	state, sub, err := a.call(ctx, opSubscribe, nil)
	if err != nil {
		return models.MatchState{}, nil, func() {}, err
	}
	unsubscribe := func() {
		unsubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _, _ = a.call(unsubCtx, opUnsubscribe, sub)
	}
	return state, sub, unsubscribe, nil
}

// ---- operation handlers (single-goroutine, no locking needed) ----

func (a *Actor) handleInitialize(ctx context.Context, data models.ScheduleData) error {
	switch {
	case a.state.Status == models.MatchScheduled:
		if err := validateSchedule(data); err != nil {
			a.state.Status = models.MatchArchived
			a.state.LastError = err.Error()
			a.state.UpdatedAt = time.Now()
			_ = a.store.Save(ctx, a.id, a.state)
			a.broadcast()
			return err
		}
		a.state = models.MatchState{
			MatchActorID:        a.state.MatchActorID,
			TournamentMatchID:   data.TournamentMatchID,
			TeamAID:              data.TeamAID,
			TeamBID:              data.TeamBID,
			TeamAName:            data.TeamAName,
			TeamBName:            data.TeamBName,
			TeamARoster:          data.TeamARoster,
			TeamBRoster:          data.TeamBRoster,
			TeamAPlayerOrderIDs:  data.TeamAPlayerOrderIDs,
			TeamBPlayerOrderIDs:  data.TeamBPlayerOrderIDs,
			CurrentSongIndex:     0,
			MatchSongList:        data.MatchSongList,
			TeamAScore:           a.initialHealth,
			TeamBScore:           a.initialHealth,
			TeamAMirrorAvailable: true,
			TeamBMirrorAvailable: true,
			Status:               models.MatchPendingScores,
			ScheduleVersion:      1,
			UpdatedAt:            time.Now(),
		}
		a.state.MatchSongList[0].Status = models.SongOngoing
		if err := deriveCurrentPlayers(&a.state); err != nil {
			return err
		}
		return a.persistAndBroadcast(ctx)

	case a.state.Status != models.MatchArchived && a.state.TournamentMatchID == data.TournamentMatchID:
		// Idempotent no-op: re-broadcast current state.
		a.broadcast()
		return nil

	default:
		return stateViolationErrorf("cannot InitializeFromSchedule from status %s", a.state.Status)
	}
}

func (a *Actor) handleCalculateRound(ctx context.Context, input models.RoundInput) error {
	if a.state.Status != models.MatchPendingScores {
		return stateViolationErrorf("CalculateRound is not allowed from status %s", a.state.Status)
	}
	song := a.state.CurrentSong()
	if song == nil {
		return notInitializedError()
	}
	if a.state.TeamACurrentPlayer == nil || a.state.TeamBCurrentPlayer == nil {
		return notInitializedError()
	}

	snap := resolver.Snapshot{
		TeamAHealth:          a.state.TeamAScore,
		TeamBHealth:          a.state.TeamBScore,
		TeamAMirrorAvailable: a.state.TeamAMirrorAvailable,
		TeamBMirrorAvailable: a.state.TeamBMirrorAvailable,
		TeamAProfession:      a.state.TeamACurrentPlayer.Profession,
		TeamBProfession:      a.state.TeamBCurrentPlayer.Profession,
		RoundNumber:          a.state.CurrentSongIndex,
		IsTiebreakerSong:     song.IsTiebreakerSong,
	}
	result, err := resolver.Resolve(snap, input, a.tunables, a.rng)
	if err != nil {
		return validationErrorf("%v", err)
	}

	a.state.TeamAScore = result.TeamAHealth
	a.state.TeamBScore = result.TeamBHealth
	a.state.TeamAMirrorAvailable = result.TeamAMirrorAvailable
	a.state.TeamBMirrorAvailable = result.TeamBMirrorAvailable

	teamAMemberID := a.state.TeamACurrentPlayer.MemberID
	teamBMemberID := a.state.TeamBCurrentPlayer.MemberID

	result.Summary.SongID = song.SongID
	result.Summary.SongDifficulty = song.SongDifficulty
	result.Summary.PickerTeamID = song.PickerTeamID
	result.Summary.PickerMemberID = song.PickerMemberID
	result.Summary.TeamAMemberID = teamAMemberID
	result.Summary.TeamBMemberID = teamBMemberID
	a.state.RoundSummary = &result.Summary

	song.TeamAMemberID = &teamAMemberID
	song.TeamBMemberID = &teamBMemberID
	song.TeamAPercentage = &input.TeamAPercentage
	song.TeamBPercentage = &input.TeamBPercentage
	song.TeamADamageDealt = &result.Summary.TeamADealt
	song.TeamBDamageDealt = &result.Summary.TeamBDealt
	song.TeamAEffectValue = &input.TeamAEffectValue
	song.TeamBEffectValue = &input.TeamBEffectValue
	song.TeamAHealthAfter = &result.TeamAHealth
	song.TeamBHealthAfter = &result.TeamBHealth
	song.TeamAMirrorFired = &result.TeamAMirrorFiredThisRound
	song.TeamBMirrorFired = &result.TeamBMirrorFiredThisRound
	song.Status = models.SongCompleted

	a.state.Status = matchStatusFromOutcome(result.Outcome)
	switch result.Outcome {
	case resolver.OutcomeTeamAWins:
		id := a.state.TeamAID
		a.state.WinnerTeamID = &id
	case resolver.OutcomeTeamBWins:
		id := a.state.TeamBID
		a.state.WinnerTeamID = &id
	}
	a.state.UpdatedAt = time.Now()

	if err := a.persistAndBroadcast(ctx); err != nil {
		return err
	}
	if a.state.Status.Terminal() {
		a.closeSubscribers()
	}
	return nil
}

func (a *Actor) handleNextRound(ctx context.Context) error {
	if a.state.Status != models.MatchRoundFinished {
		return stateViolationErrorf("NextRound is not allowed from status %s", a.state.Status)
	}
	if a.state.RoundSummary != nil {
		if err := a.archiver.ArchiveRound(ctx, a.state.TournamentMatchID, a.state.CurrentSongIndex, *a.state.RoundSummary); err != nil {
			a.logger.Printf("warning: failed to archive round %d for match %s: %v", a.state.CurrentSongIndex, a.id, err)
		}
	}
	nextIndex := a.state.CurrentSongIndex + 1
	if nextIndex >= len(a.state.MatchSongList) {
		return stateViolationErrorf("no scheduled song at index %d to advance to", nextIndex)
	}
	a.state.CurrentSongIndex = nextIndex
	a.state.MatchSongList[nextIndex].Status = models.SongOngoing
	a.state.RoundSummary = nil
	if err := deriveCurrentPlayers(&a.state); err != nil {
		return err
	}
	a.state.Status = models.MatchPendingScores
	a.state.UpdatedAt = time.Now()
	return a.persistAndBroadcast(ctx)
}

func (a *Actor) handleSelectTiebreakerSong(ctx context.Context, sel models.TiebreakerSongSelection) error {
	if a.state.Status != models.MatchTiebreakerPendingSong {
		return stateViolationErrorf("SelectTiebreakerSong is not allowed from status %s", a.state.Status)
	}
	song := models.MatchSong{
		SongID:           sel.SongID,
		SongTitle:        sel.SongTitle,
		SongDifficulty:   sel.SongDifficulty,
		SongElement:      sel.SongElement,
		CoverURL:         sel.CoverURL,
		BPM:              sel.BPM,
		PickerTeamID:     models.ReservedSystemPickerID,
		PickerMemberID:   models.ReservedSystemPickerID,
		IsTiebreakerSong: true,
		Status:           models.SongOngoing,
	}
	a.state.MatchSongList = append(a.state.MatchSongList, song)
	a.state.CurrentSongIndex = len(a.state.MatchSongList) - 1
	if err := deriveCurrentPlayers(&a.state); err != nil {
		return err
	}
	a.state.Status = models.MatchPendingScores
	a.state.UpdatedAt = time.Now()
	return a.persistAndBroadcast(ctx)
}

func (a *Actor) handleResolveDraw(ctx context.Context, winner models.Team) error {
	if a.state.Status != models.MatchDrawPendingResolution {
		return stateViolationErrorf("ResolveDraw is not allowed from status %s", a.state.Status)
	}
	switch winner {
	case models.TeamA:
		a.state.Status = models.MatchTeamAWins
		id := a.state.TeamAID
		a.state.WinnerTeamID = &id
	case models.TeamB:
		a.state.Status = models.MatchTeamBWins
		id := a.state.TeamBID
		a.state.WinnerTeamID = &id
	default:
		return validationErrorf("winner must be teamA or teamB, got %q", winner)
	}
	a.state.UpdatedAt = time.Now()
	// Per spec.md's transition table, ResolveDraw lands directly on
	// Archived; it does not pause on TeamAWins/TeamBWins first. A
	// FinalizeMatch failure is returned to the caller here.
	return a.doArchive(ctx, true)
}

func (a *Actor) handleArchiveMatch(ctx context.Context) error {
	if a.state.Status == models.MatchArchived {
		return stateViolationErrorf("match is already archived")
	}
	if !a.state.Status.Terminal() {
		a.logger.Printf("warning: ArchiveMatch called from non-terminal status %s for match %s", a.state.Status, a.id)
	}
	return a.doArchive(ctx, false)
}

// doArchive archives the last round, finalizes the external match record
// and moves the actor to Archived. Archiver failures are logged and never
// stop the transition; when surfaceFinalizeErr is set, a FinalizeMatch
// failure is also returned as an ErrArchiver error once archiving is done.
func (a *Actor) doArchive(ctx context.Context, surfaceFinalizeErr bool) error {
	if a.state.RoundSummary != nil {
		if err := a.archiver.ArchiveRound(ctx, a.state.TournamentMatchID, a.state.CurrentSongIndex, *a.state.RoundSummary); err != nil {
			a.logger.Printf("warning: failed to archive final round for match %s: %v", a.id, err)
		}
	}
	var finalizeErr error
	if err := a.archiver.FinalizeMatch(ctx, a.state.TournamentMatchID, a.state); err != nil {
		a.logger.Printf("warning: failed to finalize match %s: %v", a.id, err)
		finalizeErr = err
	}
	a.state.Status = models.MatchArchived
	a.state.UpdatedAt = time.Now()
	if err := a.persistAndBroadcast(ctx); err != nil {
		return err
	}
	a.closeSubscribers()
	if surfaceFinalizeErr && finalizeErr != nil {
		return &Error{Kind: ErrArchiver, Message: "failed to finalize match record", Err: finalizeErr}
	}
	return nil
}

func (a *Actor) handleSubscribe() chan models.MatchState {
	ch := make(chan models.MatchState, a.subBufferSize)
	ch <- a.state
	a.subscribers[ch] = struct{}{}
	return ch
}

func (a *Actor) handleUnsubscribe(ch chan models.MatchState) {
	if _, ok := a.subscribers[ch]; ok {
		delete(a.subscribers, ch)
		close(ch)
	}
}

// persistAndBroadcast writes the current state to embedded storage and,
// on success, broadcasts it. A write failure forces the actor to
// Archived (spec.md §4.B failure semantics) and still broadcasts so
// subscribers see the terminal state.
func (a *Actor) persistAndBroadcast(ctx context.Context) error {
	if err := a.store.Save(ctx, a.id, a.state); err != nil {
		a.state.Status = models.MatchArchived
		a.state.LastError = err.Error()
		a.state.UpdatedAt = time.Now()
		_ = a.store.Save(ctx, a.id, a.state)
		a.broadcast()
		a.closeSubscribers()
		return persistenceError(err)
	}
	a.broadcast()
	return nil
}

// broadcast pushes the current state to every live subscriber without
// blocking (policy from spec.md §9: bounded per-subscriber buffer,
// drop-oldest on overflow, documented via
// SubscriberConfig.DropOldestOnOverflow). A subscriber whose buffer is
// full loses its oldest queued snapshot when dropOldestOnOverflow is set;
// otherwise, or if the buffer is still full after that, it is closed and
// pruned. Dropped snapshots are not logged.
func (a *Actor) broadcast() {
	for ch := range a.subscribers {
		select {
		case ch <- a.state:
			continue
		default:
		}
		if !a.dropOldestOnOverflow {
			delete(a.subscribers, ch)
			close(ch)
			continue
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- a.state:
		default:
			delete(a.subscribers, ch)
			close(ch)
		}
	}
}

func (a *Actor) closeSubscribers() {
	for ch := range a.subscribers {
		close(ch)
	}
	a.subscribers = make(map[chan models.MatchState]struct{})
}

func matchStatusFromOutcome(outcome resolver.Outcome) models.MatchStatus {
	switch outcome {
	case resolver.OutcomeTeamAWins:
		return models.MatchTeamAWins
	case resolver.OutcomeTeamBWins:
		return models.MatchTeamBWins
	case resolver.OutcomeTiebreakerPendingSong:
		return models.MatchTiebreakerPendingSong
	case resolver.OutcomeDrawPendingResolution:
		return models.MatchDrawPendingResolution
	default:
		return models.MatchRoundFinished
	}
}

func validateSchedule(data models.ScheduleData) error {
	if len(data.TeamAPlayerOrderIDs) == 0 {
		return validationErrorf("team A player order must not be empty")
	}
	if len(data.TeamBPlayerOrderIDs) == 0 {
		return validationErrorf("team B player order must not be empty")
	}
	for _, id := range data.TeamAPlayerOrderIDs {
		if _, ok := models.RosterMember(data.TeamARoster, id); !ok {
			return validationErrorf("team A player order references unknown member %q", id)
		}
	}
	for _, id := range data.TeamBPlayerOrderIDs {
		if _, ok := models.RosterMember(data.TeamBRoster, id); !ok {
			return validationErrorf("team B player order references unknown member %q", id)
		}
	}
	if len(data.MatchSongList) == 0 {
		return validationErrorf("match song list must not be empty")
	}
	return nil
}
