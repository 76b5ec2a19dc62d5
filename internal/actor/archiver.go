// internal/actor/archiver.go
// The Match Actor talks to the History Archiver only through this
// interface, so internal/archiver's MySQL specifics never leak into the
// actor and actor tests can wire a fake.

package actor

import (
	"context"

	"musicbattle-core/internal/models"
)

// Archiver is the write-path the Match Actor calls into after a round
// completes (NextRound, ArchiveMatch). Both operations must be
// retry-safe per spec.md §4.D; failures are logged by the actor and
// never block the state machine.
type Archiver interface {
	ArchiveRound(ctx context.Context, tournamentMatchID int, roundNumberInMatch int, summary models.RoundSummary) error
	FinalizeMatch(ctx context.Context, tournamentMatchID int, state models.MatchState) error
}
