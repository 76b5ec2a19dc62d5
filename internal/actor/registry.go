// internal/actor/registry.go
// Registry is the concurrency-safe map from match_actor_id to its Actor
// goroutine, realizing spec.md §9's "concurrency-safe map from
// match_actor_id to an actor task with an inbound message queue."

package actor

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"sync"

	"musicbattle-core/internal/models"
	"musicbattle-core/internal/resolver"
)

// cryptoRNG implements resolver.RNG with a crypto/rand-backed draw,
// generalizing the teacher's utils.RandomInt (internal/utils/helpers.go)
// into the Resolver's injected-RNG seam.
type cryptoRNG struct{}

func (cryptoRNG) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// DefaultRNG is the production Resolver RNG.
var DefaultRNG resolver.RNG = cryptoRNG{}

// DeriveActorID computes the deterministic actor identity for a
// tournament-match id (spec.md §4.E: `"match-<id>"`).
func DeriveActorID(tournamentMatchID int) string {
	return fmt.Sprintf("match-%d", tournamentMatchID)
}

// Registry owns every live Actor goroutine.
type Registry struct {
	mu     sync.Mutex
	actors map[string]*Actor

	store    StateStore
	archiver Archiver
	logger   *log.Logger

	initialHealth        int
	tunables              resolver.Tunables
	rng                   resolver.RNG
	subBufferSize         int
	dropOldestOnOverflow bool
}

// NewRegistry builds a Registry. rng may be nil to use DefaultRNG.
func NewRegistry(
	store StateStore,
	archiver Archiver,
	logger *log.Logger,
	initialHealth int,
	tunables resolver.Tunables,
	rng resolver.RNG,
	subBufferSize int,
	dropOldestOnOverflow bool,
) *Registry {
	if rng == nil {
		rng = DefaultRNG
	}
	return &Registry{
		actors:                make(map[string]*Actor),
		store:                 store,
		archiver:              archiver,
		logger:                logger,
		initialHealth:         initialHealth,
		tunables:              tunables,
		rng:                   rng,
		subBufferSize:         subBufferSize,
		dropOldestOnOverflow: dropOldestOnOverflow,
	}
}

// GetOrCreate returns the running Actor for matchActorID, creating and
// starting it (rehydrating from embedded storage, or instantiating a
// minimal Scheduled state for an unseen id) if it isn't already running.
func (r *Registry) GetOrCreate(ctx context.Context, matchActorID string) (*Actor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.actors[matchActorID]; ok {
		return a, nil
	}

	state, found, err := r.store.Load(ctx, matchActorID)
	if err != nil {
		return nil, persistenceError(err)
	}
	if !found {
		state = models.MatchState{MatchActorID: matchActorID, Status: models.MatchScheduled}
	} else if !state.Status.Terminal() && state.Status != models.MatchScheduled {
		if derr := deriveCurrentPlayers(&state); derr != nil {
			r.logger.Printf("warning: failed to re-derive current players for %s on rehydrate: %v", matchActorID, derr)
		}
	}

	a := newActor(matchActorID, state, r.store, r.archiver, r.logger, r.initialHealth, r.tunables, r.rng, r.subBufferSize, r.dropOldestOnOverflow)
	go a.Run(ctx)
	r.actors[matchActorID] = a
	return a, nil
}

// Lookup returns the running Actor for matchActorID without creating one.
func (r *Registry) Lookup(matchActorID string) (*Actor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.actors[matchActorID]
	return a, ok
}
