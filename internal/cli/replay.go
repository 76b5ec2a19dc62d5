// internal/cli/replay.go
// "replay" subcommand: prints the archived RoundSummary step log for one
// match in order, for post-hoc dispute resolution. Read-only over the
// archive; never talks to a live actor.
package cli

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"musicbattle-core/internal/archiver"
)

var replayCmd = &cobra.Command{
	Use:   "replay <tournament_match_id>",
	Short: "Print the round-by-round resolver step log for one match",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

func runReplay(cmd *cobra.Command, args []string) error {
	matchID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid tournament_match_id %q: %w", args[0], err)
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	logger := log.New(os.Stderr, "[matchctl] ", log.LstdFlags)
	a := archiver.NewMySQLArchiver(db, logger)

	steps, err := a.ReplaySteps(cmd.Context(), matchID)
	if err != nil {
		return fmt.Errorf("load replay steps: %w", err)
	}
	if len(steps) == 0 {
		fmt.Fprintf(os.Stdout, "No archived rounds found for match %d.\n", matchID)
		return nil
	}

	for _, summary := range steps {
		fmt.Fprintf(os.Stdout, "=== round %d: song %d (%s) ===\n", summary.RoundNumber, summary.SongID, summary.SongDifficulty)
		fmt.Fprintf(os.Stdout, "team1 %.2f%% -> dealt %d, received %d, hp %d -> %d\n",
			summary.TeamAPercentage, summary.TeamADealt, summary.TeamAReceived,
			summary.TeamAHealthBefore, summary.TeamAHealthAfter)
		fmt.Fprintf(os.Stdout, "team2 %.2f%% -> dealt %d, received %d, hp %d -> %d\n",
			summary.TeamBPercentage, summary.TeamBDealt, summary.TeamBReceived,
			summary.TeamBHealthBefore, summary.TeamBHealthAfter)
		for _, line := range summary.StepLog {
			fmt.Fprintf(os.Stdout, "  - %s\n", line)
		}
		fmt.Fprintln(os.Stdout)
	}
	return nil
}
