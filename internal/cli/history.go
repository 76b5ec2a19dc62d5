// internal/cli/history.go
// "history" subcommand: lists one match's archived rounds, the same
// read-only query the /api/match_history endpoint serves, filtered to a
// single tournament_match_id.
package cli

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"musicbattle-core/internal/archiver"
)

var historyCmd = &cobra.Command{
	Use:   "history <tournament_match_id>",
	Short: "List archived rounds for one match",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
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

	rows, err := a.RoundsForMatch(cmd.Context(), matchID)
	if err != nil {
		return fmt.Errorf("load match history: %w", err)
	}
	if len(rows) == 0 {
		fmt.Fprintf(os.Stdout, "No archived rounds found for match %d.\n", matchID)
		return nil
	}

	fmt.Fprintf(os.Stdout, "Match %d (%s)  status=%s\n\n", matchID, rows[0].RoundName, rows[0].FinalStatus)

	table := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
	table.Header("ROUND", "SONG", "DIFFICULTY", "TEAM1%", "TEAM2%", "TEAM1_HP", "TEAM2_HP", "TIEBREAKER", "RECORDED")

	for _, row := range rows {
		tiebreaker := "no"
		if row.IsTiebreakerSong {
			tiebreaker = "yes"
		}
		table.Append(
			fmt.Sprintf("%d", row.RoundNumber),
			fmt.Sprintf("%d", row.SongID),
			row.SongDifficulty,
			fmt.Sprintf("%.1f", row.TeamAPercentage),
			fmt.Sprintf("%.1f", row.TeamBPercentage),
			fmt.Sprintf("%d", row.TeamAHealthAfter),
			fmt.Sprintf("%d", row.TeamBHealthAfter),
			tiebreaker,
			row.RecordedAt.Format("2006-01-02 15:04:05"),
		)
	}
	table.Render()

	if rows[0].WinnerTeamID != nil {
		fmt.Fprintf(os.Stdout, "\nwinner: %s\n", *rows[0].WinnerTeamID)
	}
	return nil
}
