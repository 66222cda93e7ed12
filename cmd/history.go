package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pageforge/internal/history"
	"github.com/ziadkadry99/pageforge/internal/session"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded generation calls",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent generation calls, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, _ := cmd.Flags().GetString("mode")
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		store, closeDB, err := openHistory()
		if err != nil {
			return err
		}
		defer closeDB()

		entries, err := store.Query(context.Background(), history.Filter{
			Mode:   history.Mode(mode),
			Status: history.Status(status),
			Limit:  limit,
		})
		if err != nil {
			return err
		}
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}
		if len(entries) == 0 {
			fmt.Println("No generation calls recorded yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tMODE\tSTATUS\tMODEL\tTOKENS\tCOST\tPROMPT")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t$%.4f\t%s\n",
				e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Mode, e.Status, e.Model,
				e.InputTokens, e.OutputTokens, e.CostUSD, shorten(e.Prompt, 48))
		}
		return w.Flush()
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize recorded generation calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeDB, err := openHistory()
		if err != nil {
			return err
		}
		defer closeDB()

		stats, err := store.Stats(context.Background())
		if err != nil {
			return err
		}

		fmt.Println("Generation History")
		fmt.Println("==================")
		fmt.Printf("  Calls:          %d\n", stats.Total)
		fmt.Println("  By mode:")
		for _, mode := range sortedKeys(stats.ByMode) {
			fmt.Printf("    %-12s %d\n", mode, stats.ByMode[history.Mode(mode)])
		}
		fmt.Println("  By status:")
		for _, status := range sortedKeys(stats.ByStatus) {
			fmt.Printf("    %-12s %d\n", status, stats.ByStatus[history.Status(status)])
		}
		fmt.Printf("  Input tokens:   %d\n", stats.InputTokens)
		fmt.Printf("  Output tokens:  %d\n", stats.OutputTokens)
		fmt.Printf("  Cost:           $%.4f\n", stats.CostUSD)
		return nil
	},
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete generation calls older than a given age",
	RunE: func(cmd *cobra.Command, args []string) error {
		olderThan, _ := cmd.Flags().GetDuration("older-than")
		if olderThan <= 0 {
			return fmt.Errorf("--older-than must be positive")
		}

		store, closeDB, err := openHistory()
		if err != nil {
			return err
		}
		defer closeDB()

		n, err := store.DeleteBefore(context.Background(), time.Now().Add(-olderThan))
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d entries.\n", n)
		return nil
	},
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List saved chat and workspace sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		store, closeDB, err := openSessions()
		if err != nil {
			return err
		}
		defer closeDB()

		sessions, err := store.List(context.Background(), limit)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("No saved sessions.")
			return nil
		}
		return printSessions(sessions)
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved session and its transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeDB, err := openSessions()
		if err != nil {
			return err
		}
		defer closeDB()

		if err := store.Delete(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted session %s.\n", args[0])
		return nil
	},
}

func init() {
	historyListCmd.Flags().String("mode", "", "only show calls of this mode (create, edit, visualize)")
	historyListCmd.Flags().String("status", "", "only show calls with this status (ok, failed, invalid)")
	historyListCmd.Flags().Int("limit", 20, "maximum number of entries")
	historyListCmd.Flags().Bool("json", false, "print entries as JSON")
	historyPruneCmd.Flags().Duration("older-than", 30*24*time.Hour, "age of the entries to delete")
	historyCmd.AddCommand(historyListCmd, historyStatsCmd, historyPruneCmd)

	sessionsCmd.Flags().Int("limit", 20, "maximum number of sessions (0 for all)")
	sessionsCmd.AddCommand(sessionsDeleteCmd)

	rootCmd.AddCommand(historyCmd, sessionsCmd)
}

func openHistory() (*history.Store, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	database, err := openDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	return history.NewStore(database), func() { database.Close() }, nil
}

func openSessions() (*session.SQLStore, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	database, err := openDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	return session.NewSQLStore(database), func() { database.Close() }, nil
}

func printSessions(sessions []session.Summary) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROJECT\tMESSAGES\tUPDATED")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", s.ID, s.Project, s.Messages, s.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func sortedKeys[K ~string, V any](m map[K]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	return keys
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
