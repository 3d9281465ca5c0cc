package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rpggio/hourly/internal/domain/contract"
	"github.com/rpggio/hourly/internal/domain/timeentry"
	"github.com/rpggio/hourly/internal/notify"
	"github.com/rpggio/hourly/internal/presenter"
)

const dateLayout = "2006-01-02 15:04"

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo contracts into an empty store",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := open(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		seeded, err := s.app.SeedDemo(cmd.Context())
		if err != nil {
			return err
		}
		if !seeded {
			fmt.Fprintln(cmd.OutOrStdout(), "Store already has contracts; nothing seeded.")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Demo data seeded.")
		return nil
	},
}

var contractsCmd = &cobra.Command{
	Use:   "contracts",
	Short: "List contracts visible to the acting user",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := open(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		list, err := s.app.Contracts.List(cmd.Context(), s.actor)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-36s  %-24s  %-11s  %10s  %8s  %12s  %-7s\n", "ID", "Title", "Status", "Rate", "Hours", "Pending", "Running")
		for _, c := range list {
			running := ""
			if c.HasActiveSession {
				running = "yes"
			}
			fmt.Fprintf(out, "%-36s  %-24s  %-11s  %10s  %8.2f  %12s  %-7s\n",
				c.ID, truncate(c.Title, 24), c.Status, s.format(c.HourlyRate), c.TotalHoursLogged, s.format(c.EarningsPending), running)
		}
		return nil
	},
}

var entriesCmd = &cobra.Command{
	Use:   "entries [contract-id]",
	Short: "List a contract's time entries, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := open(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.authorize(cmd.Context(), args[0]); err != nil {
			return err
		}

		var list []timeentry.TimeEntry
		if query, _ := cmd.Flags().GetString("search"); query != "" {
			list, err = s.app.Tracking.SearchEntries(cmd.Context(), args[0], query, 0)
		} else {
			list, err = s.app.Tracking.ListEntries(cmd.Context(), args[0])
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-16s  %9s  %12s  %-9s  %s\n", "Start", "Minutes", "Earnings", "Status", "Description")
		for _, e := range list {
			fmt.Fprintf(out, "%-16s  %9.2f  %12s  %-9s  %s\n",
				e.StartTime.Local().Format(dateLayout), e.DurationMinutes, s.format(e.Earnings), e.Status, e.Description)
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [contract-id]",
	Short: "Write a contract's entries as CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := open(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.authorize(cmd.Context(), args[0]); err != nil {
			return err
		}

		var w io.Writer = cmd.OutOrStdout()
		if path, _ := cmd.Flags().GetString("output"); path != "" {
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
			defer f.Close()
			w = f
		}

		n, err := s.app.Reports.ExportContract(cmd.Context(), args[0], w)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d entries.\n", n)
		return nil
	},
}

var payCmd = &cobra.Command{
	Use:   "pay [contract-id]",
	Short: "Pay everything outstanding on a contract",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := open(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		out := cmd.OutOrStdout()
		board := presenter.NewContractBoard(s.actor, s.app.Contracts, s.app.Tracking, s.app.Payments, s.app.Reports, presenter.BoardConfig{
			Format: s.format,
			Notifier: notify.Func(func(_ context.Context, n notify.Notice) {
				if n.Message == "" {
					fmt.Fprintln(out, n.Title)
					return
				}
				fmt.Fprintf(out, "%s: %s\n", n.Title, n.Message)
			}),
			Logger: s.logger,
		})
		if err := board.Load(cmd.Context()); err != nil {
			return err
		}
		if err := board.Select(cmd.Context(), args[0]); err != nil {
			return err
		}

		yes, _ := cmd.Flags().GetBool("yes")
		_, err = board.PayDue(cmd.Context(), func(_ float64, formatted string) bool {
			if yes {
				return true
			}
			return confirm(cmd.InOrStdin(), out, fmt.Sprintf("Pay %s now?", formatted))
		})
		return err
	},
}

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage API keys (sqlite only)",
}

var apikeyAddCmd = &cobra.Command{
	Use:   "add [token]",
	Short: "Register a bearer token for a user and role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := open(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		if s.app.Stores.APIKeys == nil {
			return errors.New("api keys need the sqlite driver")
		}

		userID, _ := cmd.Flags().GetString("user")
		roleName, _ := cmd.Flags().GetString("key-role")
		description, _ := cmd.Flags().GetString("description")
		role, err := contract.ParseRole(roleName)
		if err != nil {
			return err
		}
		if strings.TrimSpace(userID) == "" {
			return errors.New("--user is required")
		}

		actor := contract.Actor{ID: userID, Role: role}
		if err := s.app.Stores.APIKeys.Add(cmd.Context(), args[0], actor, description); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Key added for %s (%s).\n", actor.ID, actor.Role)
		return nil
	},
}

func init() {
	entriesCmd.Flags().String("search", "", "only entries whose description matches")
	exportCmd.Flags().StringP("output", "o", "", "write to file instead of stdout")
	payCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	apikeyAddCmd.Flags().String("user", "", "user id the key acts as")
	apikeyAddCmd.Flags().String("key-role", string(contract.RoleFreelancer), "role the key acts as")
	apikeyAddCmd.Flags().String("description", "", "free-form note")
	apikeyCmd.AddCommand(apikeyAddCmd)
}

// authorize rejects contracts the acting user is not a party to.
func (s *session) authorize(ctx context.Context, contractID string) error {
	c, err := s.app.Contracts.Get(ctx, contractID)
	if err != nil {
		return err
	}
	if !s.actor.Sees(c) {
		return fmt.Errorf("%s %s is not a party to contract %s", s.actor.Role, s.actor.ID, contractID)
	}
	return nil
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N] ", prompt)
	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
