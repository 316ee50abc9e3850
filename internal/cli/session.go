package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/bothive/internal/widget"
)

func newHistoryCommand(f *flags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "print the stored conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd.Context(), f, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			sess, restored := e.store.Load(cmd.Context())
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(sess)
			}
			if !restored || len(sess.History) == 0 {
				fmt.Fprintln(out, "No stored conversation.")
				return nil
			}
			render := widget.NewRenderer(out, e.cfg.Widget.BotName)
			for _, turn := range sess.History {
				render.Turn(turn)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the stored session as JSON")
	return cmd
}

func newClearCommand(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "forget the stored conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd.Context(), f, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Conversation cleared.")
			return nil
		},
	}
}

func newSessionCommand(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "print the stored session id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd.Context(), f, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			sess, restored := e.store.Load(cmd.Context())
			if !restored {
				fmt.Fprintln(cmd.OutOrStdout(), "No stored session.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d turns)\n", sess.SessionID, len(sess.History))
			return nil
		},
	}
}
