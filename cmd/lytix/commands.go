package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Lytix-Labs/lytix-go/prompts"
)

type remoteFactory func() (prompts.Remote, error)

func newRootCmd(newRemote remoteFactory) *cobra.Command {
	var dir string

	rootCmd := &cobra.Command{
		Use:           "lytix",
		Short:         "Manage and sync your Lytix prompts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dir, "dir", ".", "project root holding the lytix-prompts folder")

	promptCmd := &cobra.Command{
		Use:   "prompt",
		Short: "Manage and sync your lytix prompts",
	}
	promptCmd.AddCommand(
		newSyncCmd(newRemote, &dir),
		newCommitCmd(newRemote, &dir),
	)
	rootCmd.AddCommand(promptCmd)
	return rootCmd
}

func newSyncCmd(newRemote remoteFactory, dir *string) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync upstream prompts locally",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Syncing prompts from upstream...")

			remote, err := connect(cmd, newRemote)
			if err != nil {
				return err
			}
			upstream, err := remote.SavedPrompts(cmd.Context())
			if err != nil {
				return report(cmd, "Sync failed", err)
			}

			if force {
				fmt.Fprintln(out, "--force flag passed, ignoring local changes and overwriting...")
			}

			ws := prompts.NewWorkspace(*dir)
			res, err := ws.Sync(upstream, force)
			var conflict *prompts.ConflictError
			if errors.As(err, &conflict) {
				fmt.Fprintln(out, "Changes detected:")
				fmt.Fprintln(out)
				prompts.WriteDiff(out, conflict.Changes)
				fmt.Fprintln(cmd.ErrOrStderr(), "\nChanges detected. Please commit your changes using \"lytix prompt commit\" or pass in the --force flag to overwrite local changes")
				return err
			}
			if err != nil {
				return report(cmd, "Sync failed", err)
			}

			if res.Initialized {
				fmt.Fprintln(out, "New project detected! Initialized", ws.Dir())
			}
			for _, name := range res.Deleted {
				fmt.Fprintf(out, "Deleted local folder: %s\n", name)
			}
			fmt.Fprintln(out, "Prompts synced successfully!")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Force sync from upstream, ignoring local changes")
	return cmd
}

func newCommitCmd(newRemote remoteFactory, dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "commit",
		Short: "Commit your local prompts to the upstream",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Committing prompts to upstream...")

			remote, err := connect(cmd, newRemote)
			if err != nil {
				return err
			}

			res, err := prompts.NewWorkspace(*dir).Commit(cmd.Context(), remote)
			if res != nil && len(res.Changes) > 0 {
				fmt.Fprintln(out, "Changes detected:")
				fmt.Fprintln(out)
				prompts.WriteDiff(out, res.Changes)
			}

			switch {
			case errors.Is(err, prompts.ErrNothingToCommit):
				fmt.Fprintln(out, "No changes to commit!")
				return nil
			case err != nil:
				return report(cmd, "Commit failed", err)
			case len(res.Changes) == 0:
				fmt.Fprintln(out, "No changes detected!")
				return nil
			}

			fmt.Fprintln(out, "\nPrompts committed successfully!")
			return nil
		},
	}
}

func connect(cmd *cobra.Command, newRemote remoteFactory) (prompts.Remote, error) {
	remote, err := newRemote()
	if errors.Is(err, prompts.ErrMissingAPIKey) {
		fmt.Fprintln(cmd.ErrOrStderr(), "API key is not found. Set LX_API_KEY and try again.")
		return nil, err
	}
	if err != nil {
		return nil, report(cmd, "Failed to load configuration", err)
	}
	return remote, nil
}

func report(cmd *cobra.Command, msg string, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v. Please contact support@lytix.co if this persists.\n", msg, err)
	return err
}
