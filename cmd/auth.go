package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Obtain the Gmail OAuth token for an account",
		Long: `Authorize inboxsizer to read and label your Gmail messages.

  1. inboxsizer auth url            prints the Google consent URL
  2. inboxsizer auth save-code CODE stores the token for the account

Use --account to keep tokens for several Google accounts.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "url",
		Short: "Print the Google consent URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), cmd, runtimeOptions{})
			if err != nil {
				return err
			}
			defer rt.Close()

			url := rt.sc.AuthURL(rt.cfg.Account)
			if url == "" {
				return errors.New("OAuth client is not configured; set google.client_id and google.client_secret")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Visit this URL to authorize account %q:\n\n%s\n\n", rt.cfg.Account, url)
			fmt.Fprintf(cmd.OutOrStdout(), "Then run: inboxsizer auth save-code --account %s CODE\n", rt.cfg.Account)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "save-code CODE",
		Short: "Exchange an authorization code and store the token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd.Context(), cmd, runtimeOptions{})
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.sc.SaveAuthCode(cmd.Context(), rt.cfg.Account, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token saved for account %q.\n", rt.cfg.Account)
			return nil
		},
	})

	return cmd
}
