package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gestion-erp/gestion-go/api"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the stored session",
	Long: `Manage the session stored for the Gestion backend.

Subcommands:
  login     Sign in and store the token pair
  logout    Notify the server and remove the stored tokens
  status    Check whether the stored session is still accepted

Examples:
  gestion auth login --username maria
  gestion auth status
  gestion auth logout`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session tokens",
	RunE: func(cmd *cobra.Command, _ []string) error {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")

		if username == "" {
			return fmt.Errorf("--username is required")
		}
		if password == "" {
			var err error
			password, err = promptPassword()
			if err != nil {
				return err
			}
		}

		result, err := app.Client.Login(cmd.Context(), username, password)
		if err != nil {
			if api.IsAuthRejected(err) {
				return fmt.Errorf("invalid username or password")
			}
			return err
		}

		return app.print(result, func() string {
			return fmt.Sprintf("Signed in as %s.", username)
		})
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and remove the stored tokens",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := app.Client.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Signed out.")
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check whether the stored session is still accepted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		sess, err := app.Client.CheckAuth(cmd.Context())
		if err != nil {
			return err
		}
		if !sess.Authenticated {
			return app.print(sess, func() string {
				return "Not signed in. Run 'gestion auth login'."
			})
		}

		line := "Signed in."
		if creds, err := app.Store.Load(); err == nil {
			if exp := creds.ExpiresAt(); !exp.IsZero() {
				line = fmt.Sprintf("Signed in. Access token expires %s.", exp.Local().Format(time.RFC1123))
			}
		}
		return app.print(sess, func() string { return line })
	},
}

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimSpace(line)
	if password == "" {
		return "", fmt.Errorf("password is required")
	}
	return password, nil
}

func init() {
	authLoginCmd.Flags().String("username", "", "account username")
	authLoginCmd.Flags().String("password", "", "account password (prompted when omitted)")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}
