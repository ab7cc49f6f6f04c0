package cli

import (
	"fmt"
	"strings"

	"github.com/mindmesh/mindmesh-client/internal/backend"
	"github.com/spf13/cobra"
)

func trimLine(s string) string {
	return strings.TrimRight(s, "\r\n")
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if email == "" {
				if email, err = a.prompt("Email: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = a.prompt("Password: "); err != nil {
					return err
				}
			}
			if strings.TrimSpace(email) == "" || password == "" {
				return fmt.Errorf("email and password are required")
			}

			resp, err := a.client().Login(cmd.Context(), strings.TrimSpace(email), password)
			if err != nil {
				return loginError(err)
			}
			return a.storeSession(resp)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func newSignupCmd(a *app) *cobra.Command {
	var username, email, password string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			for _, field := range []struct {
				label string
				value *string
			}{
				{"Username: ", &username},
				{"Email: ", &email},
				{"Password: ", &password},
			} {
				if *field.value != "" {
					continue
				}
				if *field.value, err = a.prompt(field.label); err != nil {
					return err
				}
			}
			if strings.TrimSpace(username) == "" || strings.TrimSpace(email) == "" || password == "" {
				return fmt.Errorf("username, email and password are required")
			}

			resp, err := a.client().Register(cmd.Context(), strings.TrimSpace(username), strings.TrimSpace(email), password)
			if err != nil {
				return err
			}
			return a.storeSession(resp)
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func (a *app) storeSession(resp *backend.AuthResponse) error {
	if resp.Token == "" {
		return fmt.Errorf("backend returned no token")
	}
	if err := a.creds.Save(resp.Token); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", displayName(resp.User))
	return nil
}

func loginError(err error) error {
	if backend.IsAuthError(err) {
		return fmt.Errorf("invalid email or password")
	}
	return err
}

func displayName(u backend.User) string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.creds.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Revalidate the stored token and show its user",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.authedClient()
			if err != nil {
				return err
			}
			user, err := client.Me(cmd.Context())
			if err != nil {
				return a.check(err)
			}
			fmt.Fprintf(a.out, "%s <%s>\n", displayName(*user), user.Email)
			return nil
		},
	}
}
