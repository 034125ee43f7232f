package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/jrsteele09/go-bookshelf-client/authapi"
	"github.com/jrsteele09/go-bookshelf-client/internal/utils"
	"github.com/jrsteele09/go-bookshelf-client/session"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newLoginCmd(app *App) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				fmt.Fprint(app.out, "Email: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil {
					return err
				}
				email = strings.TrimSpace(line)
			}
			if password == "" {
				fmt.Fprint(app.out, "Password: ")
				raw, err := term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Fprintln(app.out)
				if err != nil {
					return err
				}
				password = string(raw)
			}

			if err := app.core.Login(cmd.Context(), email, password); err != nil {
				return err
			}
			user := utils.Deref(app.core.CurrentUser())
			fmt.Fprintf(app.out, "Welcome, %s (%s)\n", user.FullName(), user.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func newRegisterCmd(app *App) *cobra.Command {
	var reg authapi.Registration
	var role string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg.Role = session.Role(role)
			if reg.Role != session.RoleStudent && reg.Role != session.RoleTeacher {
				return fmt.Errorf("role must be %q or %q", session.RoleStudent, session.RoleTeacher)
			}
			if reg.Password == "" {
				fmt.Fprint(app.out, "Password: ")
				raw, err := term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Fprintln(app.out)
				if err != nil {
					return err
				}
				reg.Password = string(raw)
			}

			if err := app.api.Register(cmd.Context(), reg); err != nil {
				return err
			}
			fmt.Fprintf(app.out, "Account created for %s. Run `bookshelf login` to sign in.\n", reg.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&reg.FirstName, "firstname", "", "first name")
	cmd.Flags().StringVar(&reg.LastName, "lastname", "", "last name")
	cmd.Flags().StringVar(&reg.Email, "email", "", "account email")
	cmd.Flags().StringVar(&reg.Password, "password", "", "account password (prompted when omitted)")
	cmd.Flags().StringVar(&role, "role", string(session.RoleStudent), "account role (student or teacher)")
	_ = cmd.MarkFlagRequired("firstname")
	_ = cmd.MarkFlagRequired("lastname")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and clear stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			app.core.Logout(cmd.Context())
			fmt.Fprintln(app.out, "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			user := app.core.CurrentUser()
			if user == nil {
				fmt.Fprintln(app.out, "Not logged in")
				return nil
			}
			fmt.Fprintf(app.out, "%s <%s> role=%s\n", user.FullName(), user.Email, user.Role)
			return nil
		},
	}
}

func newRefreshCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Revalidate the stored session against the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.core.IsAuthenticated() {
				fmt.Fprintln(app.out, "Not logged in")
				return nil
			}
			if err := app.core.RefreshSession(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(app.out, "Session is valid")
			return nil
		},
	}
}
