package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sarasavi/internal/client"
	"sarasavi/internal/session"
)

func newSignupCmd() *cobra.Command {
	var username, email, firstName, lastName string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a library account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			password, err := promptPassword("Password: ")
			if err != nil {
				return err
			}
			user, err := app.api.CreateUser(cmd.Context(), client.CreateUserRequest{
				Username:  username,
				Email:     email,
				Password:  password,
				FirstName: firstName,
				LastName:  lastName,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Account created for %s (%s)\n", user.Username, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "account username")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&firstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "last name")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLoginCmd() *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and save the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			password, err := promptPassword("Password: ")
			if err != nil {
				return err
			}
			result, err := app.api.Login(cmd.Context(), client.Credentials{Username: username, Password: password})
			if err != nil {
				return err
			}
			if err := session.Login(app.sessions, result.User, result.Token); err != nil {
				return err
			}
			fmt.Printf("Signed in as %s (%s)\n", result.User.Username, result.User.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "account username")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the saved session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			if err := app.api.Logout(cmd.Context()); err != nil {
				// the server session may already be gone; clearing the local
				// file is what matters
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", err)
			}
			if err := app.sessions.Clear(); err != nil {
				return err
			}
			fmt.Println("Signed out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the saved session",
		RunE: func(_ *cobra.Command, _ []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			sess, err := app.sessions.Load()
			if err != nil {
				return err
			}
			if !sess.IsAuthenticated || sess.User == nil {
				fmt.Println("Not signed in")
				return nil
			}
			fmt.Printf("User: %s <%s> role=%s\n", sess.User.Username, sess.User.Email, sess.User.Role)
			if sess.IsMemberAuthenticated && sess.Member != nil {
				fmt.Printf("Member: %s (%s, expires %s)\n",
					sess.Member.MemberID, sess.Member.MembershipType, sess.Member.ExpiryDate.Format("2006-01-02"))
			}
			return nil
		},
	}
}
