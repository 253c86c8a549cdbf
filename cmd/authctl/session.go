package main

import (
	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-auth-client/identity"
	"github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/sessions"
)

type loginConfig struct {
	email    string
	password string
}

// NewLoginCmd creates the login subcommand.
func NewLoginCmd() *cobra.Command {
	cfg := &loginConfig{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and print the profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogin(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.email, "email", "", "account email")
	cmd.Flags().StringVar(&cfg.password, "password", "", "account password")

	return cmd
}

func runLogin(cmd *cobra.Command, cfg *loginConfig) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	profile, err := client.SignIn(cmd.Context(), identity.LoginRequest{Email: cfg.email, Password: cfg.password}, "")
	if err != nil {
		cmd.PrintErrln(errors.UserMessage(err))
		return err
	}
	printProfile(cmd, profile)
	return nil
}

// NewMeCmd creates the me subcommand.
func NewMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Print the profile of the current session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Bootstrap(cmd.Context()); err != nil {
				return err
			}
			snapshot := client.State().Snapshot()
			if !snapshot.IsAuthenticated() {
				cmd.Println("Not signed in")
				return nil
			}
			printProfile(cmd, snapshot.Profile)
			return nil
		},
	}
}

// NewLogoutCmd creates the logout subcommand.
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			client.SignOut(cmd.Context())
			cmd.Println("Signed out")
			return nil
		},
	}
}

func printProfile(cmd *cobra.Command, profile *sessions.Profile) {
	cmd.Printf("Signed in as %s <%s>\n", profile.DisplayName(), profile.Email)
}
