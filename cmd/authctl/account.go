package main

import (
	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-auth-client/identity"
	"github.com/jrsteele09/go-auth-client/internal/errors"
)

// NewRegisterCmd creates the register subcommand.
func NewRegisterCmd() *cobra.Command {
	req := &identity.RegisterRequest{}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			if req.ConfirmPassword == "" {
				req.ConfirmPassword = req.Password
			}
			if err := client.Register(cmd.Context(), *req); err != nil {
				cmd.PrintErrln(errors.UserMessage(err))
				return err
			}
			cmd.Println("Account created, you can now sign in")
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password")
	cmd.Flags().StringVar(&req.ConfirmPassword, "confirm-password", "", "repeat of the password, defaults to --password")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "last name")

	return cmd
}

// NewForgotPasswordCmd creates the forgot-password subcommand.
func NewForgotPasswordCmd() *cobra.Command {
	req := &identity.ForgotPasswordRequest{}

	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Request a password reset link",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.ForgotPassword(cmd.Context(), *req); err != nil {
				cmd.PrintErrln(errors.UserMessage(err))
				return err
			}
			cmd.Println(errors.ForgotPasswordMessage)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "account email")

	return cmd
}

// NewResetPasswordCmd creates the reset-password subcommand.
func NewResetPasswordCmd() *cobra.Command {
	req := &identity.ResetPasswordRequest{}

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password with the token from a reset link",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			if req.ConfirmPassword == "" {
				req.ConfirmPassword = req.Password
			}
			if err := client.ResetPassword(cmd.Context(), *req); err != nil {
				cmd.PrintErrln(errors.UserMessage(err))
				return err
			}
			cmd.Println("Password changed, you can now sign in")
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Token, "token", "", "token from the reset link")
	cmd.Flags().StringVar(&req.Password, "password", "", "new password")
	cmd.Flags().StringVar(&req.ConfirmPassword, "confirm-password", "", "repeat of the password, defaults to --password")

	return cmd
}
