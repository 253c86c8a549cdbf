package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-auth-client/auth"
	"github.com/jrsteele09/go-auth-client/credential"
	"github.com/jrsteele09/go-auth-client/internal/config"
)

// Global flags available to all subcommands.
var (
	configFile string
	tokenFile  string
	verbose    bool
)

// NewRootCmd creates the root command for the authctl CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authctl",
		Short: "Sign in to an identity backend and call it on behalf of a user",
		Long: `authctl drives the authentication client against a backend: it signs in,
keeps the token mode credential in a file between invocations, reads the
profile and walks through a whole session with the navigation guards.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file path")
	flags.String("base-url", "http://localhost:8080", "origin of the identity backend")
	flags.String("api-prefix", "", "path every endpoint lives under (default /api)")
	flags.String("mode", "", "credential mode, cookie or token (default cookie)")
	flags.String("home-route", "", "location after sign in (default /)")
	flags.String("login-route", "", "location of the login page (default /login)")
	flags.StringVar(&tokenFile, "token-file", defaultTokenFile(), "where token mode keeps the access token")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log every request")

	cmd.AddCommand(NewLoginCmd())
	cmd.AddCommand(NewMeCmd())
	cmd.AddCommand(NewLogoutCmd())
	cmd.AddCommand(NewRegisterCmd())
	cmd.AddCommand(NewForgotPasswordCmd())
	cmd.AddCommand(NewResetPasswordCmd())
	cmd.AddCommand(NewDemoCmd())

	return cmd
}

func defaultTokenFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "authctl", "token.json")
}

// newClient builds an auth client from the config file and flags. Token mode
// sessions survive between invocations through the token file; cookie mode
// sessions only last as long as the process.
func newClient(cmd *cobra.Command) (*auth.Client, error) {
	cfg, err := config.LoadAuthConfig(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Logger()

	opts := []auth.Option{auth.WithLogger(logger)}
	if cfg.Mode == config.ModeToken {
		opts = append(opts, auth.WithTokenStore(credential.NewFileTokenStore(tokenFile)))
	}
	return auth.New(cfg, opts...)
}
