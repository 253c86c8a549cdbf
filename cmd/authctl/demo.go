package main

import (
	"net/http"
	"sync"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-auth-client/auth"
	"github.com/jrsteele09/go-auth-client/guard"
	"github.com/jrsteele09/go-auth-client/identity"
	"github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/sessions"
)

type demoConfig struct {
	email     string
	password  string
	protected string
}

// NewDemoCmd creates the demo subcommand.
func NewDemoCmd() *cobra.Command {
	cfg := &demoConfig{}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Walk through a whole session in one process",
		Long: `Resolve the session, visit a protected page, sign in, call the API,
refresh and sign out, printing every guard decision and session change.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDemo(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.email, "email", "admin@test.com", "account email")
	cmd.Flags().StringVar(&cfg.password, "password", "1234", "account password")
	cmd.Flags().StringVar(&cfg.protected, "path", "/orders", "protected location to visit")

	return cmd
}

func runDemo(cmd *cobra.Command, cfg *demoConfig) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}

	updates, cancel := client.State().Subscribe()
	var (
		wg          sync.WaitGroup
		transitions []sessions.Snapshot
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for snapshot := range updates {
			transitions = append(transitions, snapshot)
		}
	}()

	err = demoSession(cmd, client, cfg)

	cancel()
	wg.Wait()
	client.Close()

	cmd.Println("Session changes:")
	for _, s := range transitions {
		line := "  " + s.Status.String()
		if s.Profile != nil {
			line += " as " + s.Profile.Email
		}
		cmd.Println(line)
	}
	return err
}

func demoSession(cmd *cobra.Command, client *auth.Client, cfg *demoConfig) error {
	ctx := cmd.Context()

	if err := client.Bootstrap(ctx); err != nil {
		return err
	}
	cmd.Printf("Bootstrap: %s\n", client.State().Snapshot().Status)

	decision := client.Visit(cfg.protected, client.Protected())
	printDecision(cmd, cfg.protected, decision, client)

	profile, err := client.SignIn(ctx, identity.LoginRequest{Email: cfg.email, Password: cfg.password},
		decision.Query.Get(guard.ReturnURLParam))
	if err != nil {
		cmd.PrintErrln(errors.UserMessage(err))
		return err
	}
	cmd.Printf("Signed in as %s, now at %s\n", profile.DisplayName(), client.Navigator().Current())

	login := client.Config().Routes.Login
	printDecision(cmd, login, client.Visit(login, client.GuestOnly()), client)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, client.Config().APIURL(client.Config().Endpoints.Me), nil)
	if err != nil {
		return err
	}
	resp, err := client.HTTP().Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	cmd.Printf("GET %s: %d\n", req.URL.Path, resp.StatusCode)

	if err := client.Refresh(ctx); err != nil {
		cmd.PrintErrln(errors.UserMessage(err))
		return err
	}
	cmd.Println("Refreshed the session")

	client.SignOut(ctx)
	cmd.Printf("Signed out, now at %s\n", client.Navigator().Current())

	printDecision(cmd, cfg.protected, client.Visit(cfg.protected, client.Protected()), client)
	return nil
}

func printDecision(cmd *cobra.Command, path string, d guard.Decision, client *auth.Client) {
	if d.Allow {
		cmd.Printf("Visit %s: allowed\n", path)
		return
	}
	cmd.Printf("Visit %s: redirected to %s\n", path, client.Navigator().Current())
}
