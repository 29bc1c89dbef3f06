package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/room-scheduler/internal/client"
	"github.com/example/room-scheduler/internal/config"
)

const tokenEnv = "ROOMSCHED_TOKEN"

var errNotLoggedIn = errors.New("no session token: run `roomsched login` or set " + tokenEnv)

// App holds the CLI state shared by every subcommand.
type App struct {
	out    io.Writer
	errOut io.Writer

	server   string
	token    string
	noColor  bool
	loadConf func() (config.Config, error)

	root *cobra.Command
}

// NewApp builds the command tree. Output goes to out; diagnostics to errOut.
func NewApp(out, errOut io.Writer) *App {
	a := &App{out: out, errOut: errOut, loadConf: config.Load}

	a.root = &cobra.Command{
		Use:   "roomsched",
		Short: "Meeting room booking scheduler",
		Long: `roomsched runs the room booking API and talks to a running server.

The serve, user and audit commands work directly against the configured store.
The remaining commands go through the HTTP API at --server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	a.root.SetOut(out)
	a.root.SetErr(errOut)

	a.root.PersistentFlags().StringVar(&a.server, "server", "http://localhost:8080", "API base URL")
	a.root.PersistentFlags().StringVar(&a.token, "token", "", "session token (defaults to $"+tokenEnv+")")
	a.root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")

	a.root.AddCommand(a.serveCmd())
	a.root.AddCommand(a.loginCmd())
	a.root.AddCommand(a.userCmd())
	a.root.AddCommand(a.bookingsCmd())
	a.root.AddCommand(a.calendarCmd())
	a.root.AddCommand(a.auditCmd())

	return a
}

// Execute runs the command named by os.Args.
func (a *App) Execute(ctx context.Context) error {
	return a.root.ExecuteContext(ctx)
}

// remote returns an API client authenticated with the configured token.
func (a *App) remote() (*client.Client, error) {
	token := strings.TrimSpace(a.token)
	if token == "" {
		token = strings.TrimSpace(os.Getenv(tokenEnv))
	}
	if token == "" {
		return nil, errNotLoggedIn
	}
	return client.New(a.server, client.WithToken(token)), nil
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
