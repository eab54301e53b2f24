// Package cli implements the kanbanctl commands.
package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"kanban-board/client"
	"kanban-board/session"
)

const defaultAPIURL = "http://localhost:8080"

var errSignedOut = errors.New("not logged in; run kanbanctl login")

type app struct {
	apiURL     string
	configPath string
	debug      bool
	timeout    time.Duration

	log    *log.Logger
	sess   *session.Session
	client *client.Client
}

// NewRootCommand builds the kanbanctl command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "kanbanctl",
		Short:         "Kanban boards from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.apiURL, "api", "", "backend URL (default: saved value, $KANBAN_API_URL or "+defaultAPIURL+")")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "session file (default ~/.config/kanbanctl/config.yml)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "verbose logging")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 30*time.Second, "HTTP request timeout")

	root.AddCommand(
		a.registerCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.boardCmd(),
		a.columnCmd(),
		a.taskCmd(),
		a.watchCmd(),
	)
	return root
}

// Execute runs kanbanctl with the process arguments.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func (a *app) init(cmd *cobra.Command) error {
	a.log = log.New()
	a.log.SetOutput(cmd.ErrOrStderr())
	if a.debug {
		a.log.SetLevel(log.DebugLevel)
	}

	path := a.configPath
	if path == "" {
		p, err := session.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	a.sess = session.New(session.FileStore{Path: path})
	if err := a.sess.Init(); err != nil {
		return err
	}

	url := a.apiURL
	if url == "" {
		url = a.sess.APIURL()
	}
	if url == "" {
		url = os.Getenv("KANBAN_API_URL")
	}
	if url == "" {
		url = defaultAPIURL
	}
	a.apiURL = url
	a.client = client.New(url, a.sess, &http.Client{Timeout: a.timeout})
	a.log.WithFields(log.Fields{"api": url, "config": path}).Debug("kanbanctl ready")
	return nil
}

// initAuthed is the pre-run hook of command groups that need a token.
// Cobra runs only the nearest persistent hook, so it initialises too.
func (a *app) initAuthed(cmd *cobra.Command, args []string) error {
	if err := a.init(cmd); err != nil {
		return err
	}
	return a.requireSession()
}

func (a *app) requireSession() error {
	if a.sess.Token() == "" {
		return errSignedOut
	}
	return nil
}
