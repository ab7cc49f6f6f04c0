package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mindmesh/mindmesh-client/internal/backend"
	"github.com/spf13/cobra"
)

var errNotLoggedIn = errors.New("not logged in, run `mindmesh login` first")

// app carries what every command needs once settings are loaded.
type app struct {
	settings Settings
	creds    *Credentials
	in       *bufio.Reader
	out      io.Writer
}

// client returns an anonymous backend client.
func (a *app) client() *backend.Client {
	return backend.NewClient(a.settings.APIURL, backend.Options{Timeout: a.settings.Timeout})
}

// authedClient returns a client carrying the stored token.
func (a *app) authedClient() (*backend.Client, error) {
	token, err := a.creds.Token()
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, errNotLoggedIn
	}
	return a.client().WithToken(token), nil
}

// check clears the stored token when the backend rejected it.
func (a *app) check(err error) error {
	if err == nil {
		return nil
	}
	if backend.IsAuthError(err) {
		if clearErr := a.creds.Clear(); clearErr != nil {
			return fmt.Errorf("%w (clearing credentials: %v)", err, clearErr)
		}
		return fmt.Errorf("session expired, run `mindmesh login` again: %w", err)
	}
	return err
}

func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return trimLine(line), nil
}

// newRootCmd builds the command tree. in and out are the terminal streams.
func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	a := &app{in: bufio.NewReader(in), out: out}
	var configPath string

	root := &cobra.Command{
		Use:   "mindmesh",
		Short: "MindMesh terminal client",
		Long: `mindmesh logs daily wellness metrics, walks you through decision analysis
and shows your analytics, using the same backend as the web app.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			settings, err := LoadSettings(configPath, cmd)
			if err != nil {
				return err
			}
			a.settings = settings
			a.creds = NewCredentials(settings.CredentialsPath)
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(out)

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.mindmesh/config.yaml)")
	root.PersistentFlags().String("api-url", "", "backend API base URL")

	root.AddCommand(
		newLoginCmd(a),
		newSignupCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newLogCmd(a),
		newDecideCmd(a),
		newAnalyticsCmd(a),
		newInsightsCmd(a),
		newHistoryCmd(a),
	)
	return root
}

// Execute runs the root command
func Execute(version string) error {
	root := newRootCmd(os.Stdin, os.Stdout)
	root.Version = version
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
