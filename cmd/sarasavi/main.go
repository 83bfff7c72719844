// Command sarasavi is the terminal front end for the library API. It keeps a
// session file between invocations so login state survives across commands,
// mirroring how the web client keeps its session in browser storage.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"sarasavi/internal/client"
	"sarasavi/internal/config"
	"sarasavi/internal/screen"
	"sarasavi/internal/session"
)

var (
	flagConfig      string
	flagBaseURL     string
	flagSessionFile string
)

type app struct {
	cfg      config.File
	sessions session.Store
	api      *client.Client
}

// newApp loads config, opens the session file, and builds an API client with
// any saved token attached.
func newApp() (*app, error) {
	_ = godotenv.Load()
	cfg, err := config.LoadOrEnv(flagConfig)
	if err != nil {
		return nil, err
	}
	baseURL := flagBaseURL
	if baseURL == "" {
		baseURL = config.ResolveBaseURL(cfg.Client)
	}
	sessionFile := flagSessionFile
	if sessionFile == "" {
		sessionFile = cfg.Client.SessionFile
	}
	sessions, err := session.NewFileStore(sessionFile)
	if err != nil {
		return nil, err
	}
	api := client.New(baseURL)
	if sess, err := sessions.Load(); err == nil && sess.Token != "" {
		api.SetToken(sess.Token)
	}
	return &app{cfg: cfg, sessions: sessions, api: api}, nil
}

// promptPassword reads a password without echo when stdin is a terminal,
// falling back to a plain line read for piped input.
func promptPassword(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// newTable returns a tabwriter on stdout; callers must Flush.
func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

// reportBanner prints the screen's transient banner the way the web UI would
// render it.
func reportBanner(b *screen.Banner) {
	if msg := b.Success(); msg != "" {
		fmt.Println(msg)
	}
	if msg := b.Error(); msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	}
}

// friendlyErr rewrites the login redirect into something actionable on a
// terminal.
func friendlyErr(err error) error {
	var redirect *screen.RedirectError
	if errors.As(err, &redirect) {
		return errors.New("not signed in with the required role, run \"sarasavi login\" first")
	}
	return err
}

func main() {
	root := &cobra.Command{
		Use:           "sarasavi",
		Short:         "Sarasavi library client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", os.Getenv("SARASAVI_CONFIG"), "path to config.yaml")
	root.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "API base URL override")
	root.PersistentFlags().StringVar(&flagSessionFile, "session-file", "", "session file override")

	root.AddCommand(
		newSignupCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newBrowseCmd(),
		newBooksCmd(),
		newMemberCmd(),
		newMembersCmd(),
		newBorrowingsCmd(),
		newReservationsCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
