package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/addressable/internal/addressable"
	"github.com/five82/addressable/internal/app"
)

var (
	cfgFile     string
	envFile     string
	prefsFile   string
	origin      string
	pollSeconds int
	outputFmt   string

	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

var errNotLoggedIn = errors.New("not signed in (run: addressable login)")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "addressable",
	Short: "Addressable direct mail client",
	Long: `Addressable manages direct mail campaigns from the terminal.

Run without a subcommand to open the interactive dashboard. The subcommands
cover the same operations for scripting.`,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE:         runDashboard,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "addressable version %s\n", version)
		if commit != "unknown" {
			fmt.Fprintf(out, "  commit: %s\n", commit)
		}
		if buildTime != "unknown" {
			fmt.Fprintf(out, "  built:  %s\n", buildTime)
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "config file path (default ~/.config/addressable/config.toml)")
	pf.StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")
	pf.StringVar(&prefsFile, "prefs", "", "preferences file path (default ~/.config/addressable/prefs.toml)")
	pf.StringVar(&origin, "origin", "", "API origin override, e.g. http://localhost:8089")
	pf.IntVar(&pollSeconds, "poll", 0, "dashboard refresh interval in seconds")
	pf.StringVarP(&outputFmt, "output", "o", "table", "Output format (table, json, yaml)")

	rootCmd.AddCommand(versionCmd)
}

func appOptions() app.Options {
	return app.Options{
		ConfigPath: cfgFile,
		EnvFile:    envFile,
		PrefsPath:  prefsFile,
		Origin:     origin,
		PollEvery:  pollSeconds,
	}
}

func runDashboard(cmd *cobra.Command, args []string) error {
	return app.Run(cmd.Context(), appOptions())
}

// openServices opens the application services for a one-shot command.
// Logs go to stderr so stdout stays parseable.
func openServices(cmd *cobra.Command) (*app.Services, error) {
	if err := checkFormat(outputFmt); err != nil {
		return nil, err
	}
	opts := appOptions()
	opts.LogWriter = cmd.ErrOrStderr()
	svc, err := app.Open(opts)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// openSignedIn is openServices for commands that need stored credentials.
func openSignedIn(cmd *cobra.Command) (*app.Services, error) {
	svc, err := openServices(cmd)
	if err != nil {
		return nil, err
	}
	if !svc.Session.LoggedIn() {
		svc.Close()
		return nil, errNotLoggedIn
	}
	return svc, nil
}

// apiError signs the user out locally when the server rejected the stored
// credentials, and otherwise wraps err with what was being done.
func apiError(ctx context.Context, svc *app.Services, what string, err error) error {
	if errors.Is(err, addressable.ErrUnauthorized) {
		if clearErr := svc.Session.ForceLogout(ctx); clearErr != nil {
			return fmt.Errorf("%s: %w (clear credentials: %v)", what, err, clearErr)
		}
		return fmt.Errorf("%s: session expired, sign in again: %w", what, err)
	}
	return fmt.Errorf("%s: %w", what, err)
}
