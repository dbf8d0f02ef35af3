package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hackgods/healsync/internal/alert"
	"github.com/hackgods/healsync/internal/backend"
	"github.com/hackgods/healsync/internal/config"
	"github.com/hackgods/healsync/internal/localstore"
	"github.com/hackgods/healsync/internal/logging"
	"github.com/hackgods/healsync/internal/session"
)

// app holds what every subcommand needs. It is filled in before the
// subcommand runs.
type app struct {
	cfg      config.ClientConfig
	logger   zerolog.Logger
	store    *localstore.Store
	api      *backend.Client
	notifier alert.Notifier
	out      io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		stop()
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{out: stdout}
	var verbose bool

	root := &cobra.Command{
		Use:           "healsync",
		Short:         "Book and look up HealSync appointments",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(stderr, verbose)
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		a.loginCmd(),
		a.logoutCmd(),
		a.slotsCmd(),
		a.bookCmd(),
		a.patientsCmd(),
		a.appointmentsCmd(),
		a.cancelCmd(),
	)

	root.SetOut(stdout)
	root.SetErr(stderr)
	return root
}

func (a *app) init(stderr io.Writer, verbose bool) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = logging.NewWithWriter(cfg.Env, stderr)
	if verbose {
		a.logger = a.logger.Level(zerolog.DebugLevel)
	} else {
		a.logger = a.logger.Level(zerolog.WarnLevel)
	}

	store, err := localstore.Open(cfg.StorePath)
	if err != nil {
		return err
	}
	a.store = store

	a.api = backend.New(cfg.APIBaseURL, nil, cfg.HTTPTimeout, a.logger)
	notifiers := alert.Multi{alert.NewWriterNotifier(a.out)}
	if verbose {
		notifiers = append(notifiers, alert.LogNotifier{Logger: a.logger})
	}
	a.notifier = notifiers
	return nil
}

// session returns the signed-in user, or nil with a hint when there is none.
func (a *app) session() (*session.Session, error) {
	s, err := session.Load(a.store)
	if err != nil {
		return nil, fmt.Errorf("%w (run `healsync login` first)", err)
	}
	return s, nil
}
