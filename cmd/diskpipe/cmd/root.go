package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/haraqa/diskpipe"
	"github.com/haraqa/diskpipe/internal/config"
	"github.com/haraqa/diskpipe/internal/platform"
	"github.com/haraqa/diskpipe/internal/wait"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type app struct {
	stdin  io.Reader
	stdout io.Writer
	log    *logrus.Logger
	cfg    *config.Config
	// ran is set once a command starts doing its work, any error before
	// that is a usage error
	ran bool
}

// Execute runs the diskpipe command line with args and returns the process
// exit status. Log messages and help go to stderr, stdout only carries
// consumed messages.
func Execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	log := logrus.New()
	log.SetOutput(stderr)
	log.SetLevel(logrus.WarnLevel)

	a := &app{stdin: stdin, stdout: stdout, log: log, cfg: config.Default()}
	root := a.rootCmd()
	root.AddCommand(a.produceCmd(), a.consumeCmd())
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stderr)
	root.SetErr(stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := root.ExecuteContext(ctx)
	if err != nil && !a.ran {
		err = usageError{err}
	}
	code := exitCode(err)
	if code != exitOK {
		log.Error(err)
		if code == exitUsage {
			log.Error("run 'diskpipe --help' for usage")
		}
	}
	return code
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "diskpipe",
		Short: "diskpipe is a durable message queue kept in a single file",
		Example: `  echo hello | diskpipe produce /var/spool/jobs
  diskpipe consume /var/spool/jobs
  diskpipe consume -f --format varint /var/spool/events`,
		Long: `diskpipe passes messages from one producer to one consumer through a
regular file. Every produce appends standard input as one message, consume
writes messages to standard output in order and frees the disk space they used.
Both survive being killed at any point.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.configure(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errors.New("a command is required")
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})

	fs := root.PersistentFlags()
	fs.String("config", "", "YAML configuration file")
	fs.BoolP("verbose", "v", false, "log debug messages to stderr")
	fs.String("format", diskpipe.Fixed.String(), "message framing, fixed or varint")
	fs.Int("spin-budget", wait.DefaultBudget, "read attempts before blocking or giving up")
	fs.Int("sync-every", 1, "consumed messages per reclamation and fsync, 0 to reclaim every message without a trailing fsync")
	fs.Bool("portable", false, "avoid linux specific syscalls")
	fs.Duration("poll-interval", platform.DefaultPollInterval, "how often a portable consumer checks for new messages")
	return root
}

// configure loads the configuration file and applies flags on top of it
func (a *app) configure(cmd *cobra.Command) error {
	fs := cmd.Flags()
	if path, _ := fs.GetString("config"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}

	if fs.Changed("format") {
		a.cfg.Format, _ = fs.GetString("format")
	}
	if fs.Changed("spin-budget") {
		n, _ := fs.GetInt("spin-budget")
		a.cfg.SpinBudget = &n
	}
	if fs.Changed("sync-every") {
		n, _ := fs.GetInt("sync-every")
		a.cfg.SyncEvery = &n
	}
	if fs.Changed("portable") {
		a.cfg.Portable, _ = fs.GetBool("portable")
	}
	if fs.Changed("poll-interval") {
		d, _ := fs.GetDuration("poll-interval")
		if d <= 0 {
			return errors.Errorf("poll interval must be positive, got %v", d)
		}
		a.cfg.PollInterval = config.Duration(d)
	}
	if fs.Changed("metrics-addr") {
		a.cfg.MetricsAddr, _ = fs.GetString("metrics-addr")
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	a.log.SetLevel(a.cfg.Level())
	if verbose, _ := fs.GetBool("verbose"); verbose {
		a.log.SetLevel(logrus.DebugLevel)
	}
	return nil
}

// options turns the configuration into diskpipe options
func (a *app) options() ([]diskpipe.Option, error) {
	opts, err := a.cfg.Options()
	if err != nil {
		return nil, err
	}
	return append(opts, diskpipe.WithLogger(a.log)), nil
}

// exactArgs is cobra.ExactArgs reporting a usage error
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}
