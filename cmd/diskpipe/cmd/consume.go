package cmd

import (
	"context"

	"github.com/haraqa/diskpipe"
	"github.com/haraqa/diskpipe/internal/metrics"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func (a *app) consumeCmd() *cobra.Command {
	consumeCmd := &cobra.Command{
		Use:   "consume [-f] <queue-path>",
		Short: "Write queued messages to standard output",
		Example: `  diskpipe consume /var/spool/jobs
  diskpipe consume -f --metrics-addr :9100 /var/spool/jobs`,
		Long: `Write the messages of a queue to standard output in the order they were
produced, freeing their disk space once written. Without --follow it stops as
soon as the queue is drained, with --follow it waits for new messages until
interrupted.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.ran = true
			follow, _ := cmd.Flags().GetBool("follow")
			return a.consume(cmd.Context(), args[0], follow)
		},
	}
	consumeCmd.Flags().BoolP("follow", "f", false, "follow the queue, continuously consume until interrupted")
	consumeCmd.Flags().String("metrics-addr", "", "serve prometheus metrics on this address, e.g. :9100")
	return consumeCmd
}

func (a *app) consume(ctx context.Context, path string, follow bool) (err error) {
	opts, err := a.options()
	if err != nil {
		return err
	}
	opts = append(opts, diskpipe.WithFollow(follow))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m, err := metrics.New(reg, path)
		if err != nil {
			return err
		}
		addr, done, err := metrics.Serve(runCtx, a.cfg.MetricsAddr, reg)
		if err != nil {
			return osError{err}
		}
		a.log.Infof("serving metrics on http://%s/metrics", addr)
		defer func() {
			cancel()
			if serr := <-done; serr != nil {
				a.log.Warnf("metrics server: %v", serr)
			}
		}()
		opts = append(opts, diskpipe.WithMetrics(m))
	}

	c, err := diskpipe.NewConsumer(path, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	err = c.Run(runCtx, a.stdout)
	if errors.Cause(err) == context.Canceled && ctx.Err() != nil {
		a.log.Debugf("interrupted, stopped consuming %s", path)
		return nil
	}
	return err
}
