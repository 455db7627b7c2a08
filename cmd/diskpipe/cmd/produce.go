package cmd

import (
	"github.com/haraqa/diskpipe"
	"github.com/spf13/cobra"
)

func (a *app) produceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "produce <queue-path>",
		Short: "Append standard input to a queue as one message",
		Example: `  echo hello | diskpipe produce /var/spool/jobs
  diskpipe produce --format varint /var/spool/events < event.json`,
		Long: `Read standard input to the end and append it to the queue as a single
message. The queue file is created if it does not exist.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.ran = true
			opts, err := a.options()
			if err != nil {
				return err
			}
			n, err := diskpipe.Produce(args[0], a.stdin, opts...)
			if err != nil {
				return err
			}
			a.log.Debugf("produced %d byte message to %s", n, args[0])
			return nil
		},
	}
}
