package timelinecmd

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/aliyun/tablestore-timeline-sub000/internal/scan"
	"github.com/aliyun/tablestore-timeline-sub000/internal/timeline"
	logpkg "github.com/aliyun/tablestore-timeline-sub000/pkg/log"
)

// newAppendCommand constructs the `append` subcommand.
func newAppendCommand(logger logpkg.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "append",
		Short: "Append a message under a new sequence id",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := readMessage(cmd)
			if err != nil {
				return err
			}
			async, _ := cmd.Flags().GetBool("async")
			return withTimeline(cmd, logger, func(ctx context.Context, tl *timeline.Timeline) error {
				var e timeline.Entry
				if async {
					e, err = tl.AppendAsync(m).Wait(ctx)
				} else {
					e, err = tl.Append(ctx, m)
				}
				if err != nil {
					return err
				}
				return printEntry(cmd.OutOrStdout(), e)
			})
		},
	}
	addMessageFlags(cmd)
	cmd.Flags().Bool("async", false, "Write through the batch writer and wait for the commit")
	return cmd
}

// newUpdateCommand constructs the `update` subcommand.
func newUpdateCommand(logger logpkg.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Overwrite the message at --seq",
		RunE: func(cmd *cobra.Command, _ []string) error {
			seq, _ := cmd.Flags().GetInt64("seq")
			m, err := readMessage(cmd)
			if err != nil {
				return err
			}
			return withTimeline(cmd, logger, func(ctx context.Context, tl *timeline.Timeline) error {
				e, err := tl.Update(ctx, seq, m)
				if err != nil {
					return err
				}
				return printEntry(cmd.OutOrStdout(), e)
			})
		},
	}
	addMessageFlags(cmd)
	cmd.Flags().Int64("seq", 0, "Sequence id")
	_ = cmd.MarkFlagRequired("seq")
	return cmd
}

// newGetCommand constructs the `get` subcommand.
func newGetCommand(logger logpkg.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print the message at --seq",
		RunE: func(cmd *cobra.Command, _ []string) error {
			seq, _ := cmd.Flags().GetInt64("seq")
			return withTimeline(cmd, logger, func(ctx context.Context, tl *timeline.Timeline) error {
				e, err := tl.Get(ctx, seq)
				if err != nil {
					return err
				}
				return printEntry(cmd.OutOrStdout(), e)
			})
		},
	}
	cmd.Flags().Int64("seq", 0, "Sequence id")
	_ = cmd.MarkFlagRequired("seq")
	return cmd
}

// newDeleteCommand constructs the `delete` subcommand.
func newDeleteCommand(logger logpkg.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the message at --seq",
		RunE: func(cmd *cobra.Command, _ []string) error {
			seq, _ := cmd.Flags().GetInt64("seq")
			return withTimeline(cmd, logger, func(ctx context.Context, tl *timeline.Timeline) error {
				if err := tl.Delete(ctx, seq); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "deleted:", seq)
				return nil
			})
		},
	}
	cmd.Flags().Int64("seq", 0, "Sequence id")
	_ = cmd.MarkFlagRequired("seq")
	return cmd
}

// newScanCommand constructs the `scan` subcommand.
func newScanCommand(logger logpkg.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Print the messages in a sequence range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dirName, _ := cmd.Flags().GetString("direction")
			dir, err := scan.ParseDirection(dirName)
			if err != nil {
				return err
			}
			from, to := int64(0), int64(math.MaxInt64)
			if dir == scan.DirectionBackward {
				from, to = to, from
			}
			if cmd.Flags().Changed("from") {
				from, _ = cmd.Flags().GetInt64("from")
			}
			if cmd.Flags().Changed("to") {
				to, _ = cmd.Flags().GetInt64("to")
			}
			limit, _ := cmd.Flags().GetInt64("limit")
			filter, _ := cmd.Flags().GetString("filter")
			timeout, _ := cmd.Flags().GetDuration("timeout")
			opts := timeline.ScanOptions{Range: scan.New(dir).From(from).To(to).Limit(limit), Filter: filter}

			return withTimeline(cmd, logger, func(ctx context.Context, tl *timeline.Timeline) error {
				if timeout > 0 {
					var cancel context.CancelFunc
					ctx, cancel = context.WithTimeout(ctx, timeout)
					defer cancel()
				}
				entries, next, err := tl.Scan(ctx, opts)
				if err != nil {
					return err
				}
				for _, e := range entries {
					if err := printEntry(cmd.OutOrStdout(), e); err != nil {
						return err
					}
				}
				if next != 0 {
					fmt.Fprintln(cmd.ErrOrStderr(), "next:", next)
				}
				return nil
			})
		},
	}
	cmd.Flags().String("direction", "forward", "Scan direction: forward|backward")
	cmd.Flags().Int64("from", 0, "Inclusive start sequence (default: timeline start for forward, end for backward)")
	cmd.Flags().Int64("to", 0, "Exclusive end sequence (default: timeline end for forward, start for backward)")
	cmd.Flags().Int64("limit", 100, "Maximum rows read (0 = no limit)")
	cmd.Flags().String("filter", "", "CEL filter over sequence, message_id, size, text, attributes, now_ms")
	cmd.Flags().Duration("timeout", 30*time.Second, "Scan timeout")
	return cmd
}

// newTailCommand constructs the `tail` subcommand.
func newTailCommand(logger logpkg.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Wait for messages after --after and print them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			after, _ := cmd.Flags().GetInt64("after")
			limit, _ := cmd.Flags().GetInt64("limit")
			follow, _ := cmd.Flags().GetBool("follow")
			return withTimeline(cmd, logger, func(ctx context.Context, tl *timeline.Timeline) error {
				for {
					entries, err := tl.Tail(ctx, after, limit)
					if err != nil {
						if follow && ctx.Err() != nil {
							return nil
						}
						return err
					}
					for _, e := range entries {
						if err := printEntry(cmd.OutOrStdout(), e); err != nil {
							return err
						}
						after = e.SequenceID
					}
					if !follow {
						return nil
					}
				}
			})
		},
	}
	cmd.Flags().Int64("after", 0, "Print messages with sequence ids greater than this")
	cmd.Flags().Int64("limit", 100, "Maximum messages per batch (0 = no limit)")
	cmd.Flags().Bool("follow", false, "Keep waiting for new messages until interrupted")
	return cmd
}
