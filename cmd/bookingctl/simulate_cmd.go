package main

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/spf13/cobra"
	grpcSvc "github.com/vogiaan1904/ticketbottle-booking/internal/delivery/grpc"
	pkgGrpc "github.com/vogiaan1904/ticketbottle-booking/pkg/grpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/status"
)

type simulateConfig struct {
	addr        string
	users       int
	concurrency int
	userPrefix  string
	timeout     time.Duration
}

func newSimulateCommand() *cobra.Command {
	cfg := &simulateConfig{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Generate load against a running booking service over gRPC",
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&cfg.addr, "addr", "localhost:50057", "gRPC address of the booking service")
	flags.IntVar(&cfg.users, "users", 300, "number of simulated users")
	flags.IntVar(&cfg.concurrency, "concurrency", 50, "maximum in-flight requests")
	flags.StringVar(&cfg.userPrefix, "user-prefix", "sim-user", "prefix for generated user ids")
	flags.DurationVar(&cfg.timeout, "timeout", 10*time.Second, "per-request timeout")

	cmd.AddCommand(
		newSimulateJoinCommand(cfg),
		newSimulateBookCommand(cfg),
	)
	return cmd
}

func (c *simulateConfig) userID(i int) string {
	return fmt.Sprintf("%s-%d", c.userPrefix, i+1)
}

func (c *simulateConfig) client() (*grpcSvc.Client, func(), error) {
	if c.users <= 0 {
		return nil, nil, fmt.Errorf("--users must be positive")
	}
	conn, cleanup, err := pkgGrpc.NewClientConn(c.addr)
	if err != nil {
		return nil, nil, err
	}
	return grpcSvc.NewClient(conn), cleanup, nil
}

// fanOut calls fn once per simulated user with at most concurrency calls in
// flight. Per-user failures are recorded by fn, not returned.
func (c *simulateConfig) fanOut(ctx context.Context, fn func(ctx context.Context, i int)) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(max(c.concurrency, 1))
	for i := range c.users {
		if gCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			reqCtx, cancel := context.WithTimeout(gCtx, c.timeout)
			defer cancel()
			fn(reqCtx, i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func newSimulateJoinCommand(cfg *simulateConfig) *cobra.Command {
	var process bool
	cmd := &cobra.Command{
		Use:   "join",
		Short: "Have every simulated user join the queue at once",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, cleanup, err := cfg.client()
			if err != nil {
				return err
			}
			defer cleanup()

			t := newTally()
			start := time.Now()
			err = cfg.fanOut(ctx, func(ctx context.Context, i int) {
				out, err := client.JoinQueue(ctx, &grpcSvc.JoinQueueRequest{UserID: cfg.userID(i)})
				if err != nil {
					t.add(status.Code(err).String())
					return
				}
				t.add(string(out.Status))
			})
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%d joins in %v (%.0f/s)\n", cfg.users, elapsed.Round(time.Millisecond), float64(cfg.users)/elapsed.Seconds())
			t.write(w)

			if process {
				res, err := client.ProcessQueue(ctx, &grpcSvc.ProcessQueueRequest{})
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "processed queue: admitted %d\n", res.Admitted)
			}

			stats, err := client.QueueStats(ctx, &grpcSvc.QueueStatsRequest{})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(w, "waiting=%d active=%d/%d available=%d\n",
				stats.TotalWaiting, stats.ActiveCount, stats.MaxActive, stats.AvailableSlots)
			return err
		},
	}
	cmd.Flags().BoolVar(&process, "process", false, "trigger one manual promotion pass afterwards")
	return cmd
}

func newSimulateBookCommand(cfg *simulateConfig) *cobra.Command {
	var seat string
	var join bool
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Have every simulated user race to book the same seat",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if seat == "" {
				return fmt.Errorf("--seat is required")
			}
			client, cleanup, err := cfg.client()
			if err != nil {
				return err
			}
			defer cleanup()

			if join {
				err := cfg.fanOut(ctx, func(ctx context.Context, i int) {
					_, _ = client.JoinQueue(ctx, &grpcSvc.JoinQueueRequest{UserID: cfg.userID(i)})
				})
				if err != nil {
					return err
				}
			}

			t := newTally()
			var (
				mu     sync.Mutex
				winner string
			)
			err = cfg.fanOut(ctx, func(ctx context.Context, i int) {
				out, err := client.BookSeat(ctx, &grpcSvc.BookSeatRequest{SeatNumber: seat, UserID: cfg.userID(i)})
				if err != nil {
					t.add(outcomeOf(err))
					return
				}
				t.add("booked")
				mu.Lock()
				winner = out.UserID
				mu.Unlock()
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			t.write(w)
			if winner != "" {
				fmt.Fprintf(w, "seat %s went to %s\n", seat, winner)
			}
			if n := t.count("booked"); n > 1 {
				return fmt.Errorf("seat %s was booked %d times", seat, n)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&seat, "seat", "", "seat number every user tries to book")
	cmd.Flags().BoolVar(&join, "join", true, "join the queue before booking")
	return cmd
}

// outcomeOf labels a failed call by its status code and message so that the
// different conflict causes can be told apart.
func outcomeOf(err error) string {
	st, ok := status.FromError(err)
	if !ok {
		return "error"
	}
	return fmt.Sprintf("%s: %s", st.Code(), st.Message())
}

type tally struct {
	mu     sync.Mutex
	counts map[string]int
}

func newTally() *tally {
	return &tally{counts: make(map[string]int)}
}

func (t *tally) add(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[key]++
}

func (t *tally) count(key string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[key]
}

func (t *tally) write(w io.Writer) {
	t.mu.Lock()
	defer t.mu.Unlock()

	keys := make([]string, 0, len(t.counts))
	for k := range t.counts {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-40s %d\n", k, t.counts[k])
	}
}
