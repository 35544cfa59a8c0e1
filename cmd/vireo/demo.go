package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/vireo-dev/vireo/pkg/features/resource"
	"github.com/vireo-dev/vireo/pkg/vireo"
)

func demoCmd() *cobra.Command {
	var (
		codecName string
		verbose   bool
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a producing pass and replay its results into a second runtime",
		Long: `Builds a small scope tree with async resources, resolves their
payloads, then reconstructs the same tree in a fresh runtime seeded with
those payloads. The second run never calls a fetcher: every resource is
matched to its precomputed result by hydration-key order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := vireo.NewCodec(codecName)
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: logLevel(verbose),
			}))

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			// Producing run: fetchers actually execute.
			producer := vireo.NewRuntime(
				vireo.WithLogger(logger),
				vireo.WithCodec(codec),
			)
			keys, payloads, err := produce(ctx, producer)
			if err != nil {
				return err
			}

			fmt.Println("producing run:")
			for _, key := range keys {
				fmt.Printf("  key %-3s -> %s\n", key, payloads[key])
			}

			// Reconstructing run: same tree shape, seeded payloads, no fetches.
			replayer := vireo.NewRuntime(
				vireo.WithLogger(logger),
				vireo.WithCodec(codec),
			)
			for key, payload := range payloads {
				replayer.ProvideResolved(key, payload)
			}

			fmt.Println("reconstructing run:")
			replayed := vireo.RunScope(replayer, func(cx vireo.Scope) []string {
				var lines []string
				buildTree(cx, func(name string, r *resource.Resource[string]) {
					lines = append(lines, fmt.Sprintf("  key %-3s -> %s = %q (state %s)",
						r.HydrationKey(), name, r.DataOr(""), r.State()))
				})
				return lines
			})
			for _, line := range replayed {
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&codecName, "codec", "json", "Payload codec: json or msgpack")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Overall deadline")

	return cmd
}

func logLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// buildTree creates the demo scope tree. Both runs go through this exact
// function so their hydration-key request order is identical.
func buildTree(cx vireo.Scope, visit func(name string, r *resource.Resource[string])) {
	sus := vireo.NewSuspenseContext(cx)
	vireo.ProvideContext(cx, sus)

	visit("greeting", fetchAfter(cx, "hello from the scope tree", 10*time.Millisecond))

	cx.ChildScope(func(child vireo.Scope) {
		visit("child/answer", fetchAfter(child, "forty-two", 20*time.Millisecond))
		visit("child/color", fetchAfter(child, "teal", 5*time.Millisecond))
	})
}

func fetchAfter(cx vireo.Scope, value string, delay time.Duration) *resource.Resource[string] {
	return resource.New(cx, func(ctx context.Context) (string, error) {
		select {
		case <-time.After(delay):
			return value, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
}

func produce(ctx context.Context, rt *vireo.Runtime) (keys []string, payloads map[string]string, err error) {
	_, disposer := vireo.RunScopeUndisposed(rt, func(cx vireo.Scope) struct{} {
		buildTree(cx, func(string, *resource.Resource[string]) {})
		return struct{}{}
	})
	defer disposer.Dispose()

	payloads, err = rt.ResolveResources(ctx)
	if err != nil {
		return nil, nil, err
	}

	for key := range payloads {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, payloads, nil
}
