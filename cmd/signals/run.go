package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vango-dev/signals/internal/errors"
	"github.com/vango-dev/signals/internal/graph"
	"github.com/vango-dev/signals/pkg/middleware"
)

func runCmd(flags *globalFlags) *cobra.Command {
	var (
		sets  []string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Apply writes to the graph and print the result",
		Long: `Build the graph, apply each --set in order and print every node.

Values are JSON. A value that is not valid JSON is taken as a string, so
--set name=Ada and --set 'name="Ada"' are the same.

With --watch every change is printed as it propagates, starting with the
initial values.`,
		Example: `  signals run --set price=12 --set qty=3
  signals run --watch --set open=false`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			assignments := make([]assignment, 0, len(sets))
			for _, s := range sets {
				a, err := parseAssignment(s)
				if err != nil {
					return err
				}
				assignments = append(assignments, a)
			}

			logger := newLogger(cmd.ErrOrStderr(), cfg)
			g, err := graph.Build(cfg, graph.Options{
				Observer: middleware.Logger(logger),
				Logger:   logger,
			})
			if err != nil {
				return err
			}
			defer g.Close()

			out := cmd.OutOrStdout()
			if watch {
				stop, err := g.Registry.Watch(nil, func(name string, value json.RawMessage) {
					fmt.Fprintf(out, "%s = %s\n", name, value)
				})
				if err != nil {
					return err
				}
				defer stop()
			}

			for _, a := range assignments {
				if watch {
					fmt.Fprintf(out, "# set %s\n", a.name)
				}
				if err := g.Registry.Set(a.name, a.value); err != nil {
					return errors.New("E152").WithDetail(a.name).Wrap(err)
				}
			}

			if !watch {
				return printValues(out, g)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&sets, "set", "s", nil, "Write a signal, as name=value (repeatable)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Print every change as it happens")

	return cmd
}

// assignment is a parsed --set flag.
type assignment struct {
	name  string
	value json.RawMessage
}

func parseAssignment(s string) (assignment, error) {
	name, value, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return assignment{}, errors.New("E150").
			WithDetail(fmt.Sprintf("%q", s)).
			WithSuggestion("Use name=value, for example --set price=12")
	}

	raw := []byte(value)
	if !json.Valid(raw) {
		raw, _ = json.Marshal(value)
	}
	return assignment{name: name, value: raw}, nil
}

func printValues(w io.Writer, g *graph.Graph) error {
	names := g.Registry.Names()
	width := 0
	for _, name := range names {
		width = max(width, len(name))
	}
	for _, name := range names {
		v, err := g.Registry.Value(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%-*s = %s\n", width, name, v)
	}
	return nil
}
