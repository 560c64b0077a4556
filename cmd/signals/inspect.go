package main

import (
	"encoding/json"
	"log/slog"

	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"
	"github.com/vango-dev/signals/internal/graph"
)

// nodeInfo describes one node for inspect output.
type nodeInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Writable bool   `json:"writable"`
	Value    any    `json:"value"`
}

func inspectCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect [name...]",
		Short: "Show the nodes of the graph",
		Long:  `Build the graph and print each node's type, writability and initial value.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			g, err := graph.Build(cfg, graph.Options{Logger: newLogger(cmd.ErrOrStderr(), cfg)})
			if err != nil {
				return err
			}
			defer g.Close()

			names := args
			if len(names) == 0 {
				names = g.Registry.Names()
			}
			nodes, err := describe(g, names)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(nodes)
			}
			_, err = pp.Fprintln(out, nodes)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a pretty dump")

	return cmd
}

func describe(g *graph.Graph, names []string) ([]nodeInfo, error) {
	nodes := make([]nodeInfo, 0, len(names))
	for _, name := range names {
		raw, err := g.Registry.Value(name)
		if err != nil {
			return nil, err
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			slog.Debug("value is not plain JSON", "signal", name, "error", err)
			v = string(raw)
		}
		typ, _ := g.Type(name)
		nodes = append(nodes, nodeInfo{
			Name:     name,
			Type:     typ,
			Writable: g.Registry.Writable(name),
			Value:    v,
		})
	}
	return nodes, nil
}
