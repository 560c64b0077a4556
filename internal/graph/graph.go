package graph

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/vango-dev/signals/internal/config"
	"github.com/vango-dev/signals/internal/errors"
	"github.com/vango-dev/signals/pkg/live"
	"github.com/vango-dev/signals/pkg/signals"
)

// Value types.
const (
	TypeNumber = "number"
	TypeString = "string"
	TypeBool   = "bool"
)

// Options configures Build.
type Options struct {
	// Observer is attached to every node. May be nil.
	Observer signals.Observer

	// Logger is passed to the registry.
	Logger *slog.Logger
}

// Graph is a built registry together with the computed nodes it owns.
type Graph struct {
	Registry *live.Registry

	types    map[string]string
	disposed []func()
}

// node is a built node and its value type. Exactly one of the typed
// readables is set.
type node struct {
	typ  string
	num  signals.Readable[float64]
	str  signals.Readable[string]
	flag signals.Readable[bool]
	live live.Node
}

// Build creates the signals and computed nodes described by cfg and
// registers them in a new registry, in declaration order.
func Build(cfg *config.Config, opts Options) (*Graph, error) {
	g := &Graph{
		Registry: live.NewRegistry(opts.Logger),
		types:    make(map[string]string),
	}
	nodes := make(map[string]*node)

	declare := func(name string) error {
		if name == "" {
			return errors.New("E120")
		}
		if _, ok := nodes[name]; ok {
			return errors.New("E121").WithDetail(name)
		}
		return nil
	}

	for _, spec := range cfg.Signals {
		if err := declare(spec.Name); err != nil {
			return nil, err
		}
		n, err := newSignal(spec, signalOptions(spec.Name, opts)...)
		if err != nil {
			return nil, err
		}
		nodes[spec.Name] = n
		g.types[spec.Name] = n.typ
		if err := g.Registry.Register(n.live); err != nil {
			return nil, err
		}
	}

	for _, spec := range cfg.Computed {
		if err := declare(spec.Name); err != nil {
			g.Close()
			return nil, err
		}
		deps := make([]*node, 0, len(spec.Deps))
		for _, name := range spec.Deps {
			dep, ok := nodes[name]
			if !ok {
				g.Close()
				return nil, errors.New("E124").
					WithDetail(fmt.Sprintf("%s depends on %s", spec.Name, name)).
					WithSuggestion("Declare signals before the computed nodes that use them")
			}
			deps = append(deps, dep)
		}
		n, dispose, err := newComputed(spec, deps, signalOptions(spec.Name, opts)...)
		if err != nil {
			g.Close()
			return nil, err
		}
		g.disposed = append(g.disposed, dispose)
		nodes[spec.Name] = n
		g.types[spec.Name] = n.typ
		if err := g.Registry.Register(n.live); err != nil {
			g.Close()
			return nil, err
		}
	}

	return g, nil
}

// Check validates cfg without keeping the built graph.
func Check(cfg *config.Config) error {
	g, err := Build(cfg, Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if err != nil {
		return err
	}
	g.Close()
	return nil
}

// Type returns the value type of the named node.
func (g *Graph) Type(name string) (string, bool) {
	t, ok := g.types[name]
	return t, ok
}

// Close disposes every computed node, detaching them from their
// dependencies. Signals keep their values.
func (g *Graph) Close() {
	for i := len(g.disposed) - 1; i >= 0; i-- {
		g.disposed[i]()
	}
	g.disposed = nil
}

// Ops returns the supported computed operations, sorted.
func Ops() []string {
	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func signalOptions(name string, opts Options) []signals.Option {
	o := []signals.Option{signals.WithName(name)}
	if opts.Observer != nil {
		o = append(o, signals.WithObserver(opts.Observer))
	}
	return o
}

func newSignal(spec config.SignalSpec, opts ...signals.Option) (*node, error) {
	mismatch := func() error {
		return errors.New("E123").
			WithDetail(fmt.Sprintf("%s is %s but value is %T", spec.Name, spec.Type, spec.Value))
	}

	switch spec.Type {
	case TypeNumber:
		v, ok := toNumber(spec.Value)
		if !ok {
			return nil, mismatch()
		}
		s := signals.NewSignal(v, opts...)
		return &node{typ: TypeNumber, num: s, live: s}, nil
	case TypeString:
		v, ok := spec.Value.(string)
		if !ok && spec.Value != nil {
			return nil, mismatch()
		}
		s := signals.NewSignal(v, opts...)
		return &node{typ: TypeString, str: s, live: s}, nil
	case TypeBool:
		v, ok := spec.Value.(bool)
		if !ok && spec.Value != nil {
			return nil, mismatch()
		}
		s := signals.NewSignal(v, opts...)
		return &node{typ: TypeBool, flag: s, live: s}, nil
	default:
		return nil, errors.New("E122").
			WithDetail(fmt.Sprintf("%s has type %q", spec.Name, spec.Type)).
			WithSuggestion("Use number, string or bool")
	}
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
