package live

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/vango-dev/signals/pkg/signals"
)

// Node is a named value a Registry can publish.
// It is implemented by *signals.Signal[T] and *signals.Computed[T].
type Node interface {
	signals.Dependency
	Name() string
	MarshalJSON() ([]byte, error)
}

// Writable is a Node that accepts JSON writes.
// It is implemented by *signals.Signal[T] but not by *signals.Computed[T].
type Writable interface {
	Node
	SetJSON(data []byte) error
}

// Registry is a named set of nodes forming one reactive graph.
// All writes and watch registrations go through one mutex, so propagation
// stays single-threaded. Watch callbacks run while that mutex is held and
// must not call back into the registry.
type Registry struct {
	mu    sync.Mutex
	nodes map[string]Node
	order []string

	logger *slog.Logger
}

// NewRegistry creates an empty registry. If logger is nil, slog.Default()
// is used.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		nodes:  make(map[string]Node),
		logger: logger.With("component", "registry"),
	}
}

// Register adds nodes under their names.
func (r *Registry) Register(nodes ...Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range nodes {
		name := n.Name()
		if name == "" {
			return ErrUnnamed
		}
		if _, ok := r.nodes[name]; ok {
			return &NodeError{Name: name, Op: "register", Err: ErrDuplicate}
		}
		r.nodes[name] = n
		r.order = append(r.order, name)
	}
	return nil
}

// Lookup returns the node registered under name.
func (r *Registry) Lookup(name string) (Node, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.nodes[name]
	return n, ok
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Value returns the JSON encoding of a node's current value.
func (r *Registry) Value(name string) (json.RawMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[name]
	if !ok {
		return nil, &NodeError{Name: name, Op: "read", Err: ErrNotFound}
	}
	return encode(n)
}

// Set decodes raw into the named signal. The write and everything it
// propagates to finish before Set returns.
func (r *Registry) Set(name string, raw []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setLocked(name, raw)
}

func (r *Registry) setLocked(name string, raw []byte) error {
	n, ok := r.nodes[name]
	if !ok {
		return &NodeError{Name: name, Op: "write", Err: ErrNotFound}
	}
	w, ok := n.(Writable)
	if !ok {
		return &NodeError{Name: name, Op: "write", Err: ErrReadOnly}
	}
	if err := w.SetJSON(raw); err != nil {
		return &NodeError{Name: name, Op: "write", Err: err}
	}
	return nil
}

// Writable reports whether the named node accepts writes.
func (r *Registry) Writable(name string) bool {
	n, ok := r.Lookup(name)
	if !ok {
		return false
	}
	_, ok = n.(Writable)
	return ok
}

// Snapshot returns the current value of every node.
func (r *Registry) Snapshot() (map[string]json.RawMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]json.RawMessage, len(r.nodes))
	for _, name := range r.order {
		v, err := encode(r.nodes[name])
		if err != nil {
			return nil, &NodeError{Name: name, Op: "snapshot", Err: err}
		}
		out[name] = v
	}
	return out, nil
}

// Restore writes snapshot values back into writable nodes, in registration
// order. Unknown and read-only names are skipped; computed nodes recompute
// from the restored signals.
func (r *Registry) Restore(snapshot map[string]json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range r.order {
		raw, ok := snapshot[name]
		if !ok {
			continue
		}
		if _, ok := r.nodes[name].(Writable); !ok {
			continue
		}
		if err := r.setLocked(name, raw); err != nil {
			return err
		}
	}

	for name := range snapshot {
		if _, ok := r.nodes[name]; !ok {
			r.logger.Warn("snapshot names unknown signal", "signal", name)
		}
	}
	return nil
}

// Watch calls fn with the current value of each named node, then again after
// every change of that node. An empty names list watches every node.
func (r *Registry) Watch(names []string, fn func(name string, value json.RawMessage)) (signals.Unsubscribe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(names) == 0 {
		names = r.order
	}

	nodes := make([]Node, 0, len(names))
	for _, name := range names {
		n, ok := r.nodes[name]
		if !ok {
			return nil, &NodeError{Name: name, Op: "watch", Err: ErrNotFound}
		}
		nodes = append(nodes, n)
	}

	stops := make([]signals.Unsubscribe, 0, len(nodes))
	for _, n := range nodes {
		n := n
		stops = append(stops, signals.Effect([]signals.Dependency{n}, func() {
			v, err := encode(n)
			if err != nil {
				r.logger.Error("encode failed", "signal", n.Name(), "error", err)
				return
			}
			fn(n.Name(), v)
		}))
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for _, stop := range stops {
				stop()
			}
		})
	}, nil
}

// encode returns the JSON value of n. Values JSON cannot represent, such as
// infinite or NaN floats, encode as null so one node never breaks reads of
// the whole graph.
func encode(n Node) (json.RawMessage, error) {
	b, err := n.MarshalJSON()
	if err != nil {
		var unsupported *json.UnsupportedValueError
		if errors.As(err, &unsupported) {
			return json.RawMessage("null"), nil
		}
		return nil, err
	}
	return json.RawMessage(b), nil
}
