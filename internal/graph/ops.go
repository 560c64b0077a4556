package graph

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/vango-dev/signals/internal/config"
	"github.com/vango-dev/signals/internal/errors"
	"github.com/vango-dev/signals/pkg/signals"
)

// op describes a computed operation.
type op struct {
	in    string
	arity int // 0 means one or more
	build func(spec config.ComputedSpec, deps []*node, opts []signals.Option) (*node, func())
}

var ops = map[string]op{
	"sum":     {in: TypeNumber, build: numbers(sum)},
	"product": {in: TypeNumber, build: numbers(product)},
	"min":     {in: TypeNumber, build: numbers(minimum)},
	"max":     {in: TypeNumber, build: numbers(maximum)},
	"avg": {in: TypeNumber, build: numbers(func(vs []float64) float64 {
		return sum(vs) / float64(len(vs))
	})},
	"concat": {in: TypeString, build: func(_ config.ComputedSpec, deps []*node, opts []signals.Option) (*node, func()) {
		return stringsOp(deps, opts, func(vs []string) string { return strings.Join(vs, "") })
	}},
	"join": {in: TypeString, build: func(spec config.ComputedSpec, deps []*node, opts []signals.Option) (*node, func()) {
		return stringsOp(deps, opts, func(vs []string) string { return strings.Join(vs, spec.Sep) })
	}},
	"length": {in: TypeString, arity: 1, build: func(_ config.ComputedSpec, deps []*node, opts []signals.Option) (*node, func()) {
		c := signals.NewComputed1(func(s string) float64 {
			return float64(utf8.RuneCountInString(s))
		}, deps[0].str, opts...)
		return &node{typ: TypeNumber, num: c, live: c}, c.Dispose
	}},
	"and": {in: TypeBool, build: bools(func(vs []bool) bool {
		for _, v := range vs {
			if !v {
				return false
			}
		}
		return true
	})},
	"or": {in: TypeBool, build: bools(func(vs []bool) bool {
		for _, v := range vs {
			if v {
				return true
			}
		}
		return false
	})},
	"not": {in: TypeBool, arity: 1, build: func(_ config.ComputedSpec, deps []*node, opts []signals.Option) (*node, func()) {
		c := signals.NewComputed1(func(b bool) bool { return !b }, deps[0].flag, opts...)
		return &node{typ: TypeBool, flag: c, live: c}, c.Dispose
	}},
}

func newComputed(spec config.ComputedSpec, deps []*node, opts ...signals.Option) (*node, func(), error) {
	o, ok := ops[spec.Op]
	if !ok {
		return nil, nil, errors.New("E126").
			WithDetail(fmt.Sprintf("%s uses op %q", spec.Name, spec.Op)).
			WithSuggestion("Use one of: " + strings.Join(Ops(), ", "))
	}
	if len(deps) == 0 {
		return nil, nil, errors.New("E127").WithDetail(spec.Name)
	}
	if o.arity > 0 && len(deps) != o.arity {
		return nil, nil, errors.New("E128").
			WithDetail(fmt.Sprintf("%s: %s takes %d, got %d", spec.Name, spec.Op, o.arity, len(deps)))
	}
	for i, dep := range deps {
		if dep.typ != o.in {
			return nil, nil, errors.New("E125").
				WithDetail(fmt.Sprintf("%s: %s needs %s inputs but %s is %s", spec.Name, spec.Op, o.in, spec.Deps[i], dep.typ))
		}
	}

	n, dispose := o.build(spec, deps, opts)
	return n, dispose, nil
}

func numbers(fn func([]float64) float64) func(config.ComputedSpec, []*node, []signals.Option) (*node, func()) {
	return func(_ config.ComputedSpec, deps []*node, opts []signals.Option) (*node, func()) {
		in := make([]signals.Readable[float64], len(deps))
		for i, d := range deps {
			in[i] = d.num
		}
		c := signals.NewComputedN(fn, in, opts...)
		return &node{typ: TypeNumber, num: c, live: c}, c.Dispose
	}
}

func stringsOp(deps []*node, opts []signals.Option, fn func([]string) string) (*node, func()) {
	in := make([]signals.Readable[string], len(deps))
	for i, d := range deps {
		in[i] = d.str
	}
	c := signals.NewComputedN(fn, in, opts...)
	return &node{typ: TypeString, str: c, live: c}, c.Dispose
}

func bools(fn func([]bool) bool) func(config.ComputedSpec, []*node, []signals.Option) (*node, func()) {
	return func(_ config.ComputedSpec, deps []*node, opts []signals.Option) (*node, func()) {
		in := make([]signals.Readable[bool], len(deps))
		for i, d := range deps {
			in[i] = d.flag
		}
		c := signals.NewComputedN(fn, in, opts...)
		return &node{typ: TypeBool, flag: c, live: c}, c.Dispose
	}
}

func sum(vs []float64) float64 {
	var total float64
	for _, v := range vs {
		total += v
	}
	return total
}

func product(vs []float64) float64 {
	total := 1.0
	for _, v := range vs {
		total *= v
	}
	return total
}

func minimum(vs []float64) float64 {
	m := math.Inf(1)
	for _, v := range vs {
		m = math.Min(m, v)
	}
	return m
}

func maximum(vs []float64) float64 {
	m := math.Inf(-1)
	for _, v := range vs {
		m = math.Max(m, v)
	}
	return m
}
