// Package orbitgraph builds the functional digraph of a map restricted to
// a finite forward-invariant set of points.
//
// Vertices are identified by a caller-supplied canonical key, so two
// representatives of the same point collapse to one vertex. Every vertex
// has exactly one outgoing edge, to its image; fixed points carry a loop.
package orbitgraph

import (
	"errors"
	"fmt"
	"sort"
)

// ErrTooLarge is returned when closing the input under the map exceeds
// the vertex limit, which happens when an input point is not preperiodic.
var ErrTooLarge = errors.New("orbitgraph: vertex limit exceeded")

const defaultLimit = 1 << 20

type options struct {
	limit int
}

// Option configures Build.
type Option func(*options)

// WithLimit caps the number of vertices created while closing the input
// under the map.
func WithLimit(n int) Option {
	return func(o *options) { o.limit = n }
}

// Graph is an immutable functional digraph.
type Graph[T any] struct {
	keys    []string
	values  []T
	index   map[string]int
	next    []int
	onCycle []bool
	cycles  [][]int
}

// Build adds the points in input order, then links every vertex to its
// image, appending images not yet seen until the vertex set is closed.
// Errors from image propagate.
func Build[T any](points []T, key func(T) string, image func(T) (T, error), opts ...Option) (*Graph[T], error) {
	o := options{limit: defaultLimit}
	for _, opt := range opts {
		opt(&o)
	}
	g := &Graph[T]{index: make(map[string]int)}
	add := func(v T) (int, error) {
		k := key(v)
		if i, ok := g.index[k]; ok {
			return i, nil
		}
		if len(g.values) >= o.limit {
			return 0, fmt.Errorf("%w: %d vertices", ErrTooLarge, o.limit)
		}
		g.index[k] = len(g.values)
		g.keys = append(g.keys, k)
		g.values = append(g.values, v)
		g.next = append(g.next, -1)
		return len(g.values) - 1, nil
	}
	link := func(i int) error {
		img, err := image(g.values[i])
		if err != nil {
			return fmt.Errorf("orbitgraph: image of %s: %w", g.keys[i], err)
		}
		j, err := add(img)
		if err != nil {
			return err
		}
		g.next[i] = j
		return nil
	}
	for _, p := range points {
		if _, err := add(p); err != nil {
			return nil, err
		}
	}
	for i := 0; i < len(g.values); i++ {
		if g.next[i] < 0 {
			if err := link(i); err != nil {
				return nil, err
			}
		}
	}
	g.findCycles()
	return g, nil
}

func (g *Graph[T]) findCycles() {
	n := len(g.values)
	g.onCycle = make([]bool, n)
	state := make([]int, n)
	pos := make([]int, n)
	for s := 0; s < n; s++ {
		if state[s] != 0 {
			continue
		}
		var path []int
		v := s
		for state[v] == 0 {
			state[v] = 1
			pos[v] = len(path)
			path = append(path, v)
			v = g.next[v]
		}
		if state[v] == 1 {
			cyc := append([]int(nil), path[pos[v]:]...)
			start := 0
			for i, u := range cyc {
				if u < cyc[start] {
					start = i
				}
			}
			cyc = append(cyc[start:], cyc[:start]...)
			for _, u := range cyc {
				g.onCycle[u] = true
			}
			g.cycles = append(g.cycles, cyc)
		}
		for _, u := range path {
			state[u] = 2
		}
	}
	sort.Slice(g.cycles, func(i, j int) bool { return g.cycles[i][0] < g.cycles[j][0] })
}

// Len is the number of vertices.
func (g *Graph[T]) Len() int { return len(g.values) }

// Vertex returns the point stored at index i.
func (g *Graph[T]) Vertex(i int) T { return g.values[i] }

// Key returns the canonical key of vertex i.
func (g *Graph[T]) Key(i int) string { return g.keys[i] }

// Vertices returns the vertices in first-seen order.
func (g *Graph[T]) Vertices() []T {
	out := make([]T, len(g.values))
	copy(out, g.values)
	return out
}

// Index looks up a vertex by key.
func (g *Graph[T]) Index(key string) (int, bool) {
	i, ok := g.index[key]
	return i, ok
}

// Successor is the index of the image of vertex i.
func (g *Graph[T]) Successor(i int) int { return g.next[i] }

// Predecessors lists the vertices mapping to i, in index order.
func (g *Graph[T]) Predecessors(i int) []int {
	var out []int
	for v, w := range g.next {
		if w == i {
			out = append(out, v)
		}
	}
	return out
}

// Edges lists (from, to) pairs in vertex order.
func (g *Graph[T]) Edges() [][2]int {
	out := make([][2]int, len(g.next))
	for i, j := range g.next {
		out[i] = [2]int{i, j}
	}
	return out
}

// Cycles returns every cycle, each rotated to start at its earliest
// vertex, ordered by that vertex.
func (g *Graph[T]) Cycles() [][]int {
	out := make([][]int, len(g.cycles))
	for i, c := range g.cycles {
		out[i] = append([]int(nil), c...)
	}
	return out
}

// IsPeriodic reports whether vertex i lies on a cycle.
func (g *Graph[T]) IsPeriodic(i int) bool { return g.onCycle[i] }

// Tails lists the strictly preperiodic vertices.
func (g *Graph[T]) Tails() []int {
	var out []int
	for i, c := range g.onCycle {
		if !c {
			out = append(out, i)
		}
	}
	return out
}

// Structure returns the preperiod and period of vertex i.
func (g *Graph[T]) Structure(i int) (preperiod, period int) {
	v := i
	for !g.onCycle[v] {
		v = g.next[v]
		preperiod++
	}
	u := g.next[v]
	period = 1
	for u != v {
		u = g.next[u]
		period++
	}
	return preperiod, period
}

// AdjacencyList maps each vertex key to the key of its image.
func (g *Graph[T]) AdjacencyList() map[string]string {
	out := make(map[string]string, len(g.keys))
	for i, k := range g.keys {
		out[k] = g.keys[g.next[i]]
	}
	return out
}
