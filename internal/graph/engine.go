package graph

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/kataras/golog"
)

// END is the terminal marker. Routing to END stops execution.
const END = "END"

// DefaultMaxSteps bounds a single run so that a cyclic graph cannot spin forever.
const DefaultMaxSteps = 25

var (
	// ErrEntryPointNotSet is returned by Compile when no entry point was set.
	ErrEntryPointNotSet = errors.New("entry point not set")

	// ErrNodeNotFound is returned when an edge references an unregistered node.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNoOutgoingEdge is returned when a node has neither an edge nor a router.
	ErrNoOutgoingEdge = errors.New("no outgoing edge found for node")

	// ErrUnknownBranch is returned when a router picks a key missing from its branch map.
	ErrUnknownBranch = errors.New("router returned unmapped branch")

	// ErrMaxStepsExceeded is returned when a run executes more nodes than allowed.
	ErrMaxStepsExceeded = errors.New("max steps exceeded")
)

// NodeFunc reads the current state and returns a partial update.
type NodeFunc[S, U any] func(ctx context.Context, state S) (U, error)

// Router inspects state after a node ran and returns a branch key.
type Router[S any] func(state S) string

// MergeFunc applies a partial update to the state.
type MergeFunc[S, U any] func(state S, update U) S

// NodeObserver is notified after every node execution.
type NodeObserver func(node string, elapsed time.Duration, err error)

// Node is a named unit of work.
type Node[S, U any] struct {
	Name        string
	Description string
	Function    NodeFunc[S, U]
}

// NodeError wraps the failure of a single node. The run that produced it
// returns no state.
type NodeError struct {
	Node string
	Err  error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s: %v", e.Node, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

type conditionalEdge[S any] struct {
	router   Router[S]
	branches map[string]string
}

// StateGraph collects nodes and edges before compilation.
type StateGraph[S, U any] struct {
	nodes            map[string]Node[S, U]
	edges            map[string]string
	conditionalEdges map[string]conditionalEdge[S]
	entryPoint       string
	merge            MergeFunc[S, U]
}

// NewStateGraph creates an empty graph whose node updates are folded into
// the running state with merge.
func NewStateGraph[S, U any](merge MergeFunc[S, U]) *StateGraph[S, U] {
	return &StateGraph[S, U]{
		nodes:            make(map[string]Node[S, U]),
		edges:            make(map[string]string),
		conditionalEdges: make(map[string]conditionalEdge[S]),
		merge:            merge,
	}
}

// AddNode registers fn under name. Registering a name twice replaces it.
func (g *StateGraph[S, U]) AddNode(name, description string, fn NodeFunc[S, U]) {
	g.nodes[name] = Node[S, U]{Name: name, Description: description, Function: fn}
}

// AddEdge sets the unconditional successor of from.
func (g *StateGraph[S, U]) AddEdge(from, to string) {
	g.edges[from] = to
}

// AddConditionalEdge routes from through router. The router's result is looked
// up in branches; a conditional edge takes precedence over AddEdge.
func (g *StateGraph[S, U]) AddConditionalEdge(from string, router Router[S], branches map[string]string) {
	g.conditionalEdges[from] = conditionalEdge[S]{router: router, branches: maps.Clone(branches)}
}

// SetEntryPoint sets the first node to run.
func (g *StateGraph[S, U]) SetEntryPoint(name string) {
	g.entryPoint = name
}

type compileConfig struct {
	maxSteps int
	observer NodeObserver
}

// CompileOption tunes a compiled graph.
type CompileOption func(*compileConfig)

// WithMaxSteps overrides DefaultMaxSteps. Values below one are ignored.
func WithMaxSteps(n int) CompileOption {
	return func(c *compileConfig) {
		if n > 0 {
			c.maxSteps = n
		}
	}
}

// WithObserver installs a callback invoked after each node.
func WithObserver(obs NodeObserver) CompileOption {
	return func(c *compileConfig) {
		c.observer = obs
	}
}

// Compile validates the graph and freezes it into a Runnable. The graph may
// be modified afterwards without affecting the Runnable.
func (g *StateGraph[S, U]) Compile(opts ...CompileOption) (*Runnable[S, U], error) {
	if g.entryPoint == "" {
		return nil, ErrEntryPointNotSet
	}
	if _, ok := g.nodes[g.entryPoint]; !ok {
		return nil, fmt.Errorf("entry point %q: %w", g.entryPoint, ErrNodeNotFound)
	}
	if g.merge == nil {
		return nil, errors.New("merge function not set")
	}

	known := func(name string) bool {
		if name == END {
			return true
		}
		_, ok := g.nodes[name]
		return ok
	}

	for from, to := range g.edges {
		if !known(from) || from == END {
			return nil, fmt.Errorf("edge source %q: %w", from, ErrNodeNotFound)
		}
		if !known(to) {
			return nil, fmt.Errorf("edge %s -> %s: %w", from, to, ErrNodeNotFound)
		}
	}
	for from, ce := range g.conditionalEdges {
		if !known(from) || from == END {
			return nil, fmt.Errorf("conditional edge source %q: %w", from, ErrNodeNotFound)
		}
		if ce.router == nil {
			return nil, fmt.Errorf("conditional edge from %s has no router", from)
		}
		for key, to := range ce.branches {
			if !known(to) {
				return nil, fmt.Errorf("branch %s[%s] -> %s: %w", from, key, to, ErrNodeNotFound)
			}
		}
	}
	for name := range g.nodes {
		_, plain := g.edges[name]
		_, cond := g.conditionalEdges[name]
		if !plain && !cond {
			return nil, fmt.Errorf("%w: %s", ErrNoOutgoingEdge, name)
		}
	}

	cfg := compileConfig{maxSteps: DefaultMaxSteps}
	for _, opt := range opts {
		opt(&cfg)
	}

	conditional := make(map[string]conditionalEdge[S], len(g.conditionalEdges))
	for from, ce := range g.conditionalEdges {
		conditional[from] = conditionalEdge[S]{router: ce.router, branches: maps.Clone(ce.branches)}
	}

	return &Runnable[S, U]{
		nodes:            maps.Clone(g.nodes),
		edges:            maps.Clone(g.edges),
		conditionalEdges: conditional,
		entryPoint:       g.entryPoint,
		merge:            g.merge,
		maxSteps:         cfg.maxSteps,
		observer:         cfg.observer,
	}, nil
}

// Runnable is a compiled, immutable graph. It is safe for concurrent use.
type Runnable[S, U any] struct {
	nodes            map[string]Node[S, U]
	edges            map[string]string
	conditionalEdges map[string]conditionalEdge[S]
	entryPoint       string
	merge            MergeFunc[S, U]
	maxSteps         int
	observer         NodeObserver
}

// Invoke runs the graph from its entry point until END. Nodes run one at a
// time; each node's update is merged before the next edge is chosen. On any
// failure the zero state is returned.
func (r *Runnable[S, U]) Invoke(ctx context.Context, initial S) (S, error) {
	var zero S
	runID := uuid.NewString()
	state := initial
	current := r.entryPoint

	for steps := 0; current != END; steps++ {
		if steps >= r.maxSteps {
			return zero, fmt.Errorf("%w: limit %d reached at %s", ErrMaxStepsExceeded, r.maxSteps, current)
		}
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		node, ok := r.nodes[current]
		if !ok {
			return zero, fmt.Errorf("%w: %s", ErrNodeNotFound, current)
		}

		golog.Debugf("run %s: executing node %s", runID, current)
		start := time.Now()
		update, err := node.Function(ctx, state)
		if r.observer != nil {
			r.observer(current, time.Since(start), err)
		}
		if err != nil {
			return zero, &NodeError{Node: current, Err: err}
		}
		state = r.merge(state, update)

		next, err := r.next(current, state)
		if err != nil {
			return zero, err
		}
		golog.Debugf("run %s: %s -> %s", runID, current, next)
		current = next
	}
	return state, nil
}

func (r *Runnable[S, U]) next(current string, state S) (string, error) {
	if ce, ok := r.conditionalEdges[current]; ok {
		key := ce.router(state)
		to, ok := ce.branches[key]
		if !ok {
			return "", fmt.Errorf("%w: %s returned %q", ErrUnknownBranch, current, key)
		}
		return to, nil
	}
	if to, ok := r.edges[current]; ok {
		return to, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNoOutgoingEdge, current)
}

// Unreachable lists, in sorted order, nodes that no path from the entry point
// can reach.
func (r *Runnable[S, U]) Unreachable() []string {
	seen := map[string]bool{r.entryPoint: true}
	queue := []string{r.entryPoint}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		var targets []string
		if ce, ok := r.conditionalEdges[n]; ok {
			for _, t := range ce.branches {
				targets = append(targets, t)
			}
		} else if to, ok := r.edges[n]; ok {
			targets = []string{to}
		}
		for _, t := range targets {
			if t != END && !seen[t] {
				seen[t] = true
				queue = append(queue, t)
			}
		}
	}

	var out []string
	for name := range r.nodes {
		if !seen[name] {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}
