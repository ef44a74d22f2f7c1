// Package filtergraph assembles ffmpeg -filter_complex expressions from chained
// filter nodes with automatic input wiring and unique output labels.
package filtergraph

import (
	"strings"

	"github.com/google/uuid"
)

// Node is one filter in the graph.
type Node struct {
	Filter  string
	Inputs  []string
	Outputs []string
}

// String renders the node as "[in]filter[out]".
func (n Node) String() string {
	var b strings.Builder
	for _, in := range n.Inputs {
		b.WriteString("[" + in + "]")
	}
	b.WriteString(n.Filter)
	for _, out := range n.Outputs {
		b.WriteString("[" + out + "]")
	}
	return b.String()
}

// Name is the filter name without its arguments, e.g. "scale" for "scale=640:-1".
func (n Node) Name() string {
	return filterName(n.Filter)
}

// Input is anything a node can read from.
type Input interface {
	Refs() []string
}

// Label references a single stream label such as "0:v" or a prior node output.
type Label string

func (l Label) Refs() []string {
	if l == "" {
		return nil
	}
	return []string{string(l)}
}

type labelSet []string

func (s labelSet) Refs() []string {
	var refs []string
	for _, l := range s {
		if l != "" {
			refs = append(refs, l)
		}
	}
	return refs
}

// Labels groups several stream labels into one Input.
func Labels(names ...string) Input {
	return labelSet(names)
}

// Step describes a node to push. Without From the node chains from the
// graph cursor, or from the first input when nothing has been pushed yet.
type Step struct {
	Filter   string
	From     []Input
	Detached bool // take no inputs at all
	Outputs  []string
}

// Graph is an ordered, append-only list of nodes. The cursor always holds the
// outputs of the most recently pushed node.
type Graph struct {
	nodes  []Node
	first  []Input
	cursor []string
	labels map[string]struct{}
	suffix func() string
}

// New creates a graph whose first node reads from first, if given.
func New(first ...Input) *Graph {
	g := &Graph{
		first:  first,
		labels: make(map[string]struct{}),
		suffix: randomSuffix,
	}
	for _, ref := range resolve(first) {
		g.labels[ref] = struct{}{}
	}
	return g
}

// Push appends a node and returns its output labels.
func (g *Graph) Push(s Step) []string {
	node := Node{Filter: s.Filter}

	switch {
	case s.Detached:
	case len(s.From) > 0:
		node.Inputs = resolve(s.From)
	case len(g.cursor) > 0:
		node.Inputs = append([]string(nil), g.cursor...)
	default:
		node.Inputs = resolve(g.first)
	}
	if len(node.Inputs) == 0 {
		node.Inputs = nil
	}

	if len(s.Outputs) > 0 {
		node.Outputs = append([]string(nil), s.Outputs...)
	} else {
		node.Outputs = []string{g.newLabel(node.Name())}
	}
	for _, out := range node.Outputs {
		g.labels[out] = struct{}{}
	}

	g.nodes = append(g.nodes, node)
	g.cursor = node.Outputs
	return append([]string(nil), node.Outputs...)
}

// Chain pushes filter reading from the cursor.
func (g *Graph) Chain(filter string) []string {
	return g.Push(Step{Filter: filter})
}

// Cursor returns the outputs of the last pushed node.
func (g *Graph) Cursor() []string {
	return append([]string(nil), g.cursor...)
}

// Refs resolves the graph as an input of another node: its last outputs, or
// its first input when it has no nodes yet.
func (g *Graph) Refs() []string {
	if g == nil {
		return nil
	}
	if len(g.cursor) > 0 {
		return g.Cursor()
	}
	return resolve(g.first)
}

// Nodes returns a copy of the populated nodes in push order.
func (g *Graph) Nodes() []Node {
	if g == nil {
		return nil
	}
	nodes := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		if n.Filter == "" {
			continue
		}
		nodes = append(nodes, n)
	}
	return nodes
}

// Len is the number of populated nodes.
func (g *Graph) Len() int {
	return len(g.Nodes())
}

// String renders the -filter_complex expression.
func (g *Graph) String() string {
	return Join(g.Nodes())
}

// Join renders nodes separated by ";".
func Join(nodes []Node) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		parts = append(parts, n.String())
	}
	return strings.Join(parts, ";")
}

// Unique drops repeated nodes, keeping the first occurrence of each.
func Unique(nodes []Node) []Node {
	seen := make(map[string]struct{}, len(nodes))
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		key := n.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Flatten concatenates the nodes of several graphs in order.
func Flatten(graphs ...*Graph) []Node {
	var nodes []Node
	for _, g := range graphs {
		nodes = append(nodes, g.Nodes()...)
	}
	return nodes
}

// LastOutputs resolves every input to its labels, in order.
func LastOutputs(inputs ...Input) []string {
	return resolve(inputs)
}

func resolve(inputs []Input) []string {
	var refs []string
	for _, in := range inputs {
		if in == nil {
			continue
		}
		refs = append(refs, in.Refs()...)
	}
	return refs
}

func (g *Graph) newLabel(name string) string {
	for {
		label := name + "-" + g.suffix()
		if _, taken := g.labels[label]; !taken {
			return label
		}
	}
}

func filterName(filter string) string {
	if i := strings.IndexAny(filter, "=@"); i >= 0 {
		return filter[:i]
	}
	return filter
}

func randomSuffix() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")[:6]
}
