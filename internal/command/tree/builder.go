package tree

// Builder assembles a node and its subtree.
// Builders are not safe for concurrent use; the nodes they build are.
type Builder struct {
	name      string
	overloads []*Overload
	children  []*Builder
}

// Literal starts a node that matches name.
func Literal(name string) *Builder {
	return &Builder{name: name}
}

// Executes adds a zero-argument overload.
func (b *Builder) Executes(h Handler) *Builder {
	return b.Accepts(h)
}

// Accepts adds an overload taking the given slots, in order.
func (b *Builder) Accepts(h Handler, slots ...Slot) *Builder {
	s := make([]Slot, len(slots))
	copy(s, slots)
	b.overloads = append(b.overloads, &Overload{slots: s, handler: h})
	return b
}

// Then appends child nodes.
func (b *Builder) Then(children ...*Builder) *Builder {
	b.children = append(b.children, children...)
	return b
}

// Name returns the literal being built.
func (b *Builder) Name() string {
	return b.name
}

// Build creates the node tree and validates it.
func (b *Builder) Build(opts ...ValidateOption) (*Node, error) {
	n := b.node()
	if err := Validate(n, opts...); err != nil {
		return nil, err
	}
	return n, nil
}

// MustBuild is like Build but panics if the tree is invalid.
// It is meant for trees declared in code at program start.
func (b *Builder) MustBuild(opts ...ValidateOption) *Node {
	n, err := b.Build(opts...)
	if err != nil {
		panic(err)
	}
	return n
}

func (b *Builder) node() *Node {
	n := &Node{
		name:      b.name,
		overloads: make([]*Overload, len(b.overloads)),
		children:  make([]*Node, 0, len(b.children)),
	}
	copy(n.overloads, b.overloads)
	for _, c := range b.children {
		if c == nil {
			n.children = append(n.children, nil)
			continue
		}
		n.children = append(n.children, c.node())
	}
	return n
}
