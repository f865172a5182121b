package model

// ManualNode is the in-memory tree view of a Manual.
// Open and Children only exist in the view and are never persisted.
type ManualNode struct {
	Manual
	Open     bool          `json:"open"`
	Children []*ManualNode `json:"children"`
}

// NewManualNode wraps a manual in a view node without children.
func NewManualNode(manual Manual, open bool) *ManualNode {
	return &ManualNode{
		Manual:   manual,
		Open:     open,
		Children: make([]*ManualNode, 0),
	}
}

// AddChild appends child after the existing children.
func (n *ManualNode) AddChild(child *ManualNode) {
	n.Children = append(n.Children, child)
}

// HasChildren reports whether any child nodes are attached.
func (n *ManualNode) HasChildren() bool {
	return len(n.Children) > 0
}

// Walk visits the node and its descendants depth first, parents before children.
func (n *ManualNode) Walk(visit func(node *ManualNode)) {
	visit(n)
	for _, child := range n.Children {
		child.Walk(visit)
	}
}

// WalkForest visits every node of the forest in depth first order.
func WalkForest(forest []*ManualNode, visit func(node *ManualNode)) {
	for _, node := range forest {
		node.Walk(visit)
	}
}
