package service

import "github.com/emrgen/manual/internal/model"

// BuildForest assembles manuals ordered by level and sort into a forest.
// A manual whose parent was not placed before it becomes a root.
func BuildForest(manuals []*model.Manual, open bool) []*model.ManualNode {
	forest := make([]*model.ManualNode, 0)
	nodes := make(map[uint64]*model.ManualNode, len(manuals))

	for _, manual := range manuals {
		node := model.NewManualNode(*manual, open)

		parent := findParent(nodes, manual)
		if parent == nil {
			forest = append(forest, node)
		} else {
			parent.AddChild(node)
		}

		nodes[manual.ID] = node
	}

	return forest
}

func findParent(nodes map[uint64]*model.ManualNode, manual *model.Manual) *model.ManualNode {
	if manual.ParentID == nil {
		return nil
	}

	return nodes[*manual.ParentID]
}
