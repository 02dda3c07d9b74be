// ABOUTME: Generic JSON tree operations shared by the store backends
// ABOUTME: Get, set, merge, and delete at slash-separated paths
package store

func getIn(root map[string]any, segs []string) (any, bool) {
	var node any = root
	for _, seg := range segs {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return node, true
}

// setIn writes value at segs, creating intermediate maps as needed.
// Non-map intermediates are replaced, matching last-write-wins semantics.
func setIn(root map[string]any, segs []string, value any) {
	node := root
	for _, seg := range segs[:len(segs)-1] {
		child, ok := node[seg].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[seg] = child
		}
		node = child
	}
	node[segs[len(segs)-1]] = value
}

// mergeIn overlays fields onto the map at segs, leaving other keys alone.
func mergeIn(root map[string]any, segs []string, fields map[string]any) {
	node := root
	for _, seg := range segs {
		child, ok := node[seg].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[seg] = child
		}
		node = child
	}
	for k, v := range fields {
		node[k] = v
	}
}

// deleteIn removes the node at segs and prunes emptied parents so an
// emptied collection reads back as absent, not as an empty map.
func deleteIn(root map[string]any, segs []string) {
	parents := make([]map[string]any, 0, len(segs))
	node := root
	for _, seg := range segs[:len(segs)-1] {
		child, ok := node[seg].(map[string]any)
		if !ok {
			return
		}
		parents = append(parents, node)
		node = child
	}
	delete(node, segs[len(segs)-1])

	for i := len(parents) - 1; i >= 0; i-- {
		seg := segs[i]
		child, ok := parents[i][seg].(map[string]any)
		if ok && len(child) == 0 {
			delete(parents[i], seg)
		}
	}
}
