package engine

import (
	"fmt"

	"github.com/spetersoncode/fresco"
	"github.com/spetersoncode/fresco/binding"
)

// RenderNode is one node of a built render tree: the instance id (for
// templated nodes, the expanded "<templateId>_<index>" form), its
// component type, fully resolved props, and its rendered children.
type RenderNode struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Props    map[string]any `json:"props,omitempty"`
	Children []*RenderNode  `json:"children,omitempty"`
}

type buildIssue struct {
	err     error
	context string
}

// RenderTree builds the surface's current render tree, or nil when the
// surface is absent, not rendering, or its root instance is missing.
// An empty surfaceID names the default surface. Nodes whose component
// type is not allowed are dropped along with their subtrees; siblings
// are unaffected.
func (e *Engine) RenderTree(surfaceID string) *RenderNode {
	var issues []buildIssue

	e.mu.Lock()
	sf, ok := e.surfaces[e.surfaceID(surfaceID)]
	var tree *RenderNode
	if ok && sf.rendering && sf.rootID != "" {
		tree = e.buildNode(sf, sf.rootID, sf.rootID, nil, map[string]bool{}, &issues)
	}
	e.mu.Unlock()

	for _, issue := range issues {
		e.reportError(issue.err, issue.context)
	}
	return tree
}

// buildNode renders the instance registered under defID as a node named
// nodeID. The two differ only for templated children, where one
// definition expands into per-index nodes. ctx carries the loop
// variables established by the nearest enclosing template expansion.
func (e *Engine) buildNode(sf *surface, defID, nodeID string, ctx *binding.LoopContext, path map[string]bool, issues *[]buildIssue) *RenderNode {
	inst, ok := sf.components[defID]
	if !ok || inst.Type == "" {
		return nil
	}
	if !e.allowed(inst.Type) {
		*issues = append(*issues, buildIssue{
			err:     fresco.NewPolicyError(fmt.Sprintf("component type %q is not allowed", inst.Type)),
			context: fmt.Sprintf("surface %s node %s", sf.id, nodeID),
		})
		return nil
	}
	if path[defID] {
		*issues = append(*issues, buildIssue{
			err:     fresco.NewContractError(fmt.Sprintf("component cycle through %q", defID)),
			context: fmt.Sprintf("surface %s node %s", sf.id, nodeID),
		})
		return nil
	}
	path[defID] = true
	defer delete(path, defID)

	node := &RenderNode{
		ID:    nodeID,
		Type:  inst.Type,
		Props: e.resolver.ResolveProps(inst.Props, ctx),
	}

	children, ok := fresco.ParseChildren(inst.Props["children"])
	if !ok || children == nil {
		return node
	}
	childIDs := e.resolver.ResolveChildren(children, ctx)

	if tpl := children.Template; tpl != nil {
		// Each expanded child gets a context bound to its element and
		// index before recursion; the ids alone do not carry it.
		var items []any
		if v, ok := e.resolver.Resolve(fresco.PathBinding(tpl.DataBinding), ctx); ok {
			items, _ = v.([]any)
		}
		for i, childID := range childIDs {
			childCtx := &binding.LoopContext{Index: i}
			if i < len(items) {
				childCtx.Item = items[i]
			}
			if child := e.buildNode(sf, tpl.ComponentID, childID, childCtx, path, issues); child != nil {
				node.Children = append(node.Children, child)
			}
		}
		return node
	}

	for _, childID := range childIDs {
		if child := e.buildNode(sf, childID, childID, ctx, path, issues); child != nil {
			node.Children = append(node.Children, child)
		}
	}
	return node
}
