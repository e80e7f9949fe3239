package main

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/spetersoncode/fresco/engine"
)

// renderNode paints a resolved render tree as styled terminal text.
// Unknown component types fall back to a dim marker so partial catalogs
// still show their children.
func renderNode(st styles, node *engine.RenderNode, width int) string {
	if node == nil {
		return ""
	}
	if width < 8 {
		width = 8
	}

	switch node.Type {
	case "Text":
		return st.text.Width(width).Render(stringProp(node, "text"))

	case "Heading":
		style := st.heading2
		if intProp(node, "level", 2) <= 1 {
			style = st.heading1
		}
		return style.Width(width).Render(stringProp(node, "text"))

	case "Row":
		parts := renderChildren(st, node, width/maxInt(1, len(node.Children)))
		if len(parts) == 0 {
			return ""
		}
		spaced := make([]string, 0, len(parts)*2-1)
		for i, part := range parts {
			if i > 0 {
				spaced = append(spaced, " ")
			}
			spaced = append(spaced, part)
		}
		return lipgloss.JoinHorizontal(lipgloss.Center, spaced...)

	case "Column":
		parts := renderChildren(st, node, width)
		if len(parts) == 0 {
			return ""
		}
		return lipgloss.JoinVertical(lipgloss.Left, parts...)

	case "List":
		items := make([]string, 0, len(node.Children))
		for _, child := range node.Children {
			rendered := renderNode(st, child, width-2)
			if rendered == "" {
				continue
			}
			items = append(items, lipgloss.JoinHorizontal(lipgloss.Top, st.listBullet.Render("• "), rendered))
		}
		if len(items) == 0 {
			return st.muted.Render("(empty list)")
		}
		return lipgloss.JoinVertical(lipgloss.Left, items...)

	case "Card":
		parts := renderChildren(st, node, width-4)
		inner := st.muted.Render("(empty card)")
		if len(parts) > 0 {
			inner = lipgloss.JoinVertical(lipgloss.Left, parts...)
		}
		return st.card.Width(width).Render(inner)

	case "Button":
		label := stringProp(node, "label")
		if label == "" {
			label = stringProp(node, "text")
		}
		return st.button.Render(label)

	case "Badge":
		text := stringProp(node, "text")
		return badgeStyle(st, text).Render(text)

	case "Divider":
		return st.divider.Render(strings.Repeat("─", width))

	case "Input":
		value := stringProp(node, "value")
		if value == "" {
			value = st.muted.Render(stringProp(node, "placeholder"))
		}
		return st.inputBox.Width(width).Render(value)

	default:
		marker := st.unknown.Render("<" + node.Type + ">")
		parts := renderChildren(st, node, width)
		if len(parts) == 0 {
			return marker
		}
		return lipgloss.JoinVertical(lipgloss.Left, append([]string{marker}, parts...)...)
	}
}

func renderChildren(st styles, node *engine.RenderNode, width int) []string {
	out := make([]string, 0, len(node.Children))
	for _, child := range node.Children {
		if rendered := renderNode(st, child, width); rendered != "" {
			out = append(out, rendered)
		}
	}
	return out
}

// badgeStyle colors a badge by its conventional status text.
func badgeStyle(st styles, text string) lipgloss.Style {
	switch strings.ToLower(text) {
	case "done", "ok", "success", "complete":
		return st.badgeOK
	case "running", "active", "pending-approval", "in-progress":
		return st.badgeWarn
	case "error", "failed", "blocked":
		return st.badgeErr
	default:
		return st.badgeMuted
	}
}

// stringProp reads a prop as display text, tolerating the loosely typed
// values that arrive from resolved data bindings.
func stringProp(node *engine.RenderNode, key string) string {
	switch v := node.Props[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func intProp(node *engine.RenderNode, key string, fallback int) int {
	switch v := node.Props[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}
