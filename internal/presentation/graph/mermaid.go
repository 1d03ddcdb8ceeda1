package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/policydesk/pkg/assertions"
	"github.com/aretw0/policydesk/pkg/dsl"
	"github.com/aretw0/policydesk/pkg/wizard"
)

// Overlay contains dynamic state data to visualize on the graph.
type Overlay struct {
	Visited []string
	Current string
}

// GeneratePolicyMermaid produces a Mermaid flowchart of a policy tree, keyed
// by node path. It applies semantic styling:
// - Composite: ("Rounded")
// - Include: [["Subroutine"]]
// - Leaf: ["Rectangle"]
// Edges into an included fragment are dotted; disabled nodes are greyed.
func GeneratePolicyMermaid(tree *assertions.Tree, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	var disabled []string
	tree.Walk(func(n *assertions.TreeNode) bool {
		id := sanitizeMermaidID(n.Path())
		label := string(n.Assertion().Kind())
		if inc, ok := n.Assertion().(*assertions.Include); ok {
			label += " " + inc.PolicyName
		}
		label = strings.ReplaceAll(label, "\"", "'")

		opener, closer := "[", "]"
		switch {
		case n.Assertion().Kind() == assertions.KindInclude:
			opener, closer = "[[", "]]"
		case n.IsComposite():
			opener, closer = "(", ")"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, label, closer)

		if p := n.Parent(); p != nil {
			arrow := "-->"
			if n.IsDescendantOfInclude() {
				arrow = "-.->"
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(p.Path()), arrow, id)
		}
		if n.Disabled() {
			disabled = append(disabled, id)
		}
		return true
	})

	if len(disabled) > 0 {
		sb.WriteString("    classDef disabled fill:#eeeeee,stroke:#9e9e9e,color:#757575,stroke-dasharray: 4 4;\n")
		for _, id := range disabled {
			fmt.Fprintf(&sb, "    class %s disabled;\n", id)
		}
	}
	writeOverlay(&sb, overlay)
	return sb.String()
}

// GenerateWizardMermaid draws the step chain of a wizard run with its
// visited and current steps highlighted. Form steps are drawn as inputs.
func GenerateWizardMermaid(e *wizard.Engine) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")
	sb.WriteString("    start((\"start\"))\n")

	prev := "start"
	for i, step := range e.Steps() {
		id := fmt.Sprintf("step%d", i)
		label := strings.ReplaceAll(step.Label(), "\"", "'")

		opener, closer := "[", "]"
		if fs, ok := step.(*dsl.FormStep); ok && len(fs.Fields()) > 0 {
			opener, closer = "[/", "/]"
			label = fmt.Sprintf("%s <br/> %d field(s)", label, len(fs.Fields()))
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, label, closer)
		fmt.Fprintf(&sb, "    %s --> %s\n", prev, id)
		prev = id
	}
	sb.WriteString("    done((\"done\"))\n")
	fmt.Fprintf(&sb, "    %s --> done\n", prev)

	overlay := &Overlay{}
	for _, i := range e.Visited() {
		overlay.Visited = append(overlay.Visited, fmt.Sprintf("step%d", i))
	}
	switch e.Status() {
	case wizard.StatusActive:
		overlay.Current = fmt.Sprintf("step%d", e.Index())
	case wizard.StatusFinished:
		overlay.Current = "done"
	}
	writeOverlay(&sb, overlay)
	return sb.String()
}

func writeOverlay(sb *strings.Builder, overlay *Overlay) {
	if overlay == nil {
		return
	}
	sb.WriteString("\n    %% Overlay Styles\n")
	// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
	sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

	seen := make(map[string]bool)
	for _, id := range overlay.Visited {
		safeID := sanitizeMermaidID(id)
		if !seen[safeID] && safeID != "" {
			seen[safeID] = true
			fmt.Fprintf(sb, "    class %s visited;\n", safeID)
		}
	}
	if overlay.Current != "" {
		fmt.Fprintf(sb, "    class %s current;\n", sanitizeMermaidID(overlay.Current))
	}
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if s != "" && s[0] >= '0' && s[0] <= '9' {
		s = "n" + s
	}
	return s
}
