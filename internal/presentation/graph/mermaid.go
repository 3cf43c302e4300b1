package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/parley/pkg/config"
)

// GraphOverlay contains session data to visualize on the graph.
type GraphOverlay struct {
	VisitedStates []string
	CurrentState  string
}

// GenerateMermaid produces a Mermaid flowchart from a routing file.
// Shapes:
// - Entry state: ((Circle))
// - Terminal state (every intent ends the session): [[Subroutine]]
// - Default: [Rectangle]
// Intent transitions are solid edges labelled with the intent.
// Filter redirects are dotted edges labelled with the filter id.
func GenerateMermaid(f *config.File, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	entry := f.EntryState()
	for _, name := range sortedStates(f) {
		st := f.States[name]
		safeID := sanitizeMermaidID(name)

		opener, closer := "[", "]"
		switch {
		case name == entry:
			opener, closer = "((", "))"
		case isTerminal(st):
			opener, closer = "[[", "]]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, name, closer)

		for _, id := range st.Filters {
			writeRedirect(&sb, f, safeID, id)
		}

		intents := make([]string, 0, len(st.Intents))
		for intent := range st.Intents {
			intents = append(intents, intent)
		}
		sort.Strings(intents)

		for _, intent := range intents {
			ic := st.Intents[intent]
			if ic.Transition != "" {
				fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", safeID, escapeLabel(intent), sanitizeMermaidID(ic.Transition))
			}
			for _, id := range ic.Filters {
				writeRedirect(&sb, f, safeID, id)
			}
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, name := range overlay.VisitedStates {
			safeID := sanitizeMermaidID(name)
			if safeID != "" && !seen[safeID] {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.CurrentState != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentState))
		}
	}

	return sb.String()
}

func writeRedirect(sb *strings.Builder, f *config.File, from, filterID string) {
	fc, ok := f.Filter(filterID)
	if !ok {
		return
	}
	target, ok := fc.RedirectTarget()
	if !ok || target.State == "" {
		return
	}
	label := escapeLabel(fmt.Sprintf("%s: %s", filterID, target.Intent))
	fmt.Fprintf(sb, "    %s -. \"%s\" .-> %s\n", from, label, sanitizeMermaidID(target.State))
}

func isTerminal(st config.StateConfig) bool {
	if len(st.Intents) == 0 {
		return false
	}
	for _, ic := range st.Intents {
		if !ic.End {
			return false
		}
	}
	return true
}

func sortedStates(f *config.File) []string {
	names := make([]string, 0, len(f.States))
	for name := range f.States {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
