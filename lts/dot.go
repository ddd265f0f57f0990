package lts

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// GenerateDot generates a Graphviz DOT representation of l.
func GenerateDot(l *LTS) string {
	var sb strings.Builder

	sb.WriteString("digraph LTS {\n")
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=circle];\n")
	sb.WriteString("\n")

	// Invisible start node pointing to the initial state
	sb.WriteString("  start [shape=point];\n")
	sb.WriteString(fmt.Sprintf("  start -> %d;\n", l.initial))
	sb.WriteString("\n")

	for s := 0; s < l.numStates; s++ {
		labels := l.StateLabel(s)
		if len(labels) > 0 {
			sb.WriteString(fmt.Sprintf("  %d [label=%s];\n", s, strconv.Quote(fmt.Sprintf("%d\n{%s}", s, strings.Join(labels, ", ")))))
		} else {
			sb.WriteString(fmt.Sprintf("  %d [label=\"%d\"];\n", s, s))
		}
	}
	sb.WriteString("\n")

	for _, t := range l.transitions {
		style := ""
		if t.Label == tau {
			style = ", style=dashed"
		}
		sb.WriteString(fmt.Sprintf("  %d -> %d [label=%s%s];\n", t.From, t.To, strconv.Quote(l.labels[t.Label]), style))
	}

	sb.WriteString("}\n")
	return sb.String()
}

// WriteDot writes the DOT representation of l to w.
func WriteDot(w io.Writer, l *LTS) error {
	_, err := io.WriteString(w, GenerateDot(l))
	return err
}
