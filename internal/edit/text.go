package edit

import (
	"fmt"
	"strings"
)

const logTextTitle = "--------\nEDIT LOG\n--------\n\n"

// Text renders the undo history for debugging and the CLI.
//
// Records that form a stack are rendered as one entry. With long=true each
// entry also lists the descriptions of its records.
func (l *Log) Text(long bool) string {
	if len(l.undo) == 0 {
		return logTextTitle + "[EMPTY]\n"
	}

	var entries []string
	for i := 0; i < len(l.undo); {
		j := i
		for j+1 < len(l.undo) && l.undo[j].next == l.undo[j+1] {
			j++
		}
		group := l.undo[i : j+1]

		var b strings.Builder
		b.WriteString(group[0].name)
		if len(group) > 1 {
			fmt.Fprintf(&b, " [x%d]", len(group))
		}
		if long {
			for _, rec := range group {
				fmt.Fprintf(&b, "\n\t%s", describe(rec))
			}
		}
		entries = append(entries, b.String())
		i = j + 1
	}

	return logTextTitle + strings.Join(entries, "\n\n") + "\n\n--------\n"
}

func describe(rec *Record) string {
	if rec.description != "" {
		return rec.description
	}
	return rec.forward.String()
}
