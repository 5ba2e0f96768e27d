package emit

import "strings"

// form accumulates one parenthesized top-level form. Each line may carry
// notes, printed as a trailing comment once the line is complete.
type form struct {
	lines []formLine
}

type formLine struct {
	text  string
	notes []string
}

func newForm(head string, notes ...string) *form {
	return &form{lines: []formLine{{text: "(" + head, notes: notes}}}
}

// add appends an indented member line.
func (f *form) add(text string, notes ...string) {
	f.lines = append(f.lines, formLine{text: "  " + text, notes: notes})
}

func (f *form) String() string {
	var b strings.Builder
	last := len(f.lines) - 1
	for i, l := range f.lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l.text)
		if i == last {
			b.WriteByte(')')
		}
		writeNotes(&b, l.notes)
	}
	return b.String()
}

func writeNotes(b *strings.Builder, notes []string) {
	if len(notes) == 0 {
		return
	}
	b.WriteString(" ; ")
	b.WriteString(strings.Join(notes, ", "))
}

// withNotes appends notes as a trailing comment to a single-line form.
func withNotes(text string, notes []string) string {
	var b strings.Builder
	b.WriteString(text)
	writeNotes(&b, notes)
	return b.String()
}

func quote(s string) string {
	return `"` + s + `"`
}
