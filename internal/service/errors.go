package service

import (
	"sort"
	"strings"
)

// FieldErrors collects validation failures keyed by input field. The HTTP
// layer renders it verbatim as {"<field>": ["<message>", ...]}.
type FieldErrors map[string][]string

func (e FieldErrors) add(field, message string) {
	e[field] = append(e[field], message)
}

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var b strings.Builder
	for i, field := range fields {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(field)
		b.WriteString(": ")
		b.WriteString(strings.Join(e[field], ", "))
	}
	return b.String()
}
