// Package textline provides the line-classification helpers shared by
// every text-based input the dispatcher reads: job lists,
// machine lists, and task-graph files. It is grounded on
// `support.c`'s `useful_line`/`skipws`/`skipnws`, translated from
// offset-scanning over a C buffer to `strings.Fields`-based tokenizing
// over a Go string.
package textline

import "strings"

// Useful reports whether line should be considered by a parser: it is
// not empty, not made entirely of whitespace, and does not start with
// '#' once leading whitespace is accounted for. A line consisting
// solely of whitespace is not useful (§4.2's "does not consist solely
// of whitespace").
func Useful(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed != "" && trimmed[0] != '#'
}

// Fields splits a useful line into whitespace-delimited tokens, the
// same tokenization `skipws`/`skipnws` implement by hand over a char
// buffer.
func Fields(line string) []string { return strings.Fields(line) }
