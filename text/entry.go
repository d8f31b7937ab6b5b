// Package text tokenizes the ASCII header segment of a BSB/KAP chart into
// typed entries.
//
// A header line such as "RGB/1,255,0,0" starts an entry of type "RGB". Lines
// indented by exactly four spaces continue the entry opened before them:
//
//	BSB/NA=CHART 1,NU=101
//	    RA=1200,800,DU=254
//
// yields one entry {Type: "BSB", Lines: ["NA=CHART 1,NU=101", "RA=1200,800,DU=254"]}.
// Lines starting with "!" are comments and get the type "!". Lines without a
// "/" get the type "<unknown>".
package text

import (
	"errors"
	"strings"
)

const (
	// CommentType is the entry type of lines starting with "!".
	CommentType = "!"
	// UnknownType is the entry type of lines with no "TYPE/" prefix.
	UnknownType = "<unknown>"

	continuationPrefix = "    "
	lineSeparator      = "\r\n"
)

// ErrOrphanContinuation reports a continuation line with no entry open before it.
var ErrOrphanContinuation = errors.New("continuation line before any entry")

// Entry is one logical header record spanning one or more physical lines.
type Entry struct {
	Type  string
	Lines []string
}

// Tokenizer builds entries one line at a time.
type Tokenizer struct {
	entries []Entry
}

// Add tokenizes one line, without its CRLF terminator.
func (t *Tokenizer) Add(line string) error {
	switch {
	case line == "":
		return nil
	case line[0] == '!':
		t.start(CommentType, line[1:])
	case strings.HasPrefix(line, continuationPrefix):
		if len(t.entries) == 0 {
			return ErrOrphanContinuation
		}
		cur := &t.entries[len(t.entries)-1]
		cur.Lines = append(cur.Lines, line[len(continuationPrefix):])
	default:
		if entryType, rest, ok := strings.Cut(line, "/"); ok && entryType != "" {
			t.start(entryType, rest)
		} else {
			t.start(UnknownType, line)
		}
	}

	return nil
}

// Entries returns the entries tokenized so far. The slice is owned by the Tokenizer.
func (t *Tokenizer) Entries() []Entry {
	return t.entries
}

// Len returns the number of entries started so far.
func (t *Tokenizer) Len() int {
	return len(t.entries)
}

// Reset drops all entries.
func (t *Tokenizer) Reset() {
	t.entries = nil
}

func (t *Tokenizer) start(entryType, first string) {
	t.entries = append(t.entries, Entry{Type: entryType, Lines: []string{first}})
}

// ParseLines tokenizes an ordered sequence of lines.
func ParseLines(lines []string) ([]Entry, error) {
	var t Tokenizer
	for _, line := range lines {
		if err := t.Add(line); err != nil {
			return t.Entries(), err
		}
	}

	return t.Entries(), nil
}

// ParseSegment splits a whole text segment on CRLF and tokenizes it.
func ParseSegment(segment string) ([]Entry, error) {
	return ParseLines(strings.Split(segment, lineSeparator))
}

// Render returns the physical lines of e, the inverse of tokenizing it.
func (e Entry) Render() []string {
	out := make([]string, 0, len(e.Lines))
	for i, line := range e.Lines {
		switch {
		case i > 0:
			out = append(out, continuationPrefix+line)
		case e.Type == CommentType:
			out = append(out, "!"+line)
		case e.Type == UnknownType:
			out = append(out, line)
		default:
			out = append(out, e.Type+"/"+line)
		}
	}

	return out
}
