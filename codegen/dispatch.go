package codegen

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var defPattern = regexp.MustCompile(`^\s*def\s+(\w+)\(`)

// IndexChange records a wrapper whose dispatch index differs from the index
// found in previously generated code.
type IndexChange struct {
	Name string
	Old  int
	New  int
}

func (c IndexChange) String() string {
	return fmt.Sprintf("%s: %d -> %d", c.Name, c.Old, c.New)
}

// IndexChangeError is returned when dispatch indices moved and the caller
// treats that as fatal.
type IndexChangeError struct {
	Changes []IndexChange
}

func (e *IndexChangeError) Error() string {
	parts := make([]string, len(e.Changes))
	for i, c := range e.Changes {
		parts[i] = c.String()
	}
	return fmt.Sprintf("dispatch indices changed (%s)", strings.Join(parts, ", "))
}

// ScanIndices recovers the wrapper name to dispatch index mapping from text
// previously produced by Generate. Unrecognised lines are ignored, so any
// hand-written content yields an empty map.
func (g *Generator) ScanIndices(text string) map[string]int {
	call := regexp.MustCompile(regexp.QuoteMeta(g.opts.Dispatch) + `\(\s*(\d+)\s*,`)
	indices := make(map[string]int)
	var current string
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := sc.Text()
		if m := defPattern.FindStringSubmatch(line); m != nil {
			current = m[1]
			continue
		}
		if current == "" {
			continue
		}
		if m := call.FindStringSubmatch(line); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				indices[current] = n
			}
			current = ""
		}
	}
	return indices
}

// CompareIndices returns the methods present in previous whose index is
// different now, in dispatch order. Methods that are new or gone are not
// reported.
func CompareIndices(previous map[string]int, methods []*Method) []IndexChange {
	var changes []IndexChange
	for _, m := range methods {
		old, ok := previous[m.Name]
		if ok && old != m.Index {
			changes = append(changes, IndexChange{Name: m.Name, Old: old, New: m.Index})
		}
	}
	return changes
}
