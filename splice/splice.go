// Package splice replaces the generated region of a host source file. The
// region is bounded by two sentinel marker lines; everything outside them is
// left byte-for-byte as it was.
package splice

import (
	"bytes"
	"errors"
	"fmt"
)

var (
	// ErrMissingSentinelMarkers is returned when the marker pair is absent or
	// incomplete.
	ErrMissingSentinelMarkers = errors.New("sentinel markers not found")

	// ErrAmbiguousSentinelMarkers is returned when a marker appears more
	// often than once per role.
	ErrAmbiguousSentinelMarkers = errors.New("sentinel markers appear more than once")
)

// Markers are the literal lines that open and close the generated region.
// Begin and End may be the same string.
type Markers struct {
	Begin string
	End   string
}

// region locates the generated region within a file.
type region struct {
	// start is the offset of the opening marker text, after its indentation.
	start int
	// body and bodyEnd bound the generated text between the marker lines.
	body    int
	bodyEnd int
	// end is the offset just past the closing marker line, newline included.
	end int
	// endIndent is the indentation of the closing marker line.
	endIndent []byte
	// newline is the closing marker line's terminator, if any.
	newline []byte
}

type line struct {
	start, end int // end excludes the terminator
	next       int // offset of the following line
}

func splitLines(content []byte) []line {
	var lines []line
	for off := 0; off < len(content); {
		i := bytes.IndexByte(content[off:], '\n')
		if i < 0 {
			lines = append(lines, line{start: off, end: len(content), next: len(content)})
			break
		}
		end := off + i
		lines = append(lines, line{start: off, end: end, next: end + 1})
		off = end + 1
	}
	return lines
}

func (m Markers) locate(content []byte) (*region, error) {
	begin, end := []byte(m.Begin), []byte(m.End)
	var opens, closes []line
	for _, l := range splitLines(content) {
		text := bytes.TrimSpace(content[l.start:l.end])
		switch {
		case bytes.Equal(begin, end) && bytes.Equal(text, begin):
			if len(opens) == 0 {
				opens = append(opens, l)
			} else {
				closes = append(closes, l)
			}
		case bytes.Equal(text, begin):
			opens = append(opens, l)
		case bytes.Equal(text, end):
			closes = append(closes, l)
		}
	}
	switch {
	case len(opens) == 0 || len(closes) == 0:
		return nil, ErrMissingSentinelMarkers
	case len(opens) > 1 || len(closes) > 1:
		return nil, ErrAmbiguousSentinelMarkers
	}
	open, closing := opens[0], closes[0]
	if closing.start < open.start {
		return nil, fmt.Errorf("%w: closing marker precedes opening marker", ErrMissingSentinelMarkers)
	}

	lineText := content[closing.start:closing.end]
	endIndent := lineText[:len(lineText)-len(bytes.TrimLeft(lineText, " \t"))]
	newline := content[closing.end:closing.next]
	if bytes.HasSuffix(lineText, []byte("\r")) {
		newline = append([]byte("\r"), newline...)
	}
	return &region{
		start:     open.start + bytes.Index(content[open.start:open.end], begin),
		body:      open.next,
		bodyEnd:   closing.start,
		end:       closing.next,
		endIndent: endIndent,
		newline:   newline,
	}, nil
}

// Splice returns content with the region between the markers replaced by
// generated. The opening marker is followed by a blank line, then generated,
// then a newline and the closing marker at its original indentation.
func Splice(content []byte, markers Markers, generated string) ([]byte, error) {
	r, err := markers.locate(content)
	if err != nil {
		return nil, err
	}
	return r.splice(content, markers, generated), nil
}

func (r *region) splice(content []byte, markers Markers, generated string) []byte {
	var b bytes.Buffer
	b.Grow(len(content) + len(generated))
	b.Write(content[:r.start])
	b.WriteString(markers.Begin)
	b.WriteString("\n\n")
	b.WriteString(generated)
	b.WriteString("\n")
	b.Write(r.endIndent)
	b.WriteString(markers.End)
	b.Write(r.newline)
	b.Write(content[r.end:])
	return b.Bytes()
}
