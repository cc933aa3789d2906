package splice

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
)

var markTest = Markers{Begin: "# MARK-BEGIN", End: "# MARK-END"}

var spliceTests = []struct {
	testName  string
	markers   Markers
	content   string
	generated string
	want      string
}{{
	testName:  "DistinctMarkers",
	markers:   markTest,
	content:   "before\n# MARK-BEGIN\nold text\n# MARK-END\nafter\n",
	generated: "new text\n",
	want:      "before\n# MARK-BEGIN\n\nnew text\n\n# MARK-END\nafter\n",
}, {
	testName:  "EmptyRegion",
	markers:   markTest,
	content:   "X\n# MARK-BEGIN\n# MARK-END\nY",
	generated: "def f():\n    pass\n",
	want:      "X\n# MARK-BEGIN\n\ndef f():\n    pass\n\n# MARK-END\nY",
}, {
	testName: "SameMarkerIndented",
	markers:  Markers{Begin: "# @@AUTOGEN@@", End: "# @@AUTOGEN@@"},
	content: "class RustBackend:\n" +
		"    # @@AUTOGEN@@\n" +
		"    def stale(self): ...\n" +
		"    # @@AUTOGEN@@\n" +
		"\n" +
		"def other(): ...\n",
	generated: "    def fresh(self): ...\n",
	want: "class RustBackend:\n" +
		"    # @@AUTOGEN@@\n" +
		"\n" +
		"    def fresh(self): ...\n" +
		"\n" +
		"    # @@AUTOGEN@@\n" +
		"\n" +
		"def other(): ...\n",
}, {
	testName:  "ClosingMarkerAtEOF",
	markers:   markTest,
	content:   "a\n# MARK-BEGIN\nx\n  # MARK-END",
	generated: "y\n",
	want:      "a\n# MARK-BEGIN\n\ny\n\n  # MARK-END",
}, {
	testName:  "CRLF",
	markers:   markTest,
	content:   "a\r\n# MARK-BEGIN\r\nx\r\n# MARK-END\r\nb\r\n",
	generated: "y\n",
	want:      "a\r\n# MARK-BEGIN\n\ny\n\n# MARK-END\r\nb\r\n",
}, {
	testName:  "Idempotent",
	markers:   markTest,
	content:   "X\n# MARK-BEGIN\n\nnew\n\n# MARK-END\nY\n",
	generated: "new\n",
	want:      "X\n# MARK-BEGIN\n\nnew\n\n# MARK-END\nY\n",
}}

func TestSplice(t *testing.T) {
	for _, test := range spliceTests {
		t.Run(test.testName, func(t *testing.T) {
			got, err := Splice([]byte(test.content), test.markers, test.generated)
			qt.Assert(t, err, qt.IsNil)
			qt.Assert(t, string(got), qt.Equals, test.want)
		})
	}
}

var spliceErrorTests = []struct {
	testName string
	markers  Markers
	content  string
	want     error
}{{
	testName: "NoMarkers",
	markers:  markTest,
	content:  "nothing to see\n",
	want:     ErrMissingSentinelMarkers,
}, {
	testName: "OnlyBegin",
	markers:  markTest,
	content:  "# MARK-BEGIN\nstuff\n",
	want:     ErrMissingSentinelMarkers,
}, {
	testName: "OnlyOneSameMarker",
	markers:  Markers{Begin: "# @@AUTOGEN@@", End: "# @@AUTOGEN@@"},
	content:  "    # @@AUTOGEN@@\n",
	want:     ErrMissingSentinelMarkers,
}, {
	testName: "Reversed",
	markers:  markTest,
	content:  "# MARK-END\n# MARK-BEGIN\n",
	want:     ErrMissingSentinelMarkers,
}, {
	testName: "MarkerNotOnOwnLine",
	markers:  markTest,
	content:  "x = 1 # MARK-BEGIN\n# MARK-END\n",
	want:     ErrMissingSentinelMarkers,
}, {
	testName: "DuplicateBegin",
	markers:  markTest,
	content:  "# MARK-BEGIN\n# MARK-BEGIN\n# MARK-END\n",
	want:     ErrAmbiguousSentinelMarkers,
}, {
	testName: "ThreeSameMarkers",
	markers:  Markers{Begin: "# @@AUTOGEN@@", End: "# @@AUTOGEN@@"},
	content:  "# @@AUTOGEN@@\n# @@AUTOGEN@@\n# @@AUTOGEN@@\n",
	want:     ErrAmbiguousSentinelMarkers,
}}

func TestSpliceErrors(t *testing.T) {
	for _, test := range spliceErrorTests {
		t.Run(test.testName, func(t *testing.T) {
			_, err := Splice([]byte(test.content), test.markers, "new\n")
			qt.Assert(t, errors.Is(err, test.want), qt.IsTrue, qt.Commentf("got %v", err))
		})
	}
}
