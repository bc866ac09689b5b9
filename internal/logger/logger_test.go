package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationOrNil(t *testing.T) {
	source := &Source{
		PrettyPath: "/src/entry.js",
		Contents:   "line one\nimport './x.js';\nline three\n",
	}

	// Range of the specifier literal on line 2
	location := LocationOrNil(source, Range{Loc: Loc{Start: 16}, Len: 8})
	require.NotNil(t, location)
	assert.Equal(t, "/src/entry.js", location.File)
	assert.Equal(t, 2, location.Line)
	assert.Equal(t, 7, location.Column)
	assert.Equal(t, 8, location.Length)
	assert.Equal(t, "import './x.js';", location.LineText)

	assert.Nil(t, LocationOrNil(nil, Range{}))
}

func TestMsgString(t *testing.T) {
	plain := Msg{Kind: Error, Text: "something broke"}
	assert.Equal(t, "error: something broke\n", plain.String())

	source := &Source{PrettyPath: "/src/a.js", Contents: "import './x.js';\n"}
	located := Msg{
		Kind:     Warning,
		Text:     `could not resolve "./x.js"`,
		Location: LocationOrNil(source, Range{Loc: Loc{Start: 7}, Len: 8}),
	}
	assert.Equal(t,
		"/src/a.js:1:7: warning: could not resolve \"./x.js\"\n"+
			"import './x.js';\n"+
			"       ~~~~~~~~\n",
		located.String())
}

func TestDeferLogSortsAndTracksErrors(t *testing.T) {
	log := NewDeferLog()
	assert.False(t, log.HasErrors())

	b := &Source{PrettyPath: "/src/b.js", Contents: "bb\n"}
	a := &Source{PrettyPath: "/src/a.js", Contents: "aa\n"}
	log.AddRangeWarning(b, Range{Loc: Loc{Start: 0}, Len: 2}, "second by path")
	log.AddRangeWarning(a, Range{Loc: Loc{Start: 0}, Len: 2}, "first by path")
	log.AddMsg(Msg{Kind: Error, Text: "no location sorts first"})

	assert.True(t, log.HasErrors())

	msgs := log.Done()
	require.Len(t, msgs, 3)
	assert.Equal(t, "no location sorts first", msgs[0].Text)
	assert.Equal(t, "/src/a.js", msgs[1].Location.File)
	assert.Equal(t, "/src/b.js", msgs[2].Location.File)
}
