package logger

// Diagnostics are collected asynchronously as they happen and flushed in
// sorted order once a build phase completes. Each message can carry the
// contents of the source line it refers to. Operational logging (progress,
// timings) is deliberately not handled here; that goes through zerolog at the
// orchestration layer. This package only deals with messages that point into
// user source code.

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

type Log struct {
	AddMsg    func(Msg)
	HasErrors func() bool
	Done      func() []Msg
}

type MsgKind uint8

const (
	Error MsgKind = iota
	Warning
)

func (kind MsgKind) String() string {
	if kind == Error {
		return "error"
	}
	return "warning"
}

type Msg struct {
	Kind     MsgKind
	Text     string
	Location *MsgLocation
}

type MsgLocation struct {
	File     string
	Line     int // 1-based
	Column   int // 0-based, in bytes
	Length   int // in bytes
	LineText string
}

type Loc struct {
	// This is the 0-based index of this location from the start of the file, in bytes
	Start int32
}

type Range struct {
	Loc Loc
	Len int32
}

func (r Range) End() int32 {
	return r.Loc.Start + r.Len
}

// A Source is one input file as seen by diagnostics: the path messages name
// and the contents line/column math runs over.
type Source struct {
	PrettyPath string
	Contents   string
}

func (msg Msg) String() string {
	if msg.Location == nil {
		return fmt.Sprintf("%s: %s\n", msg.Kind, msg.Text)
	}
	loc := msg.Location
	sb := strings.Builder{}
	fmt.Fprintf(&sb, "%s:%d:%d: %s: %s\n", loc.File, loc.Line, loc.Column, msg.Kind, msg.Text)
	if loc.LineText != "" {
		sb.WriteString(loc.LineText)
		sb.WriteByte('\n')
		sb.WriteString(strings.Repeat(" ", loc.Column))
		if loc.Length > 1 {
			sb.WriteString(strings.Repeat("~", loc.Length))
		} else {
			sb.WriteByte('^')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// This type is just so we can use Go's native sort function
type msgsArray []Msg

func (a msgsArray) Len() int          { return len(a) }
func (a msgsArray) Swap(i int, j int) { a[i], a[j] = a[j], a[i] }

func (a msgsArray) Less(i int, j int) bool {
	li := a[i].Location
	lj := a[j].Location

	if li == nil && lj != nil {
		return true
	}
	if li != nil && lj == nil {
		return false
	}

	if li != nil && lj != nil {
		if li.File != lj.File {
			return li.File < lj.File
		}
		if li.Line != lj.Line {
			return li.Line < lj.Line
		}
		if li.Column != lj.Column {
			return li.Column < lj.Column
		}
	}

	return a[i].Text < a[j].Text
}

// NewDeferLog returns a log that collects messages until Done is called. It
// is safe to add messages from multiple goroutines.
func NewDeferLog() Log {
	var msgs msgsArray
	var mutex sync.Mutex
	var hasErrors bool

	return Log{
		AddMsg: func(msg Msg) {
			mutex.Lock()
			defer mutex.Unlock()
			if msg.Kind == Error {
				hasErrors = true
			}
			msgs = append(msgs, msg)
		},
		HasErrors: func() bool {
			mutex.Lock()
			defer mutex.Unlock()
			return hasErrors
		},
		Done: func() []Msg {
			mutex.Lock()
			defer mutex.Unlock()
			sort.Stable(msgs)
			return msgs
		},
	}
}

func (log Log) AddRangeWarning(source *Source, r Range, text string) {
	log.AddMsg(Msg{
		Kind:     Warning,
		Text:     text,
		Location: LocationOrNil(source, r),
	})
}

// LocationOrNil converts a byte range in a source into a 1-based line and a
// 0-based column, along with the text of the containing line.
func LocationOrNil(source *Source, r Range) *MsgLocation {
	if source == nil {
		return nil
	}

	contents := source.Contents
	offset := int(r.Loc.Start)
	if offset > len(contents) {
		offset = len(contents)
	}

	// Count lines up to the offset
	line := 1
	lineStart := 0
	for i := 0; i < offset; i++ {
		if contents[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}

	lineEnd := len(contents)
	if i := strings.IndexByte(contents[lineStart:], '\n'); i != -1 {
		lineEnd = lineStart + i
	}

	return &MsgLocation{
		File:     source.PrettyPath,
		Line:     line,
		Column:   offset - lineStart,
		Length:   int(r.Len),
		LineText: contents[lineStart:lineEnd],
	}
}
