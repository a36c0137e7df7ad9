package ansi

import (
	"reflect"
	"testing"
)

func TestParserPlainText(t *testing.T) {
	p := NewParser()
	ops := p.FeedString("hi")

	want := []Op{WriteChar{Rune: 'h'}, WriteChar{Rune: 'i'}}
	if !reflect.DeepEqual(ops, want) {
		t.Errorf("expected %v, got %v", want, ops)
	}
}

func TestParserControlBytes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Op
	}{
		{"carriage return", "\r", []Op{CarriageReturn{}}},
		{"line feed", "\n", []Op{LineFeed{}}},
		{"crlf", "\r\n", []Op{CarriageReturn{}, LineFeed{}}},
		{"backspace", "\b", []Op{Backspace{}}},
		{"tab", "\t", []Op{Tab{}}},
		{"bell", "\x07", []Op{Bell{}}},
		{"vertical tab", "\x0B", []Op{LineFeed{}}},
		{"form feed", "\x0C", []Op{LineFeed{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser()
			ops := p.FeedString(tt.input)
			if !reflect.DeepEqual(ops, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, ops)
			}
		})
	}
}

func TestParserCursorMovement(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Op
	}{
		{"cursor up", "\x1b[A", []Op{MoveCursorBy{DY: -1}}},
		{"cursor up n", "\x1b[5A", []Op{MoveCursorBy{DY: -5}}},
		{"cursor down", "\x1b[3B", []Op{MoveCursorBy{DY: 3}}},
		{"cursor forward", "\x1b[2C", []Op{MoveCursorBy{DX: 2}}},
		{"cursor back", "\x1b[4D", []Op{MoveCursorBy{DX: -4}}},
		{"cursor zero param uses default", "\x1b[0C", []Op{MoveCursorBy{DX: 1}}},
		{"cursor position", "\x1b[5;10H", []Op{MoveCursorTo{Row: 4, Col: 9}}},
		{"cursor home", "\x1b[H", []Op{MoveCursorTo{Row: 0, Col: 0}}},
		{"hvp", "\x1b[3;7f", []Op{MoveCursorTo{Row: 2, Col: 6}}},
		{"column absolute", "\x1b[12G", []Op{CursorColumn{Col: 11}}},
		{"row absolute", "\x1b[8d", []Op{CursorRow{Row: 7}}},
		{"next line", "\x1b[2E", []Op{CarriageReturn{}, LineFeed{}, LineFeed{}}},
		{"previous line", "\x1b[F", []Op{CarriageReturn{}, ReverseLineFeed{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser()
			ops := p.FeedString(tt.input)
			if !reflect.DeepEqual(ops, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, ops)
			}
		})
	}
}

func TestParserErase(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Op
	}{
		{"erase to end of display", "\x1b[J", []Op{EraseInDisplay{Mode: EraseToEnd}}},
		{"erase to start of display", "\x1b[1J", []Op{EraseInDisplay{Mode: EraseToStart}}},
		{"erase display", "\x1b[2J", []Op{EraseInDisplay{Mode: EraseAll}}},
		{"erase scrollback treated as all", "\x1b[3J", []Op{EraseInDisplay{Mode: EraseAll}}},
		{"erase to end of line", "\x1b[K", []Op{EraseInLine{Mode: EraseToEnd}}},
		{"erase to start of line", "\x1b[1K", []Op{EraseInLine{Mode: EraseToStart}}},
		{"erase line", "\x1b[2K", []Op{EraseInLine{Mode: EraseAll}}},
		{"erase chars", "\x1b[4X", []Op{EraseChars{N: 4}}},
		{"delete chars", "\x1b[2P", []Op{DeleteChars{N: 2}}},
		{"insert chars", "\x1b[3@", []Op{InsertChars{N: 3}}},
		{"insert lines", "\x1b[2L", []Op{InsertLines{N: 2}}},
		{"delete lines", "\x1b[M", []Op{DeleteLines{N: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser()
			ops := p.FeedString(tt.input)
			if !reflect.DeepEqual(ops, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, ops)
			}
		})
	}
}

func TestParserScrolling(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Op
	}{
		{"scroll up", "\x1b[2S", []Op{ScrollUp{N: 2}}},
		{"scroll down", "\x1b[T", []Op{ScrollDown{N: 1}}},
		{"set scroll region", "\x1b[2;10r", []Op{SetScrollRegion{Top: 1, Bottom: 9}}},
		{"reset scroll region", "\x1b[r", []Op{SetScrollRegion{Top: 0, Bottom: -1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser()
			ops := p.FeedString(tt.input)
			if !reflect.DeepEqual(ops, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, ops)
			}
		})
	}
}

func TestParserEscapeSequences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Op
	}{
		{"save cursor", "\x1b7", []Op{SaveCursor{}}},
		{"restore cursor", "\x1b8", []Op{RestoreCursor{}}},
		{"index", "\x1bD", []Op{LineFeed{}}},
		{"next line", "\x1bE", []Op{CarriageReturn{}, LineFeed{}}},
		{"reverse index", "\x1bM", []Op{ReverseLineFeed{}}},
		{"full reset", "\x1bc", []Op{Reset{}}},
		{"csi save cursor", "\x1b[s", []Op{SaveCursor{}}},
		{"csi restore cursor", "\x1b[u", []Op{RestoreCursor{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser()
			ops := p.FeedString(tt.input)
			if !reflect.DeepEqual(ops, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, ops)
			}
		})
	}
}

func TestParserPrivateModes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Op
	}{
		{"show cursor", "\x1b[?25h", []Op{SetCursorVisible{Visible: true}}},
		{"hide cursor", "\x1b[?25l", []Op{SetCursorVisible{Visible: false}}},
		{"autowrap on", "\x1b[?7h", []Op{SetAutoWrap{Enabled: true}}},
		{"autowrap off", "\x1b[?7l", []Op{SetAutoWrap{Enabled: false}}},
		{"origin mode on", "\x1b[?6h", []Op{SetOriginMode{Enabled: true}}},
		{"origin mode off", "\x1b[?6l", []Op{SetOriginMode{Enabled: false}}},
		{"bracketed paste ignored", "\x1b[?2004h", nil},
		{"alt screen reported unknown", "\x1b[?1049h", []Op{Unknown{Seq: "CSI ?1049h"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser()
			ops := p.FeedString(tt.input)
			if !reflect.DeepEqual(ops, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, ops)
			}
		})
	}
}

func TestParserSGR(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Op
	}{
		{"reset", "\x1b[0m", []Op{ResetStyle{}}},
		{"reset empty", "\x1b[m", []Op{ResetStyle{}}},
		{"bold", "\x1b[1m", []Op{AddAttrs{Attrs: AttrBold}}},
		{"not bold", "\x1b[22m", []Op{RemoveAttrs{Attrs: AttrBold | AttrDim}}},
		{"red foreground", "\x1b[31m", []Op{SetForeground{Color: Palette[1]}}},
		{"bright green foreground", "\x1b[92m", []Op{SetForeground{Color: Palette[10]}}},
		{"blue background", "\x1b[44m", []Op{SetBackground{Color: Palette[4]}}},
		{"default foreground", "\x1b[39m", []Op{SetForeground{Color: DefaultForeground}}},
		{"default background", "\x1b[49m", []Op{SetBackground{Color: DefaultBackground}}},
		{
			"combined bold red",
			"\x1b[1;31m",
			[]Op{AddAttrs{Attrs: AttrBold}, SetForeground{Color: Palette[1]}},
		},
		{
			"256 color foreground",
			"\x1b[38;5;196m",
			[]Op{SetForeground{Color: ColorFromIndex(196)}},
		},
		{
			"256 color background",
			"\x1b[48;5;21m",
			[]Op{SetBackground{Color: ColorFromIndex(21)}},
		},
		{
			"rgb foreground",
			"\x1b[38;2;255;128;0m",
			[]Op{SetForeground{Color: ColorFromRGB(255, 128, 0)}},
		},
		{
			"rgb clamps out of range",
			"\x1b[38;2;300;128;0m",
			[]Op{SetForeground{Color: ColorFromRGB(255, 128, 0)}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser()
			ops := p.FeedString(tt.input)
			if !reflect.DeepEqual(ops, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, ops)
			}
		})
	}
}

func TestParserOSC(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Op
	}{
		{"title bel terminated", "\x1b]0;my title\x07", []Op{SetTitle{Text: "my title"}}},
		{"title st terminated", "\x1b]2;other\x1b\\", []Op{SetTitle{Text: "other"}}},
		{"icon name ignored", "\x1b]1;icon\x07", nil},
		{"cwd report", "\x1b]7;file://host/home/user\x07", []Op{OSCEvent{Cmd: 7, Data: "file://host/home/user"}}},
		{"prompt marker", "\x1b]133;A\x07", []Op{OSCEvent{Cmd: 133, Data: "A"}}},
		{"exit marker", "\x1b]133;D;0\x07", []Op{OSCEvent{Cmd: 133, Data: "D;0"}}},
		{"non numeric command", "\x1b]foo;bar\x07", []Op{Unknown{Seq: "OSC foo;bar"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser()
			ops := p.FeedString(tt.input)
			if !reflect.DeepEqual(ops, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, ops)
			}
		})
	}
}

func TestParserUTF8(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Op
	}{
		{"two byte", "é", []Op{WriteChar{Rune: 'é'}}},
		{"three byte", "世", []Op{WriteChar{Rune: '世'}}},
		{"four byte", "🙂", []Op{WriteChar{Rune: '🙂'}}},
		{"mixed", "a世b", []Op{WriteChar{Rune: 'a'}, WriteChar{Rune: '世'}, WriteChar{Rune: 'b'}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser()
			ops := p.FeedString(tt.input)
			if !reflect.DeepEqual(ops, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, ops)
			}
		})
	}
}

func TestParserUTF8Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  []Op
	}{
		{
			"stray continuation byte",
			[]byte{0x80, 'a'},
			[]Op{WriteChar{Rune: '�'}, WriteChar{Rune: 'a'}},
		},
		{
			"truncated sequence then ascii",
			[]byte{0xE4, 'x'},
			[]Op{WriteChar{Rune: '�'}, WriteChar{Rune: 'x'}},
		},
		{
			"overlong encoding",
			[]byte{0xC0, 0x80},
			[]Op{WriteChar{Rune: '�'}},
		},
		{
			"surrogate half",
			[]byte{0xED, 0xA0, 0x80},
			[]Op{WriteChar{Rune: '�'}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser()
			ops := p.Feed(tt.input)
			if !reflect.DeepEqual(ops, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, ops)
			}
		})
	}
}

// TestParserChunkIndependence verifies that splitting a byte stream at
// any position produces the same operations as feeding it whole.
func TestParserChunkIndependence(t *testing.T) {
	streams := []string{
		"hello \x1b[1;31mred\x1b[0m world",
		"\x1b[5;10Hplaced\x1b[2Jtext",
		"\x1b]0;a title\x07body\x1b]133;D;0\x07",
		"caf\xc3\xa9 \xe4\xb8\x96\xe7\x95\x8c \xf0\x9f\x99\x82",
		"\x1b[38;2;10;20;30mcolor\x1b[48;5;200mmore",
		"line1\r\nline2\x1b[2A\x1b[K",
	}

	for _, stream := range streams {
		data := []byte(stream)

		whole := NewParser().Feed(data)

		for split := 1; split < len(data); split++ {
			p := NewParser()
			var ops []Op
			ops = append(ops, p.Feed(data[:split])...)
			ops = append(ops, p.Feed(data[split:])...)

			if !reflect.DeepEqual(ops, whole) {
				t.Errorf("split at %d: expected %v, got %v", split, whole, ops)
			}
		}
	}
}

// TestParserEscAtEndOfChunk verifies a chunk ending mid-sequence leaves
// the parser able to resume on the next call.
func TestParserEscAtEndOfChunk(t *testing.T) {
	p := NewParser()

	ops := p.FeedString("\x1b")
	if len(ops) != 0 {
		t.Errorf("expected no ops for lone ESC, got %v", ops)
	}

	ops = p.FeedString("[2J")
	want := []Op{EraseInDisplay{Mode: EraseAll}}
	if !reflect.DeepEqual(ops, want) {
		t.Errorf("expected %v, got %v", want, ops)
	}

	// Plain text parses normally afterwards.
	ops = p.FeedString("ok")
	want = []Op{WriteChar{Rune: 'o'}, WriteChar{Rune: 'k'}}
	if !reflect.DeepEqual(ops, want) {
		t.Errorf("expected %v, got %v", want, ops)
	}
}

func TestParserEscRestartsUnterminatedCSI(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Op
	}{
		{"esc then escape final", "\x1b[1\x1bc", []Op{Reset{}}},
		{"esc then new csi", "\x1b[12\x1b[31m", []Op{SetForeground{Color: Palette[1]}}},
		{"esc in private prefix", "\x1b[?\x1b[2J", []Op{EraseInDisplay{Mode: EraseAll}}},
		{"esc after intermediate", "\x1b[4 \x1b[Hx", []Op{MoveCursorTo{Row: 0, Col: 0}, WriteChar{Rune: 'x'}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser()
			ops := p.FeedString(tt.input)
			if !reflect.DeepEqual(ops, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, ops)
			}
		})
	}
}

func TestParserRecoversFromUnknownSequences(t *testing.T) {
	p := NewParser()

	// An unrecognized escape final is reported, then parsing resumes.
	ops := p.FeedString("\x1bZafter")
	want := []Op{
		Unknown{Seq: "ESC Z"},
		WriteChar{Rune: 'a'},
		WriteChar{Rune: 'f'},
		WriteChar{Rune: 't'},
		WriteChar{Rune: 'e'},
		WriteChar{Rune: 'r'},
	}
	if !reflect.DeepEqual(ops, want) {
		t.Errorf("expected %v, got %v", want, ops)
	}
}

func TestParserDCSIgnored(t *testing.T) {
	p := NewParser()

	ops := p.FeedString("\x1bPq#0;2;0;0;0\x1b\\after")
	want := []Op{
		WriteChar{Rune: 'a'},
		WriteChar{Rune: 'f'},
		WriteChar{Rune: 't'},
		WriteChar{Rune: 'e'},
		WriteChar{Rune: 'r'},
	}
	if !reflect.DeepEqual(ops, want) {
		t.Errorf("expected %v, got %v", want, ops)
	}
}

func TestParserFreshSliceEachFeed(t *testing.T) {
	p := NewParser()

	first := p.FeedString("a")
	second := p.FeedString("b")

	if len(first) != 1 || first[0] != (WriteChar{Rune: 'a'}) {
		t.Errorf("expected first feed to hold 'a', got %v", first)
	}
	if len(second) != 1 || second[0] != (WriteChar{Rune: 'b'}) {
		t.Errorf("expected second feed to hold 'b', got %v", second)
	}
}
