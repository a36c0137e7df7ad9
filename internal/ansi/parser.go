package ansi

import (
	"strconv"
	"strings"
)

// Parser is the incremental escape-sequence state machine. It consumes
// raw PTY bytes and emits edit operations. All in-progress state (FSM
// state, CSI parameters, OSC buffer, partial UTF-8 sequences) carries
// across Feed calls, so chunk boundaries never change the result.
type Parser struct {
	state  parserState
	params []int
	inter  []byte // intermediate bytes
	osc    []byte // OSC data

	// UTF-8 decoding state
	utf8Buf   [4]byte // buffer for the in-progress UTF-8 sequence
	utf8Len   int     // expected length of current UTF-8 sequence
	utf8Count int     // bytes collected so far

	ops []Op // operations emitted by the current Feed call
}

type parserState int

const (
	stateGround parserState = iota
	stateEscape
	stateEscapeInter
	stateCSI
	stateCSIParam
	stateCSIInter
	stateOSC
	stateDCS
)

// NewParser creates a parser in ground state.
func NewParser() *Parser {
	return &Parser{
		state:  stateGround,
		params: make([]int, 0, 16),
		inter:  make([]byte, 0, 4),
		osc:    make([]byte, 0, 256),
	}
}

// Feed consumes a chunk of bytes and returns the operations it
// completes. Sequences split across chunks resume on the next call.
func (p *Parser) Feed(data []byte) []Op {
	p.ops = nil
	for _, b := range data {
		p.processByte(b)
	}
	return p.ops
}

// FeedString is Feed for string input.
func (p *Parser) FeedString(s string) []Op {
	return p.Feed([]byte(s))
}

func (p *Parser) emit(op Op) {
	p.ops = append(p.ops, op)
}

func (p *Parser) processByte(b byte) {
	switch p.state {
	case stateGround:
		p.processGround(b)
	case stateEscape:
		p.processEscape(b)
	case stateEscapeInter:
		p.processEscapeInter(b)
	case stateCSI:
		p.processCSI(b)
	case stateCSIParam:
		p.processCSIParam(b)
	case stateCSIInter:
		p.processCSIInter(b)
	case stateOSC:
		p.processOSC(b)
	case stateDCS:
		p.processDCS(b)
	}
}

func (p *Parser) processGround(b byte) {
	// Continue collecting an in-progress UTF-8 sequence first.
	if p.utf8Len > 0 {
		p.processUTF8Continuation(b)
		return
	}

	switch {
	case b == 0x1B: // ESC
		p.state = stateEscape
		p.params = p.params[:0]
		p.inter = p.inter[:0]
	case b == 0x07: // BEL
		p.emit(Bell{})
	case b == 0x08: // BS
		p.emit(Backspace{})
	case b == 0x09: // HT
		p.emit(Tab{})
	case b == 0x0A, b == 0x0B, b == 0x0C: // LF, VT, FF
		p.emit(LineFeed{})
	case b == 0x0D: // CR
		p.emit(CarriageReturn{})
	case b >= 0x20 && b < 0x7F: // Printable ASCII
		p.emit(WriteChar{Rune: rune(b)})
	case b >= 0xC0 && b < 0xE0: // 2-byte UTF-8 start
		p.utf8Buf[0] = b
		p.utf8Len = 2
		p.utf8Count = 1
	case b >= 0xE0 && b < 0xF0: // 3-byte UTF-8 start
		p.utf8Buf[0] = b
		p.utf8Len = 3
		p.utf8Count = 1
	case b >= 0xF0 && b < 0xF8: // 4-byte UTF-8 start
		p.utf8Buf[0] = b
		p.utf8Len = 4
		p.utf8Count = 1
	case b >= 0x80 && b < 0xC0: // Unexpected continuation byte
		p.emit(WriteChar{Rune: '�'})
	default:
		// Remaining C0 controls and invalid bytes are ignored.
	}
}

// processUTF8Continuation handles continuation bytes of a multi-byte
// UTF-8 sequence.
func (p *Parser) processUTF8Continuation(b byte) {
	if b < 0x80 || b >= 0xC0 {
		// Invalid continuation: emit a replacement for the broken
		// sequence, then process the byte normally.
		p.utf8Len = 0
		p.utf8Count = 0
		p.emit(WriteChar{Rune: '�'})
		p.processGround(b)
		return
	}

	p.utf8Buf[p.utf8Count] = b
	p.utf8Count++

	if p.utf8Count == p.utf8Len {
		r := p.decodeUTF8()
		p.utf8Len = 0
		p.utf8Count = 0
		p.emit(WriteChar{Rune: r})
	}
}

// decodeUTF8 decodes the collected UTF-8 bytes into a rune, rejecting
// overlong encodings, surrogates, and out-of-range values.
func (p *Parser) decodeUTF8() rune {
	switch p.utf8Len {
	case 2:
		r := rune(p.utf8Buf[0]&0x1F)<<6 |
			rune(p.utf8Buf[1]&0x3F)
		if r < 0x80 {
			return '�'
		}
		return r
	case 3:
		r := rune(p.utf8Buf[0]&0x0F)<<12 |
			rune(p.utf8Buf[1]&0x3F)<<6 |
			rune(p.utf8Buf[2]&0x3F)
		if r < 0x800 || (r >= 0xD800 && r <= 0xDFFF) {
			return '�'
		}
		return r
	case 4:
		r := rune(p.utf8Buf[0]&0x07)<<18 |
			rune(p.utf8Buf[1]&0x3F)<<12 |
			rune(p.utf8Buf[2]&0x3F)<<6 |
			rune(p.utf8Buf[3]&0x3F)
		if r < 0x10000 || r > 0x10FFFF {
			return '�'
		}
		return r
	default:
		return '�'
	}
}

func (p *Parser) processEscape(b byte) {
	switch {
	case b == '[': // CSI
		p.state = stateCSI
	case b == ']': // OSC
		p.state = stateOSC
		p.osc = p.osc[:0]
	case b == 'P': // DCS
		p.state = stateDCS
	case b == '7': // DECSC - Save cursor
		p.emit(SaveCursor{})
		p.state = stateGround
	case b == '8': // DECRC - Restore cursor
		p.emit(RestoreCursor{})
		p.state = stateGround
	case b == 'D': // IND - Index
		p.emit(LineFeed{})
		p.state = stateGround
	case b == 'E': // NEL - Next line
		p.emit(CarriageReturn{})
		p.emit(LineFeed{})
		p.state = stateGround
	case b == 'M': // RI - Reverse index
		p.emit(ReverseLineFeed{})
		p.state = stateGround
	case b == 'c': // RIS - Reset
		p.emit(Reset{})
		p.state = stateGround
	case b == '\\': // ST - String terminator
		p.state = stateGround
	case b >= 0x20 && b <= 0x2F: // Intermediate
		p.inter = append(p.inter, b)
		p.state = stateEscapeInter
	case b >= 0x30 && b <= 0x7E: // Final
		p.emit(Unknown{Seq: "ESC " + string(p.inter) + string(b)})
		p.state = stateGround
	default:
		p.state = stateGround
	}
}

func (p *Parser) processEscapeInter(b byte) {
	switch {
	case b >= 0x20 && b <= 0x2F: // More intermediate
		p.inter = append(p.inter, b)
	case b >= 0x30 && b <= 0x7E: // Final (charset selection and friends)
		p.emit(Unknown{Seq: "ESC " + string(p.inter) + string(b)})
		p.state = stateGround
	default:
		p.state = stateGround
	}
}

func (p *Parser) processCSI(b byte) {
	switch {
	case b >= '0' && b <= '9':
		p.params = append(p.params, int(b-'0'))
		p.state = stateCSIParam
	case b == ';':
		p.params = append(p.params, 0)
		p.state = stateCSIParam
	case b == '?', b == '>', b == '!': // Private mode prefix
		p.inter = append(p.inter, b)
	case b >= 0x20 && b <= 0x2F: // Intermediate
		p.inter = append(p.inter, b)
		p.state = stateCSIInter
	case b >= 0x40 && b <= 0x7E: // Final
		p.handleCSI(b)
		p.state = stateGround
	case b == 0x1B: // ESC abandons the sequence and starts a new one
		p.state = stateEscape
		p.params = p.params[:0]
		p.inter = p.inter[:0]
	default:
		p.state = stateGround
	}
}

func (p *Parser) processCSIParam(b byte) {
	switch {
	case b >= '0' && b <= '9':
		if len(p.params) == 0 {
			p.params = append(p.params, 0)
		}
		p.params[len(p.params)-1] = p.params[len(p.params)-1]*10 + int(b-'0')
	case b == ';':
		p.params = append(p.params, 0)
	case b >= 0x20 && b <= 0x2F: // Intermediate
		p.inter = append(p.inter, b)
		p.state = stateCSIInter
	case b >= 0x40 && b <= 0x7E: // Final
		p.handleCSI(b)
		p.state = stateGround
	case b == 0x1B: // ESC abandons the sequence and starts a new one
		p.state = stateEscape
		p.params = p.params[:0]
		p.inter = p.inter[:0]
	default:
		p.state = stateGround
	}
}

func (p *Parser) processCSIInter(b byte) {
	switch {
	case b >= 0x20 && b <= 0x2F: // More intermediate
		p.inter = append(p.inter, b)
	case b >= 0x40 && b <= 0x7E: // Final
		p.handleCSI(b)
		p.state = stateGround
	case b == 0x1B: // ESC abandons the sequence and starts a new one
		p.state = stateEscape
		p.params = p.params[:0]
		p.inter = p.inter[:0]
	default:
		p.state = stateGround
	}
}

func (p *Parser) processOSC(b byte) {
	switch {
	case b == 0x07: // BEL terminates OSC
		p.handleOSC()
		p.state = stateGround
	case b == 0x1B: // ESC starts the two-byte ST
		p.handleOSC()
		p.state = stateEscape
		p.params = p.params[:0]
		p.inter = p.inter[:0]
	case b == 0x9C: // ST (single byte)
		p.handleOSC()
		p.state = stateGround
	default:
		p.osc = append(p.osc, b)
	}
}

func (p *Parser) processDCS(b byte) {
	// Consumed without interpretation until ST.
	switch {
	case b == 0x1B:
		p.state = stateEscape
		p.params = p.params[:0]
		p.inter = p.inter[:0]
	case b == 0x9C:
		p.state = stateGround
	}
}

func (p *Parser) handleCSI(final byte) {
	private := len(p.inter) > 0 && p.inter[0] == '?'

	switch final {
	case 'A': // CUU - Cursor Up
		p.emit(MoveCursorBy{DY: -p.param(0, 1)})

	case 'B': // CUD - Cursor Down
		p.emit(MoveCursorBy{DY: p.param(0, 1)})

	case 'C': // CUF - Cursor Forward
		p.emit(MoveCursorBy{DX: p.param(0, 1)})

	case 'D': // CUB - Cursor Back
		p.emit(MoveCursorBy{DX: -p.param(0, 1)})

	case 'E': // CNL - Cursor Next Line
		p.emit(CarriageReturn{})
		for i := 0; i < p.param(0, 1); i++ {
			p.emit(LineFeed{})
		}

	case 'F': // CPL - Cursor Previous Line
		p.emit(CarriageReturn{})
		for i := 0; i < p.param(0, 1); i++ {
			p.emit(ReverseLineFeed{})
		}

	case 'G': // CHA - Cursor Horizontal Absolute
		p.emit(CursorColumn{Col: p.param(0, 1) - 1})

	case 'H', 'f': // CUP/HVP - Cursor Position
		p.emit(MoveCursorTo{Row: p.param(0, 1) - 1, Col: p.param(1, 1) - 1})

	case 'J': // ED - Erase in Display
		p.emit(EraseInDisplay{Mode: eraseMode(p.param(0, 0))})

	case 'K': // EL - Erase in Line
		p.emit(EraseInLine{Mode: eraseMode(p.param(0, 0))})

	case 'L': // IL - Insert Lines
		p.emit(InsertLines{N: p.param(0, 1)})

	case 'M': // DL - Delete Lines
		p.emit(DeleteLines{N: p.param(0, 1)})

	case 'P': // DCH - Delete Characters
		p.emit(DeleteChars{N: p.param(0, 1)})

	case 'S': // SU - Scroll Up
		p.emit(ScrollUp{N: p.param(0, 1)})

	case 'T': // SD - Scroll Down
		p.emit(ScrollDown{N: p.param(0, 1)})

	case 'X': // ECH - Erase Characters
		p.emit(EraseChars{N: p.param(0, 1)})

	case '@': // ICH - Insert Characters
		p.emit(InsertChars{N: p.param(0, 1)})

	case 'd': // VPA - Vertical Position Absolute
		p.emit(CursorRow{Row: p.param(0, 1) - 1})

	case 'h': // SM - Set Mode
		if private {
			p.handlePrivateMode(true)
		}

	case 'l': // RM - Reset Mode
		if private {
			p.handlePrivateMode(false)
		}

	case 'm': // SGR - Select Graphic Rendition
		p.handleSGR()

	case 'r': // DECSTBM - Set Scrolling Region
		top := p.param(0, 1)
		bottom := p.param(1, 0)
		p.emit(SetScrollRegion{Top: top - 1, Bottom: bottom - 1})

	case 's': // SCP - Save Cursor Position
		p.emit(SaveCursor{})

	case 'u': // RCP - Restore Cursor Position
		p.emit(RestoreCursor{})

	case 'n', 'c', 'q', 't':
		// DSR, DA, DECSCUSR, window ops: nothing to report back
		// through a one-way op stream.

	default:
		p.emit(Unknown{Seq: "CSI " + string(p.inter) + formatParams(p.params) + string(final)})
	}
}

// eraseMode clamps unexpected erase parameters; mode 3 (xterm "erase
// saved lines") is treated as erase-all.
func eraseMode(n int) EraseMode {
	switch n {
	case 1:
		return EraseToStart
	case 2, 3:
		return EraseAll
	default:
		return EraseToEnd
	}
}

func (p *Parser) handlePrivateMode(set bool) {
	for _, mode := range p.params {
		switch mode {
		case 6: // DECOM - Origin Mode
			p.emit(SetOriginMode{Enabled: set})
		case 7: // DECAWM - Auto Wrap Mode
			p.emit(SetAutoWrap{Enabled: set})
		case 25: // DECTCEM - Text Cursor Enable Mode
			p.emit(SetCursorVisible{Visible: set})
		case 1, 12, 2004:
			// Cursor key mode, cursor blink, bracketed paste: the
			// screen model has no use for these.
		case 47, 1047, 1049:
			// Alternate screen buffer is not supported; full-screen
			// programs run against the primary grid.
			p.emit(Unknown{Seq: "CSI ?" + strconv.Itoa(mode) + modeFinal(set)})
		}
	}
}

func modeFinal(set bool) string {
	if set {
		return "h"
	}
	return "l"
}

func (p *Parser) handleSGR() {
	if len(p.params) == 0 {
		p.emit(ResetStyle{})
		return
	}

	i := 0
	for i < len(p.params) {
		param := p.params[i]
		switch param {
		case 0:
			p.emit(ResetStyle{})
		case 1:
			p.emit(AddAttrs{Attrs: AttrBold})
		case 2:
			p.emit(AddAttrs{Attrs: AttrDim})
		case 3:
			p.emit(AddAttrs{Attrs: AttrItalic})
		case 4:
			p.emit(AddAttrs{Attrs: AttrUnderline})
		case 5:
			p.emit(AddAttrs{Attrs: AttrBlink})
		case 7:
			p.emit(AddAttrs{Attrs: AttrReverse})
		case 8:
			p.emit(AddAttrs{Attrs: AttrHidden})
		case 9:
			p.emit(AddAttrs{Attrs: AttrStrike})
		case 21: // Double underline (treat as underline)
			p.emit(AddAttrs{Attrs: AttrUnderline})
		case 22:
			p.emit(RemoveAttrs{Attrs: AttrBold | AttrDim})
		case 23:
			p.emit(RemoveAttrs{Attrs: AttrItalic})
		case 24:
			p.emit(RemoveAttrs{Attrs: AttrUnderline})
		case 25:
			p.emit(RemoveAttrs{Attrs: AttrBlink})
		case 27:
			p.emit(RemoveAttrs{Attrs: AttrReverse})
		case 28:
			p.emit(RemoveAttrs{Attrs: AttrHidden})
		case 29:
			p.emit(RemoveAttrs{Attrs: AttrStrike})
		case 38: // Extended foreground
			i = p.parseExtendedColor(i, true)
		case 39:
			p.emit(SetForeground{Color: DefaultForeground})
		case 48: // Extended background
			i = p.parseExtendedColor(i, false)
		case 49:
			p.emit(SetBackground{Color: DefaultBackground})
		default:
			switch {
			case param >= 30 && param <= 37:
				p.emit(SetForeground{Color: Palette[param-30]})
			case param >= 40 && param <= 47:
				p.emit(SetBackground{Color: Palette[param-40]})
			case param >= 90 && param <= 97:
				p.emit(SetForeground{Color: Palette[param-90+8]})
			case param >= 100 && param <= 107:
				p.emit(SetBackground{Color: Palette[param-100+8]})
			}
		}
		i++
	}
}

func (p *Parser) parseExtendedColor(i int, foreground bool) int {
	if i+1 >= len(p.params) {
		return i
	}

	switch p.params[i+1] {
	case 5: // 256-color
		if i+2 < len(p.params) {
			idx := p.params[i+2]
			if idx < 0 {
				idx = 0
			} else if idx > 255 {
				idx = 255
			}
			if foreground {
				p.emit(SetForeground{Color: ColorFromIndex(idx)})
			} else {
				p.emit(SetBackground{Color: ColorFromIndex(idx)})
			}
			return i + 2
		}
	case 2: // RGB
		if i+4 < len(p.params) {
			r := clampColorValue(p.params[i+2])
			g := clampColorValue(p.params[i+3])
			b := clampColorValue(p.params[i+4])
			if foreground {
				p.emit(SetForeground{Color: ColorFromRGB(r, g, b)})
			} else {
				p.emit(SetBackground{Color: ColorFromRGB(r, g, b)})
			}
			return i + 4
		}
	}
	return i
}

// clampColorValue clamps an integer to valid RGB range (0-255).
func clampColorValue(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func (p *Parser) handleOSC() {
	data := string(p.osc)

	parts := strings.SplitN(data, ";", 2)
	if len(parts) == 0 {
		return
	}

	cmd, err := strconv.Atoi(parts[0])
	if err != nil {
		p.emit(Unknown{Seq: "OSC " + data})
		return
	}

	value := ""
	if len(parts) > 1 {
		value = parts[1]
	}

	switch cmd {
	case 0, 2: // Icon name and/or window title
		p.emit(SetTitle{Text: value})
	case 1: // Icon name only
	default:
		p.emit(OSCEvent{Cmd: cmd, Data: value})
	}
}

// param returns the parameter at index, or the default when absent or
// zero (ANSI treats a zero parameter as "use the default" for counts).
func (p *Parser) param(index, defaultValue int) int {
	if index < len(p.params) && p.params[index] > 0 {
		return p.params[index]
	}
	return defaultValue
}

func formatParams(params []int) string {
	if len(params) == 0 {
		return ""
	}
	var parts []string
	for _, n := range params {
		parts = append(parts, strconv.Itoa(n))
	}
	return strings.Join(parts, ";")
}
