package key

import "unicode/utf8"

// Encode translates a key event into the byte sequence a terminal
// transmits for it. It returns nil for events that have no terminal
// encoding (for example bare modifier presses or unknown keys); the
// caller decides whether to drop those or handle them elsewhere.
func Encode(e Event) []byte {
	if e.Key == KeyRune {
		return encodeRune(e)
	}

	switch e.Key {
	case KeyEnter:
		return []byte{'\r'}
	case KeyTab:
		return []byte{'\t'}
	case KeyEscape:
		return []byte{0x1B}
	case KeyBackspace:
		// DEL, the modern backspace encoding.
		return []byte{0x7F}
	case KeyUp:
		return []byte{0x1B, '[', 'A'}
	case KeyDown:
		return []byte{0x1B, '[', 'B'}
	case KeyRight:
		return []byte{0x1B, '[', 'C'}
	case KeyLeft:
		return []byte{0x1B, '[', 'D'}
	case KeyHome:
		return []byte{0x1B, '[', 'H'}
	case KeyEnd:
		return []byte{0x1B, '[', 'F'}
	case KeyInsert:
		return []byte{0x1B, '[', '2', '~'}
	case KeyDelete:
		return []byte{0x1B, '[', '3', '~'}
	case KeyPageUp:
		return []byte{0x1B, '[', '5', '~'}
	case KeyPageDown:
		return []byte{0x1B, '[', '6', '~'}
	default:
		return nil
	}
}

func encodeRune(e Event) []byte {
	r := e.Rune
	if r == 0 {
		return nil
	}

	if e.Modifiers.HasCtrl() {
		if b, ok := controlByte(r); ok {
			if e.Modifiers.HasAlt() {
				return []byte{0x1B, b}
			}
			return []byte{b}
		}
		return nil
	}

	buf := make([]byte, 0, utf8.UTFMax+1)
	if e.Modifiers.HasAlt() {
		buf = append(buf, 0x1B)
	}
	return utf8.AppendRune(buf, r)
}

// controlByte maps a rune to its control-key byte: Ctrl+A..Ctrl+Z are
// 0x01..0x1A, plus the conventional punctuation mappings.
func controlByte(r rune) (byte, bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return byte(r-'a') + 1, true
	case r >= 'A' && r <= 'Z':
		return byte(r-'A') + 1, true
	}

	switch r {
	case ' ', '@':
		return 0x00, true
	case '[':
		return 0x1B, true
	case '\\':
		return 0x1C, true
	case ']':
		return 0x1D, true
	case '^':
		return 0x1E, true
	case '_', '/':
		return 0x1F, true
	case '?':
		return 0x7F, true
	}
	return 0, false
}
