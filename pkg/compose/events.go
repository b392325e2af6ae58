package compose

import "fmt"

// KeyKind is the kind of a discrete key event
type KeyKind int

const (
	KeyChar KeyKind = iota
	KeyDelete
	KeyShift
	KeyModeChange
	KeySelect
	KeyDone
)

var keyNames = map[KeyKind]string{
	KeyChar:       "char",
	KeyDelete:     "delete",
	KeyShift:      "shift",
	KeyModeChange: "mode",
	KeySelect:     "select",
	KeyDone:       "done",
}

func (k KeyKind) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("KeyKind(%d)", int(k))
}

// ParseKeyKind maps a wire name back to its kind
func ParseKeyKind(name string) (KeyKind, bool) {
	for kind, n := range keyNames {
		if n == name {
			return kind, true
		}
	}
	return 0, false
}

// KeyEvent is one symbolic key press.
// Char is read for KeyChar, Index for KeySelect.
type KeyEvent struct {
	Kind  KeyKind
	Char  rune
	Index int
}

// Char builds a character event
func Char(r rune) KeyEvent { return KeyEvent{Kind: KeyChar, Char: r} }

// Select builds a candidate selection event
func Select(i int) KeyEvent { return KeyEvent{Kind: KeySelect, Index: i} }

// Layer is the active key layer
type Layer int

const (
	Letters Layer = iota
	Symbols
	SymbolsShifted
)

func (l Layer) String() string {
	switch l {
	case Letters:
		return "letters"
	case Symbols:
		return "symbols"
	case SymbolsShifted:
		return "symbols-shifted"
	}
	return fmt.Sprintf("Layer(%d)", int(l))
}

// State of the composition
type State int

const (
	Empty State = iota
	Composing
)

func (s State) String() string {
	if s == Composing {
		return "composing"
	}
	return "empty"
}
