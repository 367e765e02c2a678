package desktop

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadKeys is returned for malformed SendKeys sequences.
var ErrBadKeys = errors.New("malformed key sequence")

// Stroke is one step of a parsed key sequence: either literal text to type
// or a single key chord such as "ctrl+alt+Delete".
type Stroke struct {
	Text  string
	Chord string
}

// named keys in SendKeys notation, mapped to X keysym names
var namedKeys = map[string]string{
	"ENTER":     "Return",
	"TAB":       "Tab",
	"ESC":       "Escape",
	"ESCAPE":    "Escape",
	"BACKSPACE": "BackSpace",
	"BS":        "BackSpace",
	"BKSP":      "BackSpace",
	"DEL":       "Delete",
	"DELETE":    "Delete",
	"INS":       "Insert",
	"INSERT":    "Insert",
	"HOME":      "Home",
	"END":       "End",
	"PGUP":      "Prior",
	"PGDN":      "Next",
	"UP":        "Up",
	"DOWN":      "Down",
	"LEFT":      "Left",
	"RIGHT":     "Right",
	"SPACE":     "space",
	"BREAK":     "Break",
	"CAPSLOCK":  "Caps_Lock",
	"NUMLOCK":   "Num_Lock",
	"PRTSC":     "Print",
}

var modifierKeys = map[byte]string{
	'+': "shift",
	'^': "ctrl",
	'%': "alt",
}

// ParseKeys splits a SendKeys-style sequence into strokes. Plain characters
// are grouped into text runs; "+", "^" and "%" apply shift, ctrl and alt to
// the following key or braced token; "{NAME}" and "{NAME n}" press a named
// key (n times); "{+}" and friends escape the special characters.
func ParseKeys(keys string) ([]Stroke, error) {
	var strokes []Stroke
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			strokes = append(strokes, Stroke{Text: text.String()})
			text.Reset()
		}
	}

	var mods []string
	for i := 0; i < len(keys); i++ {
		ch := keys[i]
		if mod, ok := modifierKeys[ch]; ok {
			flush()
			mods = append(mods, mod)
			continue
		}

		var key string
		repeat := 1
		switch ch {
		case '{':
			end := strings.IndexByte(keys[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated brace at %d", ErrBadKeys, i)
			}
			// "{}}" is a literal closing brace
			if end == 0 && i+2 < len(keys) && keys[i+2] == '}' {
				end = 1
			}
			token := keys[i+1 : i+1+end]
			i += end + 1

			name, count, err := splitToken(token)
			if err != nil {
				return nil, err
			}
			repeat = count
			if sym, ok := namedKeys[strings.ToUpper(name)]; ok {
				key = sym
			} else if fn, ok := functionKey(name); ok {
				key = fn
			} else if len(name) == 1 {
				key = name
			} else {
				return nil, fmt.Errorf("%w: unknown key %q", ErrBadKeys, name)
			}
		case '~':
			key = "Return"
		case '(', ')':
			return nil, fmt.Errorf("%w: grouping is not supported", ErrBadKeys)
		default:
			key = string(ch)
		}

		if len(mods) == 0 && len(key) == 1 {
			for n := 0; n < repeat; n++ {
				text.WriteString(key)
			}
			continue
		}

		flush()
		chord := key
		if len(key) == 1 {
			chord = keysym(key)
		}
		if len(mods) > 0 {
			chord = strings.Join(mods, "+") + "+" + chord
		}
		for n := 0; n < repeat; n++ {
			strokes = append(strokes, Stroke{Chord: chord})
		}
		mods = nil
	}
	if len(mods) > 0 {
		return nil, fmt.Errorf("%w: dangling modifier", ErrBadKeys)
	}
	flush()
	return strokes, nil
}

func splitToken(token string) (string, int, error) {
	if token == "" {
		return "", 0, fmt.Errorf("%w: empty braces", ErrBadKeys)
	}
	name, countStr, found := strings.Cut(token, " ")
	if !found || name == "" {
		return token, 1, nil
	}
	count, err := strconv.Atoi(strings.TrimSpace(countStr))
	if err != nil || count < 0 {
		return "", 0, fmt.Errorf("%w: bad repeat count in {%s}", ErrBadKeys, token)
	}
	return name, count, nil
}

func functionKey(name string) (string, bool) {
	upper := strings.ToUpper(name)
	if len(upper) < 2 || upper[0] != 'F' {
		return "", false
	}
	n, err := strconv.Atoi(upper[1:])
	if err != nil || n < 1 || n > 24 {
		return "", false
	}
	return "F" + strconv.Itoa(n), true
}

// keysym names single punctuation characters the way xdotool expects them
// inside a chord.
func keysym(ch string) string {
	switch ch {
	case "+":
		return "plus"
	case "^":
		return "asciicircum"
	case "%":
		return "percent"
	case "~":
		return "asciitilde"
	case "{":
		return "braceleft"
	case "}":
		return "braceright"
	case "(":
		return "parenleft"
	case ")":
		return "parenright"
	case " ":
		return "space"
	}
	return ch
}
