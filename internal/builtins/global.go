package builtins

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/standardbeagle/jsengine/internal/interner"
	"github.com/standardbeagle/jsengine/internal/value"
	"github.com/standardbeagle/jsengine/internal/vm"
)

// installGlobals defines the free-standing global functions spec.md
// §6/§7 assumes exist independent of any particular builtin object:
// parseInt/parseFloat, isNaN/isFinite, the URI-encoding family (whose
// malformed-input path is the one place §7's URIError taxonomy entry
// is actually thrown from), and `globalThis` itself.
func installGlobals(m *vm.Machine, in *interner.Interner, global *value.Object) {
	global.DefineDataProperty(in.Intern("globalThis"), value.ObjectValue(global), value.AttrWritable|value.AttrConfigurable)
	global.DefineDataProperty(in.Intern("undefined"), value.UndefinedValue, 0)
	global.DefineDataProperty(in.Intern("NaN"), value.Float(math.NaN()), 0)
	global.DefineDataProperty(in.Intern("Infinity"), value.Float(math.Inf(1)), 0)

	Def(in, global, "parseInt", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		s := strings.TrimSpace(ToString(arg(args, 0)))
		radix := 10
		if len(args) > 1 && !args[1].IsUndefined() {
			if r := int(ToNumber(args[1])); r != 0 {
				radix = r
			}
		}
		neg := false
		if strings.HasPrefix(s, "-") {
			neg, s = true, s[1:]
		} else if strings.HasPrefix(s, "+") {
			s = s[1:]
		}
		if (radix == 16 || radix == 10) && (strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
			s = s[2:]
			radix = 16
		}
		end := 0
		for end < len(s) && digitValue(s[end]) < radix {
			end++
		}
		if end == 0 {
			return value.Float(math.NaN()), nil
		}
		n, err := strconv.ParseInt(s[:end], radix, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(s[:end], 64)
			if ferr != nil {
				return value.Float(math.NaN()), nil
			}
			if neg {
				f = -f
			}
			return value.Number(f), nil
		}
		if neg {
			n = -n
		}
		return value.Number(float64(n)), nil
	})
	Def(in, global, "parseFloat", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		s := strings.TrimSpace(ToString(arg(args, 0)))
		end := 0
		seenDot, seenExp := false, false
		for end < len(s) {
			c := s[end]
			if c >= '0' && c <= '9' {
				end++
				continue
			}
			if c == '.' && !seenDot && !seenExp {
				seenDot = true
				end++
				continue
			}
			if (c == 'e' || c == 'E') && !seenExp && end > 0 {
				seenExp = true
				end++
				if end < len(s) && (s[end] == '+' || s[end] == '-') {
					end++
				}
				continue
			}
			if (c == '+' || c == '-') && end == 0 {
				end++
				continue
			}
			break
		}
		if end == 0 {
			return value.Float(math.NaN()), nil
		}
		f, err := strconv.ParseFloat(s[:end], 64)
		if err != nil {
			return value.Float(math.NaN()), nil
		}
		return value.Number(f), nil
	})
	Def(in, global, "isNaN", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		return value.Bool(math.IsNaN(ToNumber(arg(args, 0)))), nil
	})
	Def(in, global, "isFinite", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		f := ToNumber(arg(args, 0))
		return value.Bool(!math.IsNaN(f) && !math.IsInf(f, 0)), nil
	})
	Def(in, global, "encodeURIComponent", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		return value.Str(url.QueryEscape(ToString(arg(args, 0)))), nil
	})
	Def(in, global, "decodeURIComponent", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		s, err := url.QueryUnescape(ToString(arg(args, 0)))
		if err != nil {
			return value.UndefinedValue, m.NewThrownError("URIError", "URI malformed")
		}
		return value.Str(s), nil
	})
	Def(in, global, "encodeURI", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		return value.Str(encodeURIReserved(ToString(arg(args, 0)))), nil
	})
	Def(in, global, "decodeURI", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		s, err := url.QueryUnescape(ToString(arg(args, 0)))
		if err != nil {
			return value.UndefinedValue, m.NewThrownError("URIError", "URI malformed")
		}
		return value.Str(s), nil
	})
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	default:
		return 99
	}
}

// encodeURIReserved escapes everything encodeURIComponent would
// except the characters ECMAScript's encodeURI leaves untouched
// (;/?:@&=+$,#), since url.QueryEscape has no notion of that split.
func encodeURIReserved(s string) string {
	const unreserved = ";/?:@&=+$,#"
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(unreserved, r) {
			b.WriteRune(r)
			continue
		}
		b.WriteString(url.QueryEscape(string(r)))
	}
	return b.String()
}
