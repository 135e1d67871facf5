package ax

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Kind identifies which member of the Value union is populated.
type Kind uint8

const (
	// KindAbsent is the zero Kind: the attribute exists but has no value,
	// or is not supported at all.
	KindAbsent Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindMap
	KindURL
	KindStyledText
	KindRange
	KindPoint
	KindSize
	KindRect
	KindStatus
	KindElement
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindURL:
		return "url"
	case KindStyledText:
		return "styled_text"
	case KindRange:
		return "range"
	case KindPoint:
		return "point"
	case KindSize:
		return "size"
	case KindRect:
		return "rect"
	case KindStatus:
		return "status"
	case KindElement:
		return "element"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Point is a 2D position in screen coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a 2D extent.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect is a rectangle as origin plus size.
type Rect struct {
	Origin Point `json:"origin"`
	Size   Size  `json:"size"`
}

// Range is a location/length pair over character or child indices.
type Range struct {
	Location int64 `json:"location"`
	Length   int64 `json:"length"`
}

// AttributedString is the native styled-text carrier. Styling runs are not
// modeled; the marshaling layer keeps the plain text only.
type AttributedString struct {
	Text string `json:"text"`
}

// Ref is a driver-level reference to another element, as it appears inside
// attribute values. The element layer rebinds a Ref to an Element before
// handing it to callers.
type Ref struct {
	Handle Handle
}

// Value is the typed form of a native attribute value: a closed tagged
// union. Exactly the member selected by Kind is meaningful; the zero Value
// is absent.
type Value struct {
	Kind Kind

	Bool   bool
	Int    int64
	Float  float64
	Str    string
	Array  []Value
	Map    map[string]Value
	URL    *url.URL
	Text   AttributedString
	Range  Range
	Point  Point
	Size   Size
	Rect   Rect
	Status Status
	Ref    Ref
}

// IsAbsent reports whether the value is the absent marker.
func (v Value) IsAbsent() bool {
	return v.Kind == KindAbsent
}

// ================================ Constructors ===============================

func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

func IntValue(i int64) Value { return Value{Kind: KindInt, Int: i} }

func FloatValue(f float64) Value { return Value{Kind: KindFloat, Float: f} }

func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

func ArrayValue(items ...Value) Value { return Value{Kind: KindArray, Array: items} }

func MapValue(m map[string]Value) Value { return Value{Kind: KindMap, Map: m} }

func URLValue(u *url.URL) Value { return Value{Kind: KindURL, URL: u} }

func TextValue(text string) Value {
	return Value{Kind: KindStyledText, Text: AttributedString{Text: text}}
}

func RangeValue(r Range) Value { return Value{Kind: KindRange, Range: r} }

func PointValue(p Point) Value { return Value{Kind: KindPoint, Point: p} }

func SizeValue(s Size) Value { return Value{Kind: KindSize, Size: s} }

func RectValue(r Rect) Value { return Value{Kind: KindRect, Rect: r} }

func StatusValue(s Status) Value { return Value{Kind: KindStatus, Status: s} }

func RefValue(h Handle) Value { return Value{Kind: KindElement, Ref: Ref{Handle: h}} }

// ================================= Decoding ==================================

// Decode converts a native value into its typed form. Conversions are tried
// in a fixed priority order: boolean, integer, double, string, array, map,
// URL, styled text, range, point, size, rectangle, error, element. A native
// value matching none of them decodes to false; a nil native decodes to the
// absent Value. Arrays and maps decode recursively and fail as a whole when
// any member fails.
func Decode(native any) (Value, bool) {
	switch n := native.(type) {
	case nil:
		return Value{}, true
	case bool:
		return BoolValue(n), true
	case int64:
		return IntValue(n), true
	case int:
		return IntValue(int64(n)), true
	case int32:
		return IntValue(int64(n)), true
	case float64:
		return FloatValue(n), true
	case float32:
		return FloatValue(float64(n)), true
	case string:
		return StringValue(n), true
	case []any:
		items := make([]Value, 0, len(n))
		for _, raw := range n {
			v, ok := Decode(raw)
			if !ok {
				return Value{}, false
			}
			items = append(items, v)
		}
		return Value{Kind: KindArray, Array: items}, true
	case map[string]any:
		m := make(map[string]Value, len(n))
		for key, raw := range n {
			v, ok := Decode(raw)
			if !ok {
				return Value{}, false
			}
			m[key] = v
		}
		return Value{Kind: KindMap, Map: m}, true
	case *url.URL:
		if n == nil {
			return Value{}, true
		}
		return URLValue(n), true
	case AttributedString:
		return Value{Kind: KindStyledText, Text: n}, true
	case Range:
		return RangeValue(n), true
	case Point:
		return PointValue(n), true
	case Size:
		return SizeValue(n), true
	case Rect:
		return RectValue(n), true
	case Status:
		return StatusValue(n), true
	case Ref:
		return Value{Kind: KindElement, Ref: n}, true
	default:
		return Value{}, false
	}
}

// Encode converts a typed value back to its canonical native form. Encode
// is total: every well-formed Value has a native rendering, and
// Encode(Decode(x)) == x for canonical natives as Decode(Encode(v)) == v
// for all v.
func Encode(v Value) any {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindString:
		return v.Str
	case KindArray:
		items := make([]any, len(v.Array))
		for i, item := range v.Array {
			items[i] = Encode(item)
		}
		return items
	case KindMap:
		m := make(map[string]any, len(v.Map))
		for key, item := range v.Map {
			m[key] = Encode(item)
		}
		return m
	case KindURL:
		return v.URL
	case KindStyledText:
		return v.Text
	case KindRange:
		return v.Range
	case KindPoint:
		return v.Point
	case KindSize:
		return v.Size
	case KindRect:
		return v.Rect
	case KindStatus:
		return v.Status
	case KindElement:
		return v.Ref
	default:
		return nil
	}
}

// ================================ Conveniences ===============================

// AsString returns the string content of a string or styled-text value and
// false for every other kind.
func (v Value) AsString() (string, bool) {
	switch v.Kind {
	case KindString:
		return v.Str, true
	case KindStyledText:
		return v.Text.Text, true
	default:
		return "", false
	}
}

// AsInt returns the integer content, converting floats with no fractional
// loss, and false for every other kind.
func (v Value) AsInt() (int64, bool) {
	switch v.Kind {
	case KindInt:
		return v.Int, true
	case KindFloat:
		i := int64(v.Float)
		if float64(i) == v.Float {
			return i, true
		}
		return 0, false
	default:
		return 0, false
	}
}

// AsBool returns the boolean content and false for every other kind.
func (v Value) AsBool() (bool, bool) {
	if v.Kind == KindBool {
		return v.Bool, true
	}
	return false, false
}

// String renders the value compactly for logs and dumps.
func (v Value) String() string {
	switch v.Kind {
	case KindAbsent:
		return "<absent>"
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindString:
		return fmt.Sprintf("%q", v.Str)
	case KindArray:
		if len(v.Array) > 4 {
			return fmt.Sprintf("[%d items]", len(v.Array))
		}
		parts := make([]string, len(v.Array))
		for i, item := range v.Array {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		keys := make([]string, 0, len(v.Map))
		for key := range v.Map {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		if len(keys) > 4 {
			return fmt.Sprintf("{%d keys}", len(keys))
		}
		parts := make([]string, len(keys))
		for i, key := range keys {
			parts[i] = key + ": " + v.Map[key].String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindURL:
		return v.URL.String()
	case KindStyledText:
		return fmt.Sprintf("%q", v.Text.Text)
	case KindRange:
		return fmt.Sprintf("(%d, %d)", v.Range.Location, v.Range.Length)
	case KindPoint:
		return fmt.Sprintf("(%g, %g)", v.Point.X, v.Point.Y)
	case KindSize:
		return fmt.Sprintf("%gx%g", v.Size.Width, v.Size.Height)
	case KindRect:
		return fmt.Sprintf("(%g, %g, %gx%g)",
			v.Rect.Origin.X, v.Rect.Origin.Y, v.Rect.Size.Width, v.Rect.Size.Height)
	case KindStatus:
		return v.Status.String()
	case KindElement:
		return "<element>"
	default:
		return "<unknown>"
	}
}
