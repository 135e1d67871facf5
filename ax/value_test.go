package ax

import (
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// drawValue generates an arbitrary well-formed Value. Containers only
// appear above depth 0 so generation terminates.
func drawValue(t *rapid.T, depth int) Value {
	maxKind := 11
	if depth > 0 {
		maxKind = 13
	}
	switch rapid.IntRange(0, maxKind).Draw(t, "kind") {
	case 0:
		return BoolValue(rapid.Bool().Draw(t, "bool"))
	case 1:
		return IntValue(rapid.Int64().Draw(t, "int"))
	case 2:
		return FloatValue(rapid.Float64().Draw(t, "float"))
	case 3:
		return StringValue(rapid.String().Draw(t, "string"))
	case 4:
		u, err := url.Parse(fmt.Sprintf("https://example.com/%s",
			rapid.StringMatching(`[a-z]{1,8}`).Draw(t, "path")))
		if err != nil {
			return StringValue("unreachable")
		}
		return URLValue(u)
	case 5:
		return TextValue(rapid.String().Draw(t, "text"))
	case 6:
		return RangeValue(Range{
			Location: rapid.Int64Range(0, 1<<32).Draw(t, "loc"),
			Length:   rapid.Int64Range(0, 1<<32).Draw(t, "len"),
		})
	case 7:
		return PointValue(Point{
			X: rapid.Float64Range(-1e6, 1e6).Draw(t, "x"),
			Y: rapid.Float64Range(-1e6, 1e6).Draw(t, "y"),
		})
	case 8:
		return SizeValue(Size{
			Width:  rapid.Float64Range(0, 1e6).Draw(t, "w"),
			Height: rapid.Float64Range(0, 1e6).Draw(t, "h"),
		})
	case 9:
		return RectValue(Rect{
			Origin: Point{X: rapid.Float64Range(-1e6, 1e6).Draw(t, "rx")},
			Size:   Size{Width: rapid.Float64Range(0, 1e6).Draw(t, "rw")},
		})
	case 10:
		statuses := []Status{
			StatusFailure, StatusInvalidElement, StatusCannotComplete,
			StatusAPIDisabled, StatusNoValue,
		}
		return StatusValue(statuses[rapid.IntRange(0, len(statuses)-1).Draw(t, "st")])
	case 11:
		return RefValue(rapid.Int64().Draw(t, "handle"))
	case 12:
		n := rapid.IntRange(0, 4).Draw(t, "arraylen")
		items := make([]Value, n)
		for i := range items {
			items[i] = drawValue(t, depth-1)
		}
		return Value{Kind: KindArray, Array: items}
	default:
		n := rapid.IntRange(0, 4).Draw(t, "maplen")
		m := make(map[string]Value, n)
		for i := 0; i < n; i++ {
			key := rapid.StringMatching(`[a-zA-Z]{1,10}`).Draw(t, "key")
			m[key] = drawValue(t, depth-1)
		}
		return MapValue(m)
	}
}

func TestValueRoundTripTypedToNative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := drawValue(t, 2)
		decoded, ok := Decode(Encode(v))
		if !ok {
			t.Fatalf("Encode produced an undecodable native for %v", v.Kind)
		}
		assert.Equal(t, v, decoded)
	})
}

func TestValueRoundTripNativeToTyped(t *testing.T) {
	// Canonical natives: what Encode itself emits.
	rapid.Check(t, func(t *rapid.T) {
		native := Encode(drawValue(t, 2))
		v, ok := Decode(native)
		if !ok {
			t.Fatalf("canonical native %T failed to decode", native)
		}
		assert.Equal(t, native, Encode(v))
	})
}

func TestDecodeToleratedWidths(t *testing.T) {
	tests := []struct {
		name   string
		native any
		want   Value
	}{
		{"int", int(7), IntValue(7)},
		{"int32", int32(-3), IntValue(-3)},
		{"int64", int64(1 << 40), IntValue(1 << 40)},
		{"float32", float32(1.5), FloatValue(1.5)},
		{"float64", 2.25, FloatValue(2.25)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := Decode(tt.native)
			require.True(t, ok)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestDecodeRejectsUnknownNatives(t *testing.T) {
	type alien struct{ x int }

	_, ok := Decode(alien{x: 1})
	assert.False(t, ok)

	// One undecodable member fails the whole container.
	_, ok = Decode([]any{int64(1), alien{}})
	assert.False(t, ok)
	_, ok = Decode(map[string]any{"good": "yes", "bad": alien{}})
	assert.False(t, ok)
}

func TestDecodeNilIsAbsent(t *testing.T) {
	v, ok := Decode(nil)
	require.True(t, ok)
	assert.True(t, v.IsAbsent())
	assert.Nil(t, Encode(v))
}

func TestDecodeNestedContainers(t *testing.T) {
	native := map[string]any{
		"title": "hello",
		"frame": Rect{Origin: Point{X: 1, Y: 2}, Size: Size{Width: 3, Height: 4}},
		"rows":  []any{int64(1), int64(2), int64(3)},
	}
	v, ok := Decode(native)
	require.True(t, ok)
	require.Equal(t, KindMap, v.Kind)
	assert.Equal(t, StringValue("hello"), v.Map["title"])
	assert.Equal(t, KindRect, v.Map["frame"].Kind)
	require.Equal(t, KindArray, v.Map["rows"].Kind)
	assert.Len(t, v.Map["rows"].Array, 3)

	assert.Equal(t, native, Encode(v))
}

func TestValueConveniences(t *testing.T) {
	s, ok := StringValue("x").AsString()
	assert.True(t, ok)
	assert.Equal(t, "x", s)

	s, ok = TextValue("styled").AsString()
	assert.True(t, ok)
	assert.Equal(t, "styled", s)

	_, ok = IntValue(1).AsString()
	assert.False(t, ok)

	i, ok := IntValue(42).AsInt()
	assert.True(t, ok)
	assert.Equal(t, int64(42), i)

	i, ok = FloatValue(42).AsInt()
	assert.True(t, ok)
	assert.Equal(t, int64(42), i)

	_, ok = FloatValue(42.5).AsInt()
	assert.False(t, ok)

	b, ok := BoolValue(true).AsBool()
	assert.True(t, ok)
	assert.True(t, b)
}

func TestValueStringRendering(t *testing.T) {
	assert.Equal(t, "<absent>", Value{}.String())
	assert.Equal(t, `"hi"`, StringValue("hi").String())
	assert.Equal(t, "(10, 4)", RangeValue(Range{Location: 10, Length: 4}).String())
	assert.Equal(t, "(1, 2)", PointValue(Point{X: 1, Y: 2}).String())
	assert.Equal(t, "[5 items]",
		ArrayValue(IntValue(1), IntValue(2), IntValue(3), IntValue(4), IntValue(5)).String())
	assert.Equal(t, "invalid_element", StatusValue(StatusInvalidElement).String())
}
