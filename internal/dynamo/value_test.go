package dynamo

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/starford/othala/internal/apperr"
)

func unmarshalJSON(t *testing.T, s string) any {
	t.Helper()
	v, err := Unmarshal(json.RawMessage(s))
	if err != nil {
		t.Fatalf("Unmarshal(%s): %v", s, err)
	}
	return v
}

func TestUnmarshal_Scalars(t *testing.T) {
	if v := unmarshalJSON(t, `{"S": "hello"}`); v != "hello" {
		t.Errorf("S = %v, want hello", v)
	}
	if v := unmarshalJSON(t, `{"BOOL": true}`); v != true {
		t.Errorf("BOOL = %v, want true", v)
	}
	if v := unmarshalJSON(t, `{"NULL": true}`); v != nil {
		t.Errorf("NULL = %v, want nil", v)
	}
}

func TestUnmarshal_NumberNarrowing(t *testing.T) {
	if v := unmarshalJSON(t, `{"N": "42"}`); v != int64(42) {
		t.Errorf("integral N = %v (%T), want int64 42", v, v)
	}
	if v := unmarshalJSON(t, `{"N": "-7"}`); v != int64(-7) {
		t.Errorf("negative N = %v (%T), want int64 -7", v, v)
	}
	if v := unmarshalJSON(t, `{"N": "3.25"}`); v != 3.25 {
		t.Errorf("fractional N = %v (%T), want float64 3.25", v, v)
	}
}

func TestUnmarshal_Binary(t *testing.T) {
	v := unmarshalJSON(t, `{"B": "aGVsbG8="}`)
	if string(v.([]byte)) != "hello" {
		t.Errorf("B = %q, want hello", v)
	}
}

func TestUnmarshal_MapRecursion(t *testing.T) {
	v := unmarshalJSON(t, `{"M": {"name": {"S": "ada"}, "count": {"N": "3"}}}`)
	want := map[string]any{"name": "ada", "count": int64(3)}
	if !reflect.DeepEqual(v, want) {
		t.Errorf("M = %v, want %v", v, want)
	}
}

func TestUnmarshal_ListRecursion(t *testing.T) {
	v := unmarshalJSON(t, `{"L": [{"S": "a"}, {"N": "1"}, {"NULL": true}]}`)
	want := []any{"a", int64(1), nil}
	if !reflect.DeepEqual(v, want) {
		t.Errorf("L = %v, want %v", v, want)
	}
}

func TestUnmarshal_Sets(t *testing.T) {
	v := unmarshalJSON(t, `{"SS": ["b", "a"]}`)
	// Order as given, no implied sorting.
	if !reflect.DeepEqual(v, []string{"b", "a"}) {
		t.Errorf("SS = %v, want [b a]", v)
	}
	v = unmarshalJSON(t, `{"NS": ["2", "1.5"]}`)
	if !reflect.DeepEqual(v, []any{int64(2), 1.5}) {
		t.Errorf("NS = %v", v)
	}
	v = unmarshalJSON(t, `{"BS": ["YQ==", "Yg=="]}`)
	bs := v.([][]byte)
	if len(bs) != 2 || string(bs[0]) != "a" || string(bs[1]) != "b" {
		t.Errorf("BS = %v", v)
	}
}

func TestUnmarshal_UnknownTagFatal(t *testing.T) {
	_, err := Unmarshal(json.RawMessage(`{"X": "boom"}`))
	if !errors.Is(err, apperr.ErrUnknownTypeTag) {
		t.Fatalf("err = %v, want ErrUnknownTypeTag", err)
	}
}

func TestUnmarshal_MultipleTagsFatal(t *testing.T) {
	_, err := Unmarshal(json.RawMessage(`{"S": "a", "N": "1"}`))
	if err == nil {
		t.Fatal("expected error for two type tags")
	}
}
