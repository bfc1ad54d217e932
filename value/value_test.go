package value

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseJSONKeepsKeyOrder(t *testing.T) {
	input := `{"name":"Switch","params":{"var":"x","default":"D","case":["a","b"]},"zeta":1,"alpha":{"b":1,"a":2}}`

	v, err := ParseJSON([]byte(input))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	obj, ok := v.AsObject()
	if !ok {
		t.Fatalf("expected object, got %s", v.Kind())
	}
	if diff := cmp.Diff([]string{"name", "params", "zeta", "alpha"}, obj.Keys()); diff != "" {
		t.Errorf("root keys mismatch (-want +got):\n%s", diff)
	}

	params, _ := v.Field("params")
	pobj, _ := params.AsObject()
	if diff := cmp.Diff([]string{"var", "default", "case"}, pobj.Keys()); diff != "" {
		t.Errorf("nested keys mismatch (-want +got):\n%s", diff)
	}

	out, err := v.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(out) != input {
		t.Errorf("round trip changed document:\nwant %s\ngot  %s", input, out)
	}
}

func TestParseJSONNestedInArrays(t *testing.T) {
	v := MustParseJSON(`[{"b":1,"a":[{"y":true,"x":null}]}, "s", 2.5, false, null]`)

	items, ok := v.AsArray()
	if !ok || len(items) != 5 {
		t.Fatalf("expected 5 items, got %v", v)
	}
	inner, _ := items[0].Field("a")
	first, _ := inner.Index(0)
	obj, _ := first.AsObject()
	if diff := cmp.Diff([]string{"y", "x"}, obj.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if n, _ := items[2].AsNumber(); n != 2.5 {
		t.Errorf("expected 2.5, got %v", items[2])
	}
	if !items[4].IsNull() {
		t.Errorf("expected null, got %v", items[4])
	}
}

func TestParseJSONScalarsAndErrors(t *testing.T) {
	if v := MustParseJSON(`"hi"`); !v.Equal(String("hi")) {
		t.Errorf("expected string, got %v", v)
	}
	if _, err := ParseJSON([]byte(`{"a":`)); err == nil {
		t.Error("expected error for truncated object")
	}
	if _, err := ParseJSON(nil); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestParseYAMLKeepsKeyOrder(t *testing.T) {
	input := `
- name: Greet
  aliases: [Hello, Hi]
  sub_func:
    - name: Log
      params: ["hello", 1, 2.5, true, null]
- name: IsAdult
  condition: {name: GreaterOrEqual, params: [age, 18]}
`
	v, err := ParseYAML([]byte(input))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	want := MustParseJSON(`[
		{"name":"Greet","aliases":["Hello","Hi"],"sub_func":[{"name":"Log","params":["hello",1,2.5,true,null]}]},
		{"name":"IsAdult","condition":{"name":"GreaterOrEqual","params":["age",18]}}
	]`)
	if diff := cmp.Diff(want, v); diff != "" {
		t.Errorf("yaml mismatch (-want +got):\n%s", diff)
	}

	first, _ := v.Index(0)
	obj, _ := first.AsObject()
	if diff := cmp.Diff([]string{"name", "aliases", "sub_func"}, obj.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestParamAddressing(t *testing.T) {
	positional := MustParseJSON(`["a", null, "c"]`)
	named := MustParseJSON(`{"first":"a","third":"c"}`)

	if v, ok := Param(positional, 0, "first"); !ok || !v.Equal(String("a")) {
		t.Errorf("positional lookup failed: %v %v", v, ok)
	}
	if _, ok := Param(positional, 1, "second"); ok {
		t.Error("null element should count as missing")
	}
	if _, ok := Param(positional, 5, "sixth"); ok {
		t.Error("out of range should be missing")
	}
	if v, ok := Param(named, 2, "third"); !ok || !v.Equal(String("c")) {
		t.Errorf("named lookup failed: %v %v", v, ok)
	}
	if _, ok := Param(String("x"), 0, "first"); ok {
		t.Error("scalars have no params")
	}
}

func TestTextAndTruthy(t *testing.T) {
	cases := []struct {
		in     Value
		text   string
		truthy bool
	}{
		{Null(), "", false},
		{Bool(true), "true", true},
		{Number(5), "5", true},
		{Number(2.5), "2.5", true},
		{Number(0), "0", false},
		{String("false"), "false", false},
		{String("x"), "x", true},
		{Array(), "[]", false},
		{MustParseJSON(`{"a":1}`), `{"a":1}`, true},
	}
	for _, c := range cases {
		if got := c.in.Text(); got != c.text {
			t.Errorf("Text(%v) = %q, want %q", c.in, got, c.text)
		}
		if got := c.in.Truthy(); got != c.truthy {
			t.Errorf("Truthy(%v) = %v, want %v", c.in, got, c.truthy)
		}
	}
}

func TestEqualIgnoresKeyOrder(t *testing.T) {
	a := MustParseJSON(`{"a":1,"b":[1,2]}`)
	b := MustParseJSON(`{"b":[1,2],"a":1}`)
	c := MustParseJSON(`{"b":[2,1],"a":1}`)
	if !a.Equal(b) {
		t.Error("expected equal")
	}
	if a.Equal(c) {
		t.Error("expected not equal")
	}
}

func TestObjectWithout(t *testing.T) {
	v := MustParseJSON(`{"name":"X","if_func":"True","sub_func":"Y"}`)
	obj, _ := v.AsObject()
	trimmed := obj.Without("name")

	if obj.Has("name") == false {
		t.Error("Without must not modify the original")
	}
	if diff := cmp.Diff([]string{"if_func", "sub_func"}, trimmed.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}
