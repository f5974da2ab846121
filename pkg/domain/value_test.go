package domain

import (
	"encoding/json"
	"testing"
)

func TestParseValueInference(t *testing.T) {
	cases := []struct {
		raw  string
		kind ValueKind
		text string
	}{
		{"", ValueAbsent, ""},
		{"   ", ValueAbsent, ""},
		{"true", ValueBool, "true"},
		{"False", ValueBool, "False"},
		{"12", ValueNumber, "12"},
		{"007", ValueNumber, "007"},
		{"1.5", ValueNumber, "1.5"},
		{"A1", ValueString, "A1"},
		{"y", ValueString, "y"},
		{" pTet  ", ValueString, "pTet"},
	}
	for _, tc := range cases {
		v := ParseValue(tc.raw)
		if v.Kind() != tc.kind || v.String() != tc.text {
			t.Fatalf("ParseValue(%q) = %s %q", tc.raw, v.Kind(), v.String())
		}
	}
}

func TestValueAsInt(t *testing.T) {
	if i, ok := NumberValue(3).AsInt(); !ok || i != 3 {
		t.Fatalf("expected 3")
	}
	if _, ok := NumberValue(2.5).AsInt(); ok {
		t.Fatalf("expected non-integral number rejected")
	}
	if i, ok := StringValue(" 4 ").AsInt(); !ok || i != 4 {
		t.Fatalf("expected string int accepted")
	}
	if _, ok := Absent().AsInt(); ok {
		t.Fatalf("expected absent rejected")
	}
}

func TestValueJSON(t *testing.T) {
	in := []Value{StringValue("x"), NumberValue(1.25), BoolValue(true), Absent()}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `["x",1.25,true,null]` {
		t.Fatalf("unexpected encoding %s", data)
	}
	var out []Value
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for i := range in {
		if !in[i].Equal(out[i]) {
			t.Fatalf("value %d: %v != %v", i, in[i], out[i])
		}
	}
	var v Value
	if err := json.Unmarshal([]byte(`{"a":1}`), &v); err == nil {
		t.Fatalf("expected error for object payload")
	}
}
