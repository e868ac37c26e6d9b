package initwfn

import (
	"encoding/json"
	"testing"
)

func TestJSONRoundTrip(t *testing.T) {
	inits := []func() (*InitWFn, error){
		func() (*InitWFn, error) { return NewGlorotU(1.5) },
		func() (*InitWFn, error) { return NewHeN(2.0) },
		func() (*InitWFn, error) { return NewConstant(0.25) },
		func() (*InitWFn, error) { return NewUniform(-1, 1) },
		NewZeroes,
	}

	for _, newInit := range inits {
		init, err := newInit()
		if err != nil {
			t.Fatal(err)
		}

		data, err := json.Marshal(init)
		if err != nil {
			t.Fatalf("marshal %v: %v", init, err)
		}

		var decoded InitWFn
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}

		if decoded.Type != init.Type || decoded.Config != init.Config {
			t.Errorf("round trip: want %v have %v", init, &decoded)
		}
		if decoded.InitWFn() == nil {
			t.Errorf("round trip: %v has no gorgonia InitWFn", decoded.Type)
		}
	}
}

func TestUnmarshalUnknownType(t *testing.T) {
	var init InitWFn
	if err := json.Unmarshal([]byte(`{"Type": "Xavier"}`), &init); err == nil {
		t.Error("unmarshal: expected error for unknown type")
	}
	if err := json.Unmarshal([]byte(`{"Config": {}}`), &init); err == nil {
		t.Error("unmarshal: expected error for missing type")
	}
}

func TestParse(t *testing.T) {
	init, err := Parse("glorotu")
	if err != nil {
		t.Fatal(err)
	}
	if init.Type != GlorotU {
		t.Errorf("parse: want %v have %v", GlorotU, init.Type)
	}

	if _, err := Parse("uniform"); err == nil {
		t.Error("parse: expected error for initializer with arguments")
	}
}
