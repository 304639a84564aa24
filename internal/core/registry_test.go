package core

import (
	"errors"
	"testing"
)

func TestCatalog_SchemaInvariants(t *testing.T) {
	schemas := Schemas()
	if len(schemas) != 9 {
		t.Fatalf("registered schemas = %d, want 9", len(schemas))
	}

	for _, def := range schemas {
		t.Run(string(def.Purpose), func(t *testing.T) {
			seen := make(map[string]bool)
			required := 0
			for _, f := range def.Fields {
				if seen[f.Key] {
					t.Errorf("duplicate key %q", f.Key)
				}
				seen[f.Key] = true
				if f.Label == "" {
					t.Errorf("field %q has no label", f.Key)
				}
				if f.Required {
					required++
				}
			}
			if required == 0 {
				t.Error("schema has no required field")
			}
		})
	}
}

func TestGetSchema(t *testing.T) {
	def, err := GetSchema(PurposeWeightRecord)
	if err != nil {
		t.Fatalf("GetSchema(weight_record) error: %v", err)
	}
	if got := def.RequiredKeys(); len(got) != 3 || got[0] != "EarNum" {
		t.Errorf("RequiredKeys() = %v, want [EarNum MeaDate Weight]", got)
	}

	for _, p := range []PurposeID{PurposeIgnore, PurposeUnset, "cattle"} {
		if _, err := GetSchema(p); !errors.Is(err, ErrUnknownPurpose) {
			t.Errorf("GetSchema(%q) error = %v, want ErrUnknownPurpose", p, err)
		}
	}
}

func TestListPurposes(t *testing.T) {
	opts := ListPurposes()
	if len(opts) != PurposeCount()+2 {
		t.Fatalf("ListPurposes() returned %d options, want %d", len(opts), PurposeCount()+2)
	}
	if opts[0].ID != PurposeUnset || opts[1].ID != PurposeIgnore {
		t.Errorf("first options = %q, %q; want unset then ignore", opts[0].ID, opts[1].ID)
	}
	if opts[2].ID != PurposeBasicInfo {
		t.Errorf("first purpose = %q, want basic_info", opts[2].ID)
	}
}

func TestRegister_Panics(t *testing.T) {
	saved, savedOrder := registry, order
	t.Cleanup(func() {
		registry, order = saved, savedOrder
	})
	registry = make(map[PurposeID]SchemaDefinition)
	order = nil

	mustPanic := func(name string, def SchemaDefinition) {
		t.Helper()
		defer func() {
			if recover() == nil {
				t.Errorf("%s: Register did not panic", name)
			}
		}()
		Register(def)
	}

	valid := SchemaDefinition{
		Purpose: PurposeWeightRecord,
		Fields:  []FieldSpec{{Key: "EarNum", Required: true}},
	}
	Register(valid)

	mustPanic("duplicate purpose", valid)
	mustPanic("reserved purpose", SchemaDefinition{Purpose: PurposeIgnore, Fields: valid.Fields})
	mustPanic("duplicate key", SchemaDefinition{
		Purpose: PurposeMilkYieldRecord,
		Fields:  []FieldSpec{{Key: "EarNum", Required: true}, {Key: "EarNum"}},
	})
	mustPanic("no required field", SchemaDefinition{
		Purpose: PurposeMilkAnalysisRecord,
		Fields:  []FieldSpec{{Key: "EarNum"}},
	})
}

func TestDefaultPurposeForSheet(t *testing.T) {
	tests := []struct {
		sheet string
		want  PurposeID
	}{
		{"0009-0013A1_Basic", PurposeBasicInfo},
		{"S2_Breed", PurposeBreedMapping},
		{"weight_record", PurposeWeightRecord},
		{"Sheet1", PurposeUnset},
		{"ignore", PurposeUnset},
	}
	for _, tt := range tests {
		if got := DefaultPurposeForSheet(tt.sheet); got != tt.want {
			t.Errorf("DefaultPurposeForSheet(%q) = %q, want %q", tt.sheet, got, tt.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"EarNum", "耳號"},
		{"Body_Weight_kg", "體重"},
		{"KidNum", "仔羊耳號"},
		{"mystery", "mystery"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.key); got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
