package schema

import (
	"strings"
	"testing"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Price", "price"},
		{"  Sale Price (EGP) ", "sale_price_egp"},
		{"Bedrooms#", "bedrooms"},
		{"__Unit--View__", "unit_view"},
		{"first name", "first_name"},
		{"E-Mail", "e_mail"},
		{"###", ""},
		{"Year Built 2", "year_built_2"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeKey(tt.in); got != tt.want {
				t.Errorf("NormalizeKey(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"unit_view", "Unit View"},
		{"compound", "Compound"},
		{"2nd_floor_area", "2nd Floor Area"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Label(tt.in); got != tt.want {
			t.Errorf("Label(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseKind(t *testing.T) {
	for _, in := range []string{"contact", "Property", " ORGANIZATION ", "lead"} {
		if _, err := ParseKind(in); err != nil {
			t.Errorf("ParseKind(%q) error = %v", in, err)
		}
	}

	_, err := ParseKind("deal")
	if err == nil {
		t.Fatal("ParseKind(\"deal\") expected error")
	}
	for _, k := range Kinds {
		if !strings.Contains(err.Error(), string(k)) {
			t.Errorf("ParseKind error %q should list %q", err, k)
		}
	}
}

func TestEntityKind_Fields(t *testing.T) {
	if got := Property.Table(); got != "properties" {
		t.Errorf("Property.Table() = %q", got)
	}
	if !Property.IsSchemaField("price") {
		t.Error("price should be a property schema field")
	}
	if Contact.IsSchemaField("price") {
		t.Error("price should not be a contact schema field")
	}
	if !Organization.IsNumericField("employee_count") {
		t.Error("employee_count should be numeric for organization")
	}
	if Lead.IsNumericField("price") {
		t.Error("price is not a lead field, so not numeric for lead")
	}
	if !Lead.IsNumericField("property_budget") {
		t.Error("property_budget should be numeric for lead")
	}
	if EntityKind("deal").Valid() {
		t.Error("deal should not be valid")
	}
}
