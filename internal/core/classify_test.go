package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/estatecrm/internal/schema"
)

func record(pairs ...any) RawRecord {
	rec := make(RawRecord, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		rec = append(rec, Cell{Column: pairs[i].(string), Value: pairs[i+1]})
	}
	return rec
}

func TestClassify_SplitsSchemaAndCustom(t *testing.T) {
	rec := record(
		"Title", "Sea View Villa",
		"Price", "EGP 1,250,000",
		"Unit View", "Sea",
		"Bedrooms", "N/A",
		"Notes", "   ",
		"###", "orphan",
	)

	s, c := Classify(rec, schema.Property)

	assert.Equal(t, Fields{"title": "Sea View Villa", "price": 1250000.0}, s)
	assert.Equal(t, Fields{"unit_view": "Sea", "bedrooms": "N/A", "unnamed": "orphan"}, c)
}

func TestClassify_Totality(t *testing.T) {
	rec := record(
		"First Name", "Mona",
		"E-Mail", "mona@example.com",
		"Price", "3,000",
		"Budget Range", "high",
		"Empty", "",
		"Nil", nil,
	)

	s, c := Classify(rec, schema.Contact)

	want := map[string]bool{"first_name": true, "e_mail": true, "price": true, "budget_range": true}
	got := make(map[string]bool)
	for k := range s {
		got[k] = true
		_, inCustom := c[k]
		assert.False(t, inCustom, "key %q in both maps", k)
	}
	for k := range c {
		got[k] = true
	}
	assert.Equal(t, want, got)

	// price is not a contact column, so it stays verbatim.
	assert.Equal(t, "3,000", c["price"])
}

func TestClassify_NumericFallback(t *testing.T) {
	s, c := Classify(record("Price", "N/A", "Area", "120 sqm"), schema.Property)

	assert.NotContains(t, s, "price")
	assert.Equal(t, "N/A", c["price"])
	assert.Equal(t, 120.0, s["area"])
}

func TestClassify_CollidingHeaders(t *testing.T) {
	s, c := Classify(record("City", "Cairo", "city ", "Giza", "CITY", "  "), schema.Property)

	assert.Equal(t, Fields{"city": "Giza"}, s)
	assert.Empty(t, c)

	// A later header that routes differently replaces the earlier value.
	s, c = Classify(record("Price", "1000", "price", "call us"), schema.Property)
	assert.Empty(t, s)
	assert.Equal(t, Fields{"price": "call us"}, c)
}

func TestClassify_EmptyRecord(t *testing.T) {
	s, c := Classify(record("Title", "", "Price", "  ", "Notes", nil), schema.Property)
	assert.Empty(t, s)
	assert.Empty(t, c)
}

func TestCoerceNumber(t *testing.T) {
	tests := []struct {
		in     any
		want   float64
		wantOK bool
	}{
		{"123", 123, true},
		{"-456.78", -456.78, true},
		{"$1,234.56", 1234.56, true},
		{"EGP 2,500,000", 2500000, true},
		{"1.2.3", 1.2, true},
		{"12-5", 12, true},
		{".5", 0.5, true},
		{"99.", 99, true},
		{3.5, 3.5, true},
		{int64(7), 7, true},
		{"N/A", 0, false},
		{"", 0, false},
		{".", 0, false},
		{"-", 0, false},
	}

	for _, tt := range tests {
		got, ok := coerceNumber(tt.in)
		require.Equal(t, tt.wantOK, ok, "coerceNumber(%#v)", tt.in)
		if ok {
			assert.InDelta(t, tt.want, got, 1e-9, "coerceNumber(%#v)", tt.in)
		}
	}
}

func TestInferDataType(t *testing.T) {
	assert.Equal(t, DataTypeNumber, InferDataType("42"))
	assert.Equal(t, DataTypeNumber, InferDataType(" -3.5 "))
	assert.Equal(t, DataTypeNumber, InferDataType(12.0))
	assert.Equal(t, DataTypeString, InferDataType("sea view"))
	assert.Equal(t, DataTypeString, InferDataType("1,200"))
	assert.Equal(t, DataTypeString, InferDataType(nil))
}
