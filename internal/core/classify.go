package core

import (
	"strings"

	"github.com/JonMunkholm/estatecrm/internal/schema"
)

// unnamedField replaces headers that normalize to nothing ("###", "  ").
const unnamedField = "unnamed"

// Classify splits one parsed row into schema fields and custom fields for kind.
//
// Keys are normalized with schema.NormalizeKey. Blank values are dropped.
// Numeric schema fields are coerced to float64; a value that does not yield a
// number is kept as a custom field under the same key. When two headers
// normalize to the same key the last non-blank value wins.
func Classify(rec RawRecord, kind schema.EntityKind) (schemaFields, customFields Fields) {
	schemaFields = make(Fields)
	customFields = make(Fields)

	for _, cell := range rec {
		if isBlank(cell.Value) {
			continue
		}

		key := schema.NormalizeKey(cell.Column)
		if key == "" {
			key = unnamedField
		}

		value := cell.Value
		if s, ok := value.(string); ok {
			value = strings.TrimSpace(s)
		}

		// A later header may route the same key differently, so clear both sides.
		delete(schemaFields, key)
		delete(customFields, key)

		if !kind.IsSchemaField(key) {
			customFields[key] = value
			continue
		}

		if kind.IsNumericField(key) {
			f, ok := coerceNumber(value)
			if !ok {
				customFields[key] = value
				continue
			}
			value = f
		}
		schemaFields[key] = value
	}

	return schemaFields, customFields
}
