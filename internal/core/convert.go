package core

// convert.go turns loosely typed spreadsheet cells into the values the
// classifier, hasher and storage layer expect.
//
// Spreadsheet cells arrive as strings most of the time, sometimes as numbers,
// and the same column can mix both across rows. Numeric schema columns accept
// anything with a leading number once currency symbols, thousands separators
// and units are stripped ("EGP 1,250,000" -> 1250000, "120 m2" -> 1202).

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// numericRegex matches a complete decimal number, used for type inference.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// nonNumericChars is everything stripped before coercing a numeric field.
var nonNumericChars = regexp.MustCompile(`[^0-9.\-]`)

// leadingNumber is the longest numeric prefix of a stripped value.
// "1.2.3" yields "1.2" and "12-5" yields "12".
var leadingNumber = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)`)

// isBlank reports whether v carries no information.
func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []byte:
		return len(strings.TrimSpace(string(t))) == 0
	}
	return false
}

// coerceNumber converts a cell to a float for a numeric schema column.
// ok is false when no number can be recovered.
func coerceNumber(v any) (f float64, ok bool) {
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint:
		f = float64(t)
	case uint32:
		f = float64(t)
	case uint64:
		f = float64(t)
	default:
		s := nonNumericChars.ReplaceAllString(stringify(v), "")
		m := leadingNumber.FindString(s)
		if m == "" {
			return 0, false
		}
		var err error
		if f, err = strconv.ParseFloat(m, 64); err != nil {
			return 0, false
		}
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// isNumeric reports whether a sample value reads as a number on its own.
func isNumeric(v any) bool {
	switch t := v.(type) {
	case float64:
		return !math.IsNaN(t) && !math.IsInf(t, 0)
	case float32, int, int32, int64, uint, uint32, uint64:
		return true
	case string:
		return numericRegex.MatchString(strings.TrimSpace(t))
	}
	return false
}

// stringify renders a cell the same way regardless of how it was typed in
// the source file, so 1500000 and "1500000" compare equal.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// ToPgText converts a cell to pgtype.Text.
// Returns invalid if the cell is blank.
func ToPgText(v any) pgtype.Text {
	s := strings.TrimSpace(stringify(v))
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToPgUUID converts a uuid.UUID to pgtype.UUID.
func ToPgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

// PgUUIDToString converts a pgtype.UUID to its string representation.
// Returns empty string if the UUID is invalid.
func PgUUIDToString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}
