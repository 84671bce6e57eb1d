// Package schema defines the fixed attribute sets of the four CRM entity kinds.
//
// Every kind has a list of schema fields that map to native columns in its
// storage table. Anything an import file carries beyond that list is a custom
// field and lives in the record's custom_fields map.
package schema

import (
	"fmt"
	"regexp"
	"strings"
)

// EntityKind identifies one of the importable record types.
type EntityKind string

const (
	Contact      EntityKind = "contact"
	Property     EntityKind = "property"
	Organization EntityKind = "organization"
	Lead         EntityKind = "lead"
)

// Kinds lists every entity kind in display order.
var Kinds = []EntityKind{Contact, Property, Organization, Lead}

// ContactFields are the schema columns of the contacts table.
var ContactFields = []string{
	"first_name", "last_name", "email", "phone", "mobile", "company",
	"job_title", "city", "country", "prefix", "suffix", "middle_name",
	"nickname", "department", "street_address", "state", "postal_code",
	"website", "birthday", "notes",
}

// PropertyFields are the schema columns of the properties table.
var PropertyFields = []string{
	"title", "description", "property_category", "property_type",
	"listing_type", "price", "area", "bedrooms", "bathrooms", "floors",
	"parking_spaces", "year_built", "city", "state", "country",
	"postal_code", "status", "reference_number", "street_address",
}

// OrganizationFields are the schema columns of the organizations table.
var OrganizationFields = []string{
	"name", "legal_name", "organization_type", "industry", "email",
	"phone", "website", "city", "state", "country", "postal_code",
	"tax_id", "registration_number", "employee_count", "annual_revenue",
	"description", "notes", "street_address", "status",
}

// LeadFields are the schema columns of the leads table.
var LeadFields = []string{
	"first_name", "last_name", "email", "phone", "mobile", "company",
	"job_title", "lead_source", "lead_status", "lead_type", "lead_priority",
	"property_category", "property_type", "property_budget", "city",
	"state", "country", "description", "notes",
}

// NumericFields holds schema fields stored as NUMERIC columns, for whichever
// kinds declare them.
var NumericFields = map[string]bool{
	"price":           true,
	"area":            true,
	"bedrooms":        true,
	"bathrooms":       true,
	"floors":          true,
	"parking_spaces":  true,
	"year_built":      true,
	"employee_count":  true,
	"annual_revenue":  true,
	"property_budget": true,
}

type kindInfo struct {
	table  string
	fields []string
	set    map[string]bool
}

var kinds = map[EntityKind]kindInfo{
	Contact:      newKindInfo("contacts", ContactFields),
	Property:     newKindInfo("properties", PropertyFields),
	Organization: newKindInfo("organizations", OrganizationFields),
	Lead:         newKindInfo("leads", LeadFields),
}

func newKindInfo(table string, fields []string) kindInfo {
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return kindInfo{table: table, fields: fields, set: set}
}

// ParseKind converts user input to an EntityKind.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseKind(s string) (EntityKind, error) {
	k := EntityKind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := kinds[k]; !ok {
		return "", fmt.Errorf("%q is not one of %s", s, kindList())
	}
	return k, nil
}

func kindList() string {
	names := make([]string, len(Kinds))
	for i, k := range Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

// Valid reports whether k is one of the four entity kinds.
func (k EntityKind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// Table returns the storage table for k, or "" for an unknown kind.
func (k EntityKind) Table() string {
	return kinds[k].table
}

// Fields returns the schema-field names for k in column order.
func (k EntityKind) Fields() []string {
	return kinds[k].fields
}

// IsSchemaField reports whether name is a schema field of k.
func (k EntityKind) IsSchemaField(name string) bool {
	return kinds[k].set[name]
}

// IsNumericField reports whether name is a numeric schema field of k.
func (k EntityKind) IsNumericField(name string) bool {
	return kinds[k].set[name] && NumericFields[name]
}

func (k EntityKind) String() string {
	return string(k)
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeKey turns a spreadsheet header into a field name: lower-case,
// runs of non-alphanumerics collapsed to "_", no leading or trailing "_".
//
//	"Sale Price (EGP)" -> "sale_price_egp"
func NormalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonAlnum.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// Label derives a display label from a normalized field name.
//
//	"unit_view" -> "Unit View"
func Label(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
