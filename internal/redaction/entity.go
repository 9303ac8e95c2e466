// Package redaction implements the text alignment and redaction engine:
// locating detector output in a document, masking or blanking the located
// spans, and scoring the result against a ground truth.
//
// Every function in this package is pure and safe for concurrent use.
// Offsets are byte offsets into Go strings.
package redaction

import "strings"

// EntityType is the category of a sensitive entity.
type EntityType string

const (
	EntityPerson       EntityType = "PERSON"
	EntityLocation     EntityType = "LOCATION"
	EntityEmailAddress EntityType = "EMAIL_ADDRESS"
	EntityIPAddress    EntityType = "IP_ADDRESS"
	EntityPhoneNumber  EntityType = "PHONE_NUMBER"
	EntityCreditCard   EntityType = "CREDIT_CARD"
	EntityDateTime     EntityType = "DATE_TIME"
	EntityURL          EntityType = "URL"

	// EntityOther is assigned to type strings this build does not know about.
	EntityOther EntityType = "OTHER"
)

// TypeInfo holds the display attributes of an entity type.
type TypeInfo struct {
	Label    string
	Category string
	Color    string
}

var typeTable = map[EntityType]TypeInfo{
	EntityPerson:       {Label: "Person", Category: "identity", Color: "cyan"},
	EntityLocation:     {Label: "Location", Category: "identity", Color: "blue"},
	EntityEmailAddress: {Label: "Email Address", Category: "contact", Color: "magenta"},
	EntityIPAddress:    {Label: "IP Address", Category: "network", Color: "yellow"},
	EntityPhoneNumber:  {Label: "Phone Number", Category: "contact", Color: "magenta"},
	EntityCreditCard:   {Label: "Credit Card", Category: "financial", Color: "red"},
	EntityDateTime:     {Label: "Date / Time", Category: "temporal", Color: "green"},
	EntityURL:          {Label: "URL", Category: "network", Color: "yellow"},
	EntityOther:        {Label: "Other", Category: "unknown", Color: "white"},
}

// knownTypes keeps the order used in prompts, schemas and reports.
var knownTypes = []EntityType{
	EntityPerson,
	EntityLocation,
	EntityEmailAddress,
	EntityIPAddress,
	EntityPhoneNumber,
	EntityCreditCard,
	EntityDateTime,
	EntityURL,
}

// AllEntityTypes returns the detectable entity types in their canonical order.
// EntityOther is not included.
func AllEntityTypes() []EntityType {
	out := make([]EntityType, len(knownTypes))
	copy(out, knownTypes)
	return out
}

// ParseEntityType maps a detector type string to an EntityType.
// Matching is case-insensitive; anything unknown becomes EntityOther.
func ParseEntityType(s string) EntityType {
	t := EntityType(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := typeTable[t]; ok {
		return t
	}
	return EntityOther
}

// Info returns the display attributes for t.
func (t EntityType) Info() TypeInfo {
	if info, ok := typeTable[t]; ok {
		return info
	}
	return typeTable[EntityOther]
}

// Placeholder is the MASK-mode replacement token, e.g. "[CREDIT_CARD]".
func (t EntityType) Placeholder() string {
	return "[" + string(t) + "]"
}

// Detection is one item of detector output. Text is what the detector claims
// appears in the document; it carries no position.
type Detection struct {
	Text string     `json:"text" yaml:"text"`
	Type EntityType `json:"type" yaml:"type"`
}

// Entity is a detection resolved to the half-open byte range [Start, End)
// of the original document.
type Entity struct {
	Text  string     `json:"text" yaml:"text"`
	Type  EntityType `json:"type" yaml:"type"`
	Start int        `json:"start_index" yaml:"start_index"`
	End   int        `json:"end_index" yaml:"end_index"`
}

// Resolved reports whether e points at a non-empty span inside a document of
// length n. The zero value, which stands for missing offsets, is never resolved.
func (e Entity) Resolved(n int) bool {
	return e.Start >= 0 && e.Start < e.End && e.End <= n
}
