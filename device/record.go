package device

import "strings"

// UnknownDomain is reported for entity ids that carry no domain separator.
const UnknownDomain = "unknown"

// Record is a single device parsed from the live context.
type Record struct {
	EntityID string
	Name     string
	Domain   string
	State    string
	// Area is nil when the backend did not report one.
	Area *string
}

// DomainOf returns the part of an entity id before the first ".", or
// UnknownDomain when there is none.
func DomainOf(entityID string) string {
	domain, _, ok := strings.Cut(entityID, ".")
	if !ok {
		return UnknownDomain
	}
	return domain
}

// AreaOr returns the record's area or def when none was reported.
func (r Record) AreaOr(def string) string {
	if r.Area == nil {
		return def
	}
	return *r.Area
}
