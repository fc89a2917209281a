// Package directory holds the append-only contact directory: the record
// types, the Store abstraction with its Postgres and in-memory backends, and
// the query engine used by the bot's search screens.
package directory

import "time"

// Contact is a stored directory record. Records are never updated or deleted.
type Contact struct {
	ID         int64     `db:"id"`
	Name       string    `db:"name"`
	Phone      string    `db:"phone"`
	Profession *string   `db:"profession"`
	Region     *string   `db:"region"`
	CreatedAt  time.Time `db:"created_at"`
}

// Draft is a contact that has not been stored yet. Name and Phone are kept
// verbatim, including empty or whitespace-only input.
type Draft struct {
	Name       string  `json:"name"`
	Phone      string  `json:"phone"`
	Profession *string `json:"profession,omitempty"`
	Region     *string `json:"region,omitempty"`
}

// Column names an optional field that supports distinct-value extraction.
type Column string

const (
	ColumnRegion     Column = "region"
	ColumnProfession Column = "profession"
)

// Filter selects contacts by exact, case-sensitive match. A nil field does
// not constrain the result.
type Filter struct {
	Region     *string
	Profession *string
}

// ByRegion returns a filter matching a single region.
func ByRegion(region string) Filter {
	return Filter{Region: &region}
}

// ByProfession returns a filter matching a single profession.
func ByProfession(profession string) Filter {
	return Filter{Profession: &profession}
}

// IsZero reports whether the filter matches every record.
func (f Filter) IsZero() bool {
	return f.Region == nil && f.Profession == nil
}

// Matches reports whether c satisfies the filter.
func (f Filter) Matches(c Contact) bool {
	if f.Region != nil && (c.Region == nil || *c.Region != *f.Region) {
		return false
	}
	if f.Profession != nil && (c.Profession == nil || *c.Profession != *f.Profession) {
		return false
	}
	return true
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
