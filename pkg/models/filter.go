package models

import (
	"net/url"
	"strconv"
)

// Filter narrows list queries. Zero values mean "no constraint"; each
// repository honours the fields that apply to its entity and ignores the rest.
type Filter struct {
	Search string
	Status ApplicationStatus
	Role   Role
	Level  Level
	Format Format
	Type   EventType
	LabID  int64

	ActiveOnly    bool
	ApprovedOnly  bool
	PublishedOnly bool
	UserID        int64
	// UpcomingFrom keeps events dated at or after this unix-millis instant.
	UpcomingFrom int64
	Limit        int
}

// FilterFromQuery reads the list query parameters. Unknown enum values and
// malformed numbers are dropped rather than rejected.
func FilterFromQuery(q url.Values) Filter {
	f := Filter{Search: q.Get("search")}

	if s := ApplicationStatus(q.Get("status")); s.Valid() {
		f.Status = s
	}
	if r := Role(q.Get("role")); r.Valid() {
		f.Role = r
	}
	if l := Level(q.Get("level")); l.Valid() {
		f.Level = l
	}
	if fm := Format(q.Get("format")); fm.Valid() {
		f.Format = fm
	}
	if t := EventType(q.Get("type")); t.Valid() {
		f.Type = t
	}
	if v, err := strconv.ParseInt(q.Get("lab"), 10, 64); err == nil && v > 0 {
		f.LabID = v
	}

	return f
}
