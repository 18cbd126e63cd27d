package query

import (
	"strings"

	"github.com/pkg/errors"
)

// Ordering is the id direction a page of records is returned in
type Ordering uint

const (
	Ascending Ordering = iota
	Descending
)

var ErrInvalidOrdering = errors.New("invalid ordering")

// ParseOrdering accepts "asc" or "desc", case insensitive
func ParseOrdering(val string) (Ordering, error) {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	}
	return Ascending, errors.Wrapf(ErrInvalidOrdering, "%q", val)
}

// ToOrderingWithFallback is ParseOrdering that returns fallback for empty or
// unknown values
func ToOrderingWithFallback(val string, fallback Ordering) Ordering {
	ordering, err := ParseOrdering(val)
	if err != nil {
		return fallback
	}
	return ordering
}

func (o Ordering) sql() string {
	if o == Descending {
		return "DESC"
	}
	return "ASC"
}

func (o Ordering) comparator() string {
	if o == Descending {
		return "<"
	}
	return ">"
}

func (o Ordering) String() string {
	return strings.ToLower(o.sql())
}
