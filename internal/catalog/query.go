package catalog

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/erazemk/listings/internal/model"
)

// Sort orders.
const (
	SortDefault   = "default"
	SortLowToHigh = "lowToHigh"
	SortHighToLow = "highToLow"
)

// Sort returns a new slice ordered by rent for lowToHigh and highToLow, and
// latest first (reverse insertion order) for anything else. Equal rents keep
// their input order.
func Sort(props []model.Property, order string) []model.Property {
	out := make([]model.Property, len(props))
	copy(out, props)

	switch order {
	case SortLowToHigh:
		slices.SortStableFunc(out, func(a, b model.Property) int { return cmp.Compare(a.Rent, b.Rent) })
	case SortHighToLow:
		slices.SortStableFunc(out, func(a, b model.Property) int { return cmp.Compare(b.Rent, a.Rent) })
	default:
		slices.Reverse(out)
	}
	return out
}

// Filter returns the records whose location, address or description contains
// term, ignoring case. A blank term returns every record in order.
func Filter(props []model.Property, term string) []model.Property {
	term = strings.ToLower(strings.TrimSpace(term))

	out := make([]model.Property, 0, len(props))
	for _, p := range props {
		if term == "" ||
			strings.Contains(strings.ToLower(p.Location), term) ||
			strings.Contains(strings.ToLower(p.Address), term) ||
			strings.Contains(strings.ToLower(p.Description), term) {
			out = append(out, p)
		}
	}
	return out
}

// ParseID parses a record id from a query-string value. Missing or
// non-integer values are reported as model.ErrNotFound.
func ParseID(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: missing id", model.ErrNotFound)
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid id %q", model.ErrNotFound, raw)
	}
	return id, nil
}

// Find linear-scans props for an exact id match.
func Find(props []model.Property, id int) (model.Property, bool) {
	for _, p := range props {
		if p.ID == id {
			return p, true
		}
	}
	return model.Property{}, false
}
