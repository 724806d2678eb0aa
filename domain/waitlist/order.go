package waitlist

import (
	"fmt"
	"strings"
)

// SortOrder is the direction entries are listed by creation time.
type SortOrder string

const (
	SortAscending  SortOrder = "asc"
	SortDescending SortOrder = "desc"

	DefaultSortOrder = SortDescending
)

// ParseSortOrder accepts "asc" or "desc" in any case; empty input yields the default.
func ParseSortOrder(raw string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(raw))) {
	case "":
		return DefaultSortOrder, nil
	case SortAscending:
		return SortAscending, nil
	case SortDescending:
		return SortDescending, nil
	default:
		return "", fmt.Errorf("invalid sort order %q (allowed: asc, desc)", raw)
	}
}

func (o SortOrder) Toggle() SortOrder {
	if o == SortAscending {
		return SortDescending
	}
	return SortAscending
}

func (o SortOrder) IsDescending() bool {
	return o != SortAscending
}
