// Package reference resolves free-text attribute values (gender, ethnicity,
// education level, employment status, source, disposition) to canonical
// reference-entity identifiers. Lookups are case-insensitive exact matches
// against the controlled vocabulary; an unknown value surfaces the
// category's verbatim error text to the caller.
package reference

import (
	"context"
	"errors"
	"fmt"
)

// Category names one controlled-vocabulary lookup table.
type Category string

const (
	Gender           Category = "gender"
	EthnicityRace    Category = "ethnicity_race"
	EducationLevel   Category = "education_level"
	EmploymentStatus Category = "employment_status"
	Source           Category = "source"
	Disposition      Category = "disposition"
)

// categoryMeta carries the per-category table layout and the exact error
// text the API surfaces. The texts are part of the wire contract; do not
// reword them.
type categoryMeta struct {
	table        string
	labelColumn  string
	unknownError string
	// notAListError is set only for list-valued categories.
	notAListError string
}

var categories = map[Category]categoryMeta{
	Gender: {
		table:        "gender",
		labelColumn:  "gender",
		unknownError: "Invalid gender type specified.",
	},
	EthnicityRace: {
		table:         "ethnicity_race",
		labelColumn:   "ethnicity_race",
		unknownError:  "Invalid ethnicity/race type specified.",
		notAListError: "Ethnicity/race must be an array.",
	},
	EducationLevel: {
		table:        "education_level",
		labelColumn:  "education_level",
		unknownError: "Invalid education level specified.",
	},
	EmploymentStatus: {
		table:        "employment_status",
		labelColumn:  "employment_status",
		unknownError: "Invalid employment status specified.",
	},
	Source: {
		table:        "source",
		labelColumn:  "source",
		unknownError: "Invalid source specified.",
	},
	Disposition: {
		table:         "disposition",
		labelColumn:   "disposition",
		unknownError:  "Invalid disposition specified.",
		notAListError: "Disposition must be an array.",
	},
}

// ErrNotFound is returned by stores when no row matches a lookup.
var ErrNotFound = errors.New("reference value not found")

// Store is the read-only lookup surface over the reference tables.
type Store interface {
	// LookupLabel resolves a label to its id, matching case-insensitively.
	LookupLabel(ctx context.Context, category Category, label string) (int64, error)
	// LabelByID returns the canonical label for an id.
	LabelByID(ctx context.Context, category Category, id int64) (string, error)
}

// UnknownValueError reports a label absent from its category's vocabulary.
// Its Error text is the category-specific message surfaced verbatim.
type UnknownValueError struct {
	Category Category
}

func (e *UnknownValueError) Error() string {
	return categories[e.Category].unknownError
}

// NotAListError reports scalar input where a list-valued category expects a
// sequence. Distinct from a lookup failure; the value is never looked up.
type NotAListError struct {
	Category Category
}

func (e *NotAListError) Error() string {
	return categories[e.Category].notAListError
}

// Resolver performs reference resolution against a Store.
type Resolver struct {
	store Store
}

// NewResolver constructs a Resolver.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve maps one label to its reference id. Unknown labels yield an
// UnknownValueError; store failures pass through wrapped.
func (r *Resolver) Resolve(ctx context.Context, category Category, label string) (int64, error) {
	id, err := r.store.LookupLabel(ctx, category, label)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, &UnknownValueError{Category: category}
		}
		return 0, fmt.Errorf("resolve %s: %w", category, err)
	}
	return id, nil
}

// ResolveList resolves every element of a list-valued attribute. The raw
// value must be a sequence; anything else yields NotAListError without
// attempting a scalar lookup. One unresolved element fails the whole list.
func (r *Resolver) ResolveList(ctx context.Context, category Category, value any) ([]int64, error) {
	labels, ok := asStringSlice(value)
	if !ok {
		return nil, &NotAListError{Category: category}
	}

	ids := make([]int64, 0, len(labels))
	for _, label := range labels {
		id, err := r.Resolve(ctx, category, label)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Label resolves an id back to its canonical label, for read projections.
func (r *Resolver) Label(ctx context.Context, category Category, id int64) (string, error) {
	label, err := r.store.LabelByID(ctx, category, id)
	if err != nil {
		return "", fmt.Errorf("label %s %d: %w", category, id, err)
	}
	return label, nil
}

// asStringSlice accepts the shapes a decoded JSON array can take. A scalar
// string is deliberately not accepted.
func asStringSlice(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}
