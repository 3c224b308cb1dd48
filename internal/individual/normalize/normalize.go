// Package normalize converts a raw submitted record into the canonical
// internal representation. Every recognized key is validated independently;
// failures accumulate into one problem list instead of short-circuiting, so
// a caller sees everything wrong with a submission at once.
package normalize

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/brighthive/master-client-index/internal/individual/models"
	"github.com/brighthive/master-client-index/internal/reference"
)

// Verbatim validation messages; part of the wire contract.
const (
	errInvalidEmail   = "Invalid Email Address format."
	errInvalidDOB     = "Invalid Date of Birth format."
	errInvalidAddress = "Invalid Mailing Address format."
)

// emailPattern is deliberately conservative: letters/digits/`_.+-` in the
// local part, letters/digits/`-` in the domain label, a literal dot, then a
// final label.
var emailPattern = regexp.MustCompile(`^[A-Za-z0-9_.+-]+@[A-Za-z0-9-]+\.[A-Za-z0-9-.]+$`)

const dateLayout = "2006-01-02"

// Normalizer builds NormalizedRecords. Reference lookups are read-only;
// normalization never writes to the store, which keeps it idempotent.
type Normalizer struct {
	resolver *reference.Resolver
}

// New constructs a Normalizer over the given resolver.
func New(resolver *reference.Resolver) *Normalizer {
	return &Normalizer{resolver: resolver}
}

// Normalize processes only the keys present in raw; absent keys stay unset,
// unrecognized keys are ignored. The returned problem list is complete: a
// failure on one key never prevents validation of the others. Persistence
// must not proceed when the list is non-empty.
func (n *Normalizer) Normalize(ctx context.Context, raw map[string]any) (models.NormalizedRecord, []string) {
	var rec models.NormalizedRecord
	var problems []string

	addProblem := func(msg string) {
		problems = append(problems, msg)
	}

	for _, key := range []string{"vendor_id", "ssn", "telephone"} {
		if value, present := raw[key]; present {
			s, ok := value.(string)
			if !ok {
				addProblem(fmt.Sprintf("Invalid value for %s.", key))
				continue
			}
			switch key {
			case "vendor_id":
				rec.VendorID = &s
			case "ssn":
				rec.SSN = &s
			case "telephone":
				rec.Telephone = &s
			}
		}
	}

	for _, key := range []string{"first_name", "middle_name", "last_name", "suffix"} {
		if value, present := raw[key]; present {
			s, ok := value.(string)
			if !ok {
				addProblem(fmt.Sprintf("Invalid value for %s.", key))
				continue
			}
			titled := titleCase(s)
			switch key {
			case "first_name":
				rec.FirstName = &titled
			case "middle_name":
				rec.MiddleName = &titled
			case "last_name":
				rec.LastName = &titled
			case "suffix":
				rec.Suffix = &titled
			}
		}
	}

	if value, present := raw["email_address"]; present {
		s, ok := value.(string)
		if !ok || !emailPattern.MatchString(s) {
			addProblem(errInvalidEmail)
		} else {
			rec.EmailAddress = &s
		}
	}

	if value, present := raw["date_of_birth"]; present {
		s, ok := value.(string)
		if !ok {
			addProblem(errInvalidDOB)
		} else if dob, err := time.Parse(dateLayout, s); err != nil {
			addProblem(errInvalidDOB)
		} else {
			rec.DateOfBirth = &dob
		}
	}

	if value, present := raw["mailing_address"]; present {
		addr, ok := normalizeAddress(value)
		if !ok {
			addProblem(errInvalidAddress)
		} else {
			rec.MailingAddress = addr
		}
	}

	scalarRefs := []struct {
		key      string
		category reference.Category
		target   **int64
	}{
		{"gender", reference.Gender, &rec.GenderID},
		{"education_level", reference.EducationLevel, &rec.EducationLevelID},
		{"employment_status", reference.EmploymentStatus, &rec.EmploymentStatusID},
		{"source", reference.Source, &rec.SourceID},
	}
	for _, ref := range scalarRefs {
		if value, present := raw[ref.key]; present {
			id, ok := n.resolveScalar(ctx, ref.category, value)
			if !ok {
				addProblem(categoryError(ref.category))
				continue
			}
			*ref.target = &id
		}
	}

	listRefs := []struct {
		key      string
		category reference.Category
		target   *[]int64
	}{
		{"ethnicity_race", reference.EthnicityRace, &rec.EthnicityRaceIDs},
		{"disposition", reference.Disposition, &rec.DispositionIDs},
	}
	for _, ref := range listRefs {
		if value, present := raw[ref.key]; present {
			ids, err := n.resolver.ResolveList(ctx, ref.category, value)
			if err != nil {
				// One bad element drops the whole list attribute; the
				// other fields keep processing.
				addProblem(err.Error())
				continue
			}
			*ref.target = ids
		}
	}

	return rec, problems
}

func (n *Normalizer) resolveScalar(ctx context.Context, category reference.Category, value any) (int64, bool) {
	s, ok := value.(string)
	if !ok {
		return 0, false
	}
	id, err := n.resolver.Resolve(ctx, category, s)
	if err != nil {
		return 0, false
	}
	return id, true
}

// categoryError surfaces the category's verbatim unknown-value text.
func categoryError(category reference.Category) string {
	return (&reference.UnknownValueError{Category: category}).Error()
}

// normalizeAddress requires all five sub-fields as strings. Street and city
// are title-cased, state and country upper-cased; the postal code is
// carried as given.
func normalizeAddress(value any) (*models.Address, bool) {
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, false
	}

	fields := make(map[string]string, 5)
	for _, key := range []string{"address", "city", "state", "postal_code", "country"} {
		s, ok := obj[key].(string)
		if !ok || s == "" {
			return nil, false
		}
		fields[key] = s
	}

	return &models.Address{
		Address:    titleCase(fields["address"]),
		City:       titleCase(fields["city"]),
		State:      strings.ToUpper(fields["state"]),
		PostalCode: fields["postal_code"],
		Country:    strings.ToUpper(fields["country"]),
	}, true
}

// titleCase matches the reference system's name folding: each word's first
// letter upper, the rest lower.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}
