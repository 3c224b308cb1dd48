// Package models holds the individual aggregate and the transient shapes
// the resolution pipeline passes between its stages.
package models

import "time"

// Address is a physical address tuple. The five-field tuple is the natural
// key: an incoming address is reused by id when an exact normalized match
// exists, otherwise a new row is created. No partial matching is attempted.
type Address struct {
	ID         int64  `json:"-"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// SameLocation reports whether two addresses agree on the full natural key.
func (a Address) SameLocation(other Address) bool {
	return a.Address == other.Address &&
		a.City == other.City &&
		a.State == other.State &&
		a.PostalCode == other.PostalCode &&
		a.Country == other.Country
}

// Individual is the canonical person record tracked by the index.
//
// Invariants:
//   - MciID is globally unique and assigned exactly once at creation
//   - RegistrationDate is set once at creation and never modified
//   - Name fields are always title-cased past normalization
//   - DateOfBirth is a calendar date, never a free string, past
//     normalization
//
// PII fields are pointers: nil means absent, either never submitted or
// scrubbed by the one-way erasure operation.
type Individual struct {
	MciID              string
	VendorID           *string
	SSN                *string
	FirstName          *string
	MiddleName         *string
	LastName           *string
	Suffix             *string
	EmailAddress       *string
	Telephone          *string
	DateOfBirth        *time.Time
	RegistrationDate   time.Time
	MailingAddressID   *int64
	GenderID           *int64
	EducationLevelID   *int64
	EmploymentStatusID *int64
	SourceID           *int64
	EthnicityRaceIDs   []int64
	DispositionIDs     []int64
}

// NormalizedRecord is the canonical internal representation of one
// submitted record after normalization and reference resolution. The
// mailing address is carried as a normalized tuple; it gets an id only
// inside the creation transaction.
type NormalizedRecord struct {
	VendorID           *string
	SSN                *string
	FirstName          *string
	MiddleName         *string
	LastName           *string
	Suffix             *string
	EmailAddress       *string
	Telephone          *string
	DateOfBirth        *time.Time
	MailingAddress     *Address
	GenderID           *int64
	EducationLevelID   *int64
	EmploymentStatusID *int64
	SourceID           *int64
	EthnicityRaceIDs   []int64
	DispositionIDs     []int64
}

// NewIndividual materializes the record as a persistable individual with a
// freshly assigned identifier and registration timestamp.
func (r NormalizedRecord) NewIndividual(mciID string, registeredAt time.Time) *Individual {
	return &Individual{
		MciID:              mciID,
		VendorID:           r.VendorID,
		SSN:                r.SSN,
		FirstName:          r.FirstName,
		MiddleName:         r.MiddleName,
		LastName:           r.LastName,
		Suffix:             r.Suffix,
		EmailAddress:       r.EmailAddress,
		Telephone:          r.Telephone,
		DateOfBirth:        r.DateOfBirth,
		RegistrationDate:   registeredAt,
		GenderID:           r.GenderID,
		EducationLevelID:   r.EducationLevelID,
		EmploymentStatusID: r.EmploymentStatusID,
		SourceID:           r.SourceID,
		EthnicityRaceIDs:   r.EthnicityRaceIDs,
		DispositionIDs:     r.DispositionIDs,
	}
}

// MatchCandidate is the transient output of one similarity-scoring attempt.
// Never persisted; consumed once per resolution.
type MatchCandidate struct {
	// Matched is true when the score cleared the acceptance threshold and
	// the scorer named an existing individual.
	Matched bool
	// MciID identifies the matched individual when Matched is true.
	MciID string
	// Score is the similarity score returned by the scorer; zero when the
	// scorer returned none.
	Score float64
}

// Summary is the public projection used by list responses and the
// match/create outcome.
type Summary struct {
	MciID     string  `json:"mci_id"`
	VendorID  *string `json:"vendor_id,omitempty"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// Detail is the full public projection for read-by-identifier, with
// reference codes resolved back to their labels.
type Detail struct {
	MciID            string   `json:"mci_id"`
	VendorID         *string  `json:"vendor_id"`
	SSN              *string  `json:"ssn"`
	FirstName        *string  `json:"first_name"`
	MiddleName       *string  `json:"middle_name"`
	LastName         *string  `json:"last_name"`
	Suffix           *string  `json:"suffix"`
	EmailAddress     *string  `json:"email_address"`
	Telephone        *string  `json:"telephone"`
	DateOfBirth      *string  `json:"date_of_birth"`
	RegistrationDate string   `json:"registration_date"`
	MailingAddress   *Address `json:"mailing_address"`
	Gender           *string  `json:"gender"`
	EthnicityRace    []string `json:"ethnicity_race"`
	EducationLevel   *string  `json:"education_level"`
	EmploymentStatus *string  `json:"employment_status"`
	Source           *string  `json:"source"`
	Dispositions     []string `json:"dispositions"`
}
