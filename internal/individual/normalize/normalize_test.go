package normalize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/brighthive/master-client-index/internal/reference"
)

type NormalizeSuite struct {
	suite.Suite
	normalizer *Normalizer
}

func TestNormalizeSuite(t *testing.T) {
	suite.Run(t, new(NormalizeSuite))
}

func (s *NormalizeSuite) SetupTest() {
	store := reference.NewInMemoryStore()
	store.Add(reference.Gender, "Female")
	store.Add(reference.EthnicityRace, "Alaska Native")
	store.Add(reference.EthnicityRace, "Asian")
	store.Add(reference.EducationLevel, "High School")
	store.Add(reference.EmploymentStatus, "Employed")
	store.Add(reference.Source, "Partner Intake")
	store.Add(reference.Disposition, "Enrolled")
	s.normalizer = New(reference.NewResolver(store))
}

func (s *NormalizeSuite) TestNameTitleCasing() {
	rec, problems := s.normalizer.Normalize(context.Background(), map[string]any{
		"first_name":  "pETER",
		"middle_name": "de la",
		"last_name":   "JACKSON",
		"suffix":      "jr",
	})

	s.Empty(problems)
	s.Equal("Peter", *rec.FirstName)
	s.Equal("De La", *rec.MiddleName)
	s.Equal("Jackson", *rec.LastName)
	s.Equal("Jr", *rec.Suffix)
}

func (s *NormalizeSuite) TestAbsentKeysStayUnset() {
	rec, problems := s.normalizer.Normalize(context.Background(), map[string]any{
		"first_name": "Petey",
	})

	s.Empty(problems)
	s.Nil(rec.LastName)
	s.Nil(rec.DateOfBirth)
	s.Nil(rec.MailingAddress)
	s.Nil(rec.GenderID)
	s.Nil(rec.EthnicityRaceIDs)
}

func (s *NormalizeSuite) TestUnrecognizedKeysIgnored() {
	_, problems := s.normalizer.Normalize(context.Background(), map[string]any{
		"first_name":   "Petey",
		"shoe_size":    11,
		"extra_object": map[string]any{"deep": true},
	})

	s.Empty(problems)
}

func (s *NormalizeSuite) TestEmail() {
	s.Run("valid email is carried", func() {
		rec, problems := s.normalizer.Normalize(context.Background(), map[string]any{
			"email_address": "petey.jackson+intake@example.org",
		})
		s.Empty(problems)
		s.Equal("petey.jackson+intake@example.org", *rec.EmailAddress)
	})

	s.Run("invalid email accumulates the format error", func() {
		rec, problems := s.normalizer.Normalize(context.Background(), map[string]any{
			"email_address": "not-an-email",
		})
		s.Contains(problems, "Invalid Email Address format.")
		s.Nil(rec.EmailAddress)
	})
}

func (s *NormalizeSuite) TestDateOfBirth() {
	s.Run("valid date parses", func() {
		rec, problems := s.normalizer.Normalize(context.Background(), map[string]any{
			"date_of_birth": "1984-10-02",
		})
		s.Empty(problems)
		s.Equal(1984, rec.DateOfBirth.Year())
	})

	s.Run("impossible calendar date is rejected", func() {
		rec, problems := s.normalizer.Normalize(context.Background(), map[string]any{
			"date_of_birth": "2021-13-40",
		})
		s.Contains(problems, "Invalid Date of Birth format.")
		s.Nil(rec.DateOfBirth)
	})

	s.Run("wrong layout is rejected", func() {
		_, problems := s.normalizer.Normalize(context.Background(), map[string]any{
			"date_of_birth": "10/02/1984",
		})
		s.Contains(problems, "Invalid Date of Birth format.")
	})
}

func (s *NormalizeSuite) TestMailingAddress() {
	s.Run("full address is normalized", func() {
		rec, problems := s.normalizer.Normalize(context.Background(), map[string]any{
			"mailing_address": map[string]any{
				"address":     "233 n michigan ave",
				"city":        "chicago",
				"state":       "il",
				"postal_code": "60601",
				"country":     "us",
			},
		})
		s.Empty(problems)
		s.Require().NotNil(rec.MailingAddress)
		s.Equal("233 N Michigan Ave", rec.MailingAddress.Address)
		s.Equal("Chicago", rec.MailingAddress.City)
		s.Equal("IL", rec.MailingAddress.State)
		s.Equal("60601", rec.MailingAddress.PostalCode)
		s.Equal("US", rec.MailingAddress.Country)
	})

	s.Run("missing sub-field fails the address", func() {
		rec, problems := s.normalizer.Normalize(context.Background(), map[string]any{
			"mailing_address": map[string]any{
				"address": "233 N Michigan",
				"city":    "Chicago",
				"country": "US",
			},
		})
		s.Contains(problems, "Invalid Mailing Address format.")
		s.Nil(rec.MailingAddress)
	})

	s.Run("non-object address fails", func() {
		_, problems := s.normalizer.Normalize(context.Background(), map[string]any{
			"mailing_address": "233 N Michigan, Chicago IL",
		})
		s.Contains(problems, "Invalid Mailing Address format.")
	})
}

func (s *NormalizeSuite) TestReferenceFields() {
	s.Run("known labels resolve to ids", func() {
		rec, problems := s.normalizer.Normalize(context.Background(), map[string]any{
			"gender":            "female",
			"education_level":   "High School",
			"employment_status": "Employed",
			"source":            "Partner Intake",
		})
		s.Empty(problems)
		s.NotNil(rec.GenderID)
		s.NotNil(rec.EducationLevelID)
		s.NotNil(rec.EmploymentStatusID)
		s.NotNil(rec.SourceID)
	})

	s.Run("unknown label leaves field unset with category error", func() {
		rec, problems := s.normalizer.Normalize(context.Background(), map[string]any{
			"gender": "Unlisted",
		})
		s.Contains(problems, "Invalid gender type specified.")
		s.Nil(rec.GenderID)
	})
}

func (s *NormalizeSuite) TestListValuedFields() {
	s.Run("every element resolves", func() {
		rec, problems := s.normalizer.Normalize(context.Background(), map[string]any{
			"ethnicity_race": []any{"Alaska Native", "Asian"},
			"disposition":    []any{"Enrolled"},
		})
		s.Empty(problems)
		s.Len(rec.EthnicityRaceIDs, 2)
		s.Len(rec.DispositionIDs, 1)
	})

	s.Run("scalar where list expected is a distinct error", func() {
		rec, problems := s.normalizer.Normalize(context.Background(), map[string]any{
			"ethnicity_race": "not-a-list",
		})
		s.Contains(problems, "Ethnicity/race must be an array.")
		s.Nil(rec.EthnicityRaceIDs)
	})

	s.Run("one bad element drops the whole list only", func() {
		rec, problems := s.normalizer.Normalize(context.Background(), map[string]any{
			"first_name":     "Petey",
			"ethnicity_race": []any{"Asian", "Martian"},
		})
		s.Contains(problems, "Invalid ethnicity/race type specified.")
		s.Nil(rec.EthnicityRaceIDs)
		s.Equal("Petey", *rec.FirstName)
	})
}

func (s *NormalizeSuite) TestErrorsAccumulateAcrossFields() {
	_, problems := s.normalizer.Normalize(context.Background(), map[string]any{
		"first_name":     "petey",
		"email_address":  "not-an-email",
		"date_of_birth":  "2021-13-40",
		"gender":         "Unlisted",
		"ethnicity_race": "not-a-list",
	})

	s.ElementsMatch(problems, []string{
		"Invalid Email Address format.",
		"Invalid Date of Birth format.",
		"Invalid gender type specified.",
		"Ethnicity/race must be an array.",
	})
}

func (s *NormalizeSuite) TestIdempotence() {
	raw := map[string]any{
		"first_name":     "pETER",
		"last_name":      "jackson",
		"date_of_birth":  "1984-10-02",
		"email_address":  "pete@example.org",
		"gender":         "Female",
		"ethnicity_race": []any{"Asian"},
	}

	first, firstProblems := s.normalizer.Normalize(context.Background(), raw)
	second, secondProblems := s.normalizer.Normalize(context.Background(), raw)

	s.Equal(first, second)
	s.Equal(firstProblems, secondProblems)
}
