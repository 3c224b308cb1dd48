package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/brighthive/master-client-index/internal/individual/handler"
	"github.com/brighthive/master-client-index/internal/individual/models"
	"github.com/brighthive/master-client-index/internal/individual/normalize"
	"github.com/brighthive/master-client-index/internal/individual/service"
	"github.com/brighthive/master-client-index/internal/individual/store"
	"github.com/brighthive/master-client-index/internal/platform/logger"
	"github.com/brighthive/master-client-index/internal/reference"
	dErrors "github.com/brighthive/master-client-index/pkg/domain-errors"
	"github.com/brighthive/master-client-index/pkg/testutil"
)

// stubEvaluator lets each test choose the match outcome.
type stubEvaluator struct {
	candidate models.MatchCandidate
	err       error
}

func (e *stubEvaluator) Evaluate(ctx context.Context, rec models.NormalizedRecord) (models.MatchCandidate, error) {
	if e.err != nil {
		return models.MatchCandidate{}, e.err
	}
	return e.candidate, nil
}

type HandlerSuite struct {
	suite.Suite
	router    chi.Router
	store     *store.InMemoryStore
	evaluator *stubEvaluator
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.evaluator = &stubEvaluator{}

	refStore := reference.NewInMemoryStore()
	refStore.Add(reference.Gender, "Female")
	refStore.Add(reference.EthnicityRace, "Asian")
	resolver := reference.NewResolver(refStore)

	svc := service.New(s.store, normalize.New(resolver), s.evaluator, resolver, 100)

	s.router = chi.NewRouter()
	handler.New(svc, logger.New()).Register(s.router)
}

func (s *HandlerSuite) submission() map[string]any {
	return map[string]any{
		"first_name":    "ada",
		"last_name":     "lovelace",
		"date_of_birth": "1990-05-01",
		"gender":        "female",
	}
}

func (s *HandlerSuite) TestSubmitCreates() {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/users", s.submission()))

	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	body := testutil.UnmarshalResponse[models.Summary](s.T(), rr)
	require.Len(s.T(), body.MciID, 32)
	require.Equal(s.T(), "Ada", *body.FirstName)
	require.Equal(s.T(), "Lovelace", *body.LastName)
	require.Equal(s.T(), 1, s.store.Count())
}

func (s *HandlerSuite) TestSubmitReturnsMatch() {
	s.evaluator.candidate = models.MatchCandidate{
		Matched: true,
		MciID:   "abc123def456abc123def456abc123de",
		Score:   0.95,
	}

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/users", s.submission()))

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	testutil.AssertJSONContains(s.T(), rr, "mci_id", "abc123def456abc123def456abc123de")
	testutil.AssertJSONContains(s.T(), rr, "match_probability", 0.95)
	require.Equal(s.T(), 0, s.store.Count())
}

func (s *HandlerSuite) TestSubmitMalformedBody() {
	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{"first_name": `},
		{"array body", `["first_name"]`},
		{"scalar body", `"first_name"`},
		{"empty body", ``},
		{"empty object", `{}`},
		{"null body", `null`},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/users", tc.body))

			testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
			testutil.AssertErrorMessage(s.T(), rr, "error", "Malformed or empty JSON object found in request body.")
		})
	}
}

func (s *HandlerSuite) TestSubmitValidationProblems() {
	raw := s.submission()
	raw["email_address"] = "nope"
	raw["gender"] = "other"

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/users", raw))

	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	testutil.AssertValidationErrors(s.T(), rr, []string{
		"Invalid Email Address format.",
		"Invalid gender type specified.",
	})
	require.Equal(s.T(), 0, s.store.Count())
}

func (s *HandlerSuite) TestSubmitMatchingUnavailable() {
	s.evaluator.err = dErrors.New(dErrors.CodeMatchingUnavailable, "The matching service did not return a response.")

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/users", s.submission()))

	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	testutil.AssertErrorMessage(s.T(), rr, "error", "The matching service did not return a response.")
	require.Equal(s.T(), 0, s.store.Count())
}

func (s *HandlerSuite) TestGetIndividual() {
	created := s.create()

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/users/"+created.MciID))

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	detail := testutil.UnmarshalResponse[models.Detail](s.T(), rr)
	require.Equal(s.T(), created.MciID, detail.MciID)
	require.Equal(s.T(), "Ada", *detail.FirstName)
	require.Equal(s.T(), "1990-05-01", *detail.DateOfBirth)
	require.Equal(s.T(), "Female", *detail.Gender)
}

func (s *HandlerSuite) TestGetUnknownIndividual() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/users/0000000000000000000000000000dead"))

	testutil.AssertStatus(s.T(), rr, http.StatusGone)
	testutil.AssertErrorMessage(s.T(), rr, "message", "An individual with that ID does not exist in the MCI.")
}

func (s *HandlerSuite) TestListIndividuals() {
	for i := 0; i < 3; i++ {
		s.create()
	}

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/users?offset=0&limit=2"))

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	type listBody struct {
		Users []models.Summary `json:"users"`
		Total int              `json:"total"`
	}
	body := testutil.UnmarshalResponse[listBody](s.T(), rr)
	require.Len(s.T(), body.Users, 2)
	require.Equal(s.T(), 3, body.Total)
}

func (s *HandlerSuite) TestListEmptyPopulation() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/users"))

	testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	type listBody struct {
		Users []models.Summary `json:"users"`
	}
	body := testutil.UnmarshalResponse[listBody](s.T(), rr)
	require.NotNil(s.T(), body.Users)
	require.Empty(s.T(), body.Users)
}

func (s *HandlerSuite) TestListPagingValidation() {
	cases := []struct {
		name    string
		query   string
		message string
	}{
		{"non-integer offset", "?offset=abc", "Offset and Limit must be integers."},
		{"non-integer limit", "?limit=1.5", "Offset and Limit must be integers."},
		{"negative offset", "?offset=-1", "Offset and Limit must be positive integers."},
		{"negative limit", "?limit=-5", "Offset and Limit must be positive integers."},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/users"+tc.query))

			testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
			testutil.AssertErrorMessage(s.T(), rr, "error", tc.message)
		})
	}
}

func (s *HandlerSuite) TestRemovePII() {
	created := s.create()

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/users/remove-pii", map[string]string{
		"mci_id": created.MciID,
	}))

	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	testutil.AssertErrorMessage(s.T(), rr, "message", "Successfully removed PII for "+created.MciID)

	found, _, err := s.store.FindByID(context.Background(), created.MciID)
	require.NoError(s.T(), err)
	require.Nil(s.T(), found.FirstName)
}

func (s *HandlerSuite) TestRemovePIIUnknownID() {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/users/remove-pii", map[string]string{
		"mci_id": "0000000000000000000000000000dead",
	}))

	testutil.AssertStatus(s.T(), rr, http.StatusGone)
	testutil.AssertErrorMessage(s.T(), rr, "message", "An individual with that ID does not exist in the MCI.")
}

func (s *HandlerSuite) TestRemovePIIMissingID() {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/users/remove-pii", map[string]string{
		"other": "value",
	}))

	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	testutil.AssertErrorMessage(s.T(), rr, "error", "Malformed or empty JSON object found in request body.")
}

// create posts one valid submission and returns the created summary.
func (s *HandlerSuite) create() models.Summary {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/users", s.submission()))
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	return *testutil.UnmarshalResponse[models.Summary](s.T(), rr)
}
