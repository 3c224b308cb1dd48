// Package service orchestrates identity resolution: normalize the submitted
// record, consult the matching service, then either return the matched
// individual or create a new one. Exactly one of those outcomes happens per
// submission; a failed match evaluation produces neither.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/brighthive/master-client-index/internal/individual/matching"
	"github.com/brighthive/master-client-index/internal/individual/models"
	"github.com/brighthive/master-client-index/internal/individual/normalize"
	"github.com/brighthive/master-client-index/internal/platform/metrics"
	"github.com/brighthive/master-client-index/internal/platform/middleware"
	"github.com/brighthive/master-client-index/internal/reference"
	dErrors "github.com/brighthive/master-client-index/pkg/domain-errors"
	"github.com/brighthive/master-client-index/pkg/mciid"
	"github.com/brighthive/master-client-index/pkg/platform/audit"
)

// Store is the persistence surface the orchestrator needs.
type Store interface {
	Create(ctx context.Context, ind *models.Individual, addr *models.Address) error
	FindByID(ctx context.Context, mciID string) (*models.Individual, *models.Address, error)
	List(ctx context.Context, offset, limit int) ([]models.Summary, int, error)
	RemovePII(ctx context.Context, mciID string) error
}

// Outcome is the result of one submission: either a fresh individual was
// created or an existing one matched.
type Outcome struct {
	Created bool
	Summary models.Summary
	// MatchProbability is set only on the matched path.
	MatchProbability *float64
}

// Page is one page of the population listing.
type Page struct {
	Individuals []models.Summary
	Total       int
}

// Service coordinates the resolution pipeline.
type Service struct {
	store      Store
	normalizer *normalize.Normalizer
	evaluator  matching.Evaluator
	resolver   *reference.Resolver

	maxPageSize int
	logger      *slog.Logger
	metrics     *metrics.Metrics
	audit       audit.Publisher
	now         func() time.Time
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics wires resolution counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithAuditPublisher wires the audit trail sink.
func WithAuditPublisher(p audit.Publisher) Option {
	return func(s *Service) {
		s.audit = p
	}
}

// WithClock overrides the registration-date clock for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New constructs the resolution service.
func New(store Store, normalizer *normalize.Normalizer, evaluator matching.Evaluator, resolver *reference.Resolver, maxPageSize int, opts ...Option) *Service {
	s := &Service{
		store:       store,
		normalizer:  normalizer,
		evaluator:   evaluator,
		resolver:    resolver,
		maxPageSize: maxPageSize,
		logger:      slog.Default(),
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit resolves one raw submitted record. Validation problems reject the
// whole submission with every problem listed; a matching-service failure
// rejects it without writing anything. Otherwise the record either matches
// an existing individual (returned, nothing written) or becomes a new one.
func (s *Service) Submit(ctx context.Context, raw map[string]any) (Outcome, error) {
	record, problems := s.normalizer.Normalize(ctx, raw)
	if len(problems) > 0 {
		s.metrics.IncrementRejected("validation")
		return Outcome{}, dErrors.Validation(problems)
	}

	candidate, err := s.evaluator.Evaluate(ctx, record)
	if err != nil {
		s.metrics.IncrementRejected("matching_unavailable")
		return Outcome{}, err
	}

	if candidate.Matched {
		s.logger.InfoContext(ctx, "individual matched",
			"mci_id", candidate.MciID, "score", candidate.Score)
		s.metrics.IncrementMatched()
		s.publish(audit.Event{
			Action:    audit.ActionIndividualMatched,
			MciID:     candidate.MciID,
			Score:     candidate.Score,
			RequestID: middleware.GetRequestID(ctx),
		})
		score := candidate.Score
		return Outcome{
			Summary: models.Summary{
				MciID:     candidate.MciID,
				VendorID:  record.VendorID,
				FirstName: record.FirstName,
				LastName:  record.LastName,
			},
			MatchProbability: &score,
		}, nil
	}

	ind := record.NewIndividual(mciid.New(), s.now())
	if err := s.store.Create(ctx, ind, record.MailingAddress); err != nil {
		s.logger.ErrorContext(ctx, "failed to create individual", "error", err)
		return Outcome{}, dErrors.Wrap(err, dErrors.CodeInternal, "create individual")
	}

	s.logger.InfoContext(ctx, "individual created", "mci_id", ind.MciID)
	s.metrics.IncrementCreated()
	s.publish(audit.Event{
		Action:    audit.ActionIndividualCreated,
		MciID:     ind.MciID,
		RequestID: middleware.GetRequestID(ctx),
	})
	return Outcome{
		Created: true,
		Summary: models.Summary{
			MciID:     ind.MciID,
			VendorID:  ind.VendorID,
			FirstName: ind.FirstName,
			LastName:  ind.LastName,
		},
	}, nil
}

// Get returns the full projection of one individual with reference codes
// resolved back to labels.
func (s *Service) Get(ctx context.Context, mciID string) (models.Detail, error) {
	ind, addr, err := s.store.FindByID(ctx, mciID)
	if err != nil {
		return models.Detail{}, err
	}
	return s.toDetail(ctx, ind, addr)
}

// List returns one page of the population. The limit is clamped to the
// configured maximum; callers cannot page wider than that.
func (s *Service) List(ctx context.Context, offset, limit int) (Page, error) {
	if limit <= 0 || limit > s.maxPageSize {
		limit = s.maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	summaries, total, err := s.store.List(ctx, offset, limit)
	if err != nil {
		return Page{}, dErrors.Wrap(err, dErrors.CodeInternal, "list individuals")
	}
	return Page{Individuals: summaries, Total: total}, nil
}

// RemovePII performs the one-way erasure of an individual's PII.
func (s *Service) RemovePII(ctx context.Context, mciID string) error {
	if err := s.store.RemovePII(ctx, mciID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "individual pii removed", "mci_id", mciID)
	s.publish(audit.Event{
		Action:    audit.ActionPIIRemoved,
		MciID:     mciID,
		RequestID: middleware.GetRequestID(ctx),
	})
	return nil
}

func (s *Service) publish(event audit.Event) {
	if s.audit != nil {
		s.audit.Publish(event)
	}
}

func (s *Service) toDetail(ctx context.Context, ind *models.Individual, addr *models.Address) (models.Detail, error) {
	detail := models.Detail{
		MciID:            ind.MciID,
		VendorID:         ind.VendorID,
		SSN:              ind.SSN,
		FirstName:        ind.FirstName,
		MiddleName:       ind.MiddleName,
		LastName:         ind.LastName,
		Suffix:           ind.Suffix,
		EmailAddress:     ind.EmailAddress,
		Telephone:        ind.Telephone,
		RegistrationDate: ind.RegistrationDate.Format(time.RFC3339),
		MailingAddress:   addr,
		EthnicityRace:    []string{},
		Dispositions:     []string{},
	}
	if ind.DateOfBirth != nil {
		dob := ind.DateOfBirth.Format("2006-01-02")
		detail.DateOfBirth = &dob
	}

	scalars := []struct {
		id       *int64
		category reference.Category
		target   **string
	}{
		{ind.GenderID, reference.Gender, &detail.Gender},
		{ind.EducationLevelID, reference.EducationLevel, &detail.EducationLevel},
		{ind.EmploymentStatusID, reference.EmploymentStatus, &detail.EmploymentStatus},
		{ind.SourceID, reference.Source, &detail.Source},
	}
	for _, ref := range scalars {
		if ref.id == nil {
			continue
		}
		label, err := s.resolver.Label(ctx, ref.category, *ref.id)
		if err != nil {
			return models.Detail{}, dErrors.Wrap(err, dErrors.CodeInternal, "resolve reference label")
		}
		*ref.target = &label
	}

	for _, id := range ind.EthnicityRaceIDs {
		label, err := s.resolver.Label(ctx, reference.EthnicityRace, id)
		if err != nil {
			return models.Detail{}, dErrors.Wrap(err, dErrors.CodeInternal, "resolve ethnicity label")
		}
		detail.EthnicityRace = append(detail.EthnicityRace, label)
	}
	for _, id := range ind.DispositionIDs {
		label, err := s.resolver.Label(ctx, reference.Disposition, id)
		if err != nil {
			return models.Detail{}, dErrors.Wrap(err, dErrors.CodeInternal, "resolve disposition label")
		}
		detail.Dispositions = append(detail.Dispositions, label)
	}

	return detail, nil
}
