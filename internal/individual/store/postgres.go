// Package store persists the individual aggregate. The PostgreSQL store
// owns the all-or-nothing creation transaction: address find-or-create,
// individual row, and the many-to-many join rows commit together or not at
// all.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/brighthive/master-client-index/internal/individual/models"
	dErrors "github.com/brighthive/master-client-index/pkg/domain-errors"
	txcontext "github.com/brighthive/master-client-index/pkg/platform/tx"
)

// ErrNotFound reports an identifier that resolves to no individual. The
// message is the API's verbatim 410 body.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "An individual with that ID does not exist in the MCI.")

// PostgresStore persists individuals in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed individual store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create persists ind and, when addr is non-nil, the address it references,
// in one read-committed transaction. The address is reused by natural key
// when an exact normalized match exists; there is deliberately no unique
// constraint on that key, so two concurrent submissions of the same new
// address can both insert (the documented, accepted race).
func (s *PostgresStore) Create(ctx context.Context, ind *models.Individual, addr *models.Address) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin create individual: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	txCtx := txcontext.With(ctx, tx)

	if addr != nil {
		addressID, err := s.findOrCreateAddress(txCtx, addr)
		if err != nil {
			return err
		}
		ind.MailingAddressID = &addressID
	}

	query := `
		INSERT INTO individual (
			mci_id, vendor_id, ssn, first_name, middle_name, last_name, suffix,
			email_address, telephone, date_of_birth, registration_date,
			mailing_address_id, gender_id, education_level_id,
			employment_status_id, source_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err = tx.ExecContext(ctx, query,
		ind.MciID, ind.VendorID, ind.SSN, ind.FirstName, ind.MiddleName,
		ind.LastName, ind.Suffix, ind.EmailAddress, ind.Telephone,
		nullDate(ind.DateOfBirth), ind.RegistrationDate, ind.MailingAddressID,
		ind.GenderID, ind.EducationLevelID, ind.EmploymentStatusID, ind.SourceID,
	)
	if err != nil {
		return fmt.Errorf("insert individual: %w", err)
	}

	for _, ethnicityID := range ind.EthnicityRaceIDs {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO individual_ethnicity_race (individual_id, ethnicity_race_id) VALUES ($1, $2)`,
			ind.MciID, ethnicityID,
		)
		if err != nil {
			return fmt.Errorf("insert ethnicity join: %w", err)
		}
	}
	for _, dispositionID := range ind.DispositionIDs {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO individual_disposition (individual_id, disposition_id) VALUES ($1, $2)`,
			ind.MciID, dispositionID,
		)
		if err != nil {
			return fmt.Errorf("insert disposition join: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create individual: %w", err)
	}
	return nil
}

// findOrCreateAddress resolves the address natural key inside the caller's
// transaction, inserting when no exact match exists.
func (s *PostgresStore) findOrCreateAddress(ctx context.Context, addr *models.Address) (int64, error) {
	q := txcontext.QuerierFrom(ctx, s.db)

	var id int64
	err := q.QueryRowContext(ctx, `
		SELECT id FROM address
		WHERE address = $1 AND city = $2 AND state = $3 AND postal_code = $4 AND country = $5
		LIMIT 1
	`, addr.Address, addr.City, addr.State, addr.PostalCode, addr.Country).Scan(&id)
	if err == nil {
		addr.ID = id
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("lookup address: %w", err)
	}

	err = q.QueryRowContext(ctx, `
		INSERT INTO address (address, city, state, postal_code, country)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, addr.Address, addr.City, addr.State, addr.PostalCode, addr.Country).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert address: %w", err)
	}
	addr.ID = id
	return id, nil
}

// FindByID loads one individual with its mailing address and join rows.
func (s *PostgresStore) FindByID(ctx context.Context, mciID string) (*models.Individual, *models.Address, error) {
	q := txcontext.QuerierFrom(ctx, s.db)

	row := q.QueryRowContext(ctx, `
		SELECT i.mci_id, i.vendor_id, i.ssn, i.first_name, i.middle_name,
		       i.last_name, i.suffix, i.email_address, i.telephone,
		       i.date_of_birth, i.registration_date, i.mailing_address_id,
		       i.gender_id, i.education_level_id, i.employment_status_id,
		       i.source_id,
		       a.id, a.address, a.city, a.state, a.postal_code, a.country
		FROM individual i
		LEFT JOIN address a ON a.id = i.mailing_address_id
		WHERE i.mci_id = $1
	`, mciID)

	var ind models.Individual
	var dob sql.NullTime
	var addrID sql.NullInt64
	var addrStreet, addrCity, addrState, addrPostal, addrCountry sql.NullString

	err := row.Scan(
		&ind.MciID, &ind.VendorID, &ind.SSN, &ind.FirstName, &ind.MiddleName,
		&ind.LastName, &ind.Suffix, &ind.EmailAddress, &ind.Telephone,
		&dob, &ind.RegistrationDate, &ind.MailingAddressID,
		&ind.GenderID, &ind.EducationLevelID, &ind.EmploymentStatusID,
		&ind.SourceID,
		&addrID, &addrStreet, &addrCity, &addrState, &addrPostal, &addrCountry,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("find individual: %w", err)
	}
	if dob.Valid {
		d := dob.Time
		ind.DateOfBirth = &d
	}

	var addr *models.Address
	if addrID.Valid {
		addr = &models.Address{
			ID:         addrID.Int64,
			Address:    addrStreet.String,
			City:       addrCity.String,
			State:      addrState.String,
			PostalCode: addrPostal.String,
			Country:    addrCountry.String,
		}
	}

	ind.EthnicityRaceIDs, err = s.joinIDs(ctx, q,
		`SELECT ethnicity_race_id FROM individual_ethnicity_race WHERE individual_id = $1`, mciID)
	if err != nil {
		return nil, nil, err
	}
	ind.DispositionIDs, err = s.joinIDs(ctx, q,
		`SELECT disposition_id FROM individual_disposition WHERE individual_id = $1`, mciID)
	if err != nil {
		return nil, nil, err
	}

	return &ind, addr, nil
}

func (s *PostgresStore) joinIDs(ctx context.Context, q txcontext.Querier, query, mciID string) ([]int64, error) {
	rows, err := q.QueryContext(ctx, query, mciID)
	if err != nil {
		return nil, fmt.Errorf("load join rows: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan join row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate join rows: %w", err)
	}
	return ids, nil
}

// List returns one page of summaries plus the total population count.
func (s *PostgresStore) List(ctx context.Context, offset, limit int) ([]models.Summary, int, error) {
	q := txcontext.QuerierFrom(ctx, s.db)

	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM individual`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count individuals: %w", err)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT mci_id, vendor_id, first_name, last_name
		FROM individual
		ORDER BY registration_date, mci_id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list individuals: %w", err)
	}
	defer rows.Close()

	summaries := make([]models.Summary, 0, limit)
	for rows.Next() {
		var sum models.Summary
		if err := rows.Scan(&sum.MciID, &sum.VendorID, &sum.FirstName, &sum.LastName); err != nil {
			return nil, 0, fmt.Errorf("scan individual summary: %w", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate individuals: %w", err)
	}
	return summaries, total, nil
}

// RemovePII nulls every PII-bearing field in place. One-way: the structural
// fields (mci_id, vendor_id, registration_date, reference codes) survive.
func (s *PostgresStore) RemovePII(ctx context.Context, mciID string) error {
	q := txcontext.QuerierFrom(ctx, s.db)

	res, err := q.ExecContext(ctx, `
		UPDATE individual
		SET ssn = NULL, first_name = NULL, middle_name = NULL,
		    last_name = NULL, suffix = NULL, email_address = NULL,
		    telephone = NULL, date_of_birth = NULL, mailing_address_id = NULL
		WHERE mci_id = $1
	`, mciID)
	if err != nil {
		return fmt.Errorf("remove pii: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove pii rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func nullDate(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
