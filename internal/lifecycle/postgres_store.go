// internal/lifecycle/postgres_store.go
package lifecycle

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	apperrors "hospital-onboarding/internal/common/errors"
	"hospital-onboarding/internal/models"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const applicationColumns = `id, application_number, owner_id, hospital_id, status, priority, notes,
	assigned_reviewer, submission_date, review_start_date, approval_date, rejection_date,
	rejection_reason, completion_date, created_at, updated_at`

func (s *PostgresStore) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM onboarding.applications WHERE id = $1`, id)
	return scanApplication(row, "get application")
}

func (s *PostgresStore) ListScores(ctx context.Context, applicationID string) ([]models.EvaluationScore, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, application_id, COALESCE(criteria_id::text, ''), category, COALESCE(subcategory, ''),
			max_score, actual_score, weight, COALESCE(comments, ''), COALESCE(evaluated_by, ''), created_at
		FROM onboarding.evaluation_scores
		WHERE application_id = $1
		ORDER BY category, subcategory`, applicationID)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("list scores", err)
	}
	defer rows.Close()

	var scores []models.EvaluationScore
	for rows.Next() {
		var sc models.EvaluationScore
		if err := rows.Scan(&sc.ID, &sc.ApplicationID, &sc.CriteriaID, &sc.Category, &sc.Subcategory,
			&sc.MaxScore, &sc.ActualScore, &sc.Weight, &sc.Comments, &sc.EvaluatedBy, &sc.CreatedAt); err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("scan score", err)
		}
		scores = append(scores, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("list scores", err)
	}
	return scores, nil
}

func (s *PostgresStore) ListHistory(ctx context.Context, applicationID string) ([]models.StatusHistory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, application_id, old_status, new_status, COALESCE(reason, ''), created_at
		FROM onboarding.application_status_history
		WHERE application_id = $1
		ORDER BY created_at ASC, seq ASC`, applicationID)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("list history", err)
	}
	defer rows.Close()

	var history []models.StatusHistory
	for rows.Next() {
		var (
			h   models.StatusHistory
			old sql.NullString
		)
		if err := rows.Scan(&h.ID, &h.ApplicationID, &old, &h.NewStatus, &h.Reason, &h.CreatedAt); err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("scan history", err)
		}
		if old.Valid {
			status := models.ApplicationStatus(old.String)
			h.OldStatus = &status
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("list history", err)
	}
	return history, nil
}

func (s *PostgresStore) GetOwnerContact(ctx context.Context, applicationID string) (*models.OwnerContact, error) {
	var c models.OwnerContact
	err := s.db.QueryRowContext(ctx, `
		SELECT a.id, a.application_number, a.status, a.priority,
			COALESCE(ho.name, ''), COALESCE(ho.email, ''), COALESCE(ho.phone, ''),
			COALESCE(h.name, ''), a.rejection_reason
		FROM onboarding.applications a
		LEFT JOIN organization.hospital_owners ho ON a.owner_id = ho.id
		LEFT JOIN organization.hospitals h ON a.hospital_id = h.id
		WHERE a.id = $1`, applicationID).Scan(
		&c.ApplicationID, &c.ApplicationNumber, &c.Status, &c.Priority,
		&c.OwnerName, &c.Email, &c.Phone, &c.HospitalName, &c.RejectionReason)
	if err != nil {
		return nil, rowError("get owner contact", err)
	}
	return &c, nil
}

// ActiveCriteria implements CriteriaSource.
func (s *PostgresStore) ActiveCriteria(ctx context.Context) ([]models.EvaluationCriterion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, COALESCE(subcategory, ''), criteria_name, COALESCE(description, ''),
			max_points, weight, is_active
		FROM onboarding.evaluation_criteria
		WHERE is_active = true
		ORDER BY category, subcategory, criteria_name`)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("list criteria", err)
	}
	defer rows.Close()

	var criteria []models.EvaluationCriterion
	for rows.Next() {
		var c models.EvaluationCriterion
		if err := rows.Scan(&c.ID, &c.Category, &c.Subcategory, &c.CriteriaName, &c.Description,
			&c.MaxPoints, &c.Weight, &c.IsActive); err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("scan criterion", err)
		}
		criteria = append(criteria, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("list criteria", err)
	}
	return criteria, nil
}

// WithinTx runs fn in a read-committed transaction. Row locks taken by
// LockApplication provide per-application serialization.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) (err error) {
	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return apperrors.NewTransactionFailedError(err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = sqlTx.Rollback()
			return
		}
		if commitErr := sqlTx.Commit(); commitErr != nil {
			err = apperrors.NewTransactionFailedError(commitErr)
		}
	}()

	return fn(ctx, &pgTx{q: sqlTx})
}

type pgTx struct {
	q querier
}

func (t *pgTx) LockApplication(ctx context.Context, id string) (*models.Application, error) {
	row := t.q.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM onboarding.applications WHERE id = $1 FOR UPDATE`, id)
	return scanApplication(row, "lock application")
}

func (t *pgTx) GetHospital(ctx context.Context, id string) (*models.Hospital, error) {
	var (
		h                                               models.Hospital
		beds, staff                                     sql.NullInt64
		share                                           sql.NullFloat64
		departments, services, accreditations, insurers []byte
	)
	err := t.q.QueryRowContext(ctx, `
		SELECT id, owner_id, code, name, type, status, address, city, state, country, postal_code,
			phone, email, website, bed_capacity, staff_count, departments, services_offered,
			license_number, license_expiry, accreditations, insurance_partners,
			revenue_share_percentage, billing_cycle, created_at
		FROM organization.hospitals
		WHERE id = $1`, id).Scan(
		&h.ID, &h.OwnerID, &h.Code, &h.Name, &h.Type, &h.Status, &h.Address, &h.City, &h.State,
		&h.Country, &h.PostalCode, &h.Phone, &h.Email, &h.Website, &beds, &staff, &departments,
		&services, &h.LicenseNumber, &h.LicenseExpiry, &accreditations, &insurers,
		&share, &h.BillingCycle, &h.CreatedAt)
	if err != nil {
		return nil, rowError("get hospital", err)
	}

	h.BedCapacity = int(beds.Int64)
	h.StaffCount = int(staff.Int64)
	if share.Valid {
		h.RevenueSharePercentage = &share.Float64
	}
	for _, list := range []struct {
		raw  []byte
		dest *[]string
	}{
		{departments, &h.Departments},
		{services, &h.ServicesOffered},
		{accreditations, &h.Accreditations},
		{insurers, &h.InsurancePartners},
	} {
		if err := decodeList(list.raw, list.dest); err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("decode hospital lists", err)
		}
	}
	return &h, nil
}

func (t *pgTx) ListDocuments(ctx context.Context, applicationID string) ([]models.Document, error) {
	rows, err := t.q.QueryContext(ctx, `
		SELECT id, application_id, document_type, COALESCE(document_name, ''), COALESCE(file_path, ''),
			COALESCE(status, ''), uploaded_at
		FROM onboarding.documents
		WHERE application_id = $1
		ORDER BY uploaded_at`, applicationID)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("list documents", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.ApplicationID, &d.DocumentType, &d.DocumentName, &d.FilePath,
			&d.Status, &d.UploadedAt); err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("scan document", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("list documents", err)
	}
	return docs, nil
}

func (t *pgTx) ReplaceScores(ctx context.Context, applicationID string, scores []models.EvaluationScore) error {
	if _, err := t.q.ExecContext(ctx,
		`DELETE FROM onboarding.evaluation_scores WHERE application_id = $1`, applicationID); err != nil {
		return apperrors.NewQueryExecutionFailedError("delete scores", err)
	}

	for _, sc := range scores {
		_, err := t.q.ExecContext(ctx, `
			INSERT INTO onboarding.evaluation_scores (
				id, application_id, criteria_id, category, subcategory,
				max_score, actual_score, weight, comments, evaluated_by, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			sc.ID, applicationID, nullString(sc.CriteriaID), sc.Category, nullString(sc.Subcategory),
			sc.MaxScore, sc.ActualScore, sc.Weight, nullString(sc.Comments), nullString(sc.EvaluatedBy), sc.CreatedAt)
		if err != nil {
			return apperrors.NewDatabaseInsertFailedError(err)
		}
	}
	return nil
}

// UpdateApplication writes the non-nil patch columns in a fixed order and
// returns the updated row.
func (t *pgTx) UpdateApplication(ctx context.Context, id string, patch ApplicationPatch) (*models.Application, error) {
	var (
		sets []string
		args []interface{}
	)
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.Notes != nil {
		add("notes", *patch.Notes)
	}
	if patch.Priority != nil {
		add("priority", string(*patch.Priority))
	}
	if patch.AssignedReviewer != nil {
		add("assigned_reviewer", *patch.AssignedReviewer)
	}
	if patch.ReviewStartDate != nil {
		add("review_start_date", *patch.ReviewStartDate)
	}
	if patch.ApprovalDate != nil {
		add("approval_date", *patch.ApprovalDate)
	}
	if patch.RejectionDate != nil {
		add("rejection_date", *patch.RejectionDate)
	}
	if patch.RejectionReason != nil {
		add("rejection_reason", *patch.RejectionReason)
	}
	if patch.CompletionDate != nil {
		add("completion_date", *patch.CompletionDate)
	}
	add("updated_at", patch.UpdatedAt)

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE onboarding.applications SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), applicationColumns)

	return scanApplication(t.q.QueryRowContext(ctx, query, args...), "update application")
}

func (t *pgTx) AppendHistory(ctx context.Context, entry models.StatusHistory) error {
	var old interface{}
	if entry.OldStatus != nil {
		old = string(*entry.OldStatus)
	}
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO onboarding.application_status_history (
			id, application_id, old_status, new_status, reason, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.ApplicationID, old, string(entry.NewStatus), entry.Reason, entry.CreatedAt)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

func (t *pgTx) CreateOwner(ctx context.Context, o *models.HospitalOwner) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO organization.hospital_owners (
			id, owner_type, name, email, phone, company_name, registration_number, tax_id,
			address, city, state, country, postal_code, bank_name, account_number, payment_method, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		o.ID, string(o.OwnerType), o.Name, o.Email, o.Phone, o.CompanyName, o.RegistrationNumber, o.TaxID,
		o.Address, o.City, o.State, o.Country, o.PostalCode, o.BankName, o.AccountNumber, o.PaymentMethod, o.CreatedAt)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

func (t *pgTx) CreateHospital(ctx context.Context, h *models.Hospital) error {
	lists := make([]string, 0, 4)
	for _, l := range [][]string{h.Departments, h.ServicesOffered, h.Accreditations, h.InsurancePartners} {
		raw, err := encodeList(l)
		if err != nil {
			return apperrors.NewDatabaseInsertFailedError(err)
		}
		lists = append(lists, string(raw))
	}

	_, err := t.q.ExecContext(ctx, `
		INSERT INTO organization.hospitals (
			id, owner_id, code, name, type, status, address, city, state, country, postal_code,
			phone, email, website, bed_capacity, staff_count, departments, services_offered,
			license_number, license_expiry, accreditations, insurance_partners,
			revenue_share_percentage, billing_cycle, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
			$19, $20, $21, $22, $23, $24, $25)`,
		h.ID, h.OwnerID, h.Code, h.Name, string(h.Type), h.Status, h.Address, h.City, h.State, h.Country,
		h.PostalCode, h.Phone, h.Email, h.Website, nullPositive(h.BedCapacity), nullPositive(h.StaffCount),
		lists[0], lists[1], h.LicenseNumber, h.LicenseExpiry, lists[2], lists[3],
		h.RevenueSharePercentage, h.BillingCycle, h.CreatedAt)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

func (t *pgTx) CreateApplication(ctx context.Context, a *models.Application) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO onboarding.applications (
			id, application_number, owner_id, hospital_id, status, priority, submission_date, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.ApplicationNumber, a.OwnerID, a.HospitalID, string(a.Status), string(a.Priority),
		a.SubmissionDate, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

func (t *pgTx) GetContractParty(ctx context.Context, applicationID string) (*models.ContractParty, error) {
	var (
		p     models.ContractParty
		share sql.NullFloat64
	)
	err := t.q.QueryRowContext(ctx, `
		SELECT a.id, a.application_number, a.status,
			ho.name, ho.email, ho.phone, ho.company_name, ho.address, ho.city, ho.state, ho.country,
			h.name, h.address, h.city, h.state, h.license_number, h.revenue_share_percentage, h.billing_cycle
		FROM onboarding.applications a
		JOIN organization.hospital_owners ho ON a.owner_id = ho.id
		JOIN organization.hospitals h ON a.hospital_id = h.id
		WHERE a.id = $1`, applicationID).Scan(
		&p.ApplicationID, &p.ApplicationNumber, &p.Status,
		&p.OwnerName, &p.OwnerEmail, &p.OwnerPhone, &p.CompanyName, &p.OwnerAddress, &p.OwnerCity,
		&p.OwnerState, &p.OwnerCountry,
		&p.HospitalName, &p.HospitalAddress, &p.HospitalCity, &p.HospitalState, &p.LicenseNumber,
		&share, &p.BillingCycle)
	if err != nil {
		return nil, rowError("get contract party", err)
	}
	if share.Valid {
		p.RevenueSharePercentage = &share.Float64
	}
	return &p, nil
}

func (t *pgTx) GetContractByApplication(ctx context.Context, applicationID string) (*models.Contract, error) {
	var (
		c                   models.Contract
		terms, renewalTerms []byte
	)
	err := t.q.QueryRowContext(ctx, `
		SELECT id, application_id, contract_number, version, content, terms, renewal_terms,
			start_date, end_date, status, created_at
		FROM onboarding.contracts
		WHERE application_id = $1
		ORDER BY version DESC
		LIMIT 1`, applicationID).Scan(
		&c.ID, &c.ApplicationID, &c.ContractNumber, &c.Version, &c.Content, &terms, &renewalTerms,
		&c.StartDate, &c.EndDate, &c.Status, &c.CreatedAt)
	if err != nil {
		return nil, rowError("get contract", err)
	}
	if err := decodeObject(terms, &c.Terms); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("decode contract terms", err)
	}
	if err := decodeObject(renewalTerms, &c.RenewalTerms); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("decode renewal terms", err)
	}
	return &c, nil
}

func (t *pgTx) CreateContract(ctx context.Context, c *models.Contract) error {
	terms, err := json.Marshal(c.Terms)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError(err)
	}
	renewal, err := json.Marshal(c.RenewalTerms)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError(err)
	}

	_, err = t.q.ExecContext(ctx, `
		INSERT INTO onboarding.contracts (
			id, application_id, contract_number, version, content, terms, renewal_terms,
			start_date, end_date, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		c.ID, c.ApplicationID, c.ContractNumber, c.Version, c.Content, string(terms), string(renewal),
		c.StartDate, c.EndDate, c.Status, c.CreatedAt)
	if err != nil {
		return apperrors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanApplication(row rowScanner, op string) (*models.Application, error) {
	var a models.Application
	err := row.Scan(&a.ID, &a.ApplicationNumber, &a.OwnerID, &a.HospitalID, &a.Status, &a.Priority,
		&a.Notes, &a.AssignedReviewer, &a.SubmissionDate, &a.ReviewStartDate, &a.ApprovalDate,
		&a.RejectionDate, &a.RejectionReason, &a.CompletionDate, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, rowError(op, err)
	}
	return &a, nil
}

func rowError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrRecordNotFound)
	}
	return apperrors.NewQueryExecutionFailedError(op, err)
}

func decodeList(raw []byte, dest *[]string) error {
	if len(raw) == 0 {
		*dest = nil
		return nil
	}
	return json.Unmarshal(raw, dest)
}

func encodeList(list []string) ([]byte, error) {
	if list == nil {
		list = []string{}
	}
	return json.Marshal(list)
}

func decodeObject(raw []byte, dest *map[string]interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullPositive(n int) interface{} {
	if n <= 0 {
		return nil
	}
	return n
}
