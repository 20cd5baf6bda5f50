// internal/lifecycle/memstore_test.go
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"hospital-onboarding/internal/models"
)

// memStore is a transactional in-memory Store. WithinTx works on a copy of
// the state and publishes it only when fn succeeds.
type memStore struct {
	mu    sync.Mutex
	state memState

	// failAppendHistory makes every AppendHistory call fail.
	failAppendHistory error
	commits           int
}

type memState struct {
	applications map[string]models.Application
	hospitals    map[string]models.Hospital
	owners       map[string]models.HospitalOwner
	documents    map[string][]models.Document
	scores       map[string][]models.EvaluationScore
	history      map[string][]models.StatusHistory
	contracts    map[string]models.Contract
}

func newMemStore() *memStore {
	return &memStore{state: memState{
		applications: map[string]models.Application{},
		hospitals:    map[string]models.Hospital{},
		owners:       map[string]models.HospitalOwner{},
		documents:    map[string][]models.Document{},
		scores:       map[string][]models.EvaluationScore{},
		history:      map[string][]models.StatusHistory{},
		contracts:    map[string]models.Contract{},
	}}
}

func (s memState) clone() memState {
	out := memState{
		applications: make(map[string]models.Application, len(s.applications)),
		hospitals:    make(map[string]models.Hospital, len(s.hospitals)),
		owners:       make(map[string]models.HospitalOwner, len(s.owners)),
		documents:    make(map[string][]models.Document, len(s.documents)),
		scores:       make(map[string][]models.EvaluationScore, len(s.scores)),
		history:      make(map[string][]models.StatusHistory, len(s.history)),
		contracts:    make(map[string]models.Contract, len(s.contracts)),
	}
	for k, v := range s.applications {
		out.applications[k] = v
	}
	for k, v := range s.hospitals {
		out.hospitals[k] = v
	}
	for k, v := range s.owners {
		out.owners[k] = v
	}
	for k, v := range s.documents {
		out.documents[k] = append([]models.Document(nil), v...)
	}
	for k, v := range s.scores {
		out.scores[k] = append([]models.EvaluationScore(nil), v...)
	}
	for k, v := range s.history {
		out.history[k] = append([]models.StatusHistory(nil), v...)
	}
	for k, v := range s.contracts {
		out.contracts[k] = v
	}
	return out
}

func (m *memStore) GetApplication(_ context.Context, id string) (*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.state.applications[id]
	if !ok {
		return nil, fmt.Errorf("application %s: %w", id, ErrRecordNotFound)
	}
	return &app, nil
}

func (m *memStore) ListScores(_ context.Context, applicationID string) ([]models.EvaluationScore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.EvaluationScore(nil), m.state.scores[applicationID]...), nil
}

func (m *memStore) ListHistory(_ context.Context, applicationID string) ([]models.StatusHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.StatusHistory(nil), m.state.history[applicationID]...), nil
}

func (m *memStore) GetOwnerContact(_ context.Context, applicationID string) (*models.OwnerContact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.state.applications[applicationID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	contact := &models.OwnerContact{
		ApplicationID:     app.ID,
		ApplicationNumber: app.ApplicationNumber,
		Status:            app.Status,
		Priority:          app.Priority,
		RejectionReason:   app.RejectionReason,
	}
	if app.OwnerID != nil {
		owner := m.state.owners[*app.OwnerID]
		contact.OwnerName, contact.Email, contact.Phone = owner.Name, owner.Email, owner.Phone
	}
	if app.HospitalID != nil {
		contact.HospitalName = m.state.hospitals[*app.HospitalID].Name
	}
	return contact, nil
}

// WithinTx holds the store lock for the whole transaction, which also
// gives the per-application serialization LockApplication promises.
func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.state.clone()
	if err := fn(ctx, &memTx{store: m, state: &work}); err != nil {
		return err
	}
	m.state = work
	m.commits++
	return nil
}

func (m *memStore) seedApplication(app models.Application) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.applications[app.ID] = app
}

func (m *memStore) seedHospital(h models.Hospital) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.hospitals[h.ID] = h
}

func (m *memStore) seedOwner(o models.HospitalOwner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.owners[o.ID] = o
}

func (m *memStore) seedDocuments(applicationID string, docs ...models.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.documents[applicationID] = append(m.state.documents[applicationID], docs...)
}

func (m *memStore) seedScores(applicationID string, scores ...models.EvaluationScore) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.scores[applicationID] = append(m.state.scores[applicationID], scores...)
}

type memTx struct {
	store *memStore
	state *memState
}

func (t *memTx) LockApplication(_ context.Context, id string) (*models.Application, error) {
	app, ok := t.state.applications[id]
	if !ok {
		return nil, fmt.Errorf("lock application %s: %w", id, ErrRecordNotFound)
	}
	return &app, nil
}

func (t *memTx) GetHospital(_ context.Context, id string) (*models.Hospital, error) {
	h, ok := t.state.hospitals[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &h, nil
}

func (t *memTx) ListDocuments(_ context.Context, applicationID string) ([]models.Document, error) {
	return append([]models.Document(nil), t.state.documents[applicationID]...), nil
}

func (t *memTx) ReplaceScores(_ context.Context, applicationID string, scores []models.EvaluationScore) error {
	t.state.scores[applicationID] = append([]models.EvaluationScore(nil), scores...)
	return nil
}

func (t *memTx) UpdateApplication(_ context.Context, id string, patch ApplicationPatch) (*models.Application, error) {
	app, ok := t.state.applications[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	patch.Apply(&app)
	t.state.applications[id] = app
	return &app, nil
}

func (t *memTx) AppendHistory(_ context.Context, entry models.StatusHistory) error {
	if t.store.failAppendHistory != nil {
		return t.store.failAppendHistory
	}
	t.state.history[entry.ApplicationID] = append(t.state.history[entry.ApplicationID], entry)
	return nil
}

func (t *memTx) CreateOwner(_ context.Context, owner *models.HospitalOwner) error {
	t.state.owners[owner.ID] = *owner
	return nil
}

func (t *memTx) CreateHospital(_ context.Context, hospital *models.Hospital) error {
	t.state.hospitals[hospital.ID] = *hospital
	return nil
}

func (t *memTx) CreateApplication(_ context.Context, app *models.Application) error {
	for _, existing := range t.state.applications {
		if existing.ApplicationNumber == app.ApplicationNumber {
			return errors.New("duplicate application number")
		}
	}
	t.state.applications[app.ID] = *app
	return nil
}

func (t *memTx) GetContractParty(_ context.Context, applicationID string) (*models.ContractParty, error) {
	app, ok := t.state.applications[applicationID]
	if !ok || app.OwnerID == nil || app.HospitalID == nil {
		return nil, ErrRecordNotFound
	}
	owner, ok := t.state.owners[*app.OwnerID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	h, ok := t.state.hospitals[*app.HospitalID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &models.ContractParty{
		ApplicationID:          app.ID,
		ApplicationNumber:      app.ApplicationNumber,
		Status:                 app.Status,
		OwnerName:              owner.Name,
		OwnerEmail:             owner.Email,
		OwnerPhone:             owner.Phone,
		CompanyName:            owner.CompanyName,
		OwnerAddress:           owner.Address,
		OwnerCity:              owner.City,
		OwnerState:             owner.State,
		OwnerCountry:           owner.Country,
		HospitalName:           h.Name,
		HospitalAddress:        h.Address,
		HospitalCity:           h.City,
		HospitalState:          h.State,
		LicenseNumber:          h.LicenseNumber,
		RevenueSharePercentage: h.RevenueSharePercentage,
		BillingCycle:           h.BillingCycle,
	}, nil
}

func (t *memTx) GetContractByApplication(_ context.Context, applicationID string) (*models.Contract, error) {
	c, ok := t.state.contracts[applicationID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &c, nil
}

func (t *memTx) CreateContract(_ context.Context, contract *models.Contract) error {
	t.state.contracts[contract.ApplicationID] = *contract
	return nil
}

// staticCriteria is a CriteriaSource over a fixed slice.
type staticCriteria struct {
	criteria []models.EvaluationCriterion
	err      error
}

func (s *staticCriteria) ActiveCriteria(context.Context) ([]models.EvaluationCriterion, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.criteria, nil
}

func statusesOf(history []models.StatusHistory) []models.ApplicationStatus {
	out := make([]models.ApplicationStatus, 0, len(history))
	for _, h := range history {
		out = append(out, h.NewStatus)
	}
	return out
}
