// internal/lifecycle/manager_test.go
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "hospital-onboarding/internal/common/errors"
	"hospital-onboarding/internal/common/logger"
	"hospital-onboarding/internal/models"
	"hospital-onboarding/internal/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const (
	testAppID      = "app-1"
	testHospitalID = "hosp-1"
	testOwnerID    = "owner-1"
)

// pointsCriterion scores its points straight from the hospital's bed
// capacity, so a test picks the percentage by picking the bed count.
var pointsCriterion = models.EvaluationCriterion{
	ID:           "crit-points",
	Category:     "Test",
	Subcategory:  "Fixed",
	CriteriaName: "Beds As Points",
	MaxPoints:    100,
	Weight:       1,
	IsActive:     true,
}

func bedsAsPoints(_ models.EvaluationCriterion, in scoring.Input) (float64, string) {
	return float64(in.Hospital.BedCapacity), fmt.Sprintf("points=%d", in.Hospital.BedCapacity)
}

func sequentialIDs() func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%03d", n)
	}
}

func newTestManager(t *testing.T, store *memStore, criteria CriteriaSource) *Manager {
	t.Helper()
	if criteria == nil {
		criteria = &staticCriteria{criteria: []models.EvaluationCriterion{pointsCriterion}}
	}
	return NewManager(store, criteria, logger.NewTestLogger(t),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(sequentialIDs()),
		WithEngineOptions(scoring.WithEvaluator("Test", "Fixed", "Beds As Points", bedsAsPoints)),
	)
}

func strPtr(s string) *string { return &s }

func statusPtr(s models.ApplicationStatus) *models.ApplicationStatus { return &s }

func priorityPtr(p models.Priority) *models.Priority { return &p }

// seedScorable stores an application in status with a hospital whose
// bed capacity becomes the score.
func seedScorable(store *memStore, status models.ApplicationStatus, points int) {
	hospitalID := testHospitalID
	ownerID := testOwnerID
	store.seedOwner(models.HospitalOwner{
		ID: ownerID, OwnerType: models.OwnerCompany, Name: "Kwame Mensah", Email: "kwame@example.com",
		Phone: "+233200000000", Address: "1 Ring Road", City: "Accra", State: "Greater Accra", Country: "Ghana",
	})
	store.seedHospital(models.Hospital{
		ID: hospitalID, OwnerID: ownerID, Name: "Ridge Medical Centre", Type: models.HospitalGeneral,
		Address: "4 Castle Road", City: "Accra", State: "Greater Accra", BedCapacity: points,
		LicenseNumber: strPtr("GH-MED-001"),
	})
	store.seedApplication(models.Application{
		ID:                testAppID,
		ApplicationNumber: "APP-TEST1",
		OwnerID:           &ownerID,
		HospitalID:        &hospitalID,
		Status:            status,
		Priority:          models.PriorityNormal,
		CreatedAt:         fixedNow.Add(-time.Hour),
		UpdatedAt:         fixedNow.Add(-time.Hour),
	})
}

func mustApplication(t *testing.T, store *memStore, id string) *models.Application {
	t.Helper()
	app, err := store.GetApplication(context.Background(), id)
	require.NoError(t, err)
	return app
}

func mustHistory(t *testing.T, store *memStore, id string) []models.StatusHistory {
	t.Helper()
	history, err := store.ListHistory(context.Background(), id)
	require.NoError(t, err)
	return history
}

// ==========================
// Scoring
// ==========================

func TestScoreApplication_RecommendationDrivesStatus(t *testing.T) {
	tests := []struct {
		name           string
		points         int
		recommendation scoring.Recommendation
		status         models.ApplicationStatus
		stamped        func(app *models.Application) *time.Time
	}{
		{"approve", 80, scoring.RecommendApprove, models.StatusApproved,
			func(a *models.Application) *time.Time { return a.ApprovalDate }},
		{"approve at boundary", 75, scoring.RecommendApprove, models.StatusApproved,
			func(a *models.Application) *time.Time { return a.ApprovalDate }},
		{"review", 60, scoring.RecommendReview, models.StatusUnderReview,
			func(a *models.Application) *time.Time { return a.ReviewStartDate }},
		{"review at boundary", 50, scoring.RecommendReview, models.StatusUnderReview,
			func(a *models.Application) *time.Time { return a.ReviewStartDate }},
		{"reject", 49, scoring.RecommendReject, models.StatusRejected,
			func(a *models.Application) *time.Time { return a.RejectionDate }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			seedScorable(store, models.StatusSubmitted, tt.points)
			manager := newTestManager(t, store, nil)

			outcome, err := manager.ScoreApplication(context.Background(), testAppID)
			require.NoError(t, err)

			assert.Equal(t, tt.recommendation, outcome.Recommendation)
			assert.Equal(t, models.StatusSubmitted, outcome.PreviousStatus)
			assert.Equal(t, tt.status, outcome.NewStatus)
			assert.InDelta(t, float64(tt.points), outcome.Percentage, 1e-9)

			app := mustApplication(t, store, testAppID)
			assert.Equal(t, tt.status, app.Status)
			require.NotNil(t, tt.stamped(app))
			assert.True(t, tt.stamped(app).Equal(fixedNow))
			require.NotNil(t, app.Notes)
			assert.Contains(t, *app.Notes, "Automated scoring completed")

			history := mustHistory(t, store, testAppID)
			require.Len(t, history, 1)
			require.NotNil(t, history[0].OldStatus)
			assert.Equal(t, models.StatusSubmitted, *history[0].OldStatus)
			assert.Equal(t, tt.status, history[0].NewStatus)
			assert.Contains(t, history[0].Reason, string(tt.recommendation))
		})
	}
}

func TestScoreApplication_PersistsOneRowPerCriterion(t *testing.T) {
	store := newMemStore()
	seedScorable(store, models.StatusSubmitted, 80)
	manager := newTestManager(t, store, nil)

	outcome, err := manager.ScoreApplication(context.Background(), testAppID)
	require.NoError(t, err)

	scores, err := store.ListScores(context.Background(), testAppID)
	require.NoError(t, err)
	require.Len(t, scores, len(outcome.Details))
	assert.Equal(t, "crit-points", scores[0].CriteriaID)
	assert.Equal(t, 80.0, scores[0].ActualScore)
	assert.Equal(t, defaultEvaluator, scores[0].EvaluatedBy)
	assert.Equal(t, "points=80", scores[0].Comments)
}

func TestScoreApplication_RecordsConfiguredEvaluator(t *testing.T) {
	store := newMemStore()
	seedScorable(store, models.StatusSubmitted, 80)
	manager := newTestManager(t, store, nil)
	WithEvaluatedBy("panel-review")(manager)

	_, err := manager.ScoreApplication(context.Background(), testAppID)
	require.NoError(t, err)

	scores, err := store.ListScores(context.Background(), testAppID)
	require.NoError(t, err)
	require.NotEmpty(t, scores)
	assert.Equal(t, "panel-review", scores[0].EvaluatedBy)
}

func TestScoreApplication_RescoreReplacesScores(t *testing.T) {
	store := newMemStore()
	seedScorable(store, models.StatusSubmitted, 80)
	store.seedScores(testAppID,
		models.EvaluationScore{ID: "stale-1", ApplicationID: testAppID, Category: "Old", MaxScore: 10, ActualScore: 1, Weight: 1},
		models.EvaluationScore{ID: "stale-2", ApplicationID: testAppID, Category: "Old", MaxScore: 10, ActualScore: 2, Weight: 1},
	)
	manager := newTestManager(t, store, nil)

	_, err := manager.ScoreApplication(context.Background(), testAppID)
	require.NoError(t, err)
	_, err = manager.ScoreApplication(context.Background(), testAppID)
	require.NoError(t, err)

	scores, err := store.ListScores(context.Background(), testAppID)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.NotEqual(t, "stale-1", scores[0].ID)

	history := mustHistory(t, store, testAppID)
	assert.Len(t, history, 1, "second run keeps approved and adds no history")
}

func TestScoreApplication_UnchangedStatusWritesNoHistory(t *testing.T) {
	store := newMemStore()
	seedScorable(store, models.StatusUnderReview, 60)
	manager := newTestManager(t, store, nil)

	outcome, err := manager.ScoreApplication(context.Background(), testAppID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, outcome.NewStatus)

	assert.Empty(t, mustHistory(t, store, testAppID))
	app := mustApplication(t, store, testAppID)
	assert.Nil(t, app.ReviewStartDate, "review date is only stamped on entry")
	require.NotNil(t, app.Notes)
}

func TestScoreApplication_ApplicationNotFound(t *testing.T) {
	store := newMemStore()
	manager := newTestManager(t, store, nil)

	_, err := manager.ScoreApplication(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeApplicationNotFound))
	assert.Zero(t, store.commits)
}

func TestScoreApplication_HospitalNotFound(t *testing.T) {
	t.Run("no hospital linked", func(t *testing.T) {
		store := newMemStore()
		store.seedApplication(models.Application{ID: testAppID, Status: models.StatusSubmitted})
		manager := newTestManager(t, store, nil)

		_, err := manager.ScoreApplication(context.Background(), testAppID)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeHospitalNotFound))
	})

	t.Run("linked hospital missing", func(t *testing.T) {
		store := newMemStore()
		hospitalID := "gone"
		store.seedApplication(models.Application{ID: testAppID, HospitalID: &hospitalID, Status: models.StatusSubmitted})
		manager := newTestManager(t, store, nil)

		_, err := manager.ScoreApplication(context.Background(), testAppID)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeHospitalNotFound))
		assert.Equal(t, models.StatusSubmitted, mustApplication(t, store, testAppID).Status)
	})
}

func TestScoreApplication_NoActiveCriteria(t *testing.T) {
	store := newMemStore()
	seedScorable(store, models.StatusSubmitted, 80)
	manager := newTestManager(t, store, &staticCriteria{})

	_, err := manager.ScoreApplication(context.Background(), testAppID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeCriteriaNotFound))
	assert.Zero(t, store.commits)
}

func TestScoreApplication_CriteriaSourceError(t *testing.T) {
	store := newMemStore()
	seedScorable(store, models.StatusSubmitted, 80)
	dbErr := apperrors.NewQueryExecutionFailedError("list criteria", errors.New("connection reset"))
	manager := newTestManager(t, store, &staticCriteria{err: dbErr})

	_, err := manager.ScoreApplication(context.Background(), testAppID)
	assert.ErrorIs(t, err, dbErr)
}

func TestScoreApplication_InvalidCriterion(t *testing.T) {
	store := newMemStore()
	seedScorable(store, models.StatusSubmitted, 80)
	bad := pointsCriterion
	bad.Weight = 0
	manager := newTestManager(t, store, &staticCriteria{criteria: []models.EvaluationCriterion{bad}})

	_, err := manager.ScoreApplication(context.Background(), testAppID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
}

func TestScoreApplication_ContractPhaseIsConflict(t *testing.T) {
	for _, status := range []models.ApplicationStatus{
		models.StatusContractPending, models.StatusContractSigned, models.StatusCompleted,
	} {
		t.Run(string(status), func(t *testing.T) {
			store := newMemStore()
			seedScorable(store, status, 80)
			manager := newTestManager(t, store, nil)

			_, err := manager.ScoreApplication(context.Background(), testAppID)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConflict))
			assert.Equal(t, status, mustApplication(t, store, testAppID).Status)
		})
	}
}

func TestScoreApplication_RejectedCanBeRescored(t *testing.T) {
	store := newMemStore()
	seedScorable(store, models.StatusRejected, 90)
	manager := newTestManager(t, store, nil)

	outcome, err := manager.ScoreApplication(context.Background(), testAppID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, outcome.NewStatus)
}

func TestScoreApplication_FailedHistoryRollsBack(t *testing.T) {
	store := newMemStore()
	seedScorable(store, models.StatusSubmitted, 80)
	store.failAppendHistory = apperrors.NewDatabaseInsertFailedError(errors.New("disk full"))
	manager := newTestManager(t, store, nil)

	_, err := manager.ScoreApplication(context.Background(), testAppID)
	require.Error(t, err)

	app := mustApplication(t, store, testAppID)
	assert.Equal(t, models.StatusSubmitted, app.Status)
	assert.Nil(t, app.Notes)
	scores, _ := store.ListScores(context.Background(), testAppID)
	assert.Empty(t, scores)
}

func TestScoreApplication_ConcurrentRunsKeepHistoryConsistent(t *testing.T) {
	store := newMemStore()
	seedScorable(store, models.StatusSubmitted, 80)
	manager := newTestManager(t, store, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := manager.ScoreApplication(context.Background(), testAppID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	history := mustHistory(t, store, testAppID)
	require.Len(t, history, 1)
	final, err := ReplayStatus(history)
	require.NoError(t, err)
	assert.Equal(t, mustApplication(t, store, testAppID).Status, final)

	scores, _ := store.ListScores(context.Background(), testAppID)
	assert.Len(t, scores, 1)
}

func TestStatusForRecommendation(t *testing.T) {
	assert.Equal(t, models.StatusApproved, StatusForRecommendation(scoring.RecommendApprove))
	assert.Equal(t, models.StatusUnderReview, StatusForRecommendation(scoring.RecommendReview))
	assert.Equal(t, models.StatusRejected, StatusForRecommendation(scoring.RecommendReject))
}

// ==========================
// Status Updates
// ==========================

func TestUpdateApplicationStatus_StampsEnteredStatus(t *testing.T) {
	tests := []struct {
		to      models.ApplicationStatus
		stamped func(app *models.Application) *time.Time
	}{
		{models.StatusUnderReview, func(a *models.Application) *time.Time { return a.ReviewStartDate }},
		{models.StatusApproved, func(a *models.Application) *time.Time { return a.ApprovalDate }},
		{models.StatusRejected, func(a *models.Application) *time.Time { return a.RejectionDate }},
		{models.StatusCompleted, func(a *models.Application) *time.Time { return a.CompletionDate }},
	}

	for _, tt := range tests {
		t.Run(string(tt.to), func(t *testing.T) {
			store := newMemStore()
			seedScorable(store, models.StatusSubmitted, 0)
			manager := newTestManager(t, store, nil)

			app, err := manager.UpdateApplicationStatus(context.Background(), testAppID, StatusUpdate{Status: statusPtr(tt.to)})
			require.NoError(t, err)
			assert.Equal(t, tt.to, app.Status)
			require.NotNil(t, tt.stamped(app))
			assert.True(t, tt.stamped(app).Equal(fixedNow))
			assert.True(t, app.UpdatedAt.Equal(fixedNow))

			history := mustHistory(t, store, testAppID)
			require.Len(t, history, 1)
			assert.Equal(t, "Status updated", history[0].Reason)
		})
	}
}

func TestUpdateApplicationStatus_RejectionReasonIsHistoryReason(t *testing.T) {
	store := newMemStore()
	seedScorable(store, models.StatusUnderReview, 0)
	manager := newTestManager(t, store, nil)

	app, err := manager.UpdateApplicationStatus(context.Background(), testAppID, StatusUpdate{
		Status:          statusPtr(models.StatusRejected),
		Notes:           strPtr("reviewed by panel"),
		RejectionReason: strPtr("Licence could not be verified"),
	})
	require.NoError(t, err)
	require.NotNil(t, app.RejectionReason)
	assert.Equal(t, "Licence could not be verified", *app.RejectionReason)
	assert.Equal(t, "reviewed by panel", *app.Notes)

	history := mustHistory(t, store, testAppID)
	require.Len(t, history, 1)
	assert.Equal(t, "Licence could not be verified", history[0].Reason)
}

func TestUpdateApplicationStatus_RejectionReasonOnlyWhenRejecting(t *testing.T) {
	tests := []struct {
		name   string
		from   models.ApplicationStatus
		update StatusUpdate
	}{
		{"approving", models.StatusUnderReview, StatusUpdate{
			Status: statusPtr(models.StatusApproved), RejectionReason: strPtr("stale reason")}},
		{"no status change", models.StatusUnderReview, StatusUpdate{
			Notes: strPtr("waiting on documents"), RejectionReason: strPtr("stale reason")}},
		{"already rejected", models.StatusRejected, StatusUpdate{
			Status: statusPtr(models.StatusRejected), RejectionReason: strPtr("stale reason")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			seedScorable(store, tt.from, 0)
			manager := newTestManager(t, store, nil)

			app, err := manager.UpdateApplicationStatus(context.Background(), testAppID, tt.update)
			require.NoError(t, err)
			assert.Nil(t, app.RejectionReason)
		})
	}
}

func TestUpdateApplicationStatus_FieldsOnlyWritesNoHistory(t *testing.T) {
	store := newMemStore()
	seedScorable(store, models.StatusUnderReview, 0)
	manager := newTestManager(t, store, nil)

	app, err := manager.UpdateApplicationStatus(context.Background(), testAppID, StatusUpdate{
		Priority:         priorityPtr(models.PriorityUrgent),
		AssignedReviewer: strPtr("reviewer@gmso.example"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, app.Status)
	assert.Equal(t, models.PriorityUrgent, app.Priority)
	assert.Equal(t, "reviewer@gmso.example", *app.AssignedReviewer)
	assert.Empty(t, mustHistory(t, store, testAppID))
}

func TestUpdateApplicationStatus_SameStatusWritesNoHistory(t *testing.T) {
	store := newMemStore()
	seedScorable(store, models.StatusApproved, 0)
	manager := newTestManager(t, store, nil)

	app, err := manager.UpdateApplicationStatus(context.Background(), testAppID, StatusUpdate{
		Status: statusPtr(models.StatusApproved),
		Notes:  strPtr("confirmed"),
	})
	require.NoError(t, err)
	assert.Nil(t, app.ApprovalDate, "no re-stamp without a transition")
	assert.Empty(t, mustHistory(t, store, testAppID))
}

func TestUpdateApplicationStatus_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		update StatusUpdate
	}{
		{"unknown status", StatusUpdate{Status: statusPtr("review")}},
		{"unknown priority", StatusUpdate{Priority: priorityPtr("critical")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			seedScorable(store, models.StatusSubmitted, 0)
			manager := newTestManager(t, store, nil)

			_, err := manager.UpdateApplicationStatus(context.Background(), testAppID, tt.update)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
			assert.Zero(t, store.commits)
			assert.Equal(t, models.StatusSubmitted, mustApplication(t, store, testAppID).Status)
		})
	}
}

func TestUpdateApplicationStatus_NotFound(t *testing.T) {
	manager := newTestManager(t, newMemStore(), nil)

	_, err := manager.UpdateApplicationStatus(context.Background(), "missing", StatusUpdate{Status: statusPtr(models.StatusApproved)})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeApplicationNotFound))
}

func TestUpdateApplicationStatus_CompletedIsTerminal(t *testing.T) {
	store := newMemStore()
	seedScorable(store, models.StatusCompleted, 0)
	manager := newTestManager(t, store, nil)

	_, err := manager.UpdateApplicationStatus(context.Background(), testAppID, StatusUpdate{Status: statusPtr(models.StatusUnderReview)})
	require.Error(t, err)
	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeConflict, stdErr.Code)
	assert.Equal(t, testAppID, stdErr.Metadata["applicationId"])

	// notes may still be attached to a completed application
	_, err = manager.UpdateApplicationStatus(context.Background(), testAppID, StatusUpdate{Notes: strPtr("archived")})
	assert.NoError(t, err)
}

func TestUpdateApplicationStatus_RejectedCanReopen(t *testing.T) {
	store := newMemStore()
	seedScorable(store, models.StatusRejected, 0)
	manager := newTestManager(t, store, nil)

	app, err := manager.UpdateApplicationStatus(context.Background(), testAppID, StatusUpdate{Status: statusPtr(models.StatusUnderReview)})
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, app.Status)
}

// ==========================
// Submission
// ==========================

func validSubmission() Submission {
	return Submission{
		Owner: models.HospitalOwner{
			OwnerType: models.OwnerIndividual,
			Name:      "Ama Owusu",
			Email:     "ama@example.com",
			Phone:     "+233244000000",
			Address:   "12 Oxford Street",
			City:      "Accra",
			State:     "Greater Accra",
		},
		Hospital: models.Hospital{
			Name:          "Osu Family Clinic",
			Type:          models.HospitalClinic,
			Address:       "3 Cantonments Road",
			City:          "Accra",
			State:         "Greater Accra",
			Phone:         "+233302000000",
			Email:         "info@osuclinic.example",
			BedCapacity:   20,
			StaffCount:    35,
			LicenseNumber: strPtr("GH-CLN-778"),
		},
	}
}

func TestSubmitApplication_CreatesSubmittedApplication(t *testing.T) {
	store := newMemStore()
	manager := newTestManager(t, store, nil)

	result, err := manager.SubmitApplication(context.Background(), validSubmission())
	require.NoError(t, err)

	app := result.Application
	assert.Equal(t, models.StatusSubmitted, app.Status)
	assert.Equal(t, models.PriorityNormal, app.Priority)
	assert.True(t, strings.HasPrefix(app.ApplicationNumber, "APP-"))
	require.NotNil(t, app.SubmissionDate)
	assert.True(t, app.SubmissionDate.Equal(fixedNow))
	assert.Equal(t, result.OwnerID, *app.OwnerID)
	assert.Equal(t, result.HospitalID, *app.HospitalID)

	stored := mustApplication(t, store, app.ID)
	assert.Equal(t, app.ApplicationNumber, stored.ApplicationNumber)

	store.mu.Lock()
	hospital := store.state.hospitals[result.HospitalID]
	owner := store.state.owners[result.OwnerID]
	store.mu.Unlock()
	assert.Equal(t, "pending", hospital.Status)
	assert.Equal(t, "Ghana", hospital.Country)
	assert.Equal(t, "Ghana", owner.Country)
	assert.True(t, strings.HasPrefix(hospital.Code, "HOSP-"))

	history := mustHistory(t, store, app.ID)
	require.Len(t, history, 1)
	assert.Nil(t, history[0].OldStatus)
	assert.Equal(t, models.StatusSubmitted, history[0].NewStatus)
	assert.Equal(t, "Application submitted successfully", history[0].Reason)
}

func TestSubmitApplication_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Submission)
		field  string
	}{
		{"owner type", func(s *Submission) { s.Owner.OwnerType = "trust" }, "owner.ownerType"},
		{"owner name", func(s *Submission) { s.Owner.Name = "  " }, "owner.name"},
		{"owner email", func(s *Submission) { s.Owner.Email = "not-an-email" }, "owner.email"},
		{"hospital name", func(s *Submission) { s.Hospital.Name = "" }, "hospital.name"},
		{"hospital type", func(s *Submission) { s.Hospital.Type = "hospice" }, "hospital.type"},
		{"licence", func(s *Submission) { s.Hospital.LicenseNumber = nil }, "hospital.licenseNumber"},
		{"negative beds", func(s *Submission) { s.Hospital.BedCapacity = -1 }, "negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			manager := newTestManager(t, store, nil)
			sub := validSubmission()
			tt.mutate(&sub)

			_, err := manager.SubmitApplication(context.Background(), sub)
			require.Error(t, err)
			stdErr, ok := apperrors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrCodeInvalidInput, stdErr.Code)
			assert.Contains(t, stdErr.Details, tt.field)
			assert.Zero(t, store.commits)
		})
	}
}

func TestReferenceNumber(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	assert.Equal(t, "APP-LOYW3V28", referenceNumber("APP", at))
	assert.NotEqual(t, referenceNumber("APP", at), referenceNumber("APP", at.Add(time.Millisecond)))
}

// ==========================
// Contracts
// ==========================

func TestGenerateContract_FromApproved(t *testing.T) {
	store := newMemStore()
	seedScorable(store, models.StatusApproved, 0)
	manager := newTestManager(t, store, nil)

	outcome, err := manager.GenerateContract(context.Background(), testAppID)
	require.NoError(t, err)
	assert.True(t, outcome.Created)
	assert.Equal(t, models.StatusContractPending, outcome.ApplicationStatus)

	c := outcome.Contract
	assert.True(t, strings.HasPrefix(c.ContractNumber, "CONT-"))
	assert.Equal(t, 1, c.Version)
	assert.Equal(t, "draft", c.Status)
	assert.True(t, c.EndDate.Equal(fixedNow.AddDate(2, 0, 0)))
	assert.Equal(t, 20.0, c.Terms["revenue_share"])
	assert.Equal(t, "monthly", c.Terms["billing_cycle"])
	assert.Equal(t, "90 days", c.RenewalTerms["notice_period"])
	assert.Contains(t, c.Content, "Kwame Mensah")
	assert.Contains(t, c.Content, "Ridge Medical Centre")
	assert.Contains(t, c.Content, "20% of Net Revenue")
	assert.Contains(t, c.Content, "Owner retains 80%")
	assert.Contains(t, c.Content, "APP-TEST1")

	assert.Equal(t, models.StatusContractPending, mustApplication(t, store, testAppID).Status)
	history := mustHistory(t, store, testAppID)
	require.Len(t, history, 1)
	assert.Equal(t, models.StatusApproved, *history[0].OldStatus)
	assert.Equal(t, "Contract generated and pending signature", history[0].Reason)
}

func TestGenerateContract_UsesHospitalTerms(t *testing.T) {
	store := newMemStore()
	seedScorable(store, models.StatusApproved, 0)
	store.mu.Lock()
	h := store.state.hospitals[testHospitalID]
	share, cycle := 15.0, "quarterly"
	h.RevenueSharePercentage, h.BillingCycle = &share, &cycle
	store.state.hospitals[testHospitalID] = h
	store.mu.Unlock()
	manager := newTestManager(t, store, nil)

	outcome, err := manager.GenerateContract(context.Background(), testAppID)
	require.NoError(t, err)
	assert.Equal(t, 15.0, outcome.Contract.Terms["revenue_share"])
	assert.Equal(t, "quarterly", outcome.Contract.Terms["billing_cycle"])
	assert.Contains(t, outcome.Contract.Content, "Owner retains 85%")
}

func TestGenerateContract_IsIdempotent(t *testing.T) {
	store := newMemStore()
	seedScorable(store, models.StatusApproved, 0)
	manager := newTestManager(t, store, nil)

	first, err := manager.GenerateContract(context.Background(), testAppID)
	require.NoError(t, err)
	second, err := manager.GenerateContract(context.Background(), testAppID)
	require.NoError(t, err)

	assert.False(t, second.Created)
	assert.Equal(t, first.Contract.ID, second.Contract.ID)
	assert.Equal(t, models.StatusContractPending, second.ApplicationStatus)
	assert.Len(t, mustHistory(t, store, testAppID), 1)
}

func TestGenerateContract_RequiresApproved(t *testing.T) {
	store := newMemStore()
	seedScorable(store, models.StatusUnderReview, 0)
	manager := newTestManager(t, store, nil)

	_, err := manager.GenerateContract(context.Background(), testAppID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConflict))
	assert.Empty(t, mustHistory(t, store, testAppID))
}

func TestGenerateContract_NotFound(t *testing.T) {
	manager := newTestManager(t, newMemStore(), nil)

	_, err := manager.GenerateContract(context.Background(), "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeApplicationNotFound))
}

// ==========================
// Queries
// ==========================

func TestScoreSummary(t *testing.T) {
	store := newMemStore()
	seedScorable(store, models.StatusSubmitted, 60)
	manager := newTestManager(t, store, nil)

	summary, err := manager.ScoreSummary(context.Background(), testAppID)
	require.NoError(t, err)
	assert.Nil(t, summary, "never scored")

	_, err = manager.ScoreApplication(context.Background(), testAppID)
	require.NoError(t, err)

	summary, err = manager.ScoreSummary(context.Background(), testAppID)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.InDelta(t, 60.0, summary.Percentage, 1e-9)
	assert.Equal(t, scoring.RecommendReview, summary.Recommendation)

	_, err = manager.ScoreSummary(context.Background(), "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeApplicationNotFound))
}

func TestHistory_ReplaysToCurrentStatus(t *testing.T) {
	store := newMemStore()
	manager := newTestManager(t, store, nil)

	result, err := manager.SubmitApplication(context.Background(), validSubmission())
	require.NoError(t, err)
	id := result.Application.ID

	for _, to := range []models.ApplicationStatus{
		models.StatusUnderReview, models.StatusApproved, models.StatusApproved,
	} {
		_, err := manager.UpdateApplicationStatus(context.Background(), id, StatusUpdate{Status: statusPtr(to)})
		require.NoError(t, err)
	}
	_, err = manager.GenerateContract(context.Background(), id)
	require.NoError(t, err)

	history, err := manager.History(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []models.ApplicationStatus{
		models.StatusSubmitted, models.StatusUnderReview, models.StatusApproved, models.StatusContractPending,
	}, statusesOf(history))

	final, err := ReplayStatus(history)
	require.NoError(t, err)
	assert.Equal(t, mustApplication(t, store, id).Status, final)
}

func TestReplayStatus_BrokenChain(t *testing.T) {
	history := []models.StatusHistory{
		{ID: "h1", NewStatus: models.StatusSubmitted},
		{ID: "h2", OldStatus: statusPtr(models.StatusUnderReview), NewStatus: models.StatusApproved},
	}
	_, err := ReplayStatus(history)
	assert.Error(t, err)

	status, err := ReplayStatus(nil)
	require.NoError(t, err)
	assert.Empty(t, status)
}

func TestOwnerContact(t *testing.T) {
	store := newMemStore()
	seedScorable(store, models.StatusApproved, 0)
	manager := newTestManager(t, store, nil)

	contact, err := manager.OwnerContact(context.Background(), testAppID)
	require.NoError(t, err)
	assert.Equal(t, "kwame@example.com", contact.Email)
	assert.Equal(t, "Ridge Medical Centre", contact.HospitalName)
	assert.Equal(t, models.StatusApproved, contact.Status)

	_, err = manager.OwnerContact(context.Background(), "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeApplicationNotFound))
}
