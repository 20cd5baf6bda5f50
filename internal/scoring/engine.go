// internal/scoring/engine.go
package scoring

import (
	"fmt"
	"time"

	apperrors "hospital-onboarding/internal/common/errors"
	"hospital-onboarding/internal/models"
)

type Recommendation string

const (
	RecommendApprove Recommendation = "approve"
	RecommendReview  Recommendation = "review"
	RecommendReject  Recommendation = "reject"
)

const (
	ApproveThreshold = 75.0
	ReviewThreshold  = 50.0
)

// Input is everything an evaluator may look at.
type Input struct {
	Hospital  *models.Hospital
	Documents []models.Document
	Now       time.Time
}

// Evaluator returns the raw score for one criterion and a short comment
// describing the measured quantity. The engine clamps the score to
// [0, criterion.MaxPoints].
type Evaluator func(criterion models.EvaluationCriterion, in Input) (float64, string)

type Detail struct {
	CriteriaID    string  `json:"criteriaId,omitempty"`
	Category      string  `json:"category"`
	Subcategory   string  `json:"subcategory,omitempty"`
	CriteriaName  string  `json:"criteriaName"`
	MaxScore      float64 `json:"maxScore"`
	ActualScore   float64 `json:"actualScore"`
	Weight        float64 `json:"weight"`
	WeightedScore float64 `json:"weightedScore"`
	Comments      string  `json:"comments,omitempty"`
}

type Result struct {
	TotalScore       float64        `json:"totalScore"`
	MaxPossibleScore float64        `json:"maxPossibleScore"`
	Percentage       float64        `json:"percentage"`
	Recommendation   Recommendation `json:"recommendation"`
	Details          []Detail       `json:"details"`
}

type Engine struct {
	criteria   []models.EvaluationCriterion
	evaluators map[ruleKey]Evaluator
	now        func() time.Time
}

type Option func(*Engine)

// WithClock sets the clock used for licence expiry checks.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithEvaluator registers or replaces the rule for a criterion. Pass
// AnySubcategory to match the criterion name under every subcategory.
func WithEvaluator(category, subcategory, criteriaName string, fn Evaluator) Option {
	return func(e *Engine) {
		e.evaluators[ruleKey{category, subcategory, criteriaName}] = fn
	}
}

// NewEngine keeps only active criteria and rejects any whose weight or
// max points is not positive.
func NewEngine(criteria []models.EvaluationCriterion, opts ...Option) (*Engine, error) {
	e := &Engine{
		evaluators: defaultEvaluators(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	for _, c := range criteria {
		if !c.IsActive {
			continue
		}
		if c.Weight <= 0 || c.MaxPoints <= 0 {
			return nil, apperrors.NewInvalidInputError(fmt.Sprintf(
				"criterion %q (%s/%s) must have positive weight and max points, got weight=%v maxPoints=%v",
				c.CriteriaName, c.Category, c.Subcategory, c.Weight, c.MaxPoints))
		}
		e.criteria = append(e.criteria, c)
	}

	return e, nil
}

// Criteria returns the active criteria the engine scores against.
func (e *Engine) Criteria() []models.EvaluationCriterion {
	out := make([]models.EvaluationCriterion, len(e.criteria))
	copy(out, e.criteria)
	return out
}

// CalculateScore evaluates every active criterion. It has no side effects;
// identical inputs and clock give identical results.
func (e *Engine) CalculateScore(hospital *models.Hospital, documents []models.Document) (*Result, error) {
	if hospital == nil {
		hospital = &models.Hospital{}
	}
	in := Input{Hospital: hospital, Documents: documents, Now: e.now()}

	result := &Result{Details: make([]Detail, 0, len(e.criteria))}
	for _, c := range e.criteria {
		detail := e.evaluate(c, in)
		result.Details = append(result.Details, detail)
		result.TotalScore += detail.WeightedScore
		result.MaxPossibleScore += c.MaxPoints * c.Weight
	}

	if result.MaxPossibleScore <= 0 {
		return nil, apperrors.NewDegenerateScoreError(
			fmt.Sprintf("%d active criteria", len(e.criteria)))
	}

	result.Percentage = result.TotalScore / result.MaxPossibleScore * 100
	result.Recommendation = Recommend(result.Percentage)
	return result, nil
}

func (e *Engine) evaluate(c models.EvaluationCriterion, in Input) Detail {
	var raw float64
	var comments string
	if fn := e.lookup(c); fn != nil {
		raw, comments = fn(c, in)
	}
	raw = clamp(raw, 0, c.MaxPoints)

	return Detail{
		CriteriaID:    c.ID,
		Category:      c.Category,
		Subcategory:   c.Subcategory,
		CriteriaName:  c.CriteriaName,
		MaxScore:      c.MaxPoints,
		ActualScore:   raw,
		Weight:        c.Weight,
		WeightedScore: raw * c.Weight,
		Comments:      comments,
	}
}

func (e *Engine) lookup(c models.EvaluationCriterion) Evaluator {
	if fn, ok := e.evaluators[ruleKey{c.Category, c.Subcategory, c.CriteriaName}]; ok {
		return fn
	}
	if fn, ok := e.evaluators[ruleKey{c.Category, AnySubcategory, c.CriteriaName}]; ok {
		return fn
	}
	return nil
}

// Recommend applies the fixed thresholds. Both lower bounds are inclusive.
func Recommend(percentage float64) Recommendation {
	switch {
	case percentage >= ApproveThreshold:
		return RecommendApprove
	case percentage >= ReviewThreshold:
		return RecommendReview
	default:
		return RecommendReject
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
