// internal/scoring/summary.go
package scoring

import "hospital-onboarding/internal/models"

// Summary is a scoring result recomputed from persisted score rows.
type Summary struct {
	TotalScore       float64                  `json:"totalScore"`
	MaxPossibleScore float64                  `json:"maxPossibleScore"`
	Percentage       float64                  `json:"percentage"`
	Recommendation   Recommendation           `json:"recommendation"`
	Scores           []models.EvaluationScore `json:"scores"`
}

// Summarize returns nil when there are no rows to summarize.
func Summarize(scores []models.EvaluationScore) *Summary {
	if len(scores) == 0 {
		return nil
	}

	s := &Summary{Scores: scores}
	for _, row := range scores {
		s.TotalScore += row.ActualScore * row.Weight
		s.MaxPossibleScore += row.MaxScore * row.Weight
	}
	if s.MaxPossibleScore > 0 {
		s.Percentage = s.TotalScore / s.MaxPossibleScore * 100
	}
	s.Recommendation = Recommend(s.Percentage)
	return s
}

// ToScores converts a result into rows ready to persist for one application.
func ToScores(applicationID, evaluatedBy string, r *Result) []models.EvaluationScore {
	rows := make([]models.EvaluationScore, 0, len(r.Details))
	for _, d := range r.Details {
		rows = append(rows, models.EvaluationScore{
			ApplicationID: applicationID,
			CriteriaID:    d.CriteriaID,
			Category:      d.Category,
			Subcategory:   d.Subcategory,
			MaxScore:      d.MaxScore,
			ActualScore:   d.ActualScore,
			Weight:        d.Weight,
			Comments:      d.Comments,
			EvaluatedBy:   evaluatedBy,
		})
	}
	return rows
}
