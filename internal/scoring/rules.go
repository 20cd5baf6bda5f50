// internal/scoring/rules.go
package scoring

import (
	"fmt"
	"math"

	"hospital-onboarding/internal/models"
)

// AnySubcategory matches a criterion name regardless of its subcategory.
const AnySubcategory = "*"

type ruleKey struct {
	category     string
	subcategory  string
	criteriaName string
}

type tier struct {
	min      int
	fraction float64
}

var (
	bedCapacityTiers   = []tier{{100, 1.0}, {50, 0.8}, {25, 0.6}, {10, 0.4}}
	staffCountTiers    = []tier{{50, 1.0}, {25, 0.8}, {10, 0.6}, {5, 0.4}}
	departmentTiers    = []tier{{10, 1.0}, {7, 0.8}, {5, 0.6}, {3, 0.4}}
	accreditationTiers = []tier{{5, 1.0}, {3, 0.8}, {2, 0.6}, {1, 0.4}}
	serviceRangeTiers  = []tier{{20, 1.0}, {15, 0.8}, {10, 0.6}, {5, 0.4}}
	insuranceTiers     = []tier{{10, 1.0}, {7, 0.8}, {5, 0.6}, {3, 0.4}}
)

const lowestTierFraction = 0.2

var typeMultipliers = map[models.HospitalType]float64{
	models.HospitalGeneral:          1.0,
	models.HospitalSpecialized:      1.2,
	models.HospitalClinic:           0.6,
	models.HospitalDiagnosticCenter: 0.8,
	models.HospitalMaternity:        0.7,
}

const unknownTypeMultiplier = 0.5

var strategicCities = map[string]bool{
	"Accra":      true,
	"Kumasi":     true,
	"Takoradi":   true,
	"Tamale":     true,
	"Cape Coast": true,
}

func defaultEvaluators() map[ruleKey]Evaluator {
	return map[ruleKey]Evaluator{
		{models.CategoryInfrastructure, "Capacity", "Bed Capacity"}: countRule("bed_capacity", bedCapacityTiers, lowestTierFraction,
			func(h *models.Hospital) int { return h.BedCapacity }),
		{models.CategoryInfrastructure, "Capacity", "Staff Count"}: countRule("staff_count", staffCountTiers, lowestTierFraction,
			func(h *models.Hospital) int { return h.StaffCount }),
		{models.CategoryInfrastructure, "Facilities", "Departments"}: countRule("departments", departmentTiers, lowestTierFraction,
			func(h *models.Hospital) int { return len(h.Departments) }),
		{models.CategoryCompliance, "Licensing", "Valid License"}: validLicense,
		{models.CategoryCompliance, "Certification", "Accreditations"}: countRule("accreditations", accreditationTiers, 0,
			func(h *models.Hospital) int { return len(h.Accreditations) }),
		{models.CategoryFinancial, AnySubcategory, "Revenue Potential"}:     revenuePotential,
		{models.CategoryLocation, AnySubcategory, "Geographic Coverage"}:    geographicCoverage,
		{models.CategoryServices, AnySubcategory, "Service Range"}: countRule("services_offered", serviceRangeTiers, lowestTierFraction,
			func(h *models.Hospital) int { return len(h.ServicesOffered) }),
		{models.CategoryPartnership, AnySubcategory, "Insurance Network"}: countRule("insurance_partners", insuranceTiers, lowestTierFraction,
			func(h *models.Hospital) int { return len(h.InsurancePartners) }),
		{models.CategoryDocumentation, AnySubcategory, "Document Submission"}: documentSubmission,
	}
}

// tierFraction returns the fraction of the first breakpoint value meets,
// or floor when it meets none. Breakpoints are inclusive.
func tierFraction(value int, tiers []tier, floor float64) float64 {
	for _, t := range tiers {
		if value >= t.min {
			return t.fraction
		}
	}
	return floor
}

func countRule(field string, tiers []tier, floor float64, measure func(*models.Hospital) int) Evaluator {
	return func(c models.EvaluationCriterion, in Input) (float64, string) {
		n := measure(in.Hospital)
		return c.MaxPoints * tierFraction(n, tiers, floor), fmt.Sprintf("%s=%d", field, n)
	}
}

func validLicense(c models.EvaluationCriterion, in Input) (float64, string) {
	h := in.Hospital
	if h.LicenseNumber == nil || *h.LicenseNumber == "" {
		return 0, "license_number missing"
	}
	if h.LicenseExpiry == nil {
		return 0, "license_expiry missing"
	}
	if !h.LicenseExpiry.After(in.Now) {
		return 0, "license expired " + h.LicenseExpiry.Format("2006-01-02")
	}
	return c.MaxPoints, "license valid until " + h.LicenseExpiry.Format("2006-01-02")
}

func revenuePotential(c models.EvaluationCriterion, in Input) (float64, string) {
	multiplier, ok := typeMultipliers[in.Hospital.Type]
	if !ok {
		multiplier = unknownTypeMultiplier
	}
	ratio := math.Min(float64(in.Hospital.BedCapacity)*multiplier/100, 1)
	return ratio * c.MaxPoints, fmt.Sprintf("bed_capacity=%d type_multiplier=%.1f", in.Hospital.BedCapacity, multiplier)
}

func geographicCoverage(c models.EvaluationCriterion, in Input) (float64, string) {
	if strategicCities[in.Hospital.City] {
		return c.MaxPoints, "strategic city " + in.Hospital.City
	}
	return c.MaxPoints * 0.5, "non-strategic city " + in.Hospital.City
}

func documentSubmission(c models.EvaluationCriterion, in Input) (float64, string) {
	submitted := make(map[string]bool, len(in.Documents))
	for _, d := range in.Documents {
		submitted[d.DocumentType] = true
	}

	present := 0
	for _, required := range models.RequiredDocumentTypes {
		if submitted[required] {
			present++
		}
	}

	total := len(models.RequiredDocumentTypes)
	return c.MaxPoints * float64(present) / float64(total), fmt.Sprintf("documents=%d/%d", present, total)
}
