package domain

import "time"

// Severity levels.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Detection statuses.
const (
	StatusAnalyzing = "analyzing"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Image is an uploaded plant photo submitted for pest detection.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// Treatment is a remedy for a pest or disease.
type Treatment struct {
	ID                 string   `json:"id" yaml:"id"`
	Name               string   `json:"name" yaml:"name"`
	Type               string   `json:"type" yaml:"type"` // organic, chemical, biological, cultural
	ActiveIngredient   string   `json:"active_ingredient,omitempty" yaml:"active_ingredient"`
	Dosage             string   `json:"dosage" yaml:"dosage"`
	ApplicationMethod  string   `json:"application_method" yaml:"application_method"`
	Frequency          string   `json:"frequency" yaml:"frequency"`
	Timing             string   `json:"timing" yaml:"timing"`
	Cost               float64  `json:"cost" yaml:"cost"`
	Effectiveness      float64  `json:"effectiveness" yaml:"effectiveness"` // percent
	Precautions        []string `json:"precautions,omitempty" yaml:"precautions"`
	PreharvestInterval int      `json:"preharvest_interval" yaml:"preharvest_interval"` // days
}

// DetectedPest is one pest identified in an image. It belongs to exactly one
// PestDetectionResult.
type DetectedPest struct {
	PestID              string      `json:"pest_id" yaml:"pest_id"`
	Name                string      `json:"name" yaml:"name"`
	ScientificName      string      `json:"scientific_name" yaml:"scientific_name"`
	Confidence          float64     `json:"confidence" yaml:"confidence"`
	Severity            string      `json:"severity" yaml:"severity"`
	Description         string      `json:"description" yaml:"description"`
	Lifecycle           string      `json:"lifecycle" yaml:"lifecycle"`
	DamageSymptoms      []string    `json:"damage_symptoms" yaml:"damage_symptoms"`
	FavorableConditions []string    `json:"favorable_conditions" yaml:"favorable_conditions"`
	OrganicTreatments   []Treatment `json:"organic_treatments" yaml:"organic_treatments"`
	ChemicalTreatments  []Treatment `json:"chemical_treatments" yaml:"chemical_treatments"`
	PreventiveMeasures  []string    `json:"preventive_measures" yaml:"preventive_measures"`
}

// PestDetectionResult is the outcome of analysing one submitted image.
// Confidence and severity are derived, never user-edited.
type PestDetectionResult struct {
	ID             string         `json:"id"`
	ImageRef       string         `json:"image_ref"`
	UploadedAt     time.Time      `json:"uploaded_at"`
	DetectedPests  []DetectedPest `json:"detected_pests"`
	Confidence     float64        `json:"confidence"`
	CropType       string         `json:"crop_type"`
	Location       Location       `json:"location"`
	Status         string         `json:"status"`
	ExpertVerified bool           `json:"expert_verified"`
	Treatment      []string       `json:"treatment"`
}

// SeverityFromConfidence maps a detection confidence to a severity level.
// Both thresholds are exclusive lower bounds.
func SeverityFromConfidence(confidence float64) string {
	switch {
	case confidence > 0.8:
		return SeverityHigh
	case confidence > 0.5:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// TreatmentPlan builds the advisory steps for a detection. The plan is static
// apart from two escalation steps appended when the top pest is high severity.
func TreatmentPlan(pests []DetectedPest) []string {
	if len(pests) == 0 {
		return []string{"No specific pests detected. Continue regular monitoring."}
	}

	plan := []string{
		"Apply neem oil spray (5ml/litre water) in early morning",
		"Remove affected plant parts and destroy them",
		"Increase monitoring frequency to twice daily",
		"Ensure proper field drainage and ventilation",
	}
	if pests[0].Severity == SeverityHigh {
		plan = append(plan,
			"Consider consulting local agricultural extension officer",
			"Apply treatment immediately to prevent spread",
		)
	}
	return plan
}
