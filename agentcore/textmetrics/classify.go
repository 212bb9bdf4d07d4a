package textmetrics

// Grade ceilings for the three-way readability classification.
const (
	simpleGradeCeiling   = 8.0
	moderateGradeCeiling = 12.0
)

// Complexity labels a text's reading difficulty.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

func (c Complexity) String() string {
	return string(c)
}

// Accessibility labels how broad an audience a text reaches. It pairs with
// Complexity: simpler text is accessible to more readers.
type Accessibility string

const (
	AccessibilityHigh   Accessibility = "high"
	AccessibilityMedium Accessibility = "medium"
	AccessibilityLow    Accessibility = "low"
)

func (a Accessibility) String() string {
	return string(a)
}

// Classify maps a readability grade onto its complexity and accessibility
// pairing. Total over all values; grades above the upper ceiling take the
// most restrictive pairing.
func Classify(grade float64) (Complexity, Accessibility) {
	switch {
	case grade <= simpleGradeCeiling:
		return ComplexitySimple, AccessibilityHigh
	case grade <= moderateGradeCeiling:
		return ComplexityModerate, AccessibilityMedium
	default:
		return ComplexityComplex, AccessibilityLow
	}
}
