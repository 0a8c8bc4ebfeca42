package grades

import "math"

// Component weights: 10% first test, 30% second test, 60% final exam.
const (
	ex1Weight  = 0.10
	ex2Weight  = 0.30
	examWeight = 0.60
)

// Derived holds the fields computed from raw components. Callers never
// supply these; every write path recomputes them through Derive.
type Derived struct {
	FinalScore  float64
	GPA         float64
	LetterGrade string
}

type gradeBand struct {
	floor  float64
	letter string
	gpa    float64
}

// Banding is evaluated top-down, first match wins. Floors are inclusive, so
// exactly 9.0 is an A+ and exactly 4.0 is a D.
var gradeBands = []gradeBand{
	{9.0, "A+", 4.0},
	{8.5, "A", 3.7},
	{8.0, "B+", 3.3},
	{7.0, "B", 3.0},
	{6.5, "C+", 2.7},
	{6.3, "C", 2.3},
	{4.8, "D+", 2.0},
	{4.0, "D", 1.7},
}

// Derive computes the final score, GPA and letter grade from the three raw
// components. The weighted sum is rounded half-up to one decimal place
// before banding.
func Derive(ex1, ex2, exam float64) Derived {
	raw := ex1*ex1Weight + ex2*ex2Weight + exam*examWeight
	final := math.Floor(raw*10+0.5) / 10

	for _, band := range gradeBands {
		if final >= band.floor {
			return Derived{FinalScore: final, GPA: band.gpa, LetterGrade: band.letter}
		}
	}
	return Derived{FinalScore: final, GPA: 0.0, LetterGrade: "F"}
}
