// Package level derives a user's level and progress from their cumulative
// points. It is the single place holding the threshold-walk logic; derived
// fields elsewhere are always recomputed through it.
package level

// DefaultThresholds are the cumulative points required to enter each level.
// Level N starts at DefaultThresholds[N-1].
var DefaultThresholds = []int{0, 250, 500, 1000, 2000, 3500, 5000, 7000, 10000}

// overflowFactor extrapolates a synthetic next threshold once the table is
// exhausted, at 1.5x the last tabled threshold. The factor is arbitrary but
// kept for continuity with historical client behavior.
const overflowFactorNum, overflowFactorDen = 3, 2

// Progress describes where a points total sits within the level bands.
type Progress struct {
	// Level is the 1-indexed tier for the points total.
	Level int
	// PointsToNextLevel is how many more points are needed to reach the
	// next tier. Never negative.
	PointsToNextLevel int
	// TotalPointsForNextLevel is the span of the current level band, i.e.
	// the distance between the current and next thresholds.
	TotalPointsForNextLevel int
}

// Compute derives level progress for a points total against the given
// threshold table. Thresholds must be ascending with a leading zero.
// Negative points are treated as zero; Compute always produces a result.
func Compute(points int, thresholds []int) Progress {
	if points < 0 {
		points = 0
	}
	if len(thresholds) == 0 {
		thresholds = DefaultThresholds
	}

	lvl := 1
	for i := 1; i < len(thresholds); i++ {
		if points >= thresholds[i] {
			lvl = i + 1
		} else {
			break
		}
	}

	var next int
	if lvl < len(thresholds) {
		next = thresholds[lvl]
	} else {
		next = thresholds[len(thresholds)-1] * overflowFactorNum / overflowFactorDen
	}

	toNext := next - points
	if toNext < 0 {
		toNext = 0
	}

	return Progress{
		Level:                   lvl,
		PointsToNextLevel:       toNext,
		TotalPointsForNextLevel: next - thresholds[lvl-1],
	}
}

// ComputeDefault derives level progress against DefaultThresholds.
func ComputeDefault(points int) Progress {
	return Compute(points, DefaultThresholds)
}
