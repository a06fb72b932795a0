// AngelaMos | 2026
// entity.go

package exercise

import (
	"time"
)

type Exercise struct {
	ID           string     `db:"id"`
	Name         string     `db:"name"`
	Description  string     `db:"description"`
	Instructions string     `db:"instructions"`
	MuscleGroup  string     `db:"muscle_group"`
	Equipment    string     `db:"equipment"`
	Difficulty   string     `db:"difficulty"`
	OPTPhase     int        `db:"opt_phase"`
	VideoURL     *string    `db:"video_url"`
	CreatedBy    *string    `db:"created_by"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at"`
}

const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// OPT phases of the NASM model, indexed by phase number.
var optPhaseNames = map[int]string{
	1: "stabilization endurance",
	2: "strength endurance",
	3: "muscular development",
	4: "maximal strength",
	5: "power",
}

func PhaseName(phase int) string {
	return optPhaseNames[phase]
}
