package live

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(n int) *int { return &n }

func TestBuildCatalogForTime(t *testing.T) {
	rows := []FlattenRow{
		{RoundNumber: 1, SubroundNumber: 1, Position: 1, Name: "Pull Up", QuantityType: "reps", Quantity: 10},
		{RoundNumber: 1, SubroundNumber: 1, Position: 2, Name: "Plank", QuantityType: "duration", Quantity: 30},
		{RoundNumber: 2, SubroundNumber: 1, Position: 1, Name: "Pull Up", QuantityType: "reps", Quantity: 10},
	}
	cat := BuildCatalog(rows, ForTime, WorkoutMetadata{})

	require.Len(t, cat.Steps, 3)
	assert.Equal(t, "10x Pull Up", cat.Steps[0].Name)
	assert.Equal(t, "Plank 30s", cat.Steps[1].Name)
	require.NotNil(t, cat.Steps[0].Reps)
	assert.Equal(t, 10, *cat.Steps[0].Reps)
	assert.Nil(t, cat.Steps[1].Reps)
	require.NotNil(t, cat.Steps[1].DurationSec)
	assert.Equal(t, 30, *cat.Steps[1].DurationSec)

	// Duration steps contribute zero reps to the prefix sums.
	assert.Equal(t, []int{10, 10, 20}, cat.CumReps)
}

func TestBuildCatalogSingleRoundExpansion(t *testing.T) {
	rows := []FlattenRow{
		{RoundNumber: 1, SubroundNumber: 1, Position: 1, Name: "Squat", QuantityType: "reps", Quantity: 20},
		{RoundNumber: 1, SubroundNumber: 2, Position: 1, Name: "Lunge", QuantityType: "reps", Quantity: 10},
	}
	cat := BuildCatalog(rows, ForTime, WorkoutMetadata{NumberOfRounds: 3})

	require.Len(t, cat.Steps, 6)
	for i, s := range cat.Steps {
		assert.Equal(t, i, s.Index)
		assert.Equal(t, i/2+1, s.Round)
	}
	assert.Equal(t, "20x Squat", cat.Steps[4].Name)
	assert.Equal(t, []int{20, 30, 50, 60, 80, 90}, cat.CumReps)
}

func TestBuildCatalogMultiRoundNotExpanded(t *testing.T) {
	rows := []FlattenRow{
		{RoundNumber: 1, SubroundNumber: 1, Position: 1, Name: "Squat", QuantityType: "reps", Quantity: 20},
		{RoundNumber: 2, SubroundNumber: 1, Position: 1, Name: "Lunge", QuantityType: "reps", Quantity: 10},
	}
	cat := BuildCatalog(rows, ForTime, WorkoutMetadata{NumberOfRounds: 5})
	assert.Len(t, cat.Steps, 2)
}

func TestBuildCatalogTabataAlwaysSeconds(t *testing.T) {
	rows := []FlattenRow{
		{RoundNumber: 1, SubroundNumber: 1, Position: 1, Name: "Burpee", QuantityType: "reps", Quantity: 20},
	}
	cat := BuildCatalog(rows, Tabata, WorkoutMetadata{})

	require.Len(t, cat.Steps, 1)
	s := cat.Steps[0]
	// Quantity is a window length even when the member reports reps.
	assert.Equal(t, "Burpee 20s", s.Name)
	require.NotNil(t, s.DurationSec)
	assert.Equal(t, 20, *s.DurationSec)
	assert.Nil(t, s.Reps)
	assert.Equal(t, "reps", s.QuantityType)
}

func TestBuildCatalogEmomRegroupsBySubround(t *testing.T) {
	rows := []FlattenRow{
		{RoundNumber: 1, SubroundNumber: 2, Position: 1, Name: "Row", QuantityType: "duration", Quantity: 45, TargetReps: intp(12)},
		{RoundNumber: 1, SubroundNumber: 1, Position: 1, Name: "Bike", QuantityType: "duration", Quantity: 45},
		{RoundNumber: 2, SubroundNumber: 1, Position: 1, Name: "Ski", QuantityType: "duration", Quantity: 45},
	}
	cat := BuildCatalog(rows, Emom, WorkoutMetadata{EmomRepeats: []int{2, 2}})

	require.Len(t, cat.Steps, 3)
	// Subround 1 steps first (Bike, Ski), subround 2 after (Row); the
	// subround becomes the minute group.
	assert.Equal(t, "Bike 45s", cat.Steps[0].Name)
	assert.Equal(t, "Ski 45s", cat.Steps[1].Name)
	assert.Equal(t, "Row 45s", cat.Steps[2].Name)
	assert.Equal(t, 1, cat.Steps[0].Round)
	assert.Equal(t, 1, cat.Steps[1].Round)
	assert.Equal(t, 2, cat.Steps[2].Round)
	require.NotNil(t, cat.Steps[2].TargetReps)
	assert.Equal(t, 12, *cat.Steps[2].TargetReps)
}

func TestBuildCatalogEmpty(t *testing.T) {
	cat := BuildCatalog(nil, ForTime, WorkoutMetadata{NumberOfRounds: 4})
	assert.Empty(t, cat.Steps)
	assert.Empty(t, cat.CumReps)
}

func TestPlannedMinutes(t *testing.T) {
	assert.Equal(t, 0, PlannedMinutes(WorkoutMetadata{}))
	assert.Equal(t, 10, PlannedMinutes(WorkoutMetadata{EmomRepeats: []int{4, 3, 3}}))
}
