package services

import (
	"math/rand/v2"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"pgregory.net/rapid"

	"github.com/fluencyjet/sentence-master/internal/models"
)

func exercise(exType string, order int, words ...string) models.PracticeExercise {
	return models.PracticeExercise{
		ID:         uuid.New(),
		Type:       exType,
		OrderIndex: order,
		Expected:   datatypes.NewJSONType(models.ExpectedAnswer{Words: words}),
	}
}

func TestFilterByMode(t *testing.T) {
	exercises := []models.PracticeExercise{
		exercise("typing", 0, "Hello"),
		exercise("typing", 1, "I", "am", "fine"),
		exercise("reorder", 2, "She", "runs"),
		exercise("Typing", 3, "Good", "night"),
	}

	assert.Len(t, FilterByMode(exercises, ""), 4)

	typing := FilterByMode(exercises, "typing")
	require.Len(t, typing, 3)
	assert.Equal(t, 0, typing[0].OrderIndex)
	assert.Equal(t, 3, typing[2].OrderIndex)

	reorder := FilterByMode(exercises, " REORDER ")
	require.Len(t, reorder, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{reorder[0].OrderIndex, reorder[1].OrderIndex, reorder[2].OrderIndex})
}

func TestFilterByModeSentenceCountsAsMultiWord(t *testing.T) {
	ex := exercise("typing", 0)
	ex.Expected = datatypes.NewJSONType(models.ExpectedAnswer{Sentence: "We are ready"})
	assert.Len(t, FilterByMode([]models.PracticeExercise{ex}, ModeReorder), 1)
}

func TestSampleReturnsDistinctExercises(t *testing.T) {
	pool := make([]models.PracticeExercise, 25)
	for i := range pool {
		pool[i] = exercise("typing", i, "word")
	}

	picked := Sample(pool, 10, rand.Shuffle)
	require.Len(t, picked, 10)

	seen := make(map[uuid.UUID]bool)
	for _, ex := range picked {
		assert.False(t, seen[ex.ID], "duplicate id %s", ex.ID)
		seen[ex.ID] = true
	}

	assert.Len(t, Sample(pool[:4], 10, rand.Shuffle), 4)
}

func TestSampleDoesNotMutatePool(t *testing.T) {
	pool := []models.PracticeExercise{exercise("typing", 0), exercise("typing", 1), exercise("typing", 2)}
	first := pool[0].ID

	reverse := func(n int, swap func(i, j int)) {
		for i := 0; i < n/2; i++ {
			swap(i, n-1-i)
		}
	}
	picked := Sample(pool, 3, reverse)
	assert.Equal(t, first, pool[0].ID)
	assert.Equal(t, first, picked[2].ID)
}

func TestSampleProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		size := rapid.IntRange(0, 80).Draw(t, "size")
		limit := rapid.IntRange(1, 50).Draw(t, "limit")
		pool := make([]models.PracticeExercise, size)
		for i := range pool {
			pool[i] = models.PracticeExercise{ID: uuid.New()}
		}

		picked := Sample(pool, limit, rand.Shuffle)
		if want := min(size, limit); len(picked) != want {
			t.Fatalf("got %d exercises, want %d", len(picked), want)
		}
		seen := make(map[uuid.UUID]bool, len(picked))
		for _, ex := range picked {
			if seen[ex.ID] {
				t.Fatalf("duplicate id %s", ex.ID)
			}
			seen[ex.ID] = true
		}
	})
}

func TestContentDifficulty(t *testing.T) {
	assert.Equal(t, "intermediate", contentDifficulty("Intermediate", "BEGINNER"))
	assert.Equal(t, "beginner", contentDifficulty("", "BEGINNER"))
	assert.Equal(t, "intermediate", contentDifficulty("advanced", "INTERMEDIATE"))
}
