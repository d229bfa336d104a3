package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReview(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	review := NewReview(42, "456", "Great course", 5, now)

	assert.NotEqual(t, uuid.Nil, review.ID)
	assert.Equal(t, int64(42), review.CourseID)
	assert.Equal(t, "456", review.StudentID)
	assert.Equal(t, "Great course", review.ReviewText)
	assert.Equal(t, 5, review.Rating)
	assert.False(t, review.Anonymous)
	assert.Equal(t, now, review.CreatedAt)
	assert.Equal(t, review.CreatedAt, review.UpdatedAt)
}

func TestReview_TableName(t *testing.T) {
	assert.Equal(t, "reviews", Review{}.TableName())
	assert.Equal(t, "user_authorities", UserAuthority{}.TableName())
}

func TestReview_IsOwnedBy(t *testing.T) {
	review := NewReview(1, "456", "", 3, time.Now())

	assert.True(t, review.IsOwnedBy("456"))
	assert.False(t, review.IsOwnedBy("789"))
	assert.False(t, review.IsOwnedBy(""))
}

func TestReview_HasText(t *testing.T) {
	assert.True(t, NewReview(1, "456", "ok", 3, time.Now()).HasText())
	assert.False(t, NewReview(1, "456", "", 3, time.Now()).HasText())
}

func TestValidRating(t *testing.T) {
	for rating := -1; rating <= 7; rating++ {
		assert.Equal(t, rating >= 1 && rating <= 5, ValidRating(rating), "rating %d", rating)
	}
}

func TestReview_JSONFieldNames(t *testing.T) {
	data, err := json.Marshal(NewReview(42, "456", "text", 4, time.Now()))
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, key := range []string{"id", "course_id", "student_id", "review_text", "rating", "anonymous", "created_at", "updated_at"} {
		assert.Contains(t, fields, key)
	}
}
