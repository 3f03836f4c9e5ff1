package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func intPointer(v int) *int {
	return &v
}

func TestDeriveFeedbackStatus(t *testing.T) {
	cases := []struct {
		name        string
		score       *int
		explanation string
		guidance    string
		want        string
	}{
		{"nothing filled", nil, "", "", FeedbackStatusNotReviewed},
		{"whitespace only", nil, "   ", "\n", FeedbackStatusNotReviewed},
		{"score only", intPointer(3), "", "", FeedbackStatusInProgress},
		{"explanation only", nil, "solid thesis", "", FeedbackStatusInProgress},
		{"guidance only", nil, "", "tighten the opening", FeedbackStatusInProgress},
		{"score and explanation", intPointer(4), "clear voice", "", FeedbackStatusInProgress},
		{"all three", intPointer(5), "clear voice", "expand paragraph two", FeedbackStatusCompleted},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, DeriveFeedbackStatus(tc.score, tc.explanation, tc.guidance))
		})
	}
}

func TestCriterionFeedbackIsComplete(t *testing.T) {
	complete := CriterionFeedback{
		Score:               intPointer(4),
		ScoreExplanation:    "strong narrative arc",
		ImprovementGuidance: "cut the last sentence",
	}
	require.True(t, complete.IsComplete())

	partial := CriterionFeedback{Score: intPointer(4)}
	require.False(t, partial.IsComplete())
}

func TestValidReferenceSection(t *testing.T) {
	valid := []string{"", "entire_essay", "introduction", "conclusion", "paragraph_1", "paragraph_12"}
	for _, v := range valid {
		require.True(t, ValidReferenceSection(v), v)
	}

	invalid := []string{"paragraph_0", "paragraph_", "paragraph_01", "body", "PARAGRAPH_1", "paragraph_1x"}
	for _, v := range invalid {
		require.False(t, ValidReferenceSection(v), v)
	}
}

func TestReviewEssayKey(t *testing.T) {
	review := Review{StudentName: "Jordan Li", EssayTitle: "Why Stanford"}
	require.Equal(t, "Jordan Li/Why Stanford", review.EssayKey())
}

func TestReviewIsCompleted(t *testing.T) {
	require.False(t, Review{Status: ReviewStatusInProgress}.IsCompleted())
	require.True(t, Review{Status: ReviewStatusCompleted}.IsCompleted())
}
