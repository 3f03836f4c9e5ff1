package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeEssayRecordAppliesDefaults(t *testing.T) {
	record, err := DecodeEssayRecord([]byte(`{"content": "My essay body"}`))
	require.NoError(t, err)

	require.Equal(t, "My essay body", record.Content)
	require.Equal(t, EssayTypePersonalStatement, record.EssayType)
	require.Equal(t, EssayStatusDraft, record.Status)
	require.Equal(t, DefaultFontFamily, record.FontFamily)
	require.Equal(t, DefaultFontSize, record.FontSize)
	require.False(t, record.LastModified.IsZero())
}

func TestDecodeEssayRecordKeepsExplicitValues(t *testing.T) {
	record, err := DecodeEssayRecord([]byte(`{
		"owner": "Jordan Li",
		"title": "Why Stanford",
		"essay_type": "supplement",
		"status": "submitted",
		"font_family": "Georgia",
		"font_size": 12
	}`))
	require.NoError(t, err)

	require.Equal(t, EssayTypeSupplement, record.EssayType)
	require.Equal(t, EssayStatusSubmitted, record.Status)
	require.Equal(t, "Georgia", record.FontFamily)
	require.Equal(t, 12, record.FontSize)
}

func TestDecodeEssayRecordRejectsWrongTypes(t *testing.T) {
	_, err := DecodeEssayRecord([]byte(`{"font_size": "fourteen"}`))
	require.Error(t, err)

	_, err = DecodeEssayRecord([]byte(`{"status": "archived"}`))
	require.Error(t, err)

	_, err = DecodeEssayRecord([]byte(`not json`))
	require.Error(t, err)
}

func TestEssayRecordLifecyclePredicates(t *testing.T) {
	draft := EssayRecord{Status: EssayStatusDraft}
	require.True(t, draft.IsEditable())
	require.False(t, draft.IsSubmitted())

	submitted := EssayRecord{Status: EssayStatusSubmitted}
	require.False(t, submitted.IsEditable())
	require.True(t, submitted.IsSubmitted())

	reviewed := EssayRecord{Status: EssayStatusReviewed}
	require.False(t, reviewed.IsEditable())
	require.True(t, reviewed.IsSubmitted())
}
