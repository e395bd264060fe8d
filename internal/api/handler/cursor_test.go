package handler

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/quangpb/metrics-dashboard-be/internal/api/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobCursorRoundTrip(t *testing.T) {
	original := &storage.JobCursor{
		CreatedAt: time.Date(2026, 8, 1, 12, 30, 0, 123456789, time.UTC),
		JobID:     "9a17e8bd-9f3c-48d2-a7f1-0d4c1c9ab811",
	}

	encoded, err := EncodeJobCursor(original)
	require.NoError(t, err)

	decoded, err := DecodeJobCursor(encoded)
	require.NoError(t, err)
	assert.Equal(t, original.JobID, decoded.JobID)
	assert.True(t, original.CreatedAt.Equal(decoded.CreatedAt))
}

func TestDecodeJobCursorEmpty(t *testing.T) {
	cursor, err := DecodeJobCursor("")
	require.NoError(t, err)
	assert.Nil(t, cursor)
}

func TestDecodeJobCursorInvalid(t *testing.T) {
	tests := []struct {
		name   string
		cursor string
	}{
		{
			name:   "not base64",
			cursor: "%%%",
		},
		{
			name:   "missing separator",
			cursor: base64.StdEncoding.EncodeToString([]byte("1234567890")),
		},
		{
			name:   "non-numeric timestamp",
			cursor: base64.StdEncoding.EncodeToString([]byte("abc|job-1")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cursor, err := DecodeJobCursor(tt.cursor)
			assert.Error(t, err)
			assert.Nil(t, cursor)
		})
	}
}
