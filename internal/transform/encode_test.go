package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) any { return v }

func TestEncode(t *testing.T) {
	tests := []struct {
		name        string
		measurement string
		tags        []Tag
		fields      []Field
		want        string
		wantErr     error
	}{
		{
			name:        "single numeric field",
			measurement: "validate_drp",
			fields:      []Field{{Key: "AM1", Value: f64(5.2)}},
			want:        "validate_drp AM1=5.2",
		},
		{
			name:        "tags and multiple fields keep order",
			measurement: "pkg",
			tags: []Tag{
				{Key: "job_id", Value: "42"},
				{Key: "env", Value: "jenkins"},
			},
			fields: []Field{
				{Key: "m1", Value: f64(1.0)},
				{Key: "m2", Value: f64(2.0)},
			},
			want: "pkg,job_id=42,env=jenkins m1=1,m2=2",
		},
		{
			name:        "special characters are escaped",
			measurement: "my pkg",
			tags:        []Tag{{Key: "env name", Value: "a=b,c"}},
			fields:      []Field{{Key: "field key", Value: f64(1.5)}},
			want:        `my\ pkg,env\ name=a\=b\,c field\ key=1.5`,
		},
		{
			name:        "string field is quoted and escaped",
			measurement: "pkg",
			fields:      []Field{{Key: "plot", Value: `http://x/a"b\c`}},
			want:        `pkg plot="http://x/a\"b\\c"`,
		},
		{
			name:        "nil values are omitted",
			measurement: "pkg",
			fields: []Field{
				{Key: "missing", Value: nil},
				{Key: "m1", Value: f64(3.0)},
			},
			want: "pkg m1=3",
		},
		{
			name:        "empty field mapping fails",
			measurement: "pkg",
			fields:      nil,
			wantErr:     ErrNoFields,
		},
		{
			name:        "all fields nil fails",
			measurement: "pkg",
			fields:      []Field{{Key: "m1", Value: nil}},
			wantErr:     ErrNoFields,
		},
		{
			name:        "integral float renders without fraction",
			measurement: "pkg",
			fields:      []Field{{Key: "count", Value: f64(1000000)}},
			want:        "pkg count=1000000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.measurement, tt.tags, tt.fields)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, got)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
