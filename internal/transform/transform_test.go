package transform

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	urls map[string]string
}

func (r *fakeResolver) Resolve(jobID, identifier string) (string, bool) {
	url, ok := r.urls[identifier]
	return url, ok
}

func TestTransformer_ToLines_MergesPerPackage(t *testing.T) {
	tr := NewTransformer(nil, discardLogger())

	job := &JobData{
		ID:  "job-7",
		Env: "jenkins",
		Measurements: []Measurement{
			{Metric: "pkg.m1", Value: ptr(1.0)},
			{Metric: "pkg.m2", Value: ptr(2.0)},
		},
	}

	lines := tr.ToLines(job)

	// Measurements sharing a package merge into a single line.
	require.Len(t, lines, 1)
	assert.Equal(t, "pkg,job_id=job-7,env=jenkins m1=1,m2=2", lines[0])
}

func TestTransformer_ToLines_TagsFromPackageMetadata(t *testing.T) {
	tr := NewTransformer(nil, discardLogger())

	job := &JobData{
		ID:  "job-7",
		Env: "jenkins",
		Measurements: []Measurement{
			{Metric: "validate_drp.AM1", Value: ptr(5.2)},
		},
		Packages: []Package{
			{Name: "validate_drp", Version: "13.0", GitSHA: "deadbeef"},
		},
	}

	lines := tr.ToLines(job)

	require.Len(t, lines, 1)
	assert.Equal(t,
		"validate_drp,job_id=job-7,env=jenkins,version=13.0,git_sha=deadbeef AM1=5.2",
		lines[0])
}

func TestTransformer_ToLines_BlobFields(t *testing.T) {
	resolver := &fakeResolver{urls: map[string]string{
		"blob-1": "http://api/api/v1/blobs/blob-1",
	}}
	tr := NewTransformer(resolver, discardLogger())

	job := &JobData{
		ID: "job-7",
		Measurements: []Measurement{
			{Metric: "pkg.m1", Value: ptr(1.0), BlobRefs: []string{"blob-1", "blob-2"}},
		},
		Blobs: []Blob{
			{Identifier: "blob-1", Name: "plot"},
			{Identifier: "blob-2", Name: "table"},
		},
	}

	lines := tr.ToLines(job)

	require.Len(t, lines, 1)
	// blob-2 has no resolvable URL and is omitted, not fatal.
	assert.Equal(t, `pkg,job_id=job-7 m1=1,plot="http://api/api/v1/blobs/blob-1"`, lines[0])
}

func TestTransformer_ToLines_SkipsEmptyGroups(t *testing.T) {
	tr := NewTransformer(nil, discardLogger())

	job := &JobData{
		ID: "job-7",
		Measurements: []Measurement{
			{Metric: "empty.m1", Value: nil},
			{Metric: "pkg.m1", Value: ptr(1.0)},
		},
	}

	lines := tr.ToLines(job)

	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "pkg,"))
}

func TestTransformer_ToLines_RoundTrip(t *testing.T) {
	tr := NewTransformer(nil, discardLogger())

	job := &JobData{
		ID:  "job-9",
		Env: "unknown",
		Measurements: []Measurement{
			{Metric: "a.m1", Value: ptr(0.25)},
			{Metric: "b.m1", Value: ptr(3.0)},
			{Metric: "a.m2", Value: ptr(-1.75)},
		},
	}

	lines := tr.ToLines(job)
	require.Len(t, lines, 2)

	parsed := make(map[string]map[string]string)
	for _, line := range lines {
		head, fieldPart, found := strings.Cut(line, " ")
		require.True(t, found)

		name, tagPart, _ := strings.Cut(head, ",")
		for _, kv := range strings.Split(tagPart, ",") {
			k, v, ok := strings.Cut(kv, "=")
			require.True(t, ok)
			switch k {
			case "job_id":
				assert.Equal(t, "job-9", v)
			case "env":
				assert.Equal(t, "unknown", v)
			default:
				t.Fatalf("unexpected tag %q", k)
			}
		}

		fields := make(map[string]string)
		for _, kv := range strings.Split(fieldPart, ",") {
			k, v, ok := strings.Cut(kv, "=")
			require.True(t, ok)
			fields[k] = v
		}
		parsed[name] = fields
	}

	want := map[string]map[string]string{
		"a": {"m1": "0.25", "m2": "-1.75"},
		"b": {"m1": "3"},
	}
	assert.Equal(t, want, parsed)
}

func TestValidationError(t *testing.T) {
	_, err := ExpectMapping([]any{}, "packages metadata")
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "packages metadata")

	m, err := ExpectMapping(map[string]any{"a": 1}, "meta")
	require.NoError(t, err)
	assert.Len(t, m, 1)

	_, err = ExpectString(42, "env_name")
	require.Error(t, err)

	s, err := ExpectString("jenkins", "env_name")
	require.NoError(t, err)
	assert.Equal(t, "jenkins", s)

	assert.Equal(t, "13.0",
		OptionalString(map[string]any{"version": "13.0"}, "version"))
	assert.Equal(t, "",
		OptionalString(map[string]any{"version": 13}, "version"))
	assert.Equal(t, "", fmt.Sprint(OptionalString(nil, "version")))
}
