package transform

import "log/slog"

// BlobResolver resolves a blob reference carried by a measurement to a
// public URL. A false return drops the blob field without failing the run.
type BlobResolver interface {
	Resolve(jobID, identifier string) (string, bool)
}

// Transformer turns a job snapshot into an ordered sequence of
// line-protocol lines ready for delivery to the time-series store.
type Transformer struct {
	blobs  BlobResolver
	logger *slog.Logger
}

// NewTransformer creates a Transformer. blobs may be nil when blob
// references should not be resolved.
func NewTransformer(blobs BlobResolver, logger *slog.Logger) *Transformer {
	return &Transformer{
		blobs:  blobs,
		logger: logger,
	}
}

// ToLines renders one encoded line per package group. Measurements sharing
// a package are merged into a single line with one tag set and multiple
// fields, cutting write volume. Output order matches the flattener's
// grouping order, which in turn follows measurement insertion order; lines
// before a failing write have already been durably written.
func (t *Transformer) ToLines(job *JobData) []string {
	blobNames := make(map[string]string, len(job.Blobs))
	for _, b := range job.Blobs {
		blobNames[b.Identifier] = b.Name
	}

	groups := GroupByPackage(job, t.logger)

	lines := make([]string, 0, len(groups))
	for _, g := range groups {
		tags := []Tag{{Key: "job_id", Value: job.ID}}
		if job.Env != "" {
			tags = append(tags, Tag{Key: "env", Value: job.Env})
		}
		if g.Version != "" {
			tags = append(tags, Tag{Key: "version", Value: g.Version})
		}
		if g.GitSHA != "" {
			tags = append(tags, Tag{Key: "git_sha", Value: g.GitSHA})
		}

		fields := make([]Field, 0, len(g.Fields)+len(g.BlobRefs))
		fields = append(fields, g.Fields...)
		for _, ref := range g.BlobRefs {
			name, known := blobNames[ref]
			if !known || t.blobs == nil {
				t.logger.Warn("Skipping unresolvable blob reference",
					slog.String("job_id", job.ID),
					slog.String("identifier", ref),
				)
				continue
			}
			url, ok := t.blobs.Resolve(job.ID, ref)
			if !ok {
				t.logger.Warn("Skipping unresolvable blob reference",
					slog.String("job_id", job.ID),
					slog.String("identifier", ref),
				)
				continue
			}
			fields = append(fields, Field{Key: name, Value: url})
		}

		line, err := Encode(g.Name, tags, fields)
		if err != nil {
			t.logger.Warn("Skipping package with no encodable fields",
				slog.String("job_id", job.ID),
				slog.String("package", g.Name),
				slog.String("error", err.Error()),
			)
			continue
		}
		lines = append(lines, line)
	}

	return lines
}
