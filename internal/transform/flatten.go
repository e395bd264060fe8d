package transform

import (
	"log/slog"
	"strings"
)

// PackageGroup collects the measurements of one job that share a package
// namespace, together with the package metadata attached as tags.
type PackageGroup struct {
	Name     string
	Fields   []Field
	BlobRefs []string
	Version  string
	GitSHA   string
}

// GroupByPackage groups a job's measurements by the namespace before the
// first `.` of their metric name. A metric name without a separator cannot
// be mapped to a package; such measurements are logged and excluded.
// Grouping order is the insertion order of measurements in the payload.
func GroupByPackage(job *JobData, logger *slog.Logger) []PackageGroup {
	index := make(map[string]int)
	var groups []PackageGroup

	for _, m := range job.Measurements {
		pkg, name, found := strings.Cut(m.Metric, ".")
		if !found || pkg == "" || name == "" {
			logger.Warn("Skipping measurement without a namespaced metric name",
				slog.String("metric", m.Metric),
				slog.String("job_id", job.ID),
			)
			continue
		}

		i, ok := index[pkg]
		if !ok {
			i = len(groups)
			index[pkg] = i
			groups = append(groups, PackageGroup{Name: pkg})
		}

		var value any
		if m.Value != nil {
			value = *m.Value
		}
		groups[i].Fields = append(groups[i].Fields, Field{Key: name, Value: value})
		groups[i].BlobRefs = append(groups[i].BlobRefs, m.BlobRefs...)
	}

	// Package metadata only decorates groups that actually have
	// measurements; packages without matches produce no output.
	for _, p := range job.Packages {
		if i, ok := index[p.Name]; ok {
			groups[i].Version = p.Version
			groups[i].GitSHA = p.GitSHA
		}
	}

	return groups
}
