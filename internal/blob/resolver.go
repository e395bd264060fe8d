// Package blob resolves blob-reference identifiers to public URLs.
package blob

import (
	"fmt"
	"strings"
)

// URLResolver builds stable URLs for blob references served by the
// api-service blobs endpoint.
type URLResolver struct {
	baseURL string
}

// NewURLResolver creates a resolver rooted at the api-service base URL.
func NewURLResolver(baseURL string) *URLResolver {
	return &URLResolver{baseURL: strings.TrimRight(baseURL, "/")}
}

// Resolve returns the public URL for a blob identifier.
func (r *URLResolver) Resolve(jobID, identifier string) (string, bool) {
	if identifier == "" {
		return "", false
	}
	return fmt.Sprintf("%s/api/v1/blobs/%s", r.baseURL, identifier), true
}
