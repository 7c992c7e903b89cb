// Package storage defines the artifact persistence port.
package storage

import "context"

// ArtifactStore persists stage artifacts (scripts, manifests, QC reports)
// under entity-scoped paths and returns the stored location.
type ArtifactStore interface {
	SaveText(ctx context.Context, path, content string) (string, error)
	SaveJSON(ctx context.Context, path string, data any) (string, error)
}
