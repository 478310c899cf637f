// Package registry defines the model registry abstraction and the startup
// version-resolution policy. Concrete backends live in subpackages; the
// serving path only ever reads from a registry, never writes.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// ErrNoVersions is returned by Resolve when no candidate stage holds any
// version of the requested model. Callers treat it as startup-fatal.
var ErrNoVersions = errors.New("no resolvable model version")

// Stage is the lifecycle tag on a registered model version.
type Stage string

const (
	StageProduction Stage = "Production"
	StageStaging    Stage = "Staging"
	StageNone       Stage = "None"
	StageArchived   Stage = "Archived"
)

// ParseStage maps a case-insensitive stage name to its canonical Stage.
// The empty string means unstaged.
func ParseStage(s string) (Stage, error) {
	switch strings.ToLower(s) {
	case "production":
		return StageProduction, nil
	case "staging":
		return StageStaging, nil
	case "none", "":
		return StageNone, nil
	case "archived":
		return StageArchived, nil
	}
	return "", fmt.Errorf("registry: unknown stage %q", s)
}

// Version describes one registered model version.
type Version struct {
	Name      string
	Version   int
	Stage     Stage
	CreatedAt time.Time
	Source    string // artifact URI
}

// Registry lists model versions and fetches artifact payloads.
type Registry interface {
	// GetVersions returns every version of the named model currently in
	// stage. An empty result is not an error.
	GetVersions(ctx context.Context, name string, stage Stage) ([]Version, error)
	// Open returns the artifact payload for a version's source URI.
	Open(ctx context.Context, source string) (io.ReadCloser, error)
}

// Resolve picks the active version of name: the best Production version when
// any exists, otherwise the best unstaged version. Best means the highest
// version number, ties broken by the latest creation time. Resolve is called
// once at startup; ErrNoVersions aborts the process before it accepts
// traffic.
func Resolve(ctx context.Context, reg Registry, name string) (Version, error) {
	for _, stage := range []Stage{StageProduction, StageNone} {
		versions, err := reg.GetVersions(ctx, name, stage)
		if err != nil {
			return Version{}, fmt.Errorf("registry: list %s versions of %s: %w", stage, name, err)
		}
		if len(versions) > 0 {
			return pick(versions), nil
		}
	}
	return Version{}, fmt.Errorf("registry: model %s: %w", name, ErrNoVersions)
}

func pick(versions []Version) Version {
	best := versions[0]
	for _, v := range versions[1:] {
		if v.Version > best.Version ||
			(v.Version == best.Version && v.CreatedAt.After(best.CreatedAt)) {
			best = v
		}
	}
	return best
}

// ReadArtifact fetches and fully reads the artifact payload of v.
func ReadArtifact(ctx context.Context, reg Registry, v Version) ([]byte, error) {
	rc, err := reg.Open(ctx, v.Source)
	if err != nil {
		return nil, fmt.Errorf("registry: open artifact %s: %w", v.Source, err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("registry: read artifact %s: %w", v.Source, err)
	}
	return raw, nil
}
