package tutorial

import (
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/tabletop.run/internal/platform/errors"
	"github.com/louisbranch/tabletop.run/internal/services/game/domain/match"
	"gopkg.in/yaml.v3"
)

// Manifest is a scripted tutorial.
type Manifest struct {
	ID    string               `json:"id" yaml:"id"`
	Steps []match.TutorialStep `json:"steps" yaml:"steps"`
}

// ParseManifest reads a YAML (or JSON) manifest and validates it.
func ParseManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, apperrors.Wrap(apperrors.CodeTutorialManifestInvalid, "parse tutorial manifest", err)
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// Validate checks ids and random policies.
func (m Manifest) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return invalidManifest("manifest id is required")
	}
	if len(m.Steps) == 0 {
		return invalidManifest("manifest %s has no steps", m.ID)
	}
	seen := make(map[string]struct{}, len(m.Steps))
	for i, step := range m.Steps {
		if strings.TrimSpace(step.ID) == "" {
			return invalidManifest("step %d has no id", i)
		}
		if _, dup := seen[step.ID]; dup {
			return invalidManifest("duplicate step id %s", step.ID)
		}
		seen[step.ID] = struct{}{}
		if step.Random == nil {
			continue
		}
		switch step.Random.Mode {
		case match.RandomPolicyFixed, match.RandomPolicySequence:
		default:
			return invalidManifest("step %s has unknown random mode %q", step.ID, step.Random.Mode)
		}
		if len(step.Random.Values) == 0 {
			return invalidManifest("step %s random policy has no values", step.ID)
		}
	}
	return nil
}

func invalidManifest(format string, args ...any) error {
	return apperrors.New(apperrors.CodeTutorialManifestInvalid, fmt.Sprintf(format, args...))
}
