// Package release runs the packaging pipeline: an ordered list of external
// tool invocations declared in a YAML manifest. Steps run strictly in
// manifest order and a failed step aborts the pipeline. A checksum step
// hashes a built artifact; upload steps only run when uploading is enabled.
package release

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest declares the pipeline.
type Manifest struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	DistDir string `yaml:"dist_dir"`
	Steps   []Step `yaml:"steps"`
}

// Step is one pipeline stage. Exactly one of Run or Checksum must be set:
// Run invokes an external command, Checksum hashes an existing artifact.
type Step struct {
	Name string `yaml:"name"`

	// Run is the command and its arguments.
	Run []string `yaml:"run,omitempty"`

	// Artifact, when set on a Run step, must exist after the step finishes.
	Artifact string `yaml:"artifact,omitempty"`

	// Checksum is the path of the artifact to hash with sha256. The digest
	// is written next to it as <path>.sha256.
	Checksum string `yaml:"checksum,omitempty"`

	// Upload marks the step as an upload; it is skipped unless uploading
	// is enabled in the release configuration.
	Upload bool `yaml:"upload,omitempty"`

	// WorkDir overrides the working directory for a Run step.
	WorkDir string `yaml:"workdir,omitempty"`

	// Env adds environment variables for a Run step.
	Env map[string]string `yaml:"env,omitempty"`
}

// LoadManifest reads and validates a pipeline manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	m.expand()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the manifest for structural errors before anything runs.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("manifest name is required")
	}
	if len(m.Steps) == 0 {
		return fmt.Errorf("manifest has no steps")
	}

	seen := make(map[string]bool, len(m.Steps))
	for i, step := range m.Steps {
		if step.Name == "" {
			return fmt.Errorf("step %d has no name", i)
		}
		if seen[step.Name] {
			return fmt.Errorf("duplicate step name: %s", step.Name)
		}
		seen[step.Name] = true

		hasRun := len(step.Run) > 0
		hasChecksum := step.Checksum != ""
		if hasRun == hasChecksum {
			return fmt.Errorf("step %s: exactly one of run or checksum must be set", step.Name)
		}
		if step.Upload && !hasRun {
			return fmt.Errorf("step %s: upload steps must have a run command", step.Name)
		}
	}
	return nil
}

// expand substitutes ${name}, ${version} and ${dist_dir} placeholders in
// step fields.
func (m *Manifest) expand() {
	vars := map[string]string{
		"name":     m.Name,
		"version":  m.Version,
		"dist_dir": m.DistDir,
	}
	sub := func(s string) string {
		return os.Expand(s, func(key string) string {
			if v, ok := vars[key]; ok {
				return v
			}
			// Unknown placeholders are kept verbatim.
			return "${" + key + "}"
		})
	}

	for i := range m.Steps {
		step := &m.Steps[i]
		for j := range step.Run {
			step.Run[j] = sub(step.Run[j])
		}
		step.Artifact = sub(step.Artifact)
		step.Checksum = sub(step.Checksum)
		step.WorkDir = sub(step.WorkDir)
		for k, v := range step.Env {
			step.Env[k] = sub(v)
		}
	}
}

// Describe returns a one-line summary of a step for plans and logs.
func (s Step) Describe() string {
	switch {
	case s.Checksum != "":
		return fmt.Sprintf("%s: sha256 %s", s.Name, s.Checksum)
	case s.Upload:
		return fmt.Sprintf("%s (upload): %s", s.Name, strings.Join(s.Run, " "))
	default:
		return fmt.Sprintf("%s: %s", s.Name, strings.Join(s.Run, " "))
	}
}
