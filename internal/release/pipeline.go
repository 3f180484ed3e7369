package release

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/gutosantos82/py-gpt/internal/config"
	"github.com/gutosantos82/py-gpt/internal/logger"
)

// Options control a pipeline run.
type Options struct {
	// DryRun prints the plan without executing anything.
	DryRun bool

	// SkipUpload skips upload steps even when uploading is enabled.
	SkipUpload bool
}

// Pipeline executes a manifest.
type Pipeline struct {
	manifest *Manifest
	cfg      config.ReleaseConfig
	logger   *logger.Logger

	// out receives the dry-run plan and step progress. Defaults to stdout.
	out io.Writer
}

// NewPipeline creates a pipeline for the given manifest.
func NewPipeline(manifest *Manifest, cfg config.ReleaseConfig, log *logger.Logger) *Pipeline {
	return &Pipeline{
		manifest: manifest,
		cfg:      cfg,
		logger:   log,
		out:      os.Stdout,
	}
}

// Run executes the steps strictly in manifest order. The first failure
// aborts the pipeline and is returned wrapped with the step name.
func (p *Pipeline) Run(ctx context.Context, opts Options) error {
	p.logger.Info("release pipeline starting",
		logger.Field{Key: "name", Value: p.manifest.Name},
		logger.Field{Key: "version", Value: p.manifest.Version},
		logger.Field{Key: "steps", Value: len(p.manifest.Steps)},
		logger.Field{Key: "dry_run", Value: opts.DryRun})

	for i, step := range p.manifest.Steps {
		if step.Upload && (!p.cfg.Upload || opts.SkipUpload) {
			p.logger.Info("skipping upload step",
				logger.Field{Key: "step", Value: step.Name})
			fmt.Fprintf(p.out, "[%d/%d] skip %s\n", i+1, len(p.manifest.Steps), step.Describe())
			continue
		}

		fmt.Fprintf(p.out, "[%d/%d] %s\n", i+1, len(p.manifest.Steps), step.Describe())
		if opts.DryRun {
			continue
		}

		start := time.Now()
		if err := p.runStep(ctx, step); err != nil {
			p.logger.Error("release step failed", err,
				logger.Field{Key: "step", Value: step.Name})
			return fmt.Errorf("step %s failed: %w", step.Name, err)
		}

		p.logger.Info("release step finished",
			logger.Field{Key: "step", Value: step.Name},
			logger.Field{Key: "duration", Value: time.Since(start).String()})
	}

	p.logger.Info("release pipeline finished",
		logger.Field{Key: "name", Value: p.manifest.Name})
	return nil
}

func (p *Pipeline) runStep(ctx context.Context, step Step) error {
	if step.Checksum != "" {
		return p.checksumStep(step)
	}
	return p.commandStep(ctx, step)
}

func (p *Pipeline) commandStep(ctx context.Context, step Step) error {
	cmd := exec.CommandContext(ctx, step.Run[0], step.Run[1:]...)
	if step.WorkDir != "" {
		cmd.Dir = step.WorkDir
	}
	if len(step.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range step.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	output, err := cmd.CombinedOutput()
	if len(output) > 0 {
		p.logger.Debug("step output",
			logger.Field{Key: "step", Value: step.Name},
			logger.Field{Key: "output", Value: strings.TrimSpace(string(output))})
	}
	if err != nil {
		if len(output) > 0 {
			return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
		}
		return err
	}

	if step.Artifact != "" {
		if _, err := os.Stat(step.Artifact); err != nil {
			return fmt.Errorf("expected artifact %s is missing: %w", step.Artifact, err)
		}
	}
	return nil
}

// checksumStep hashes an artifact with sha256 and writes the digest next to
// it. The artifact must already exist.
func (p *Pipeline) checksumStep(step Step) error {
	file, err := os.Open(step.Checksum)
	if err != nil {
		return fmt.Errorf("artifact to checksum is missing: %w", err)
	}
	defer file.Close()

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return fmt.Errorf("failed to hash artifact: %w", err)
	}

	digest := fmt.Sprintf("%x  %s\n", h.Sum(nil), filepath.Base(step.Checksum))
	sumPath := step.Checksum + ".sha256"
	if err := os.WriteFile(sumPath, []byte(digest), 0644); err != nil {
		return fmt.Errorf("failed to write checksum file: %w", err)
	}

	p.logger.Info("artifact checksum written",
		logger.Field{Key: "artifact", Value: step.Checksum},
		logger.Field{Key: "sum_file", Value: sumPath})
	return nil
}
