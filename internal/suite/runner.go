package suite

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/storageprobe/storageprobe/internal/config"
	"github.com/storageprobe/storageprobe/internal/metrics"
	"github.com/storageprobe/storageprobe/pkg/errors"
	"github.com/storageprobe/storageprobe/pkg/types"
)

// ProviderFactory builds an initialized provider for a configured name.
// The registry satisfies this; tests substitute fakes.
type ProviderFactory func(ctx context.Context, name string) (types.Provider, error)

// Runner executes suites against providers sequentially.
type Runner struct {
	cfg       *config.Configuration
	factory   ProviderFactory
	collector *metrics.Collector
	logger    *slog.Logger
}

// NewRunner wires a runner. A nil collector disables metric recording.
func NewRunner(cfg *config.Configuration, factory ProviderFactory, collector *metrics.Collector, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector, _ = metrics.NewCollector(&metrics.Config{Enabled: false})
	}
	return &Runner{
		cfg:       cfg,
		factory:   factory,
		collector: collector,
		logger:    logger.With("component", "suite-runner"),
	}
}

// step is one named test inside a suite. Steps communicate through the
// state value only.
type step struct {
	name string
	fn   func(ctx context.Context, p types.Provider, st *state) (map[string]float64, error)
}

// state carries artifacts from earlier steps to later ones within a
// single provider run.
type state struct {
	uploadedKey string
	payload     []byte
	tempDir     string
	cleanupKeys []string
}

// Run executes the named suite against each provider in order. One
// provider's failure never aborts the rest; the error return is
// reserved for an unknown suite name.
func (r *Runner) Run(ctx context.Context, suiteName string, providerNames []string) ([]Result, error) {
	steps, err := r.stepsFor(suiteName)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(providerNames))
	for _, name := range providerNames {
		results = append(results, r.runProvider(ctx, suiteName, name, steps))
	}
	return results, nil
}

func (r *Runner) stepsFor(suiteName string) ([]step, error) {
	switch suiteName {
	case "conformance":
		return r.conformanceSteps(), nil
	case "performance":
		return r.performanceSteps(), nil
	case "security":
		return r.securitySteps(), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfig,
			"unknown suite %q (known suites: conformance, performance, security)", suiteName)
	}
}

func (r *Runner) runProvider(ctx context.Context, suiteName, providerName string, steps []step) Result {
	start := time.Now()
	logger := r.logger.With("provider", providerName, "suite", suiteName)
	logger.Info("starting suite")

	p, err := r.factory(ctx, providerName)
	if err != nil {
		logger.Error("provider initialization failed", "error", err)
		return Result{
			Provider:      providerName,
			Suite:         suiteName,
			Overall:       StatusError,
			ElapsedMillis: time.Since(start).Milliseconds(),
		}
	}
	defer p.Close()

	st := &state{}
	if dir, err := os.MkdirTemp("", "storageprobe-suite-"); err == nil {
		st.tempDir = dir
		defer os.RemoveAll(dir)
	}
	defer r.cleanup(ctx, p, st, logger)

	tests := make([]TestOutcome, 0, len(steps))
	for _, s := range steps {
		outcome := r.runStep(ctx, p, s, st)
		if outcome.Status == StatusPassed {
			logger.Debug("test passed", "test", s.name, "elapsed_ms", outcome.ElapsedMillis)
		} else {
			logger.Warn("test failed", "test", s.name, "error", outcome.Error)
		}
		tests = append(tests, outcome)
	}

	res := summarize(providerName, suiteName, tests, time.Since(start).Milliseconds())
	logger.Info("suite finished", "overall", res.Overall, "pass_rate", res.PassRate)
	return res
}

// runStep isolates one test: an error or panic becomes that test's
// failure and the suite continues.
func (r *Runner) runStep(ctx context.Context, p types.Provider, s step, st *state) (outcome TestOutcome) {
	start := time.Now()
	outcome = TestOutcome{Name: s.name, Status: StatusPassed}

	defer func() {
		outcome.ElapsedMillis = time.Since(start).Milliseconds()
		if rec := recover(); rec != nil {
			outcome.Status = StatusFailed
			outcome.Error = fmt.Sprintf("panic: %v", rec)
		}
		var err error
		if outcome.Status == StatusFailed {
			err = fmt.Errorf("%s", outcome.Error)
		}
		r.collector.RecordOperation(p.Name(), s.name, time.Since(start), 0, err)
	}()

	testMetrics, err := s.fn(ctx, p, st)
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Error = err.Error()
	}
	outcome.Metrics = testMetrics
	return outcome
}

// cleanup deletes every key the run registered, swallowing errors.
func (r *Runner) cleanup(ctx context.Context, p types.Provider, st *state, logger *slog.Logger) {
	for _, key := range st.cleanupKeys {
		if err := p.Delete(ctx, key); err != nil {
			logger.Debug("cleanup delete failed", "key", key, "error", err)
		}
	}
}

// requireUploaded guards steps that consume an earlier upload.
func requireUploaded(st *state) error {
	if st.uploadedKey == "" {
		return fmt.Errorf("precondition failed: no object uploaded by a prior test")
	}
	return nil
}
