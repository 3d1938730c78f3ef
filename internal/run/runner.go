// Package run orchestrates the manifest pipeline: fetch every declared
// secret, project its payload into the variable store, then run database
// verification and the downstream variable checks.
package run

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/systmms/secretmap/internal/config"
	smerrors "github.com/systmms/secretmap/internal/errors"
	"github.com/systmms/secretmap/internal/logging"
	"github.com/systmms/secretmap/internal/metrics"
	"github.com/systmms/secretmap/internal/schema"
	"github.com/systmms/secretmap/internal/secure"
	"github.com/systmms/secretmap/internal/sources"
	"github.com/systmms/secretmap/internal/verify"
	"github.com/systmms/secretmap/pkg/secretmap"
	"github.com/systmms/secretmap/pkg/varstore"
)

// maxConcurrentFetches bounds parallel source calls so a large manifest
// cannot overwhelm a backend.
const maxConcurrentFetches = 10

// Runner drives the fetch → decode → project pipeline for a manifest.
type Runner struct {
	cfg      *config.Config
	registry *sources.Registry
	logger   *logging.Logger
	recorder *metrics.Recorder
	verifier *verify.Verifier
}

// Option adjusts a Runner.
type Option func(*Runner)

// WithVerifier replaces the database verifier.
func WithVerifier(v *verify.Verifier) Option {
	return func(r *Runner) {
		r.verifier = v
	}
}

// WithRecorder replaces the metrics recorder.
func WithRecorder(rec *metrics.Recorder) Option {
	return func(r *Runner) {
		r.recorder = rec
	}
}

// New creates a runner for a loaded manifest.
func New(cfg *config.Config, registry *sources.Registry, opts ...Option) *Runner {
	r := &Runner{
		cfg:      cfg,
		registry: registry,
		logger:   cfg.Logger,
		recorder: metrics.NewRecorder(),
		verifier: verify.New(verify.WithTimeout(cfg.Manifest.Defaults.FetchTimeout())),
	}
	if r.logger == nil {
		r.logger = logging.New(false, true)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Result records the outcome for one manifest secret.
type Result struct {
	Name      string
	Kind      secretmap.Kind
	Scheme    string
	Variables []string // variables written, in field order
	Skipped   bool     // optional secret whose payload was absent
	Verified  bool
	Err       error
}

// Outcome aggregates one Apply run. Results line up with the manifest's
// secrets order.
type Outcome struct {
	Store   *varstore.Store
	Results []Result
}

// Variables returns the final variable set, ready for rendering or exec.
func (o *Outcome) Variables() map[string]string {
	return o.Store.Snapshot()
}

// Apply fetches every manifest secret concurrently and projects the
// payloads into a fresh store. When every projection succeeds it verifies
// database credentials marked for it and checks the manifest's vars
// expectations. The returned Outcome is valid even when err is non-nil;
// failed secrets carry their error in the matching Result.
func (r *Runner) Apply(ctx context.Context) (*Outcome, error) {
	store := varstore.New()
	secrets := r.cfg.Manifest.Secrets
	results := make([]Result, len(secrets))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, maxConcurrentFetches)

	for i, spec := range secrets {
		wg.Add(1)
		go func(i int, spec config.SecretSpec) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			// Each goroutine owns its slot; the store synchronizes itself.
			results[i] = r.applySecret(ctx, store, spec)
		}(i, spec)
	}
	wg.Wait()

	outcome := &Outcome{Store: store, Results: results}

	var errs []error
	for i := range results {
		if results[i].Err != nil {
			errs = append(errs, smerrors.UserError{
				Message:    fmt.Sprintf("Failed to map secret '%s'", results[i].Name),
				Details:    results[i].Err.Error(),
				Suggestion: "Check that the source is configured correctly and the secret exists",
				Err:        results[i].Err,
			})
		}
	}
	if len(errs) > 0 {
		// Verification and vars checks against a partial store would only
		// add noise on top of the real failures.
		return outcome, r.aggregate(errs, fmt.Sprintf("Failed to map %d secrets", len(errs)))
	}

	errs = append(errs, r.verifyDatabases(ctx, store, results)...)
	errs = append(errs, r.checkVars(store)...)
	if len(errs) > 0 {
		return outcome, r.aggregate(errs, fmt.Sprintf("Apply finished with %d errors", len(errs)))
	}

	r.logger.Debug("Mapped %d secrets into %d variables", len(secrets), store.Len())
	return outcome, nil
}

// applySecret runs the pipeline for a single secret. Safe to call
// concurrently for distinct names.
func (r *Runner) applySecret(ctx context.Context, store *varstore.Store, spec config.SecretSpec) Result {
	res := Result{Name: spec.Name}

	kind, err := secretmap.ParseKind(spec.Kind)
	if err != nil {
		res.Err = err
		return res
	}
	res.Kind = kind

	src, ref, err := r.registry.ForRef(spec.Source)
	if err != nil {
		res.Err = err
		return res
	}
	res.Scheme = src.Scheme()

	payload, err := r.fetch(ctx, src, ref)
	if err != nil {
		if spec.Optional && sources.IsNotFound(err) {
			r.logger.Debug("Optional secret %s has no entry at %s, skipping", spec.Name, spec.Source)
			res.Skipped = true
			return res
		}
		r.recorder.MappingFailed(kind.String(), metrics.ReasonFetchFailed)
		res.Err = smerrors.SourceError(src.Scheme(), "fetch", err)
		return res
	}

	handler := secretmap.NewHandler(store, kind, secretmap.Mapping(spec.Mapping))

	buf := secure.NewPayload(payload)
	defer buf.Destroy()

	err = buf.Expose(func(value string) error {
		if spec.Optional {
			return handler.ApplyOptional(spec.Name, value)
		}
		return handler.Apply(spec.Name, value)
	})
	if err != nil {
		r.recorder.MappingFailed(kind.String(), failureReason(err))
		res.Err = err
		return res
	}

	if spec.Optional && !store.Has(spec.Name) {
		r.logger.Debug("Optional secret %s has an empty payload, skipping", spec.Name)
		res.Skipped = true
		return res
	}

	res.Variables = handler.Mapping().Variables()
	r.recorder.SecretMapped(kind.String())
	r.recorder.VariablesWritten(len(res.Variables))
	return res
}

// fetch retrieves the payload within the configured timeout, retrying once
// on transient backend errors.
func (r *Runner) fetch(ctx context.Context, src sources.Source, ref string) (string, error) {
	payload, err := r.timedFetch(ctx, src, ref)
	if err != nil && smerrors.IsRetryable(err) {
		r.logger.Debug("Retrying %s fetch after transient error: %v", src.Scheme(), err)
		payload, err = r.timedFetch(ctx, src, ref)
	}
	return payload, err
}

func (r *Runner) timedFetch(ctx context.Context, src sources.Source, ref string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Manifest.Defaults.FetchTimeout())
	defer cancel()

	start := time.Now()
	payload, err := src.Fetch(ctx, ref)
	r.recorder.FetchObserved(src.Scheme(), time.Since(start).Seconds())
	return payload, err
}

// verifyDatabases dials every database whose secret is marked verify and
// proves the projected credentials work.
func (r *Runner) verifyDatabases(ctx context.Context, store *varstore.Store, results []Result) []error {
	var errs []error
	for i, spec := range r.cfg.Manifest.Secrets {
		res := &results[i]
		if !spec.Verify || res.Skipped || res.Err != nil {
			continue
		}

		mapping := secretmap.DefaultMapping(res.Kind).Merge(secretmap.Mapping(spec.Mapping))
		creds, err := verify.FromStore(store, mapping)
		if err == nil {
			err = r.verifier.Verify(ctx, creds)
		}
		if err != nil {
			res.Err = err
			errs = append(errs, smerrors.UserError{
				Message:    fmt.Sprintf("Database verification failed for secret '%s'", spec.Name),
				Details:    err.Error(),
				Suggestion: "Check that the database is reachable and the credentials grant access",
				Err:        err,
			})
			continue
		}
		res.Verified = true
		r.logger.Debug("Verified database credentials for %s", spec.Name)
	}
	return errs
}

// checkVars validates the final variable set against the manifest's vars
// expectations.
func (r *Runner) checkVars(store *varstore.Store) []error {
	violations, err := schema.NewChecker(r.cfg.Manifest.Vars).Check(store)
	if err != nil {
		return []error{fmt.Errorf("failed to check variables: %w", err)}
	}
	if len(violations) == 0 {
		return nil
	}

	lines := make([]string, 0, len(violations))
	for _, v := range violations {
		lines = append(lines, v.String())
	}
	return []error{smerrors.UserError{
		Message:    fmt.Sprintf("%d variable check(s) failed", len(violations)),
		Details:    strings.Join(lines, "; "),
		Suggestion: "Fix the vars declarations in your manifest or the upstream secret payloads",
	}}
}

// aggregate collapses collected errors into a single one, pointing at the
// doctor command for connectivity problems.
func (r *Runner) aggregate(errs []error, message string) error {
	if len(errs) == 1 {
		return errs[0]
	}
	return smerrors.UserError{
		Message:    message,
		Details:    fmt.Sprintf("%v", errs),
		Suggestion: "Fix the errors above and try again. Use 'secretmap doctor' to check source connectivity",
	}
}

// failureReason buckets a mapping error for the failure counter.
func failureReason(err error) string {
	var (
		missingPayload *secretmap.MissingPayloadError
		invalidJSON    *secretmap.InvalidJSONError
		invalidShape   *secretmap.InvalidShapeError
		missingField   *secretmap.MissingFieldError
		nullField      *secretmap.NullFieldError
	)
	switch {
	case errors.As(err, &missingPayload):
		return metrics.ReasonMissingPayload
	case errors.As(err, &invalidJSON):
		return metrics.ReasonInvalidJSON
	case errors.As(err, &invalidShape):
		return metrics.ReasonInvalidShape
	case errors.As(err, &missingField):
		return metrics.ReasonMissingField
	case errors.As(err, &nullField):
		return metrics.ReasonNullField
	}
	return metrics.ReasonOther
}

// PlannedSecret describes what Apply would do for one secret, without
// fetching anything.
type PlannedSecret struct {
	Name      string
	Kind      secretmap.Kind
	Scheme    string
	Optional  bool
	Verify    bool
	Variables []string
	Err       error
}

// Plan lists the projection each manifest secret would produce. Nothing is
// fetched and no variable is written.
func (r *Runner) Plan() []PlannedSecret {
	secrets := r.cfg.Manifest.Secrets
	planned := make([]PlannedSecret, 0, len(secrets))

	for _, spec := range secrets {
		p := PlannedSecret{
			Name:     spec.Name,
			Optional: spec.Optional,
			Verify:   spec.Verify,
		}

		kind, err := secretmap.ParseKind(spec.Kind)
		if err != nil {
			p.Err = err
			planned = append(planned, p)
			continue
		}
		p.Kind = kind
		p.Variables = secretmap.DefaultMapping(kind).Merge(secretmap.Mapping(spec.Mapping)).Variables()

		scheme, _, err := sources.ParseRef(spec.Source)
		switch {
		case err != nil:
			p.Err = err
		case !r.registry.IsSupported(scheme):
			p.Err = fmt.Errorf("unsupported source scheme %q", scheme)
		default:
			p.Scheme = scheme
		}

		planned = append(planned, p)
	}
	return planned
}
