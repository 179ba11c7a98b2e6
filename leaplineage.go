// Package leaplineage wires lineage reporting into a LeapSQL run.
//
// Callers hand over their notification sink and receive a decorated one
// that additionally emits lineage events to a metadata catalog. The
// decorated sink is transparent: every notification reaches the wrapped
// sink whether or not emission succeeds.
//
//	sink, err := leaplineage.New(console, builder, cfg, logger)
//	if err != nil {
//		// bad configuration, run without lineage reporting
//	}
package leaplineage

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leaplineage/internal/client"
	"github.com/leapstack-labs/leaplineage/internal/config"
	"github.com/leapstack-labs/leaplineage/internal/emitter"
	"github.com/leapstack-labs/leaplineage/internal/tracker"
	"github.com/leapstack-labs/leaplineage/pkg/core"
	tree "github.com/leapstack-labs/leaplineage/pkg/lineage"
)

// Config re-exports the configuration type for callers.
type Config = config.Config

// ErrURLRequired is returned when no catalog URL is configured.
var ErrURLRequired = config.ErrURLRequired

// Load reads configuration from files and the environment, applying the
// given overrides last.
func Load(cfgFile string, overrides Config) (*Config, error) {
	return config.Load(cfgFile, overrides)
}

// Options tunes the decorated sink.
type Options struct {
	// EngineVersion is stamped into event facets.
	EngineVersion string
}

// New returns a sink decorating wrapped that emits lineage events for
// every model evaluation. The builder may be nil, disabling column-level
// lineage. A nil logger discards diagnostics.
//
// Configuration problems are reported up front so the caller can decide
// to run without lineage reporting; once constructed, the sink never
// fails a run over emission errors.
func New(wrapped core.Sink, builder tree.Builder, cfg Config, logger *slog.Logger) (core.Sink, error) {
	return NewWithOptions(wrapped, builder, cfg, logger, Options{})
}

// NewWithOptions is New with explicit options.
func NewWithOptions(wrapped core.Sink, builder tree.Builder, cfg Config, logger *slog.Logger, opts Options) (core.Sink, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	transport := client.New(client.Config{
		URL:              cfg.URL,
		APIKey:           cfg.APIKey,
		ValidateDatasets: cfg.ValidateDatasets,
		Logger:           logger,
	})

	em, err := emitter.New(emitter.Config{
		Namespace:     cfg.Namespace,
		Transport:     transport,
		Builder:       builder,
		Logger:        logger,
		EngineVersion: opts.EngineVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("build emitter: %w", err)
	}

	return tracker.New(wrapped, em, logger)
}
