package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/cracker/internal/audio"
	"github.com/dgnsrekt/cracker/internal/cache"
	"github.com/dgnsrekt/cracker/internal/config"
	"github.com/dgnsrekt/cracker/internal/tts"
	"github.com/dgnsrekt/cracker/internal/tts/engines"
)

const indexFile = "index.db"

// app holds everything a speaking session needs.
type app struct {
	cache    *cache.Cache
	player   *audio.Player
	pipeline *tts.Pipeline
	parser   *tts.TextParser

	shutdownTracing func(context.Context) error
}

// openCache opens the artifact store, the fingerprint index and the mirror
// described by c. Entries are kept per engine.
func openCache(ctx context.Context, c config.Config) (*cache.Cache, error) {
	store, err := cache.NewDiskStore(c.Cache.Dir, c.Cache.CompressionLevel)
	if err != nil {
		return nil, fmt.Errorf("unable to open cache: %w", err)
	}

	var index cache.Index
	if c.Cache.Index {
		idx, err := cache.OpenIndex(ctx, filepath.Join(c.Cache.Dir, indexFile))
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("unable to open cache index: %w", err)
		}
		index = idx
	}

	opts := []cache.Option{cache.WithNamespace(string(c.Engine()))}
	if c.Cache.Mirror.Bucket != "" {
		mirror, err := cache.NewS3Mirror(ctx, c.Cache.Mirror)
		if err != nil {
			log.Warn("Cache mirror disabled", "bucket", c.Cache.Mirror.Bucket, "err", err)
		} else {
			opts = append(opts, cache.WithMirror(mirror))
		}
	}
	return cache.New(store, index, opts...), nil
}

// newApp wires the cache, the backend, the audio device and the pipeline.
func newApp(ctx context.Context, c config.Config) (*app, error) {
	a := &app{}
	if trace {
		shutdown, err := tts.SetupTracing(os.Stderr)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}
		a.shutdownTracing = shutdown
	}

	rules, err := c.ParserRules()
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	if a.parser, err = tts.NewTextParser(rules); err != nil {
		return nil, err //nolint:wrapcheck
	}

	if a.cache, err = openCache(ctx, c); err != nil {
		return nil, err
	}

	synth, err := engines.New(ctx, c.Engine(), c.Engines, a.cache.Artifacts())
	if err != nil {
		_ = a.Close()
		return nil, err //nolint:wrapcheck
	}

	if a.player, err = audio.NewPlayer(c.PlayerConfig(), a.cache.Artifacts().Read); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("unable to open audio device: %w", err)
	}

	opts := c.PipelineOptions()
	opts.NoCache = noCache
	a.pipeline = tts.New(synth, a.player, a.cache, opts)
	return a, nil
}

// Close releases the pipeline, the audio device and the cache, in that order.
func (a *app) Close() error {
	var errs []error
	if a.pipeline != nil {
		errs = append(errs, a.pipeline.Close())
	}
	if a.player != nil {
		errs = append(errs, a.player.Close())
	}
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	if a.shutdownTracing != nil {
		errs = append(errs, a.shutdownTracing(context.Background()))
	}
	return errors.Join(errs...)
}
