// Package capture polls the clipboard on a fixed cadence and persists
// genuinely new content as clips, deduplicating by content fingerprint.
package capture

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/clipd/clipd/internal/clipboard"
	"github.com/clipd/clipd/internal/fingerprint"
	"github.com/clipd/clipd/internal/store"
)

const defaultPollInterval = 500 * time.Millisecond

var (
	errMissingStore  = errors.New("clip store is required")
	errMissingSource = errors.New("clipboard source is required")
	errMissingCodec  = errors.New("image codec is required")
	noOpLogger       = zap.NewNop()
)

// ClipStore is the slice of the store the pipeline writes through.
type ClipStore interface {
	FindByHash(ctx context.Context, hash string) (*store.Clip, error)
	Insert(ctx context.Context, newClip store.NewClip) (store.Clip, error)
}

// Config carries the dependencies for a Pipeline.
type Config struct {
	Store           ClipStore
	Source          clipboard.Source
	Codec           clipboard.Codec
	ImagesDir       string
	Interval        time.Duration
	MaxPayloadBytes int64
	Logger          *zap.Logger
}

// Pipeline is the capture loop. It owns a single piece of state, the
// fingerprint of the last observed snapshot, so repeated identical samples
// never reach the store.
type Pipeline struct {
	store           ClipStore
	source          clipboard.Source
	codec           clipboard.Codec
	imagesDir       string
	interval        time.Duration
	maxPayloadBytes int64
	logger          *zap.Logger

	lastFingerprint string
}

// New validates the configuration and returns a Pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Store == nil {
		return nil, errMissingStore
	}
	if cfg.Source == nil {
		return nil, errMissingSource
	}
	if cfg.Codec == nil {
		return nil, errMissingCodec
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Pipeline{
		store:           cfg.Store,
		source:          cfg.Source,
		codec:           cfg.Codec,
		imagesDir:       cfg.ImagesDir,
		interval:        interval,
		maxPayloadBytes: cfg.MaxPayloadBytes,
		logger:          logger,
	}, nil
}

// Run polls until ctx is cancelled. Ticks are strictly sequential: one
// completes before the next begins, and a failed tick is logged and
// swallowed so a single bad sample never terminates the loop.
func (p *Pipeline) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("capture pipeline started", zap.Duration("interval", p.interval))

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("capture pipeline stopped")
			return nil
		case <-ticker.C:
			if err := p.tick(ctx); err != nil {
				p.logger.Error("capture tick failed", zap.Error(err))
			}
		}
	}
}

// tick performs one complete capture cycle: sample, fingerprint, dedup
// against memory then the store, and persist when the content is new.
func (p *Pipeline) tick(ctx context.Context) error {
	content, err := p.source.Read()
	if err != nil {
		return fmt.Errorf("read clipboard: %w", err)
	}
	if content == nil {
		return nil
	}

	payload := content.Payload()
	digest := fingerprint.Sum(payload)

	// In-memory fast path: unchanged content costs no store round-trip.
	if digest == p.lastFingerprint {
		return nil
	}

	if p.maxPayloadBytes > 0 && int64(len(payload)) > p.maxPayloadBytes {
		p.lastFingerprint = digest
		p.logger.Warn("skipping oversized clipboard payload",
			zap.Int("size", len(payload)),
			zap.Int64("limit", p.maxPayloadBytes))
		return nil
	}

	// Persistent fallback: content seen before, possibly in a previous
	// run or re-copied from history. The existing row is left untouched.
	existing, err := p.store.FindByHash(ctx, digest)
	if err != nil {
		return fmt.Errorf("dedup lookup: %w", err)
	}
	if existing != nil {
		p.lastFingerprint = digest
		return nil
	}

	newClip, err := p.buildClip(content, digest, int64(len(payload)))
	if err != nil {
		return err
	}

	inserted, err := p.store.Insert(ctx, newClip)
	if err != nil {
		return fmt.Errorf("persist clip: %w", err)
	}

	p.lastFingerprint = digest
	p.logger.Info("captured clip",
		zap.Int64("clip_id", inserted.ID),
		zap.String("content_type", string(inserted.ContentType)),
		zap.Int64("size_bytes", inserted.SizeBytes))
	return nil
}

// buildClip turns a snapshot into a NewClip, persisting image pixels to a
// side file named after the fingerprint first.
func (p *Pipeline) buildClip(content *clipboard.Content, digest string, sizeBytes int64) (store.NewClip, error) {
	if content.Kind == clipboard.KindImage {
		sideFile := filepath.Join(p.imagesDir, fingerprint.ImageFileName(digest))
		if err := p.codec.EncodeToFile(content.Pixels, content.Width, content.Height, sideFile); err != nil {
			return store.NewClip{}, fmt.Errorf("write image side file: %w", err)
		}
		return store.NewImageClip(sideFile, content.Width, content.Height, digest, sizeBytes)
	}
	return store.NewTextClip(content.Text, digest, sizeBytes)
}
