package verskema

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Resolver turns records of any declared version into values of the latest
// one. It holds no mutable state and is safe for concurrent use.
type Resolver[V any] struct {
	stage   *Stage[V]
	opt     ResolveOpt
	log     *slog.Logger
	metrics MetricsCollector
}

// New validates the chain ending at s and returns a Resolver for it. When
// several options are given the last one wins.
func New[V any](s *Stage[V], opts ...ResolveOpt) (*Resolver[V], error) {
	if err := s.Err(); err != nil {
		return nil, err
	}
	var opt ResolveOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	if opt.Strategy != StrategyEager && opt.Strategy != StrategyLazy {
		return nil, fmt.Errorf("verskema: unknown %s", opt.Strategy)
	}
	if opt.MaxBytes < 0 {
		return nil, fmt.Errorf("verskema: negative MaxBytes %d", opt.MaxBytes)
	}
	r := &Resolver[V]{stage: s, opt: opt, log: opt.Logger, metrics: opt.Metrics}
	if r.log == nil {
		r.log = NoopLogger()
	}
	if r.metrics == nil {
		r.metrics = NoopMetricsCollector{}
	}
	return r, nil
}

// Resolve decodes data with the newest matching version and migrates the
// value forward to the latest version.
func (r *Resolver[V]) Resolve(ctx context.Context, data []byte) (V, error) {
	res, err := r.ResolveWithMeta(ctx, data)
	return res.Value, err
}

// ResolveWithMeta is Resolve returning the matched version and the number of
// steps applied.
func (r *Resolver[V]) ResolveWithMeta(ctx context.Context, data []byte) (Result[V], error) {
	start := time.Now()
	res, err := r.resolve(data)
	r.observe(ctx, "record resolved", res.Matched, res.Steps, len(data), time.Since(start), err)
	if err != nil {
		return Result[V]{}, err
	}
	return res, nil
}

func (r *Resolver[V]) resolve(data []byte) (Result[V], error) {
	if err := r.checkSize(data); err != nil {
		return Result[V]{}, err
	}
	if r.opt.Strategy == StrategyLazy {
		return resolveLazy(r.stage, data)
	}
	return resolveEager(r.stage, data)
}

// Detect reports which declared version data was written with, without
// migrating it. A decode fault at the matching version is still reported.
func (r *Resolver[V]) Detect(ctx context.Context, data []byte) (Tag, error) {
	start := time.Now()
	tag, err := r.detect(data)
	r.observe(ctx, "record detected", tag, 0, len(data), time.Since(start), err)
	return tag, err
}

func (r *Resolver[V]) detect(data []byte) (Tag, error) {
	if err := r.checkSize(data); err != nil {
		return 0, err
	}
	tag, ok, err := r.stage.detect(data)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, &unrecognizedError{tried: r.stage.Versions()}
	}
	return tag, nil
}

// Encode writes v with the latest adapter.
func (r *Resolver[V]) Encode(v V) ([]byte, error) { return r.stage.adapter.Encode(v) }

// Upgrade resolves data and re-encodes it at the latest version. A record
// already at the latest version is returned as is.
func (r *Resolver[V]) Upgrade(ctx context.Context, data []byte) ([]byte, Result[V], error) {
	res, err := r.ResolveWithMeta(ctx, data)
	if err != nil {
		return nil, Result[V]{}, err
	}
	if res.Steps == 0 {
		return data, res, nil
	}
	out, err := r.Encode(res.Value)
	if err != nil {
		return nil, Result[V]{}, err
	}
	r.log.DebugContext(ctx, "record upgraded", "from", res.Matched, "to", r.Latest(), "bytes", len(out))
	return out, res, nil
}

// Versions lists the declared tags, oldest first.
func (r *Resolver[V]) Versions() []Tag { return r.stage.Versions() }

// Latest returns the tag every record is resolved to.
func (r *Resolver[V]) Latest() Tag { return r.stage.Latest() }

// Strategy returns the configured strategy.
func (r *Resolver[V]) Strategy() Strategy { return r.opt.Strategy }

func (r *Resolver[V]) checkSize(data []byte) error {
	if r.opt.MaxBytes > 0 && int64(len(data)) > r.opt.MaxBytes {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrRecordTooLarge, len(data), r.opt.MaxBytes)
	}
	return nil
}

func (r *Resolver[V]) observe(ctx context.Context, msg string, matched Tag, steps, size int, d time.Duration, err error) {
	if err != nil {
		r.metrics.RecordResolve(0, -1, d, err)
		r.log.WarnContext(ctx, "record rejected", "code", CodeOf(err), "bytes", size, "err", err)
		return
	}
	r.metrics.RecordResolve(matched, steps, d, nil)
	r.log.DebugContext(ctx, msg,
		"matched", matched,
		"latest", r.Latest(),
		"steps", steps,
		"strategy", r.opt.Strategy,
		"bytes", size,
	)
}

// SafeResolve resolves data, returning (zero, false) on any error.
func SafeResolve[V any](ctx context.Context, r *Resolver[V], data []byte) (V, bool) {
	v, err := r.Resolve(ctx, data)
	if err != nil {
		var zero V
		return zero, false
	}
	return v, true
}
