package verskema

import (
	"log/slog"
	"strconv"
)

// Tag identifies the wire shape a record was written with.
type Tag int

// String renders the tag as v<N>.
func (t Tag) String() string { return "v" + strconv.Itoa(int(t)) }

// Versioned is implemented by every schema version. SchemaVersion must be
// declared on the value receiver and return a constant, so the tag can be read
// from the zero value.
type Versioned interface {
	SchemaVersion() Tag
}

// TagOf returns the tag declared by V without decoding anything.
func TagOf[V Versioned]() Tag {
	var zero V
	return zero.SchemaVersion()
}

// Strategy selects how a Resolver walks the chain.
type Strategy int

const (
	StrategyEager Strategy = iota // Recursive fallback from the latest stage.
	StrategyLazy                  // Staged sequences pulled from the latest stage.
)

func (s Strategy) String() string {
	switch s {
	case StrategyEager:
		return "eager"
	case StrategyLazy:
		return "lazy"
	default:
		return "strategy(" + strconv.Itoa(int(s)) + ")"
	}
}

// ParseStrategy maps "eager" or "lazy" to a Strategy.
func ParseStrategy(s string) (Strategy, bool) {
	switch s {
	case "", "eager":
		return StrategyEager, true
	case "lazy":
		return StrategyLazy, true
	default:
		return StrategyEager, false
	}
}

// ResolveOpt bundles resolver options.
type ResolveOpt struct {
	Strategy Strategy
	MaxBytes int64        // Reject larger records before decoding; 0 disables the cap.
	Logger   *slog.Logger // Nil discards.
	Metrics  MetricsCollector
}

// Result carries the resolved value together with how it was reached.
type Result[V any] struct {
	Value   V
	Matched Tag // Version the record was written with.
	Steps   int // Migration steps applied.
}
