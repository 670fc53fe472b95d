package verskema

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes reported by CodeOf.
const (
	CodeUnrecognizedFormat = "unrecognized_format"
	CodeDecodeFault        = "decode_fault"
	CodeTooLarge           = "too_large"
	CodeTagConflict        = "tag_conflict"
	// Composition errors (detected by Begin/Then, reported by New)
	CodeChainGap   = "chain_gap"
	CodeTagOrder   = "tag_order"
	CodeNilAdapter = "nil_adapter"
)

var (
	// ErrUnrecognizedFormat reports that no declared version, including the
	// oldest, matched the record.
	ErrUnrecognizedFormat = errors.New("verskema: unrecognized format")
	// ErrRecordTooLarge is returned when a record exceeds ResolveOpt.MaxBytes.
	ErrRecordTooLarge = errors.New("verskema: record too large")
	// ErrTagAbsent is wrapped by Codec.PeekTag when the record carries no
	// readable tag. Adapters turn it into a mismatch.
	ErrTagAbsent = errors.New("verskema: tag absent")
	// ErrTagConflict is returned by encoders when the value already contains
	// the tag key.
	ErrTagConflict = errors.New("verskema: value already contains the tag key")
)

// DecodeError reports a record whose tag matched an adapter but whose body
// could not be decoded into that version.
type DecodeError struct {
	Format string
	Tag    Tag
	Cause  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("verskema: %s record tagged %s is malformed: %v", e.Format, e.Tag, e.Cause)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// ChainError reports an invalid composition. Index is the zero-based position
// of the offending stage, oldest first.
type ChainError struct {
	Code    string
	Index   int
	Tag     Tag
	Message string
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("verskema: %s at stage %d (%s): %s", e.Code, e.Index, e.Tag, e.Message)
}

// unrecognizedError lists what was tried when the chain is exhausted.
type unrecognizedError struct {
	tried []Tag
}

func (e *unrecognizedError) Error() string {
	b := &strings.Builder{}
	b.WriteString(ErrUnrecognizedFormat.Error())
	b.WriteString(" (tried ")
	for i := len(e.tried) - 1; i >= 0; i-- {
		b.WriteString(e.tried[i].String())
		if i > 0 {
			b.WriteString(", ")
		}
	}
	b.WriteString(")")
	return b.String()
}

func (e *unrecognizedError) Unwrap() error { return ErrUnrecognizedFormat }

// CodeOf returns the error code carried by err, or "" for foreign errors.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var de *DecodeError
	if errors.As(err, &de) {
		return CodeDecodeFault
	}
	var ce *ChainError
	if errors.As(err, &ce) {
		return ce.Code
	}
	switch {
	case errors.Is(err, ErrUnrecognizedFormat):
		return CodeUnrecognizedFormat
	case errors.Is(err, ErrRecordTooLarge):
		return CodeTooLarge
	case errors.Is(err, ErrTagConflict):
		return CodeTagConflict
	}
	return ""
}
