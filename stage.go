package verskema

import (
	"fmt"
	"iter"
	"slices"
)

// Migration maps a value of one schema version to the next. Steps must be
// pure and total: they never fail and never mutate their input.
type Migration[From, To any] func(From) To

// Stage is one version in a chain, holding everything needed to resolve a
// record up to that version. Stages are immutable and safe to share; build
// them with Begin and Then.
type Stage[V any] struct {
	tags    []Tag
	adapter Adapter[V]
	err     error

	eager  func(data []byte) (Result[V], bool, error)
	lazy   func(data []byte) iter.Seq2[Result[V], error]
	detect func(data []byte) (Tag, bool, error)
}

// Begin declares the oldest retained version.
func Begin[V any](a Adapter[V]) *Stage[V] {
	s := &Stage[V]{adapter: a}
	if err := checkAdapter(a, 0, nil); err != nil {
		s.err = err
		return s
	}
	tag := a.Tag()
	s.tags = []Tag{tag}
	s.eager = eagerBase(a)
	s.lazy = lazyBase(a)
	s.detect = func(data []byte) (Tag, bool, error) {
		got, err := a.Decode(data)
		return tag, err == nil && got.IsSome(), err
	}
	return s
}

// Then appends the next version to prev. step converts a value of the
// previous version into this one.
func Then[From, To any](prev *Stage[From], a Adapter[To], step Migration[From, To]) *Stage[To] {
	s := &Stage[To]{adapter: a}
	if prev == nil {
		s.err = &ChainError{Code: CodeChainGap, Message: "nil predecessor stage"}
		return s
	}
	if prev.err != nil {
		s.err = prev.err
		return s
	}
	idx := len(prev.tags)
	if err := checkAdapter(a, idx, prev.tags); err != nil {
		s.err = err
		return s
	}
	tag := a.Tag()
	if step == nil {
		s.err = &ChainError{Code: CodeChainGap, Index: idx, Tag: tag,
			Message: fmt.Sprintf("missing migration from %s", prev.tags[idx-1])}
		return s
	}
	s.tags = append(slices.Clone(prev.tags), tag)

	s.eager = eagerNext(prev.eager, a, step)
	s.lazy = lazyNext(prev.lazy, a, step)
	s.detect = func(data []byte) (Tag, bool, error) {
		got, err := a.Decode(data)
		if err != nil {
			return tag, false, err
		}
		if got.IsSome() {
			return tag, true, nil
		}
		return prev.detect(data)
	}
	return s
}

// Err returns the first composition error of the chain ending at s.
func (s *Stage[V]) Err() error {
	if s == nil {
		return &ChainError{Code: CodeChainGap, Message: "nil stage"}
	}
	return s.err
}

// Versions lists the declared tags, oldest first.
func (s *Stage[V]) Versions() []Tag {
	if s == nil {
		return nil
	}
	return slices.Clone(s.tags)
}

// Latest returns the tag of this stage.
func (s *Stage[V]) Latest() Tag {
	if s == nil || len(s.tags) == 0 {
		return 0
	}
	return s.tags[len(s.tags)-1]
}

func checkAdapter[V any](a Adapter[V], idx int, prev []Tag) error {
	if a == nil {
		return &ChainError{Code: CodeNilAdapter, Index: idx, Message: "nil adapter"}
	}
	if ts, ok := a.(tagSet); ok {
		tags, complete := ts.memberTags()
		switch {
		case !complete:
			return &ChainError{Code: CodeNilAdapter, Index: idx, Message: "nil AnyOf member"}
		case len(tags) == 0:
			return &ChainError{Code: CodeNilAdapter, Index: idx, Message: "AnyOf without members"}
		}
		tag := tags[0]
		for _, t := range tags {
			if t != tag {
				return &ChainError{Code: CodeTagOrder, Index: idx, Tag: tag,
					Message: fmt.Sprintf("AnyOf members disagree on tag (%s and %s)", tag, t)}
			}
		}
	}
	tag := a.Tag()
	if n := len(prev); n > 0 && tag <= prev[n-1] {
		return &ChainError{Code: CodeTagOrder, Index: idx, Tag: tag,
			Message: fmt.Sprintf("tag must be greater than %s", prev[n-1])}
	}
	return nil
}
