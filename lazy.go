package verskema

import "iter"

// lazyBase yields the oldest version's value when it matches. Nothing is
// decoded until the sequence is pulled.
func lazyBase[V any](a Adapter[V]) func([]byte) iter.Seq2[Result[V], error] {
	tag := a.Tag()
	return func(data []byte) iter.Seq2[Result[V], error] {
		return func(yield func(Result[V], error) bool) {
			got, err := a.Decode(data)
			if err != nil {
				yield(Result[V]{}, err)
				return
			}
			if v, ok := got.Get(); ok {
				yield(Result[V]{Value: v, Matched: tag}, nil)
			}
		}
	}
}

// lazyNext yields a direct hit on its own version first, then every value of
// the predecessor's sequence migrated one step. Because the predecessor is
// only pulled after the own decode attempt, the latest version is always
// tried first.
func lazyNext[From, To any](prev func([]byte) iter.Seq2[Result[From], error], a Adapter[To], step Migration[From, To]) func([]byte) iter.Seq2[Result[To], error] {
	tag := a.Tag()
	return func(data []byte) iter.Seq2[Result[To], error] {
		return func(yield func(Result[To], error) bool) {
			got, err := a.Decode(data)
			if err != nil {
				yield(Result[To]{}, err)
				return
			}
			if v, ok := got.Get(); ok {
				if !yield(Result[To]{Value: v, Matched: tag}, nil) {
					return
				}
			}
			for r, err := range prev(data) {
				if err != nil {
					yield(Result[To]{}, err)
					return
				}
				if !yield(Result[To]{Value: step(r.Value), Matched: r.Matched, Steps: r.Steps + 1}, nil) {
					return
				}
			}
		}
	}
}

// Pipeline returns the lazy sequence of candidates for data, newest version
// first, without materializing it. Chains with unique tags yield at most one
// element.
func (s *Stage[V]) Pipeline(data []byte) iter.Seq2[Result[V], error] {
	if s == nil || s.err != nil {
		err := s.Err()
		return func(yield func(Result[V], error) bool) { yield(Result[V]{}, err) }
	}
	return s.lazy(data)
}

// resolveLazy takes the first candidate, which comes from the newest matching
// version. Older stages are never pulled once it is found, so a second
// candidate (an adapter matching a tag it does not own) goes unseen, exactly
// as with the eager strategy.
func resolveLazy[V any](s *Stage[V], data []byte) (Result[V], error) {
	for r, err := range s.lazy(data) {
		if err != nil {
			return Result[V]{}, err
		}
		return r, nil
	}
	return Result[V]{}, &unrecognizedError{tried: s.Versions()}
}
