package verskema

// eagerBase decodes the oldest version. A miss here exhausts the chain.
func eagerBase[V any](a Adapter[V]) func([]byte) (Result[V], bool, error) {
	tag := a.Tag()
	return func(data []byte) (Result[V], bool, error) {
		got, err := a.Decode(data)
		if err != nil {
			return Result[V]{}, false, err
		}
		v, ok := got.Get()
		return Result[V]{Value: v, Matched: tag}, ok, nil
	}
}

// eagerNext tries its own version first and only on a mismatch recurses into
// the predecessor, migrating whatever it returns one step forward.
func eagerNext[From, To any](prev func([]byte) (Result[From], bool, error), a Adapter[To], step Migration[From, To]) func([]byte) (Result[To], bool, error) {
	tag := a.Tag()
	return func(data []byte) (Result[To], bool, error) {
		got, err := a.Decode(data)
		if err != nil {
			return Result[To]{}, false, err
		}
		if v, ok := got.Get(); ok {
			return Result[To]{Value: v, Matched: tag}, true, nil
		}
		r, ok, err := prev(data)
		if err != nil || !ok {
			return Result[To]{}, ok, err
		}
		return Result[To]{Value: step(r.Value), Matched: r.Matched, Steps: r.Steps + 1}, true, nil
	}
}

func resolveEager[V any](s *Stage[V], data []byte) (Result[V], error) {
	r, ok, err := s.eager(data)
	if err != nil {
		return Result[V]{}, err
	}
	if !ok {
		return Result[V]{}, &unrecognizedError{tried: s.Versions()}
	}
	return r, nil
}
