// Package verskema provides:
//
// - Version-tagged decoding of persisted records through per-format adapters (Codec/Adapter)
// - Forward migration of old records through a typed chain of pure steps (Begin/Then)
// - Two resolution strategies over the same chain: eager (recursive) and lazy (staged sequences)
// - An error model that keeps version mismatch, decode faults and unknown formats apart
//
// Design policy:
// - Keep only public APIs in the root package; wire formats live under codec/.
// - A version mismatch is an empty Option, never an error.
// - Adding a schema version means appending one Then call; existing steps stay untouched.
//
// Typical usage:
//
//	s1 := verskema.Begin(json.Adapter[SaveV1]())
//	s2 := verskema.Then(s1, json.Adapter[SaveV2](), MigrateV1ToV2)
//	r, err := verskema.New(s2)
//	latest, err := r.Resolve(ctx, data)
//	res, err := r.ResolveWithMeta(ctx, data) // res.Matched, res.Steps
package verskema
