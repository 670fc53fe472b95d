package verskema_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/reoring/verskema"
	"github.com/reoring/verskema/codec/json"
	"github.com/reoring/verskema/codec/msgpack"
	sg "github.com/reoring/verskema/examples/savegame"
)

func chainCode(t *testing.T, err error) *verskema.ChainError {
	t.Helper()
	var ce *verskema.ChainError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ChainError, got %v", err)
	}
	return ce
}

// v2again declares the same tag as V2 with its own type.
type v2again sg.V2

func (v2again) SchemaVersion() verskema.Tag { return 2 }

type v0 struct{ Name string }

func (v0) SchemaVersion() verskema.Tag { return 0 }

func TestCompose_RejectsNonIncreasingTags(t *testing.T) {
	s2 := verskema.Then(verskema.Begin(json.Adapter[sg.V1]()), json.Adapter[sg.V2](), sg.MigrateV1ToV2)
	dup := verskema.Then(s2, json.Adapter[v2again](), func(v sg.V2) v2again { return v2again(v) })
	ce := chainCode(t, dup.Err())
	if ce.Code != verskema.CodeTagOrder || ce.Index != 2 || ce.Tag != 2 {
		t.Fatalf("unexpected %+v", ce)
	}

	back := verskema.Then(s2, json.Adapter[v0](), func(sg.V2) v0 { return v0{} })
	if ce := chainCode(t, back.Err()); ce.Code != verskema.CodeTagOrder {
		t.Fatalf("unexpected %+v", ce)
	}

	if _, err := verskema.New(dup); verskema.CodeOf(err) != verskema.CodeTagOrder {
		t.Fatalf("New should report the composition error, got %v", err)
	}
}

func TestCompose_ErrorsPropagateToLaterStages(t *testing.T) {
	s1 := verskema.Begin[sg.V1](nil)
	s4 := verskema.Then(verskema.Then(verskema.Then(s1, json.Adapter[sg.V2](), sg.MigrateV1ToV2),
		json.Adapter[sg.V3](), sg.MigrateV2ToV3), json.Adapter[sg.V4](), sg.MigrateV3ToV4)
	ce := chainCode(t, s4.Err())
	if ce.Code != verskema.CodeNilAdapter || ce.Index != 0 {
		t.Fatalf("unexpected %+v", ce)
	}
	for _, err := range s4.Pipeline([]byte(`{"version":4}`)) {
		if !errors.Is(err, s4.Err()) {
			t.Fatalf("pipeline of a broken chain should yield its error, got %v", err)
		}
	}
}

func TestCompose_MissingMigration(t *testing.T) {
	s := verskema.Then(verskema.Begin(json.Adapter[sg.V1]()), json.Adapter[sg.V2](), nil)
	ce := chainCode(t, s.Err())
	if ce.Code != verskema.CodeChainGap || ce.Index != 1 {
		t.Fatalf("unexpected %+v", ce)
	}
	var nilStage *verskema.Stage[sg.V1]
	if ce := chainCode(t, verskema.Then(nilStage, json.Adapter[sg.V2](), sg.MigrateV1ToV2).Err()); ce.Code != verskema.CodeChainGap {
		t.Fatalf("unexpected %+v", ce)
	}
	if _, err := verskema.New(nilStage); verskema.CodeOf(err) != verskema.CodeChainGap {
		t.Fatalf("New(nil) = %v", err)
	}
}

func TestCompose_AnyOfMembers(t *testing.T) {
	cases := []struct {
		name string
		a    verskema.Adapter[sg.V1]
		code string
	}{
		{"empty", verskema.AnyOf[sg.V1](), verskema.CodeNilAdapter},
		{"nil member", verskema.AnyOf(json.Adapter[sg.V1](), nil), verskema.CodeNilAdapter},
		{"nil first member", verskema.AnyOf(nil, json.Adapter[sg.V1]()), verskema.CodeNilAdapter},
		{"only nil", verskema.AnyOf[sg.V1](nil), verskema.CodeNilAdapter},
		{"mixed tags", verskema.AnyOf(json.Adapter[sg.V1](), verskema.Adapter[sg.V1](mislabeled{})), verskema.CodeTagOrder},
	}
	for _, tc := range cases {
		if got := verskema.CodeOf(verskema.Begin(tc.a).Err()); got != tc.code {
			t.Fatalf("%s: code %q, want %q", tc.name, got, tc.code)
		}
	}
	ok := verskema.Begin(verskema.AnyOf(json.Adapter[sg.V1](), msgpack.Adapter[sg.V1]()))
	if err := ok.Err(); err != nil {
		t.Fatalf("valid AnyOf rejected: %v", err)
	}
}

// mislabeled is a V1 adapter that claims tag 7.
type mislabeled struct{}

func (mislabeled) Tag() verskema.Tag                             { return 7 }
func (mislabeled) Format() string                                { return "mislabeled" }
func (mislabeled) Decode([]byte) (verskema.Option[sg.V1], error) { return verskema.None[sg.V1](), nil }
func (mislabeled) Encode(sg.V1) ([]byte, error)                  { return nil, nil }

func TestStage_Versions(t *testing.T) {
	s := sg.JSONChain()
	vs := s.Versions()
	if !reflect.DeepEqual(vs, []verskema.Tag{1, 2, 3, 4}) || s.Latest() != verskema.TagOf[sg.Latest]() {
		t.Fatalf("versions %v latest %s", vs, s.Latest())
	}
	vs[0] = 99
	if s.Versions()[0] != 1 {
		t.Fatalf("Versions must return a copy")
	}
	if len(verskema.Begin[sg.V1](nil).Versions()) != 0 {
		t.Fatalf("broken stage should declare no versions")
	}
	var none *verskema.Stage[sg.V1]
	if none.Versions() != nil || none.Latest() != 0 {
		t.Fatalf("nil stage should declare no versions")
	}
}

func TestAdapter_CrossVersionMismatch(t *testing.T) {
	a := jsonAdapters()
	samples := encodedSamples(t, a)
	decoders := map[verskema.Tag]func([]byte) (bool, error){
		1: func(b []byte) (bool, error) { o, err := a.V1.Decode(b); return o.IsSome(), err },
		2: func(b []byte) (bool, error) { o, err := a.V2.Decode(b); return o.IsSome(), err },
		3: func(b []byte) (bool, error) { o, err := a.V3.Decode(b); return o.IsSome(), err },
		4: func(b []byte) (bool, error) { o, err := a.V4.Decode(b); return o.IsSome(), err },
	}
	for _, s := range samples {
		for tag, dec := range decoders {
			hit, err := dec(s.data)
			if err != nil {
				t.Fatalf("%s adapter on %s record: %v", tag, s.tag, err)
			}
			if hit != (tag == s.tag) {
				t.Fatalf("%s adapter on %s record: hit=%v", tag, s.tag, hit)
			}
		}
	}
}

func TestAdapter_DecodeIsIdempotent(t *testing.T) {
	a := msgpack.Adapter[sg.V3]()
	data, err := a.Encode(sampleV3)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	first, err := a.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	second, err := a.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	v1, _ := first.Get()
	v2, _ := second.Get()
	if !reflect.DeepEqual(v1, v2) || !reflect.DeepEqual(v1, sampleV3) {
		t.Fatalf("decodes differ: %+v vs %+v", v1, v2)
	}
}

func TestAnyOf_FirstMatchWins(t *testing.T) {
	a := verskema.AnyOf(json.Adapter[sg.V1](), msgpack.Adapter[sg.V1]())
	if a.Tag() != 1 || a.Format() != "json|msgpack" {
		t.Fatalf("tag %s format %s", a.Tag(), a.Format())
	}
	mp, err := msgpack.Adapter[sg.V1]().Encode(sampleV1)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := a.Decode(mp)
	if v, ok := got.Get(); err != nil || !ok || v != sampleV1 {
		t.Fatalf("msgpack member should match: %+v %v", v, err)
	}
	out, err := a.Encode(sampleV1)
	if err != nil || out[0] != '{' {
		t.Fatalf("Encode should use the first member: %q %v", out, err)
	}
}

func TestParseStrategy(t *testing.T) {
	for in, want := range map[string]verskema.Strategy{"": verskema.StrategyEager, "eager": verskema.StrategyEager, "lazy": verskema.StrategyLazy} {
		if got, ok := verskema.ParseStrategy(in); !ok || got != want {
			t.Fatalf("ParseStrategy(%q) = %s, %v", in, got, ok)
		}
	}
	if _, ok := verskema.ParseStrategy("greedy"); ok {
		t.Fatalf("unknown strategy accepted")
	}
	if _, err := verskema.New(sg.JSONChain(), verskema.ResolveOpt{Strategy: 9}); err == nil {
		t.Fatalf("unknown strategy accepted by New")
	}
}
