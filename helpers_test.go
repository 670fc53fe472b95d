package verskema_test

import (
	"sync"
	"testing"

	"github.com/reoring/verskema"
	"github.com/reoring/verskema/codec/json"
	sg "github.com/reoring/verskema/examples/savegame"
)

var (
	sampleV1 = sg.V1{Name: "Joker", Level: 1, LastReachedLevel: 2, CoinsAmount: 1000}
	sampleV2 = sg.V2{Name: "Ada", Level: 3, LastReachedLevel: 5, Resources: []sg.Resource{{ID: sg.Gold, Amount: 7}, {ID: "Gems", Amount: 2}}}
	sampleV3 = sg.V3{Name: "Lin", Level: 8, LastReachedLevel: 9, Resources: []sg.Resource{{ID: sg.Gold, Amount: 40}},
		Skins: []string{sg.DefaultSkin, "Ninja"}, EquippedSkinID: "Ninja"}
	sampleV4 = sg.V4{Name: "Max", Level: 20, LastReachedLevel: 21, LastAvailableLevel: 31,
		Resources: []sg.Resource{{ID: sg.Gold, Amount: 1}}, Skins: []string{sg.DefaultSkin}, EquippedSkinID: sg.DefaultSkin}
)

// encodedSamples encodes one sample per version with a and returns them
// with the latest value each one must resolve to.
func encodedSamples(t testing.TB, a sg.Adapters) []sample {
	t.Helper()
	enc := func(b []byte, err error) []byte {
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		return b
	}
	return []sample{
		{tag: 1, data: enc(a.V1.Encode(sampleV1)), want: sg.MigrateV3ToV4(sg.MigrateV2ToV3(sg.MigrateV1ToV2(sampleV1))), steps: 3},
		{tag: 2, data: enc(a.V2.Encode(sampleV2)), want: sg.MigrateV3ToV4(sg.MigrateV2ToV3(sampleV2)), steps: 2},
		{tag: 3, data: enc(a.V3.Encode(sampleV3)), want: sg.MigrateV3ToV4(sampleV3), steps: 1},
		{tag: 4, data: enc(a.V4.Encode(sampleV4)), want: sampleV4, steps: 0},
	}
}

type sample struct {
	tag   verskema.Tag
	data  []byte
	want  sg.V4
	steps int
}

func jsonAdapters() sg.Adapters {
	return sg.Adapters{
		V1: json.Adapter[sg.V1](),
		V2: json.Adapter[sg.V2](),
		V3: json.Adapter[sg.V3](),
		V4: json.Adapter[sg.V4](),
	}
}

// decodeLog records the order in which adapters were asked to decode.
type decodeLog struct {
	mu   sync.Mutex
	tags []verskema.Tag
}

func (l *decodeLog) add(t verskema.Tag) {
	l.mu.Lock()
	l.tags = append(l.tags, t)
	l.mu.Unlock()
}

func (l *decodeLog) snapshot() []verskema.Tag {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]verskema.Tag(nil), l.tags...)
}

type recording[V any] struct {
	verskema.Adapter[V]
	log *decodeLog
}

func (r recording[V]) Decode(data []byte) (verskema.Option[V], error) {
	r.log.add(r.Tag())
	return r.Adapter.Decode(data)
}

func recordingAdapters(log *decodeLog) sg.Adapters {
	a := jsonAdapters()
	return sg.Adapters{
		V1: recording[sg.V1]{a.V1, log},
		V2: recording[sg.V2]{a.V2, log},
		V3: recording[sg.V3]{a.V3, log},
		V4: recording[sg.V4]{a.V4, log},
	}
}

// greedyV2 claims every record, ignoring its tag.
type greedyV2 struct{}

func (greedyV2) Tag() verskema.Tag { return 2 }
func (greedyV2) Format() string    { return "greedy" }
func (greedyV2) Decode([]byte) (verskema.Option[sg.V2], error) {
	return verskema.Some(sg.V2{Name: "greedy"}), nil
}
func (greedyV2) Encode(sg.V2) ([]byte, error) { return []byte("{}"), nil }

var strategies = []verskema.Strategy{verskema.StrategyEager, verskema.StrategyLazy}
