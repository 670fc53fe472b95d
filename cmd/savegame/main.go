// Command savegame inspects, upgrades and writes example save records.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	j "github.com/goccy/go-json"

	"github.com/reoring/verskema"
	"github.com/reoring/verskema/codec"
	"github.com/reoring/verskema/examples/savegame"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	sub := os.Args[1]
	switch sub {
	case "inspect":
		inspectCmd(os.Args[2:])
	case "upgrade":
		upgradeCmd(os.Args[2:])
	case "write":
		writeCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "savegame\n\nUsage:\n  savegame inspect -in save.bin\n  savegame upgrade -in save.bin [-out new.bin]\n  savegame write -version N -in fields.json -out save.bin\n\nCommon flags: -config file.yaml -format auto|json|msgpack|yaml -compress none|zstd|lz4 -strategy eager|lazy -v")
}

// common binds the flags every subcommand shares.
type common struct {
	fs         *flag.FlagSet
	configPath string
	override   Config
	verbose    bool
}

func newCommon(name string) *common {
	c := &common{fs: flag.NewFlagSet(name, flag.ExitOnError)}
	c.fs.StringVar(&c.configPath, "config", "", "YAML config file")
	c.fs.StringVar(&c.override.Format, "format", "", "wire format")
	c.fs.StringVar(&c.override.Compression, "compress", "", "compression envelope")
	c.fs.StringVar(&c.override.Strategy, "strategy", "", "resolution strategy")
	c.fs.Int64Var(&c.override.MaxBytes, "max-bytes", 0, "reject larger records")
	c.fs.StringVar(&c.override.TagKey, "tag-key", "", "top-level key holding the version")
	c.fs.BoolVar(&c.verbose, "v", false, "enable debug logs")
	return c
}

// config loads the file and applies the flags that were set explicitly.
func (c *common) config() (Config, *slog.Logger) {
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		fatalf("%v", err)
	}
	c.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "format":
			cfg.Format = c.override.Format
		case "compress":
			cfg.Compression = c.override.Compression
		case "strategy":
			cfg.Strategy = c.override.Strategy
		case "max-bytes":
			cfg.MaxBytes = c.override.MaxBytes
		case "tag-key":
			cfg.TagKey = c.override.TagKey
		}
	})
	if c.verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.validate(); err != nil {
		fatalf("%v", err)
	}
	level, _ := cfg.level()
	return cfg, verskema.NewTextLogger(level)
}

func inspectCmd(args []string) {
	c := newCommon("inspect")
	var in string
	c.fs.StringVar(&in, "in", "", "record to inspect")
	_ = c.fs.Parse(args)
	if in == "" {
		c.fs.Usage()
		os.Exit(2)
	}
	cfg, log := c.config()
	r := mustResolver(cfg, log)
	ctx := context.Background()

	res, err := r.ResolveWithMeta(ctx, readFile(in))
	if err != nil {
		fatalf("inspect %s: %v", in, err)
	}
	out, err := j.MarshalIndent(struct {
		Matched string          `json:"matched"`
		Latest  string          `json:"latest"`
		Steps   int             `json:"steps"`
		Value   savegame.Latest `json:"value"`
	}{res.Matched.String(), r.Latest().String(), res.Steps, res.Value}, "", "  ")
	if err != nil {
		fatalf("rendering: %v", err)
	}
	fmt.Println(string(out))
}

func upgradeCmd(args []string) {
	c := newCommon("upgrade")
	var in, out string
	c.fs.StringVar(&in, "in", "", "record to upgrade")
	c.fs.StringVar(&out, "out", "", "destination (defaults to -in)")
	_ = c.fs.Parse(args)
	if in == "" {
		c.fs.Usage()
		os.Exit(2)
	}
	if out == "" {
		out = in
	}
	cfg, log := c.config()
	r := mustResolver(cfg, log)
	ctx := context.Background()

	data, res, err := r.Upgrade(ctx, readFile(in))
	if err != nil {
		fatalf("upgrade %s: %v", in, err)
	}
	if res.Steps == 0 && out == in {
		log.Info("already latest", "file", in, "version", res.Matched)
		return
	}
	writeFile(out, data)
	log.Info("upgraded", "file", out, "from", res.Matched, "to", r.Latest(), "steps", res.Steps)
}

func writeCmd(args []string) {
	c := newCommon("write")
	var in, out string
	var version int
	c.fs.StringVar(&in, "in", "", "JSON file with the fields of that version")
	c.fs.StringVar(&out, "out", "", "destination")
	c.fs.IntVar(&version, "version", int(savegame.Latest{}.SchemaVersion()), "schema version to write")
	_ = c.fs.Parse(args)
	if in == "" || out == "" {
		c.fs.Usage()
		os.Exit(2)
	}
	cfg, log := c.config()
	a, err := savegame.AdaptersFor(savegame.Format(cfg.Format), savegame.Compression(cfg.Compression), codec.WithTagKey(cfg.TagKey))
	if err != nil {
		fatalf("%v", err)
	}
	fields := readFile(in)
	var data []byte
	switch verskema.Tag(version) {
	case savegame.V1{}.SchemaVersion():
		data, err = encodeAs(a.V1, fields)
	case savegame.V2{}.SchemaVersion():
		data, err = encodeAs(a.V2, fields)
	case savegame.V3{}.SchemaVersion():
		data, err = encodeAs(a.V3, fields)
	case savegame.V4{}.SchemaVersion():
		data, err = encodeAs(a.V4, fields)
	default:
		fatalf("unknown version %d", version)
	}
	if err != nil {
		fatalf("write %s: %v", out, err)
	}
	writeFile(out, data)
	log.Info("written", "file", out, "version", verskema.Tag(version), "format", a.V1.Format(), "bytes", len(data))
}

// encodeAs reads plain JSON fields into V and encodes them with a.
func encodeAs[V any](a verskema.Adapter[V], fields []byte) ([]byte, error) {
	var v V
	if err := j.Unmarshal(fields, &v); err != nil {
		return nil, fmt.Errorf("parsing fields: %w", err)
	}
	return a.Encode(v)
}

func mustResolver(cfg Config, log *slog.Logger) *verskema.Resolver[savegame.Latest] {
	r, err := cfg.resolver(log, nil)
	if err != nil {
		fatalf("building resolver: %v", err)
	}
	return r
}

func readFile(path string) []byte {
	data, err := os.ReadFile(path)
	if err != nil {
		fatalf("reading %s: %v", path, err)
	}
	return data
}

func writeFile(path string, data []byte) {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fatalf("writing %s: %v", path, err)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, "savegame: "+format+"\n", a...)
	os.Exit(1)
}
