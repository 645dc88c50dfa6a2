// Command protoserde decodes a binary protobuf payload with a .proto schema and
// writes it as JSON, YAML or MessagePack.
//
//	protoserde -I protos -proto shop/order.proto -type shop.Order -in order.bin
//
// The lite engine parses the schema into a registry and decodes with package
// wire. The reflect engine compiles the schema with protocompile and decodes into
// a dynamic message.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/anirudhraja/protoserde"
	"github.com/anirudhraja/protoserde/jsonenc"
	"github.com/anirudhraja/protoserde/loader"
	"github.com/anirudhraja/protoserde/msgpackenc"
	"github.com/anirudhraja/protoserde/pbreflect"
	"github.com/anirudhraja/protoserde/serde"
	"github.com/anirudhraja/protoserde/yamlenc"
)

type stringList []string

func (s *stringList) String() string     { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error { *s = append(*s, v); return nil }

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if err := execute(ctx, args, stdin, stdout, stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		printError(stderr, err)
		return 1
	}
	return 0
}

func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("protoserde", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var imports stringList
	fs.Var(&imports, "I", "import path for .proto files (repeatable)")
	protoFile := fs.String("proto", "", ".proto file describing the payload")
	typeName := fs.String("type", "", "fully qualified message type of the payload")
	in := fs.String("in", "-", "payload file, - for stdin")
	format := fs.String("format", "", "output format: json, yaml or msgpack")
	engine := fs.String("engine", "", "decoding engine: lite or reflect")
	maxDepth := fs.Int("max-depth", 0, "maximum message nesting, 0 for the default")
	indent := fs.String("indent", "", "JSON indentation")
	configPath := fs.String("config", "", "YAML config file")
	list := fs.Bool("list", false, "list the message types of the schema and exit")
	verbose := fs.Bool("v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := slog.New(slog.DiscardHandler)
	if *verbose {
		logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		protoserde.SetLogger(logger)
	}

	cfg := defaultConfig()
	if *configPath != "" {
		if err := loadConfig(*configPath, &cfg); err != nil {
			return err
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "I":
			cfg.ImportPaths = imports
		case "format":
			cfg.Format = *format
		case "engine":
			cfg.Engine = *engine
		case "max-depth":
			cfg.MaxDepth = *maxDepth
		case "indent":
			cfg.Indent = *indent
		}
	})
	if err := cfg.validate(); err != nil {
		return err
	}
	if *protoFile == "" {
		return fmt.Errorf("-proto is required")
	}

	var opts []serde.Option
	if cfg.MaxDepth > 0 {
		opts = append(opts, serde.WithMaxDepth(cfg.MaxDepth))
	}

	if *list {
		return listTypes(ctx, cfg, *protoFile, stdout)
	}
	if *typeName == "" {
		return fmt.Errorf("-type is required")
	}

	data, err := readInput(*in, stdin)
	if err != nil {
		return err
	}
	view, err := decode(ctx, cfg, *protoFile, *typeName, data)
	if err != nil {
		return err
	}
	logger.Debug("payload decoded", "type", view.Name(), "bytes", len(data), "engine", cfg.Engine)
	return write(stdout, cfg, view, opts)
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	return data, nil
}

func decode(ctx context.Context, cfg config, protoFile, typeName string, data []byte) (serde.Message, error) {
	if cfg.Engine == "reflect" {
		set, err := loader.Load(ctx, cfg.ImportPaths, protoFile)
		if err != nil {
			return nil, err
		}
		msg, err := set.Unmarshal(data, typeName)
		if err != nil {
			return nil, err
		}
		return pbreflect.Of(msg), nil
	}

	p := protoserde.New(cfg.ImportPaths)
	if err := p.LoadSchemaFromFile(protoFile); err != nil {
		return nil, err
	}
	view, err := p.View(data, typeName)
	if err != nil {
		return nil, err
	}
	return view, nil
}

func listTypes(ctx context.Context, cfg config, protoFile string, w io.Writer) error {
	var names []string
	if cfg.Engine == "reflect" {
		set, err := loader.Load(ctx, cfg.ImportPaths, protoFile)
		if err != nil {
			return err
		}
		for _, f := range set.Files() {
			msgs := f.Messages()
			for i := 0; i < msgs.Len(); i++ {
				names = append(names, string(msgs.Get(i).FullName()))
			}
		}
	} else {
		p := protoserde.New(cfg.ImportPaths)
		if err := p.LoadSchemaFromFile(protoFile); err != nil {
			return err
		}
		for _, name := range p.ListMessages() {
			if !strings.HasPrefix(name, "google.protobuf.") {
				names = append(names, name)
			}
		}
	}
	for _, name := range names {
		if _, err := fmt.Fprintln(w, name); err != nil {
			return err
		}
	}
	return nil
}

func write(w io.Writer, cfg config, view serde.Message, opts []serde.Option) error {
	switch cfg.Format {
	case "yaml":
		enc := yamlenc.NewEncoder()
		if err := serde.Serialize(enc, view, opts...); err != nil {
			return err
		}
		return enc.Encode(w, 2)
	case "msgpack":
		return serde.Serialize(msgpackenc.NewEncoder(w), view, opts...)
	default:
		var jopts []jsonenc.Option
		if cfg.Indent != "" {
			jopts = append(jopts, jsonenc.WithIndent(cfg.Indent))
		}
		return serde.Serialize(jsonenc.NewEncoder(w, jopts...), view, opts...)
	}
}

func printError(w io.Writer, err error) {
	label := color.New(color.FgRed, color.Bold)
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		label.EnableColor()
	} else {
		label.DisableColor()
	}
	label.Fprint(w, "error:")
	fmt.Fprintf(w, " %v\n", err)
}
