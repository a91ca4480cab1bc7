package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"github.com/morkt/GARbro-sub001/binview"
	"github.com/morkt/GARbro-sub001/compress"
	"github.com/morkt/GARbro-sub001/entry"
	"github.com/morkt/GARbro-sub001/profiles"
	"github.com/morkt/GARbro-sub001/stream"
)

const version = "0.3.0"

var (
	configPath  = flag.String("config", "", "YAML file with additional profiles and index layouts")
	profileName = flag.String("profile", "lzss", "codec profile used to decode the range")
	offset      = flag.Int64("offset", 0, "start of the range within the input")
	length      = flag.Int64("length", -1, "length of the range; -1 means up to the end of the input")
	size        = flag.Int("size", 0, "declared size of the decoded data")
	outPath     = flag.String("o", "", "output file; standard output when empty")
	indexName   = flag.String("index", "", "list the entries of a packed index tree with this layout instead of decoding")
	start       = flag.Int64("start", 0, "offset of the index root node within the range")
	verbose     = flag.Bool("v", false, "log progress")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] input|-\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	if *verbose {
		log.Printf("garbro-decode v%s\n", version)
	}

	// Read the config file.
	cfg := profiles.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = profiles.ReadConfig(*configPath); err != nil {
			log.Fatal(err)
		}
	}

	// Open the input.
	src, closer, err := openInput(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	defer closer.Close()

	n := *length
	if n < 0 {
		n = src.Len() - *offset
	}
	view, err := src.Slice(*offset, n)
	if err != nil {
		log.Fatalf("Range %d+%d: %v\n", *offset, n, err)
	}

	out := io.Writer(os.Stdout)
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		out = f
	}
	w := bufio.NewWriter(out)
	defer w.Flush()

	if *indexName != "" {
		if err := listIndex(w, cfg, view); err != nil {
			log.Fatal(err)
		}
		return
	}
	if err := decode(w, cfg, view); err != nil {
		log.Fatal(err)
	}
}

// openInput opens a file, or buffers standard input when path is "-".
func openInput(path string) (*binview.View, io.Closer, error) {
	if path != "-" {
		return binview.Open(path)
	}
	lazy := stream.NewLazy(os.Stdin)
	v, err := binview.New(lazy, 0, lazy.Size())
	if err != nil {
		return nil, nil, err
	}
	return v, io.NopCloser(os.Stdin), nil
}

func decode(w io.Writer, cfg profiles.Config, view *binview.View) error {
	p, err := cfg.Profile(*profileName)
	if err != nil {
		return err
	}
	d, err := p.Decompressor()
	if err != nil {
		return fmt.Errorf("profile %s: %w", *profileName, err)
	}
	dec, err := p.Decrypter()
	if err != nil {
		return fmt.Errorf("profile %s: %w", *profileName, err)
	}

	packed := d.Algorithm() != compress.None
	unpacked := int64(*size)
	if unpacked <= 0 {
		if packed {
			return fmt.Errorf("-size is required by profile %s", *profileName)
		}
		unpacked = view.Len()
	}

	o, err := entry.NewOpener(view, 0)
	if err != nil {
		return err
	}
	e := entry.Entry{
		Name:         flag.Arg(0),
		Size:         view.Len(),
		UnpackedSize: unpacked,
		Packed:       packed,
	}
	r, err := o.Open(e, d, dec)
	if err != nil {
		return err
	}
	written, err := io.Copy(w, r)
	if err != nil {
		return err
	}
	if *verbose {
		log.Printf("Decoded %d bytes into %d with %s\n", view.Len(), written, d.Algorithm())
	}
	if packed && written != unpacked {
		log.Printf("Warning: declared size %d, got %d\n", unpacked, written)
	}
	return nil
}

func listIndex(w io.Writer, cfg profiles.Config, view *binview.View) error {
	il, err := cfg.Index(*indexName)
	if err != nil {
		return err
	}
	r, err := il.Reader()
	if err != nil {
		return fmt.Errorf("index %s: %w", *indexName, err)
	}
	entries, err := r.Traverse(view, *start)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 8, 1, ' ', 0)
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%#x\t%d\t%d\t%#x\n", e.Name, e.Offset, e.Size, e.UnpackedSize, e.Flags)
	}
	if *verbose {
		log.Printf("Listed %d entries\n", len(entries))
	}
	return tw.Flush()
}
