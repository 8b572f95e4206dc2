// Copyright (c) 2012 Jason Summers
// Use of this code is governed by an MIT-style license that can
// be found in the readme.md file.

// Command bmpconv converts between BMP, PNM (PGM, PPM, PAM, PFM) and
// farbfeld images.
//
// Usage:
//
//	bmpconv [flags] input output
//	bmpconv -info input...
//	bmpconv -list
//
// The input format is detected from its contents, the output format from
// the output file's extension. An output of "-" writes to standard output
// in the format named by -format.
package main

import "context"
import "flag"
import "fmt"
import "io"
import "log"
import "os"
import "time"

import "golang.org/x/term"
import "golang.org/x/text/language"
import "golang.org/x/text/message"

import "github.com/jsummers/gobitmap"
import "github.com/jsummers/gobitmap/autodetect"

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] input output\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "       %s -info input...\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "       %s -list\n", os.Args[0])
	flag.PrintDefaults()
}

func readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

func writeOutput(name string, data []byte) error {
	if name == "-" {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("refusing to write image data to a terminal")
		}
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(name, data, 0o666)
}

func describe(p *message.Printer, name string, hdr gobitmap.Header) string {
	pixels := uint64(hdr.Width) * uint64(hdr.Height)
	return p.Sprintf("%s: %v %d×%d, %v, %d pixels, %d bytes decoded",
		name, hdr.Format, hdr.Width, hdr.Height, hdr.Layout,
		pixels, pixels*uint64(hdr.Layout.BytesPerPixel()))
}

func main() {
	configFile := flag.String("config", "", "read settings from this YAML `file`")
	perm := flag.String("permissiveness", "standard", "input validation: strict, standard or permissive")
	native := flag.Bool("native", false, "keep color decodes in the file's BGR order")
	maxPixels := flag.Uint64("max-pixels", 0, "refuse images with more than `n` pixels (0: config default)")
	timeout := flag.Duration("timeout", 0, "give up after this long (0: no limit)")
	scale := flag.Float64("scale", 1, "resize by this `factor`")
	filter := flag.String("filter", "catmullrom", "resampling filter: catmullrom, bilinear or nearest")
	formatName := flag.String("format", "bmp", "output format when writing to standard output")
	info := flag.Bool("info", false, "print a summary of each input and exit")
	list := flag.Bool("list", false, "list the supported formats and exit")
	verbose := flag.Bool("v", false, "report progress")
	flag.Usage = usage
	flag.Parse()

	log.SetFlags(0)
	log.SetPrefix("bmpconv: ")

	if *list {
		for _, name := range autodetect.Names() {
			f, _ := autodetect.ByName(name)
			fmt.Printf("%-9s %s\n", name, f.Extension())
		}
		return
	}

	if *info {
		if flag.NArg() == 0 {
			usage()
			os.Exit(2)
		}
		p := message.NewPrinter(language.English)
		failed := false
		for _, name := range flag.Args() {
			data, err := readInput(name)
			if err == nil {
				var hdr gobitmap.Header
				hdr, err = autodetect.Probe(data)
				if err == nil {
					fmt.Println(describe(p, name, hdr))
					continue
				}
			}
			log.Printf("%s: %v", name, err)
			failed = true
		}
		if failed {
			os.Exit(1)
		}
		return
	}

	if flag.NArg() != 2 {
		usage()
		os.Exit(2)
	}
	inName, outName := flag.Arg(0), flag.Arg(1)

	cfg := defaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = loadConfig(*configFile); err != nil {
			log.Fatal(err)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "permissiveness":
			cfg.Permissiveness = *perm
		case "native":
			cfg.NativeOrder = *native
		case "max-pixels":
			cfg.Limits.MaxPixels = *maxPixels
		case "timeout":
			cfg.Timeout = timeout.String()
		}
	})

	var format gobitmap.Format
	var ok bool
	if outName == "-" {
		format, ok = autodetect.ByName(*formatName)
	} else {
		format, ok = autodetect.ByFilename(outName)
	}
	if !ok {
		log.Fatalf("%s: unknown output format", outName)
	}
	interp, ok := filters[*filter]
	if !ok {
		log.Fatalf("unknown filter %q", *filter)
	}
	if !(*scale > 0) {
		log.Fatalf("bad scale factor %g", *scale)
	}

	c := &converter{
		format: format,
		scale:  *scale,
		interp: interp,
	}
	if *verbose {
		c.logf = log.Printf
	}
	if err := run(c, cfg, inName, outName); err != nil {
		log.Fatal(err)
	}
}

// run converts inName to outName. c's options and stop are filled in from
// cfg.
func run(c *converter, cfg *config, inName, outName string) error {
	ctx := context.Background()
	d, err := cfg.timeout()
	if err != nil {
		return err
	}
	if d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	c.stop = gobitmap.ContextStop(ctx)
	if c.opts, err = cfg.decoderOptions(c.stop); err != nil {
		return err
	}

	data, err := readInput(inName)
	if err != nil {
		return err
	}
	start := time.Now()
	out, err := c.convert(data)
	if err != nil {
		return fmt.Errorf("%s: %w", inName, err)
	}
	if err = writeOutput(outName, out); err != nil {
		return err
	}
	c.log("wrote %s (%d bytes) in %v", outName, len(out), time.Since(start).Round(time.Millisecond))
	return nil
}
