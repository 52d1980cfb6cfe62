// Command xls2xform compiles a workbook document into an XForm.
//
//	xls2xform [-json] [-pretty=false] [-default-language L] workbook.json|.yaml [output.xml]
//
// With -json the input is a survey definition written by a previous
// compilation. Warnings go to stderr.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/mbolis/quick-xform/builder"
	"github.com/mbolis/quick-xform/compiler"
	"github.com/mbolis/quick-xform/log"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		log.Error("xls2xform:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	log.SetOutput(stderr)

	fs := flag.NewFlagSet("xls2xform", flag.ContinueOnError)
	fs.SetOutput(stderr)
	def := fs.Bool("json", false, "input is a survey definition JSON")
	pretty := fs.Bool("pretty", true, "indent the output")
	lang := fs.String("default-language", "", "default language when the settings sheet names none")
	debug := fs.Bool("debug", false, "log at DEBUG level")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *debug {
		log.SetLevel(log.DebugLevel)
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		return errors.New("usage: xls2xform [flags] workbook [output.xml]")
	}

	in := fs.Arg(0)
	data, err := os.ReadFile(in)
	if err != nil {
		return errors.Wrap(err, "read input")
	}
	name := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))

	opts := compiler.Options{DefaultLanguage: *lang}
	if *pretty {
		opts.Indent = "  "
	}
	c := compiler.New(opts)

	var res *compiler.Result
	if *def {
		res, err = c.CompileJSON(context.Background(), name, data)
	} else {
		var wb builder.Workbook
		wb, err = decode(in, data)
		if err != nil {
			return err
		}
		res, err = c.Compile(context.Background(), name, wb)
	}
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		fmt.Fprintln(stderr, "Warning:", w)
	}

	if fs.NArg() == 1 {
		_, err = stdout.Write(res.XML)
		return err
	}
	return errors.Wrap(os.WriteFile(fs.Arg(1), res.XML, 0o644), "write output")
}

func decode(path string, data []byte) (builder.Workbook, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return builder.ParseWorkbookYAML(data)
	default:
		return builder.ParseWorkbook(data)
	}
}
