// Package compiler runs the whole XLSForm pipeline: build, resolve, itext
// assembly and XForm generation.
package compiler

import (
	"context"
	"time"

	"github.com/beevik/etree"
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/mbolis/quick-xform/aliases"
	"github.com/mbolis/quick-xform/builder"
	"github.com/mbolis/quick-xform/itext"
	"github.com/mbolis/quick-xform/log"
	"github.com/mbolis/quick-xform/resolve"
	"github.com/mbolis/quick-xform/survey"
	"github.com/mbolis/quick-xform/xform"
)

// Options tune a compilation.
type Options struct {
	FormName        string
	FormID          string
	DefaultLanguage string
	// Included holds the workbooks that "include" rows refer to, by name.
	Included map[string]builder.Workbook
	// Types is the question type table. Nil means the default table.
	Types aliases.Table
	// Indent is the pretty print unit. Empty writes compact XML.
	Indent string
}

func (o Options) build() builder.Options {
	return builder.Options{
		FormName:        o.FormName,
		FormID:          o.FormID,
		DefaultLanguage: o.DefaultLanguage,
		Included:        o.Included,
		Types:           o.Types,
	}
}

// Result is a compiled form.
type Result struct {
	Survey   *survey.Survey
	Itext    *itext.Table
	Document *etree.Document
	XML      []byte
	Warnings []string
}

// FormID is the id of the compiled form.
func (r *Result) FormID() string {
	return r.Survey.IDString
}

// Title is the title of the compiled form.
func (r *Result) Title() string {
	return r.Survey.Title
}

// Version is the version setting of the compiled form.
func (r *Result) Version() string {
	return r.Survey.Version
}

// JSON encodes the survey definition. Compiling it with CompileJSON gives
// the same XML.
func (r *Result) JSON() ([]byte, error) {
	return r.Survey.MarshalJSON()
}

// Compile builds wb and renders it.
func Compile(wb builder.Workbook, opts Options) (*Result, error) {
	s, warnings, err := builder.Build(wb, opts.build())
	if err != nil {
		return nil, errors.Wrap(err, "build")
	}
	return finish(s, warnings, opts)
}

// CompileJSON renders a survey definition encoded by Result.JSON.
func CompileJSON(data []byte, opts Options) (*Result, error) {
	s, warnings, err := builder.FromJSON(data, opts.build())
	if err != nil {
		return nil, errors.Wrap(err, "build")
	}
	return finish(s, warnings, opts)
}

func finish(s *survey.Survey, warnings []string, opts Options) (*Result, error) {
	if err := resolve.Resolve(s); err != nil {
		return nil, errors.Wrap(err, "resolve")
	}
	table, more := itext.Assemble(s)
	warnings = append(warnings, more...)
	doc, err := xform.Generate(s, table, xform.Options{Indent: opts.Indent})
	if err != nil {
		return nil, errors.Wrap(err, "generate")
	}
	out, err := xform.Bytes(doc)
	if err != nil {
		return nil, err
	}
	return &Result{Survey: s, Itext: table, Document: doc, XML: out, Warnings: warnings}, nil
}

// Stats counts the compilations of a Compiler.
type Stats struct {
	Compiled int64
	Failed   int64
	Warnings int64
}

// Compiler compiles workbooks with fixed options and logs each run. It is
// safe for concurrent use.
type Compiler struct {
	opts     Options
	compiled atomic.Int64
	failed   atomic.Int64
	warnings atomic.Int64
}

func New(opts Options) *Compiler {
	return &Compiler{opts: opts}
}

// Options returns the options the compiler was created with.
func (c *Compiler) Options() Options {
	return c.opts
}

// Compile compiles wb. name identifies the workbook in logs and is the
// fallback form id.
func (c *Compiler) Compile(ctx context.Context, name string, wb builder.Workbook) (*Result, error) {
	opts := c.opts
	if name != "" {
		opts.FormID = name
	}
	return c.run(ctx, name, func() (*Result, error) { return Compile(wb, opts) })
}

// CompileJSON compiles a survey definition.
func (c *Compiler) CompileJSON(ctx context.Context, name string, data []byte) (*Result, error) {
	return c.run(ctx, name, func() (*Result, error) { return CompileJSON(data, c.opts) })
}

func (c *Compiler) run(ctx context.Context, name string, compile func() (*Result, error)) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	res, err := compile()
	entry := log.WithFields(log.Fields{"form": name, "duration": time.Since(start)})
	if err != nil {
		c.failed.Inc()
		entry.WithError(err).Debug("compiler.compile: failed")
		return nil, err
	}
	c.compiled.Inc()
	c.warnings.Add(int64(len(res.Warnings)))
	entry.WithFields(log.Fields{"form_id": res.FormID(), "warnings": len(res.Warnings)}).Debug("compiler.compile: done")
	for _, w := range res.Warnings {
		entry.Trace("compiler.compile: warning: ", w)
	}
	return res, nil
}

// Stats returns the counters since the compiler was created.
func (c *Compiler) Stats() Stats {
	return Stats{Compiled: c.compiled.Load(), Failed: c.failed.Load(), Warnings: c.warnings.Load()}
}
