// Package driver compiles a set of declaration documents: it loads them,
// checks declaration placement, and lays out every struct, independent
// structs in parallel.
package driver

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"schemac/internal/decl"
	"schemac/internal/diag"
	"schemac/internal/observ"
	"schemac/internal/resolve"
	"schemac/internal/schema"
	"schemac/internal/source"
	"schemac/internal/translate"
	"schemac/internal/values"
)

// Options controls a compilation.
type Options struct {
	BaseDir        string // paths in diagnostics are shown relative to it
	MaxDiagnostics int
	Jobs           int           // <= 0 means GOMAXPROCS
	Cache          *DiskCache    // nil disables caching
	Timer          *observ.Timer // nil disables timings
}

// NodeResult is the outcome of compiling one struct or enum.
type NodeResult struct {
	Name   string // qualified, e.g. Person.Address
	File   source.FileID
	Node   *schema.Node // nil when the allocator failed
	Bag    *diag.Bag
	Cached bool
}

// Result of Compile. Nodes follow document order, nested declarations after
// their parent.
type Result struct {
	FileSet *source.FileSet
	Files   []*decl.File
	Nodes   []NodeResult
	Bag     *diag.Bag // load and placement diagnostics plus every node's, sorted
}

// CompiledNodes returns the nodes that have a layout.
func (r *Result) CompiledNodes() []schema.Node {
	out := make([]schema.Node, 0, len(r.Nodes))
	for _, n := range r.Nodes {
		if n.Node != nil {
			out = append(out, *n.Node)
		}
	}
	return out
}

type job struct {
	name string
	file source.FileID
	path string
	decl *decl.Decl
}

// Compile loads paths and translates every struct and enum in them. Files
// that cannot be read or decoded are reported as diagnostics and also
// returned, combined, as the error; the rest of the set is still compiled.
func Compile(ctx context.Context, paths []string, opts Options) (*Result, error) {
	log := Logger()
	fs := source.NewFileSetWithBase(opts.BaseDir)
	res := &Result{FileSet: fs, Bag: diag.NewBag(opts.MaxDiagnostics)}
	rep := diag.NewDedupReporter(diag.BagReporter{Bag: res.Bag})

	done := opts.Timer.Track("load")
	var loadErr error
	for _, path := range paths {
		f, err := decl.Load(fs, path, rep)
		if err != nil {
			loadErr = multierr.Append(loadErr, err)
			diag.Errorf(rep, diag.IOLoadFileError, source.Span{File: source.NoFile}, "failed to load %s: %v", path, err)
			log.Warn("load failed", zap.String("path", path), zap.Error(err))
			continue
		}
		res.Files = append(res.Files, f)
	}
	done(fmt.Sprintf("%d files", len(res.Files)))

	done = opts.Timer.Track("check")
	scope := resolve.FromFiles(res.Files...)
	reportRedeclarations(scope, rep)
	var jobs []job
	hashes := make([][32]byte, 0, len(res.Files))
	for _, f := range res.Files {
		hashes = append(hashes, fs.Get(f.ID).Hash)
		translate.CheckMembers(f.Decls, decl.KindFile, rep)
		c := collector{scope: scope, rep: rep, file: f.ID, path: f.Path}
		for _, d := range f.Decls {
			jobs = c.collect(jobs, "", d)
		}
	}
	setDigest := Combine(hashes...)
	done(fmt.Sprintf("%d nodes", len(jobs)))

	done = opts.Timer.Track("translate")
	res.Nodes = make([]NodeResult, len(jobs))
	workers := opts.Jobs
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(workers, len(jobs))))
	for i, j := range jobs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			// Индекс i уникален для горутины, мьютекс не нужен.
			res.Nodes[i] = compileNode(j, scope, setDigest, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	done("")

	for i := range res.Nodes {
		res.Bag.Merge(res.Nodes[i].Bag)
	}
	res.Bag.Sort()
	log.Debug("compiled",
		zap.Int("files", len(res.Files)),
		zap.Int("nodes", len(res.Nodes)),
		zap.Int("diagnostics", res.Bag.Len()),
		zap.Int("suppressed", rep.Suppressed()))
	return res, loadErr
}

// reportRedeclarations reports names declared again in another file. A
// repeat inside one file is a sibling collision, which the member checks
// report.
func reportRedeclarations(scope *resolve.Scope, rep diag.Reporter) {
	for _, r := range scope.Redeclarations() {
		if r.Decl.Name.Span.File == r.Prev.Name.Span.File {
			continue
		}
		diag.ReportError(rep, diag.DeclDuplicateName, r.Decl.Name.Span,
			fmt.Sprintf("'%s' is already defined in another file.", r.Name)).
			WithNote(r.Prev.Name.Span, fmt.Sprintf("'%s' previously defined here.", r.Name)).
			Emit()
	}
}

type collector struct {
	scope *resolve.Scope
	rep   diag.Reporter
	file  source.FileID
	path  string
}

// collect runs placement checks below d and queues every struct and enum.
// A declaration that does not own its name is skipped with everything in it.
func (c collector) collect(jobs []job, prefix string, d *decl.Decl) []job {
	name := d.Name.Value
	if prefix != "" {
		name = prefix + "." + name
	}
	switch d.Kind {
	case decl.KindStruct, decl.KindEnum, decl.KindInterface:
		if !c.scope.Owns(name, d) {
			return jobs
		}
	default:
		return jobs
	}
	if d.Kind != decl.KindInterface {
		jobs = append(jobs, job{name: name, file: c.file, path: c.path, decl: d})
	}
	translate.CheckMembers(d.Nested, d.Kind, c.rep)
	for _, n := range d.Nested {
		jobs = c.collect(jobs, name, n)
	}
	return jobs
}

func compileNode(j job, scope *resolve.Scope, set Digest, opts Options) NodeResult {
	log := Logger().With(zap.String("node", j.name))
	out := NodeResult{Name: j.name, File: j.file, Bag: diag.NewBag(opts.MaxDiagnostics)}
	rep := diag.NewDedupReporter(diag.BagReporter{Bag: out.Bag})
	key := NodeKey(set, j.path, j.name)

	if node, ok, err := opts.Cache.Get(key); err != nil {
		log.Warn("cache read failed", zap.Error(err))
	} else if ok {
		out.Node = node
		out.Cached = true
		return out
	}

	node := &schema.Node{ID: resolve.NodeID(j.name), DisplayName: j.name}
	switch j.decl.Kind {
	case decl.KindStruct:
		node.Struct = &schema.StructNode{}
		tr := translate.New(scope, values.New(scope), rep)
		if err := tr.Translate(j.decl, j.decl.Nested, node.Struct); err != nil {
			diag.ReportError(rep, diag.LayoutInternal, j.decl.Name.Span,
				fmt.Sprintf("internal layout error in '%s': %v", j.name, err)).Emit()
			log.Error("layout failed", zap.Error(err))
			return out
		}
	case decl.KindEnum:
		node.Enum = &schema.EnumNode{}
		translate.TranslateEnum(j.decl.Nested, node.Enum, rep)
	}
	out.Node = node

	// Only clean nodes are cached: a hit must reproduce the same diagnostics.
	if out.Bag.Len() == 0 {
		if err := opts.Cache.Put(key, node); err != nil {
			log.Warn("cache write failed", zap.Error(err))
		}
	}
	return out
}
