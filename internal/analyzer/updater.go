package analyzer

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/standardbeagle/cpg/internal/analyzer/methodlookup"
	"github.com/standardbeagle/cpg/internal/analyzer/typeinfer"
	"github.com/standardbeagle/cpg/internal/astcache"
	"github.com/standardbeagle/cpg/internal/errors"
	"github.com/standardbeagle/cpg/internal/grammar"
	"github.com/standardbeagle/cpg/internal/ignore"
	"github.com/standardbeagle/cpg/internal/ingestor"
	"github.com/standardbeagle/cpg/internal/logx"
	"github.com/standardbeagle/cpg/internal/registry"
	"github.com/standardbeagle/cpg/internal/types"
)

// Stats summarizes one run, the "counts (nodes, relationships,
// duration)" §7 says the driver reports on completion.
type Stats struct {
	FilesScanned int
	FilesParsed  int
	FilesFailed  int
	Definitions  int
	Calls        int
	Overrides    int
	Duration     time.Duration
}

// GraphUpdater orchestrates the five passes (§2/§4.8), owning every
// piece of shared state: the registry, AST cache, import map, and
// class-inheritance map. One GraphUpdater is created per ingestion
// run; there is no ambient/global state (§9's last design note).
type GraphUpdater struct {
	sink    ingestor.Sink
	grammar grammar.Loader

	reg     *registry.FunctionRegistry
	cache   *astcache.Cache
	imports types.ImportMap
	inherit types.ClassInheritance

	moduleByPath map[string]types.QN
	pathByModule map[types.QN]string
	langByPath   map[string]types.Language

	importResolver *ImportResolver
	methodLocator  *methodlookup.Locator
}

// New builds a GraphUpdater. cacheMaxEntries/cacheMaxMemoryBytes size
// the bounded AST cache (§3 defaults: 1000 entries / 500 MiB).
func New(sink ingestor.Sink, loader grammar.Loader, cacheMaxEntries int, cacheMaxMemoryBytes int64) *GraphUpdater {
	u := &GraphUpdater{
		sink:         sink,
		grammar:      loader,
		reg:          registry.New(),
		cache:        astcache.New(cacheMaxEntries, cacheMaxMemoryBytes),
		imports:      make(types.ImportMap),
		inherit:      make(types.ClassInheritance),
		moduleByPath: make(map[string]types.QN),
		pathByModule: make(map[types.QN]string),
		langByPath:   make(map[string]types.Language),
	}
	// methodLocator shares moduleByPath's inverse map and the AST cache
	// by reference, so it sees every file registered/evicted for the
	// lifetime of this GraphUpdater without needing to be rebuilt.
	u.methodLocator = methodlookup.New(u.cache, u.pathByModule)
	return u
}

// Run executes all five passes against root and flushes the sink.
// Per-file failures are recoverable (§7): a parse failure skips that
// file's definitions/calls but never aborts the run. Only a sink
// flush failure, or "no parsers loaded at all", is fatal.
func (u *GraphUpdater) Run(root string, ignorePatterns []string) (Stats, error) {
	start := time.Now()
	stats := Stats{}

	structure := NewStructureProcessor(u.sink, ignore.New(ignorePatterns))
	structResult, err := structure.Scan(root)
	if err != nil {
		return stats, err
	}
	stats.FilesScanned = len(structResult.Files)

	moduleIndex := make(map[string]types.QN, len(structResult.Files))
	for _, f := range structResult.Files {
		moduleIndex[f.BarePath] = f.ModuleQN
		u.moduleByPath[f.Path] = f.ModuleQN
		u.pathByModule[f.ModuleQN] = f.Path
		u.langByPath[f.Path] = f.Language
	}
	u.importResolver = NewImportResolver(moduleIndex)

	parsed, parseFailures := u.parseAndDefine(structResult.Files, u.importResolver)
	stats.FilesParsed = len(parsed)
	stats.FilesFailed = parseFailures
	stats.Definitions = u.reg.Len()

	if stats.FilesParsed == 0 && stats.FilesScanned > 0 {
		return stats, errors.New(errors.ErrorTypeConfig, "run", fmt.Errorf("no files were parsed from %s", root)).Fatal()
	}

	callCount, err := u.processCalls(parsed)
	if err != nil {
		return stats, err
	}
	stats.Calls = callCount

	overrideCount, err := u.processOverrides()
	if err != nil {
		return stats, err
	}
	stats.Overrides = overrideCount

	if err := u.sink.FlushAll(); err != nil {
		return stats, errors.New(errors.ErrorTypeIngest, "flush all", err).Fatal()
	}

	stats.Duration = time.Since(start)
	logx.Infof("run complete: %d files, %d definitions, %d calls, %d overrides in %s",
		stats.FilesParsed, stats.Definitions, stats.Calls, stats.Overrides, stats.Duration)
	return stats, nil
}

type parsedFile struct {
	path     string
	lang     types.Language
	moduleQN types.QN
}

// parseAndDefine is pass 2 (§2 item 2): parse every source file once,
// store its tree in the AST cache, then walk it with
// DefinitionProcessor. Imports are built from the same parse so
// CallResolver has a populated ImportMap before pass 3 starts.
func (u *GraphUpdater) parseAndDefine(files []SourceFile, importResolver *ImportResolver) ([]parsedFile, int) {
	defProc := NewDefinitionProcessor(u.sink, u.reg, u.inherit)

	var parsed []parsedFile
	failures := 0

	for _, f := range files {
		source, err := os.ReadFile(f.Path)
		if err != nil {
			logx.Warnf("definitions: read %s: %v", f.Path, err)
			failures++
			continue
		}

		parser, err := u.grammar.Parser(f.Language)
		if err != nil {
			logx.Warnf("definitions: no parser for %s (%s): %v", f.Path, f.Language, err)
			failures++
			continue
		}
		tree := parser.Parse(source, nil)
		if tree == nil {
			logx.Warnf("definitions: parse failed for %s", f.Path)
			failures++
			continue
		}
		root := tree.RootNode()

		u.cache.Set(f.Path, astcache.Entry{Tree: tree, Language: f.Language, Source: source})

		u.imports[f.ModuleQN] = importResolver.BuildImportMap(f.Language, root, f.ModuleQN, source)

		moduleRef, err := u.sink.EnsureNode(types.NodeModule, map[string]any{
			"qn": string(f.ModuleQN), "path": f.Path, "language": string(f.Language),
		})
		if err != nil {
			logx.Warnf("definitions: ensure module node for %s: %v", f.Path, err)
			failures++
			continue
		}

		if err := defProc.Process(f.Language, root, f.ModuleQN, moduleRef, source); err != nil {
			logx.Warnf("definitions: %s: %v", f.Path, err)
			failures++
			continue
		}

		parsed = append(parsed, parsedFile{path: f.Path, lang: f.Language, moduleQN: f.ModuleQN})
	}
	return parsed, failures
}

// processCalls is pass 3 (§4.7): re-fetch each cached tree and walk it
// for call sites, with a fresh per-language type-inference engine and
// a CallResolver bound to the now-complete registry/import/inherit
// state (pass 2 has fully finished, satisfying §5's ordering
// guarantee "all definitions from pass 2 complete before any call in
// pass 3 is resolved").
func (u *GraphUpdater) processCalls(parsed []parsedFile) (int, error) {
	resolver := NewCallResolver(u.reg, u.imports, u.inherit)

	total := 0
	// Snapshot items() before iterating, per §9: "the definitions/calls
	// passes already snapshot the AST-cache item list for this reason".
	items := append([]parsedFile(nil), parsed...)

	for _, f := range items {
		entry, ok := u.cache.Get(f.path)
		if !ok {
			continue
		}
		engine := typeinfer.New(f.lang, u.reg, u.imports, u.inherit, nil, u.methodLocator)
		proc := NewCallProcessor(u.sink, resolver, engine, f.lang)

		emitted, err := proc.Process(entry.Tree.RootNode(), f.moduleQN, entry.Source)
		if err != nil {
			logx.Warnf("calls: %s: %v", f.path, err)
			continue
		}
		total += emitted
	}
	return total, nil
}

func (u *GraphUpdater) processOverrides() (int, error) {
	proc := NewOverrideProcessor(u.sink, u.reg, u.inherit)
	return proc.Run()
}

// RemoveFileFromState purges every registry entry, simple-name-index
// entry, and cached AST under path's module prefix, per §4.8's
// incremental re-ingest contract.
func (u *GraphUpdater) RemoveFileFromState(path string) {
	moduleQN, ok := u.moduleByPath[path]
	if !ok {
		return
	}

	prefix := string(moduleQN)
	for _, qn := range u.reg.Keys() {
		s := string(qn)
		if s == prefix || strings.HasPrefix(s, prefix+types.SeparatorDot) {
			u.reg.Delete(qn)
		}
	}
	delete(u.imports, moduleQN)
	delete(u.inherit, moduleQN)

	for _, p := range u.cache.PathsWithPrefix(path) {
		u.cache.Delete(p)
	}
	u.cache.Delete(path)

	delete(u.moduleByPath, path)
	delete(u.pathByModule, moduleQN)
	delete(u.langByPath, path)
}

// ReingestFile re-runs all passes for a single previously-ingested
// file, the incremental half of §4.8's re-ingest contract (the other
// half, RemoveFileFromState, only purges). It reports false without
// doing any work when the file's content hash matches what's already
// cached, so a caller driven by an external change notification never
// pays for a re-parse of a file nobody touched.
func (u *GraphUpdater) ReingestFile(path string) (bool, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return false, errors.New(errors.ErrorTypeIngest, "reingest", err).Fatal()
	}
	if u.cache.Unchanged(path, source) {
		logx.Debugf("reingest: %s content unchanged, skipping", path)
		return false, nil
	}

	moduleQN, hasModule := u.moduleByPath[path]
	lang, hasLang := u.langByPath[path]
	if !hasModule || !hasLang {
		return false, errors.New(errors.ErrorTypeConfig, "reingest", fmt.Errorf("%s was never ingested by Run", path)).Fatal()
	}
	if u.importResolver == nil {
		return false, errors.New(errors.ErrorTypeConfig, "reingest", fmt.Errorf("reingest called before Run")).Fatal()
	}

	u.RemoveFileFromState(path)
	u.moduleByPath[path] = moduleQN
	u.pathByModule[moduleQN] = path
	u.langByPath[path] = lang

	parser, err := u.grammar.Parser(lang)
	if err != nil {
		return false, errors.New(errors.ErrorTypeConfig, "reingest", err).Fatal()
	}
	tree := parser.Parse(source, nil)
	if tree == nil {
		return false, errors.New(errors.ErrorTypeParse, "reingest", fmt.Errorf("parse failed for %s", path)).WithFile(path)
	}
	root := tree.RootNode()
	u.cache.Set(path, astcache.Entry{Tree: tree, Language: lang, Source: source})

	defProc := NewDefinitionProcessor(u.sink, u.reg, u.inherit)
	moduleRef, err := u.sink.EnsureNode(types.NodeModule, map[string]any{
		"qn": string(moduleQN), "path": path, "language": string(lang),
	})
	if err != nil {
		return false, errors.New(errors.ErrorTypeIngest, "reingest", err).Fatal()
	}
	if err := defProc.Process(lang, root, moduleQN, moduleRef, source); err != nil {
		return false, err
	}

	u.imports[moduleQN] = u.importResolver.BuildImportMap(lang, root, moduleQN, source)

	resolver := NewCallResolver(u.reg, u.imports, u.inherit)
	engine := typeinfer.New(lang, u.reg, u.imports, u.inherit, nil, u.methodLocator)
	proc := NewCallProcessor(u.sink, resolver, engine, lang)
	if _, err := proc.Process(root, moduleQN, source); err != nil {
		return false, err
	}

	if _, err := u.processOverrides(); err != nil {
		return false, err
	}
	if err := u.sink.FlushAll(); err != nil {
		return false, errors.New(errors.ErrorTypeIngest, "reingest flush", err).Fatal()
	}
	return true, nil
}
