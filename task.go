// Package remap rewrites a directory tree of Java source files,
// substituting obfuscated field, method and parameter names with readable
// ones from CSV mapping tables and injecting documentation comments above
// field and method declarations.
package remap

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/google/renameio/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/srgtools/remap/csvparser"
	"github.com/srgtools/remap/mapping"
	"github.com/srgtools/remap/rewrite"
)

const (
	fieldsFile  = "fields.csv"
	methodsFile = "methods.csv"
	paramsFile  = "params.csv"
)

// Task is one remapping invocation: load the mapping files from CSVDir,
// mirror the SrcDir tree into OutDir and rewrite every file.
type Task struct {
	ProjectType mapping.ProjectType
	CSVDir      string
	SrcDir      string
	OutDir      string

	// Workers bounds the parallel file rewrites; 0 means one per CPU.
	Workers int
	// Logger receives warnings and per-file errors. It must be safe for
	// concurrent use; logrus loggers are. Defaults to the standard logger.
	Logger logrus.FieldLogger
}

// Run executes the task. Per-file rewrite failures are logged and counted,
// and only surface as a summary error at the end; everything else
// (preconditions, mapping loading) aborts immediately. The output
// directory is reset first and should not be trusted after a failure.
func (t Task) Run() error {
	logger := t.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	csvDir, srcDir, outDir, err := t.checkDirs()
	if err != nil {
		return err
	}

	if err := os.RemoveAll(outDir); err != nil {
		return fmt.Errorf("resetting output directory: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	store, err := LoadStore(csvDir, t.ProjectType, logger)
	if err != nil {
		return err
	}
	nf, nm, np := store.Len()
	logger.Infof("loaded %d field, %d method and %d param mappings", nf, nm, np)

	files, err := mirrorTree(srcDir, outDir, logger)
	if err != nil {
		return err
	}

	workers := t.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	var g errgroup.Group
	g.SetLimit(workers)
	var failed atomic.Int64
	for _, rel := range files {
		rel := rel
		g.Go(func() error {
			if err := rewriteFile(store, filepath.Join(srcDir, rel), filepath.Join(outDir, rel)); err != nil {
				logger.WithError(err).Errorf("rewriting %s failed", rel)
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait() // per-file errors are handled above

	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d files failed", n, len(files))
	}
	logger.Infof("rewrote %d files into %s", len(files), outDir)
	return nil
}

// checkDirs resolves the three directories and enforces the preconditions:
// inputs exist, no directory is nested inside another, and at least one
// mapping file is present.
func (t Task) checkDirs() (csvDir, srcDir, outDir string, err error) {
	if csvDir, err = resolveDir(t.CSVDir); err != nil {
		return
	}
	if srcDir, err = resolveDir(t.SrcDir); err != nil {
		return
	}
	if outDir, err = resolveDir(t.OutDir); err != nil {
		return
	}
	for _, d := range []struct{ name, path string }{
		{"mapping directory", csvDir},
		{"source directory", srcDir},
	} {
		info, statErr := os.Stat(d.path)
		if statErr != nil || !info.IsDir() {
			err = preconditionf("%s %s does not exist or is not a directory", d.name, d.path)
			return
		}
	}
	dirs := []struct{ name, path string }{
		{"mapping directory", csvDir},
		{"source directory", srcDir},
		{"output directory", outDir},
	}
	for i, a := range dirs {
		for _, b := range dirs[i+1:] {
			if isAncestorOrSame(a.path, b.path) || isAncestorOrSame(b.path, a.path) {
				err = preconditionf("%s %s and %s %s overlap", a.name, a.path, b.name, b.path)
				return
			}
		}
	}
	present := 0
	for _, name := range []string{fieldsFile, methodsFile, paramsFile} {
		if _, statErr := os.Stat(filepath.Join(csvDir, name)); statErr == nil {
			present++
		}
	}
	if present == 0 {
		err = preconditionf("no mapping files (%s, %s or %s) in %s", fieldsFile, methodsFile, paramsFile, csvDir)
	}
	return
}

func resolveDir(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err == nil {
		return resolved, nil
	}
	if os.IsNotExist(err) {
		// The output directory may not exist yet.
		return abs, nil
	}
	return "", err
}

func isAncestorOrSame(a, b string) bool {
	rel, err := filepath.Rel(a, b)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// LoadStore loads whichever mapping files exist under csvDir, in parallel,
// and freezes them into a store. Each loader owns its own table until the
// barrier; the store is built only after every loader finished.
func LoadStore(csvDir string, projectType mapping.ProjectType, logger logrus.FieldLogger) (*mapping.Store, error) {
	var (
		fields  map[string]mapping.Member
		methods map[string]mapping.Member
		params  map[string]string
	)
	var g errgroup.Group
	load := func(name string, f func(src csvparser.ChunkSource) error) {
		path := filepath.Join(csvDir, name)
		if _, err := os.Stat(path); err != nil {
			return
		}
		g.Go(func() error {
			fh, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			defer fh.Close()
			if err := f(csvparser.NewReaderChunkSource(fh)); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		})
	}
	load(fieldsFile, func(src csvparser.ChunkSource) error {
		m, err := mapping.LoadFields(src, projectType, logger.WithField("csv", fieldsFile))
		fields = m
		return err
	})
	load(methodsFile, func(src csvparser.ChunkSource) error {
		m, err := mapping.LoadMethods(src, projectType, logger.WithField("csv", methodsFile))
		methods = m
		return err
	})
	load(paramsFile, func(src csvparser.ChunkSource) error {
		m, err := mapping.LoadParams(src, projectType, logger.WithField("csv", paramsFile))
		params = m
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return mapping.NewStore(fields, methods, params), nil
}

// mirrorTree creates the output directory structure and returns the
// relative paths of the regular files to rewrite. Symlinks and other
// non-regular files are skipped with a warning.
func mirrorTree(srcDir, outDir string, logger logrus.FieldLogger) ([]string, error) {
	var files []string
	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			return os.MkdirAll(filepath.Join(outDir, rel), 0o755)
		}
		if !d.Type().IsRegular() {
			logger.Warnf("skipping non-regular file %s", path)
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking source tree: %w", err)
	}
	return files, nil
}

// rewriteFile streams one file through the rewriter. The output is written
// to a pending file and only renamed into place when the whole file
// succeeded, so a failed rewrite leaves no partial file behind.
func rewriteFile(store *mapping.Store, srcPath, outPath string) error {
	in, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer in.Close()

	pf, err := renameio.NewPendingFile(outPath, renameio.WithPermissions(0o644))
	if err != nil {
		return err
	}
	defer pf.Cleanup()

	rw := rewrite.NewRewriter(store, pf)
	if _, err := io.Copy(rw, in); err != nil {
		return err
	}
	if err := rw.Finish(); err != nil {
		return err
	}
	return pf.CloseAtomicallyReplace()
}
