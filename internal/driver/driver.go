package driver

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"fortio.org/safecast"
	"golang.org/x/sync/errgroup"

	"starcheck/internal/check"
	"starcheck/internal/contract"
	"starcheck/internal/diag"
)

// DeclSuffix marks contract declaration files.
const DeclSuffix = ".star.toml"

// Options configure a checking pass.
type Options struct {
	Validator       *check.Validator
	MaxDiagnostics  int
	EnableDiskCache bool
}

// FileResult is the outcome of checking one declaration file.
type FileResult struct {
	Path      string
	Callables []*contract.Callable
	Bag       *diag.Bag
	FromCache bool
}

// listDeclFiles returns a sorted list of all *.star.toml files under dir.
func listDeclFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, DeclSuffix) {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	// Deterministic order
	sort.Strings(files)
	return files, nil
}

func (o *Options) validator() *check.Validator {
	if o.Validator != nil {
		return o.Validator
	}
	return check.New(check.DefaultConfig())
}

func (o *Options) newBag() (*diag.Bag, error) {
	maxDiag := o.MaxDiagnostics
	if maxDiag <= 0 {
		maxDiag = 100
	}
	capped, err := safecast.Conv[uint16](maxDiag)
	if err != nil {
		return nil, fmt.Errorf("max diagnostics overflow: %w", err)
	}
	return diag.NewBag(int(capped)), nil
}

func (o *Options) openCache() *DiskCache {
	if !o.EnableDiskCache {
		return nil
	}
	cache, err := OpenDiskCache("starcheck")
	if err != nil {
		// A broken cache dir never fails the pass, it just disables caching.
		return nil
	}
	return cache
}

// CheckFile loads, decodes and validates one declaration file. I/O and
// decode failures become diagnostics in the returned bag, not errors: the
// pass always completes and reports what it found.
func CheckFile(ctx context.Context, path string, opts Options) (*FileResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return checkOne(path, &opts, opts.openCache())
}

func checkOne(path string, opts *Options, cache *DiskCache) (*FileResult, error) {
	bag, err := opts.newBag()
	if err != nil {
		return nil, err
	}
	result := &FileResult{Path: path, Bag: bag}

	data, err := os.ReadFile(path)
	if err != nil {
		bag.Add(diag.NewError(diag.IOLoadFileError, diag.Subject{File: path},
			"failed to load file: "+err.Error()))
		return result, nil
	}

	validator := opts.validator()

	if cache != nil {
		key := CacheKey(data, validator.Config())
		var payload DiskPayload
		if ok, _ := cache.Get(key, &payload); ok && payload.Path == path {
			payload.FillBag(bag)
			result.FromCache = true
			// Callables still come from a fresh decode so bind and
			// tooling callers see them; diagnostics come from the cache.
			result.Callables, _ = contract.Decode(path, data)
			return result, nil
		}
	}

	callables, err := contract.Decode(path, data)
	if err != nil {
		bag.Add(diag.NewError(diag.DeclParse, diag.Subject{File: path}, err.Error()))
		return result, nil
	}
	result.Callables = callables

	reporter := diag.BagReporter{Bag: bag}
	contract.VerifyDecls(path, callables, reporter)
	for _, c := range callables {
		validator.Validate(c, reporter)
	}

	if cache != nil {
		key := CacheKey(data, validator.Config())
		_ = cache.Put(key, NewDiskPayload(path, validator.Config(), bag))
	}
	return result, nil
}

// CheckDir checks all *.star.toml files under dir in parallel. Each file
// gets its own goroutine and its own diagnostic bag, so no sink is shared
// across workers (contract validations within one file stay sequential).
func CheckDir(ctx context.Context, dir string, opts Options, jobs int) ([]FileResult, error) {
	files, err := listDeclFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// The cache handle is opened once and shared; DiskCache is
	// goroutine-safe.
	cache := opts.openCache()

	// Indexes are unique per goroutine, no mutex needed.
	results := make([]FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			res, err := checkOne(path, &opts, cache)
			if err != nil {
				return err
			}
			results[i] = *res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// HasErrors reports whether any file in the result set produced an error
// diagnostic. The CLI turns this into a non-zero exit code.
func HasErrors(results []FileResult) bool {
	for i := range results {
		if results[i].Bag != nil && results[i].Bag.HasErrors() {
			return true
		}
	}
	return false
}
