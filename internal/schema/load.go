package schema

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// LoadMode controls how errors are handled while loading a schema directory.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Load error codes (E001-E099)
const (
	ErrCodeGeneric     = "E001" // generic/unknown error
	ErrCodeScanError   = "E002" // directory scan error
	ErrCodeNoFiles     = "E003" // no CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeNoEntities  = "E007" // no entity declarations
	ErrCodeCompile     = "E008" // entity failed to compile
)

// LoadResult contains the types compiled from a schema directory.
type LoadResult struct {
	Types     []TypeSpec
	FileCount int
}

// LoadError represents an error that occurred while loading a schema.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadDir loads and compiles every entity declared in the CUE package at dir.
// Types are returned sorted by name. Validate is not run.
func LoadDir(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}
	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}
	if err := value.Validate(); err != nil {
		return nil, []error{buildError(err)}
	}

	result, errs := compileEntities(value, mode)
	if result != nil {
		result.FileCount = len(files)
	}
	return result, errs
}

// LoadString compiles entity declarations from CUE source.
func LoadString(src string) (*LoadResult, []error) {
	value := cuecontext.New().CompileString(src)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}
	if err := value.Validate(); err != nil {
		return nil, []error{buildError(err)}
	}
	return compileEntities(value, LoadModeCollectAll)
}

func compileEntities(value cue.Value, mode LoadMode) (*LoadResult, []error) {
	var errs []error
	result := &LoadResult{}

	entities := value.LookupPath(cue.ParsePath("entity"))
	if !entities.Exists() {
		return result, []error{&LoadError{Code: ErrCodeNoEntities, Message: "no entity declarations found"}}
	}
	iter, err := entities.Fields()
	if err != nil {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating entities: %v", err)}}
	}
	for iter.Next() {
		spec, err := CompileEntity(iter.Value())
		if err != nil {
			errs = append(errs, convertCompileError(err, "entity."+iter.Label()))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Types = append(result.Types, *spec)
	}
	sort.Slice(result.Types, func(i, j int) bool {
		return result.Types[i].Name < result.Types[j].Name
	})
	if len(result.Types) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeNoEntities, Message: "no entity declarations found"})
	}
	return result, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// buildError keeps the position of the first CUE error.
func buildError(err error) *LoadError {
	loadErr := &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	var compileErr *CompileError
	if errors.As(formatCUEError(err), &compileErr) {
		loadErr.Pos = compileErr.Pos
	}
	return loadErr
}

func convertCompileError(err error, context string) *LoadError {
	var compileErr *CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeCompile,
			Message: fmt.Sprintf("%s: %s: %s", context, compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}
