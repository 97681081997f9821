// feigngen generates feign mocks for Go interfaces.
// Install it with `go install github.com/feigntest/feign/feigngen@latest` and
// add a `//go:generate feigngen <interface>` comment next to the interface to
// mock. By default the mock struct is named Mock<interface>. Add a
// `--name <mockname>` flag for a custom name. The mock is written to
// generated_<mockname>_test.go in the package directory; `--check`
// regenerates in memory and fails with a diff when the file on disk is stale.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dave/dst"
	"github.com/dave/dst/decorator"

	"github.com/feigntest/feign/feigngen/run"
)

func main() {
	err := run.Run(os.Args, &realFileSystem{}, &realPackageLoader{}, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// realFileSystem implements run.FileSystem using the os package.
type realFileSystem struct{}

// ReadFile reads the file named by name and returns the contents.
func (fs *realFileSystem) ReadFile(name string) ([]byte, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", name, err)
	}

	return data, nil
}

// WriteFile writes data to the file named by name.
func (fs *realFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	err := os.WriteFile(name, data, perm)
	if err != nil {
		return fmt.Errorf("failed to write file %s: %w", name, err)
	}

	return nil
}

// realPackageLoader implements run.PackageLoader by direct DST parsing of the
// non-test Go files in a directory. No type checking: mock generation is
// syntax-driven.
type realPackageLoader struct{}

// Load parses the package in dir and returns its DST files.
func (pl *realPackageLoader) Load(dir string) ([]*dst.File, error) {
	names, err := filepath.Glob(filepath.Join(dir, "*.go"))
	if err != nil {
		return nil, fmt.Errorf("glob failed in %s: %w", dir, err)
	}

	var files []*dst.File

	for _, name := range names {
		if run.IsTestFile(name) {
			continue
		}

		src, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", name, err)
		}

		file, err := decorator.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}

		files = append(files, file)
	}

	return files, nil
}
