// Package run orchestrates feigngen: argument parsing, package loading, mock
// generation, and output. File and package access go through injected seams
// so the pipeline is testable without touching the real filesystem.
package run

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/akedrou/textdiff"
	"github.com/dave/dst"
)

// FileSystem is the file access seam.
type FileSystem interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
}

// PackageLoader is the package parsing seam.
type PackageLoader interface {
	Load(dir string) ([]*dst.File, error)
}

// ErrStale reports that --check found the generated file out of date.
var ErrStale = errors.New("generated mock is stale; rerun feigngen")

// Config is the parsed command line.
type Config struct {
	Interface string
	MockName  string
	Check     bool
}

// Run executes the feigngen pipeline for the given command line.
func Run(args []string, fsys FileSystem, loader PackageLoader, out io.Writer) error {
	cfg, err := parseArgs(args)
	if err != nil {
		return err
	}

	files, err := loader.Load(".")
	if err != nil {
		return err
	}

	src, err := MockSource(files, cfg)
	if err != nil {
		return err
	}

	filename := "generated_" + cfg.MockName + "_test.go"

	if cfg.Check {
		return check(fsys, out, filename, src)
	}

	if err := fsys.WriteFile(filename, []byte(src), 0o644); err != nil {
		return err
	}

	fmt.Fprintf(out, "wrote %s\n", filename)

	return nil
}

func check(fsys FileSystem, out io.Writer, filename, src string) error {
	existing, err := fsys.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("cannot check %s: %w", filename, err)
	}

	if string(existing) == src {
		return nil
	}

	fmt.Fprint(out, textdiff.Unified(
		filename+" (on disk)", filename+" (regenerated)", string(existing), src))

	return ErrStale
}

func parseArgs(args []string) (Config, error) {
	var cfg Config

	rest := args[1:]

	for i := 0; i < len(rest); i++ {
		switch arg := rest[i]; arg {
		case "--name":
			if i+1 >= len(rest) {
				return Config{}, errors.New("--name requires a value")
			}

			i++
			cfg.MockName = rest[i]
		case "--check":
			cfg.Check = true
		default:
			if strings.HasPrefix(arg, "--") {
				return Config{}, fmt.Errorf("unknown flag %q", arg)
			}

			if cfg.Interface != "" {
				return Config{}, fmt.Errorf("unexpected extra argument %q", arg)
			}

			cfg.Interface = arg
		}
	}

	if cfg.Interface == "" {
		return Config{}, errors.New("usage: feigngen [--name MockName] [--check] InterfaceName")
	}

	if cfg.MockName == "" {
		cfg.MockName = "Mock" + cfg.Interface
	}

	return cfg, nil
}

// IsTestFile reports whether name is a Go test file.
func IsTestFile(name string) bool {
	return strings.HasSuffix(name, "_test.go")
}
