package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"wisp/internal/driver"
	"wisp/internal/project"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] [file]",
	Short: "Build a wisp package into a WebAssembly text module",
	Long: "Build a wisp package. With no argument the package is defined by " +
		"the nearest wisp.toml; otherwise the given file is the package root.",
	Args: cobra.MaximumNArgs(1),
	RunE: buildExecution,
}

func init() {
	buildCmd.Flags().String("package", "", "package name (defaults to the manifest or file name)")
	buildCmd.Flags().StringP("output", "o", "out.wat", "output file")
	buildCmd.Flags().Bool("no-output", false, "type-check only, write nothing")
	buildCmd.Flags().Bool("no-std", false, "do not load the standard library")
	buildCmd.Flags().StringSlice("debug", nil,
		"debug categories: tokens, ast, resolved, typecked, wat, wasm-validate")
}

func buildExecution(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	noOutput, _ := cmd.Flags().GetBool("no-output")
	noStd, _ := cmd.Flags().GetBool("no-std")
	pkgName, _ := cmd.Flags().GetString("package")
	debugList, _ := cmd.Flags().GetStringSlice("debug")
	maxDiag, _ := cmd.Flags().GetInt("max-diagnostics")

	debug := make(map[string]bool, len(debugList))
	for _, cat := range debugList {
		switch cat {
		case "tokens", "ast", "resolved", "typecked", "wat", "wasm-validate":
			debug[cat] = true
		default:
			return fmt.Errorf("unknown debug category %q", cat)
		}
	}

	var (
		input   string
		depDirs map[string]string
	)
	manifest, manifestFound, err := project.LoadManifest(".")
	if err != nil {
		return err
	}
	switch {
	case len(args) == 1:
		input = args[0]
		if pkgName == "" {
			pkgName = strings.TrimSuffix(filepath.Base(input), ".wisp")
		}
		if manifestFound {
			depDirs = manifestDeps(manifest)
		}
	case manifestFound:
		input = manifest.MainFile()
		if pkgName == "" {
			pkgName = manifest.Config.Package.Name
		}
		depDirs = manifestDeps(manifest)
	default:
		return errors.New("no wisp.toml found; pass the package root file explicitly")
	}

	cache, err := driver.OpenDiskCache("wisp")
	if err != nil {
		// caching is an optimization, never a build failure
		cache = nil
	}

	code := driver.Run(driver.Options{
		PackageName:    pkgName,
		Input:          input,
		Output:         output,
		NoOutput:       noOutput,
		NoStd:          noStd,
		Debug:          debug,
		MaxDiagnostics: maxDiag,
		Color:          useColor(cmd),
		DepDirs:        depDirs,
		Cache:          cache,
	})
	if code != 0 {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		os.Exit(code)
	}
	return nil
}

func manifestDeps(m *project.Manifest) map[string]string {
	deps := make(map[string]string, len(m.Config.Deps))
	for name := range m.Config.Deps {
		if dir, ok := m.DepDir(name); ok {
			deps[name] = dir
		}
	}
	return deps
}
