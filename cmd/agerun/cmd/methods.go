package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var methodsCmd = &cobra.Command{
	Use:   "methods",
	Short: "Inspect and manage the methodology registry",
}

var methodsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered method names and versions",
	RunE:  runMethodsList,
}

var methodsRegisterCmd = &cobra.Command{
	Use:   "register <name> <version> <source-file>",
	Short: "Register a method version from a source file",
	Args:  cobra.ExactArgs(3),
	RunE:  runMethodsRegister,
}

var methodsImportCmd = &cobra.Command{
	Use:   "import-catalog <catalog.yaml>",
	Short: "Register every method in a YAML catalog",
	Long: `The catalog is a YAML list of entries:

  - name: echo
    version: 1.0.0
    source_file: methods/echo.txt

source_file paths are resolved relative to the catalog file.`,
	Args: cobra.ExactArgs(1),
	RunE: runMethodsImport,
}

var methodsUnregisterCmd = &cobra.Command{
	Use:   "unregister <name> <version>",
	Short: "Unregister a method version, destroying any agent running it",
	Args:  cobra.ExactArgs(2),
	RunE:  runMethodsUnregister,
}

func init() {
	rootCmd.AddCommand(methodsCmd)
	methodsCmd.AddCommand(methodsListCmd)
	methodsCmd.AddCommand(methodsRegisterCmd)
	methodsCmd.AddCommand(methodsImportCmd)
	methodsCmd.AddCommand(methodsUnregisterCmd)
}

func runMethodsList(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}

	names := append([]string(nil), rt.MethodNames()...)
	col := collate.New(language.Und)
	col.SortStrings(names)

	out := cmd.OutOrStdout()
	for _, name := range names {
		versions := rt.MethodVersions(name)
		versionStrs := make([]string, len(versions))
		for i, m := range versions {
			versionStrs[i] = m.Version()
		}
		col.SortStrings(versionStrs)
		fmt.Fprintf(out, "%s: %v\n", name, versionStrs)
	}
	return nil
}

func runMethodsRegister(cmd *cobra.Command, args []string) error {
	name, version, sourceFile := args[0], args[1], args[2]

	source, err := os.ReadFile(sourceFile)
	if err != nil {
		return fmt.Errorf("reading %s: %w", sourceFile, err)
	}

	rt, err := openRuntime()
	if err != nil {
		return err
	}
	if err := rt.RegisterMethod(name, version, string(source)); err != nil {
		return fmt.Errorf("registering %s %s: %w", name, version, err)
	}
	return rt.Save()
}

type catalogEntry struct {
	Name       string `yaml:"name"`
	Version    string `yaml:"version"`
	SourceFile string `yaml:"source_file"`
}

func runMethodsImport(cmd *cobra.Command, args []string) error {
	catalogPath := args[0]
	data, err := os.ReadFile(catalogPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", catalogPath, err)
	}

	var entries []catalogEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parsing catalog %s: %w", catalogPath, err)
	}

	rt, err := openRuntime()
	if err != nil {
		return err
	}

	base := filepath.Dir(catalogPath)
	for _, e := range entries {
		sourcePath := e.SourceFile
		if !filepath.IsAbs(sourcePath) {
			sourcePath = filepath.Join(base, sourcePath)
		}
		source, err := os.ReadFile(sourcePath)
		if err != nil {
			return fmt.Errorf("reading %s: %w", sourcePath, err)
		}
		if err := rt.RegisterMethod(e.Name, e.Version, string(source)); err != nil {
			return fmt.Errorf("registering %s %s: %w", e.Name, e.Version, err)
		}
		if verbose {
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s %s from %s\n", e.Name, e.Version, sourcePath)
		}
	}
	return rt.Save()
}

func runMethodsUnregister(cmd *cobra.Command, args []string) error {
	name, version := args[0], args[1]

	rt, err := openRuntime()
	if err != nil {
		return err
	}
	if !rt.UnregisterMethod(name, version) {
		return fmt.Errorf("no such method %s %s", name, version)
	}
	return rt.Save()
}
