package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nihei9/lalrgen/config"
	verr "github.com/nihei9/lalrgen/error"
	"github.com/nihei9/lalrgen/grammar"
	spec "github.com/nihei9/lalrgen/spec/grammar"
	"github.com/npillmayer/schuko/tracing"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var compileFlags = struct {
	output *string
}{}

func init() {
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a grammar definition into LALR(1) parsing tables",
		Example: `  lalrgen compile grammar.yaml -o out
  lalrgen compile grammar.yaml --compress --binary --expect-sr 1`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompile,
	}
	compileFlags.output = cmd.Flags().StringP("output", "o", ".", "output directory or file path of the tables")
	cmd.Flags().Int("max-states", grammar.DefaultMaxStates, "maximum number of states (0 means no limit)")
	cmd.Flags().Int("max-items", grammar.DefaultMaxItems, "maximum number of items over all states (0 means no limit)")
	cmd.Flags().Int("parallelism", 1, "number of goroutines building the automaton")
	cmd.Flags().Int("expect-sr", config.NoExpectation, "expected number of shift/reduce conflicts")
	cmd.Flags().Int("expect-rr", config.NoExpectation, "expected number of reduce/reduce conflicts")
	cmd.Flags().Bool("compress", false, "emit compressed tables")
	cmd.Flags().Bool("report", true, "emit a report")
	cmd.Flags().Bool("binary", false, "emit packed binary tables as well")
	cmd.Flags().String("trace-level", "Error", "trace level [Debug|Info|Error]")
	rootCmd.AddCommand(cmd)
}

func runCompile(cmd *cobra.Command, args []string) (retErr error) {
	cfg, err := config.Load(*rootFlags.config, cmd.Flags())
	if err != nil {
		return err
	}
	tracer().SetTraceLevel(tracing.TraceLevelFromString(cfg.TraceLevel))
	if cfg.FileUsed != "" {
		tracer().Infof("config file: %v", cfg.FileUsed)
	}

	var tmpDirPath string
	defer func() {
		if tmpDirPath == "" {
			return
		}
		os.RemoveAll(tmpDirPath)
	}()

	var grmPath string
	sourceName := "stdin"
	if len(args) > 0 {
		grmPath = args[0]
		sourceName = grmPath
	}
	defer func() {
		if retErr == nil {
			return
		}
		var specErrs verr.SpecErrors
		if errors.As(retErr, &specErrs) {
			for _, err := range specErrs {
				err.FilePath = grmPath
				err.SourceName = sourceName
			}
			return
		}
		var specErr *verr.SpecError
		if errors.As(retErr, &specErr) {
			specErr.FilePath = grmPath
			specErr.SourceName = sourceName
		}
	}()

	if grmPath == "" {
		tmpDirPath, err = os.MkdirTemp("", "lalrgen-compile-*")
		if err != nil {
			return err
		}

		src, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}

		grmPath = filepath.Join(tmpDirPath, "stdin.yaml")
		err = os.WriteFile(grmPath, src, 0600)
		if err != nil {
			return err
		}
	}

	def, err := readDefinition(grmPath)
	if err != nil {
		return err
	}
	if def.Name == "" {
		def.Name = grammarNameFromPath(sourceName)
	}

	b, err := grammar.FromDefinition(def)
	if err != nil {
		return err
	}
	diags := grammar.NewDiagnostics()
	gram, err := b.Source(sourceName, grmPath).Resolve(diags)
	if err != nil {
		printDiagnostics(sourceName, diags)
		return err
	}

	cgram, report, err := grammar.Compile(gram, diags, cfg.CompileOptions()...)
	if err != nil {
		return err
	}
	printDiagnostics(sourceName, diags)

	paths, err := writeOutputs(cgram, report, cfg.Binary, *compileFlags.output)
	if err != nil {
		return fmt.Errorf("cannot write output files: %w", err)
	}
	for _, p := range paths {
		pterm.Success.Println(fmt.Sprintf("wrote %v", p))
	}

	pterm.Info.Println(fmt.Sprintf("%v states, %v shift/reduce conflicts, %v reduce/reduce conflicts",
		cgram.Syntactic.StateCount, diags.SRConflictCount(), diags.RRConflictCount()))

	return cfg.CheckConflicts(diags)
}

func readDefinition(path string) (*spec.Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open the grammar file %s: %w", path, err)
	}
	defer f.Close()

	return spec.ReadDefinition(f)
}

func grammarNameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func printDiagnostics(sourceName string, diags *grammar.Diagnostics) {
	for _, d := range diags.Entries() {
		if d.Row > 0 {
			pterm.Warning.Println(fmt.Sprintf("%v: %v: %v", sourceName, d.Row, d))
			continue
		}
		pterm.Warning.Println(d.String())
	}
}

// writeOutputs writes the tables, the report, and optionally the packed tables, and returns the
// paths it wrote.
//
// When path is a directory, the files are <path>/<grammar-name>.json,
// <path>/<grammar-name>-report.json, and <path>/<grammar-name>.bin.
// Otherwise path names the tables file, and the other files are placed next to it.
func writeOutputs(cgram *spec.CompiledGrammar, report *spec.Report, binary bool, path string) ([]string, error) {
	cgramPath, reportPath, binPath, err := makeOutputFilePaths(cgram.Name, path)
	if err != nil {
		return nil, err
	}

	var paths []string

	err = writeJSON(cgramPath, cgram)
	if err != nil {
		return nil, err
	}
	paths = append(paths, cgramPath)

	if report != nil {
		err = writeJSON(reportPath, report)
		if err != nil {
			return nil, err
		}
		paths = append(paths, reportPath)
	}

	if binary {
		f, err := os.OpenFile(binPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		err = spec.EncodePacked(f, cgram.Syntactic)
		if err != nil {
			return nil, err
		}
		paths = append(paths, binPath)
	}

	return paths, nil
}

func writeJSON(path string, v interface{}) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(f, "%v\n", string(b))
	return err
}

func makeOutputFilePaths(gramName string, path string) (string, string, string, error) {
	reportFileName := gramName + "-report.json"

	fi, err := os.Stat(path)
	if err != nil && !os.IsNotExist(err) {
		return "", "", "", err
	}
	if os.IsNotExist(err) || !fi.IsDir() {
		dir, _ := filepath.Split(path)
		return path, filepath.Join(dir, reportFileName), strings.TrimSuffix(path, filepath.Ext(path)) + ".bin", nil
	}

	return filepath.Join(path, gramName+".json"), filepath.Join(path, reportFileName), filepath.Join(path, gramName+".bin"), nil
}
