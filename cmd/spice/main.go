package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edp1096/mnaspice/pkg/analysis"
	"github.com/edp1096/mnaspice/pkg/config"
	"github.com/edp1096/mnaspice/pkg/netlist"
	"github.com/edp1096/mnaspice/pkg/output"
)

var (
	configFile string
	csvPath    string
	plotPath   string
	asciiChart bool
	solverName string
	method     string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "spice",
		Short:        "modified nodal analysis circuit simulator",
		SilenceUsage: true,
	}

	runCmd := &cobra.Command{
		Use:   "run <netlist>",
		Short: "run every analysis of a netlist",
		Args:  cobra.ExactArgs(1),
		RunE:  runNetlist,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "solver config file path (yaml)")
	runCmd.Flags().StringVar(&csvPath, "csv", "", "write results to csv")
	runCmd.Flags().StringVar(&plotPath, "plot", "", "write a plot image (png, svg, pdf)")
	runCmd.Flags().BoolVar(&asciiChart, "ascii", false, "draw a terminal chart")
	runCmd.Flags().StringVar(&solverName, "solver", "", "linear solver: sparse or dense")
	runCmd.Flags().StringVar(&method, "method", "", "integration method: be, trap, gear2..gear6, am")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log solver diagnostics to stderr")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "print the default solver config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.Write(cmd.OutOrStdout(), config.Default())
		},
	}

	rootCmd.AddCommand(runCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runNetlist(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	nl, err := netlist.ParseFile(args[0], cfg)
	if err != nil {
		return err
	}

	// Flags win over .options
	if solverName != "" {
		nl.Config.Solver = solverName
	}
	if method != "" {
		nl.Config.Integration = method
	}
	if err := nl.Config.Validate(); err != nil {
		return err
	}

	var logOut io.Writer
	if verbose {
		logOut = cmd.ErrOrStderr()
	}
	return simulate(cmd.OutOrStdout(), nl, config.Logger(logOut))
}

// simulate runs the analyses in netlist order and prints each result.
func simulate(w io.Writer, nl *netlist.Netlist, logger *log.Logger) error {
	fmt.Fprintln(w, titleStyle.Render(nl.Title))

	for i, a := range nl.Analyses {
		mem := output.NewMemory()
		sinks := output.Tee{mem}

		if csvPath != "" {
			c, err := output.CreateCSV(numbered(csvPath, a.Name(), i, len(nl.Analyses)))
			if err != nil {
				return err
			}
			sinks = append(sinks, c)
		}
		if plotPath != "" {
			sinks = append(sinks, output.NewPlot(numbered(plotPath, a.Name(), i, len(nl.Analyses)), nl.Title+" "+a.Name()))
		}
		if asciiChart {
			sinks = append(sinks, output.NewASCII(w, a.Name()))
		}

		res, err := analysis.Run(a, nl.Circuit, nl.Config, logger, sinks)
		if err != nil {
			return err
		}
		if res == nil {
			fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("%s: no solution", a.Name())))
			continue
		}
		printResult(w, a.Name(), res)
	}
	return nil
}

// numbered keeps one output file per analysis when a netlist has several.
func numbered(path, name string, idx, total int) string {
	if total == 1 {
		return path
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s_%d_%s%s", strings.TrimSuffix(path, ext), idx+1, name, ext)
}
