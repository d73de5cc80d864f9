// tableflow - tabular data reconciliation pipeline.
// Analyzes, maps, validates, and repairs messy CSV/TSV/XLSX data, then
// delivers the cleaned records to a persistence backend.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// CLI flags
var (
	inputFile  string
	schemaFile string
	outputFile string
	mergeFile  string
	sampleSize int
	dedupe     bool
	verbose    bool

	// Sink flags
	sinkProvider string
	sinkPath     string
	sinkTable    string
	batchSize    int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tableflow",
	Short: "tableflow - reconcile messy tabular data",
	Long: `tableflow analyzes tabular source files (CSV, TSV, XLSX), maps their
columns onto a target schema, validates and repairs the values, and imports
the cleaned records into a persistence backend.`,
	Version: fmt.Sprintf("%s (%s)", version, commit),
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Profile a source file's columns",
	Long: `Sample the file and report per-column type, null and uniqueness profiles
plus free-text recommendations.

Examples:
  tableflow analyze -i contacts.csv
  tableflow analyze -i contacts.xlsx --sample 500`,
	RunE: runAnalyze,
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Infer a schema from a source file",
	Long: `Infer a schema from the file's column profiles and print it as YAML.
With --merge, overlay an existing schema on top of the inferred one;
the existing schema's field properties win on collisions.

Examples:
  tableflow schema -i contacts.csv -o contacts.schema.yaml
  tableflow schema -i contacts.csv --merge base.schema.yaml`,
	RunE: runSchema,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full reconciliation pipeline",
	Long: `Run every stage over the file and print the consolidated result:
field mapping, cleaned row counts, unresolved issues, and suggestions.

Examples:
  tableflow run -i contacts.csv
  tableflow run -i contacts.csv --schema contacts.schema.yaml --dedupe -v`,
	RunE: runPipeline,
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Run the pipeline and deliver records to a sink",
	Long: `Run the pipeline, then import the cleaned records into the configured
backend in sequential batches. A failed batch does not stop later ones;
the exit status reflects partial failure.

Examples:
  tableflow import -i contacts.csv --sink file --path out/records.jsonl
  tableflow import -i contacts.csv --sink duckdb --path contacts.db --table contacts
  tableflow import -i contacts.csv --sink s3`,
	RunE: runImport,
}

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a directory and import new files",
	Long: `Watch a directory for new or updated source files and run the import
flow on each once it stops changing.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	for _, cmd := range []*cobra.Command{analyzeCmd, schemaCmd, runCmd, importCmd} {
		cmd.Flags().StringVarP(&inputFile, "input", "i", "", "input file (csv, tsv, xlsx)")
		cmd.MarkFlagRequired("input")
	}

	analyzeCmd.Flags().IntVar(&sampleSize, "sample", 0, "rows to sample (default 100)")

	schemaCmd.Flags().StringVarP(&outputFile, "output", "o", "", "write schema to file instead of stdout")
	schemaCmd.Flags().StringVar(&mergeFile, "merge", "", "existing schema to overlay on the inferred one")
	schemaCmd.Flags().IntVar(&sampleSize, "sample", 0, "rows to sample (default 100)")

	for _, cmd := range []*cobra.Command{runCmd, importCmd} {
		cmd.Flags().StringVar(&schemaFile, "schema", "", "schema file (yaml or json)")
		cmd.Flags().BoolVar(&dedupe, "dedupe", false, "remove exact duplicate records")
		cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show all diagnostics and transformations")
		cmd.Flags().IntVar(&sampleSize, "sample", 0, "rows to sample (default 100)")
	}

	importCmd.Flags().StringVar(&sinkProvider, "sink", "", "sink provider (file, duckdb, parquet, s3, redis)")
	importCmd.Flags().StringVar(&sinkPath, "path", "", "sink output path")
	importCmd.Flags().StringVar(&sinkTable, "table", "", "sink table name (duckdb)")
	importCmd.Flags().IntVar(&batchSize, "batch-size", 0, "records per batch (default 200)")

	watchCmd.Flags().StringVar(&schemaFile, "schema", "", "schema file (yaml or json)")
	watchCmd.Flags().StringVar(&sinkProvider, "sink", "", "sink provider (file, duckdb, parquet, s3, redis)")
	watchCmd.Flags().StringVar(&sinkPath, "path", "", "sink output path")

	rootCmd.AddCommand(analyzeCmd, schemaCmd, runCmd, importCmd, watchCmd)
}
