package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/felo/vmsg-viewer/internal/parser"
	"github.com/felo/vmsg-viewer/internal/scanner"
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index the archive folder and exit",
	Long:  `Scans the archive folder and indexes every .vcf and .vmg file not indexed yet.`,
	Args:  cobra.NoArgs,
	RunE:  runIndex,
}

var parseCmd = &cobra.Command{
	Use:   "parse FILE",
	Short: "Print the block tree of a .vcf or .vmg file as JSON",
	Long: `Parses one file without touching the index and prints every top-level
block as JSON. The root block type follows the file extension unless
--container is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

var parseContainer string

func init() {
	parseCmd.Flags().StringVar(&parseContainer, "container", "", "root block type, e.g. VCARD or VMSG")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(parseCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	result, err := newIndexer(database, cfg, true).IndexAll(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d found, %d new, %d skipped, %d failed\n",
		result.TotalFound, result.NewIndexed, result.Skipped, result.Failed)
	for _, path := range result.FailedFiles {
		fmt.Fprintf(cmd.ErrOrStderr(), "failed: %s\n", path)
	}
	return nil
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := args[0]
	container := strings.ToUpper(strings.TrimSpace(parseContainer))
	if container == "" {
		container = parser.ContainerVCard
		if kind, _ := scanner.KindOf(path); kind == scanner.KindMessages {
			container = parser.ContainerVMsg
		}
	}

	roots, err := parser.ParseFileTree(path, cfg.Charset, container)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(roots)
}
