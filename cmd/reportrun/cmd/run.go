package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tessera-labs/reportrun/internal/csvsource"
	"github.com/tessera-labs/reportrun/internal/engine"
	"github.com/tessera-labs/reportrun/internal/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a report definition against a CSV file",
	Long:  `Runs one view of a report definition against a local CSV file and prints the run result as JSON. No database or API key needed.`,
	RunE:  runOneShot,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("report", "", "report definition JSON file (required)")
	runCmd.Flags().String("csv", "", "CSV data file (required)")
	runCmd.Flags().String("view", "", "view id (defaults to the first view)")
	runCmd.Flags().Int("page", 1, "1-indexed result page")
	runCmd.Flags().Int("page-size", 0, "rows per page (0 uses the view default)")
	runCmd.Flags().StringArray("param", nil, "report parameter as name=value (repeatable)")
	runCmd.MarkFlagRequired("report")
	runCmd.MarkFlagRequired("csv")
}

func runOneShot(cmd *cobra.Command, args []string) error {
	reportPath, _ := cmd.Flags().GetString("report")
	csvPath, _ := cmd.Flags().GetString("csv")
	viewID, _ := cmd.Flags().GetString("view")
	page, _ := cmd.Flags().GetInt("page")
	pageSize, _ := cmd.Flags().GetInt("page-size")
	rawParams, _ := cmd.Flags().GetStringArray("param")

	doc, err := os.ReadFile(reportPath)
	if err != nil {
		return fmt.Errorf("failed to read report definition: %w", err)
	}
	var def types.ReportDefinition
	if err := json.Unmarshal(doc, &def); err != nil {
		return fmt.Errorf("failed to parse report definition: %w", err)
	}
	// A one-shot run binds the CSV as the only dataset.
	if len(def.DatasetIDs) == 0 {
		def.DatasetIDs = []types.DatasetID{types.DatasetID(csvPath)}
	}

	params := make(map[string]string, len(rawParams))
	for _, p := range rawParams {
		name, value, ok := strings.Cut(p, "=")
		if !ok {
			return fmt.Errorf("invalid --param %q (expected name=value)", p)
		}
		params[name] = value
	}

	loader, err := csvsource.Open(csvPath)
	if err != nil {
		return err
	}

	eng := engine.New(loader)
	result, err := eng.Run(cmd.Context(), "local", def, types.RunInput{
		ViewID:     viewID,
		Parameters: params,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
