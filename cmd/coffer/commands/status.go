package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cofferdb/coffer-go/pkg/engine"
	"github.com/cofferdb/coffer-go/pkg/lifecycle"
)

// statusReport is the JSON shape of the status command output.
type statusReport struct {
	DataDir     string                   `json:"data_dir"`
	CatalogPath string                   `json:"catalog_path,omitempty"`
	Engine      engineReport             `json:"engine"`
	Connections []lifecycle.RecordStatus `json:"connections"`
	MostRecent  string                   `json:"most_recently_used,omitempty"`
}

type engineReport struct {
	Path       string           `json:"path,omitempty"`
	Source     string           `json:"source,omitempty"`
	Features   []engine.Feature `json:"features"`
	Generation uint64           `json:"generation,omitempty"`
}

func newStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show engine and connection status",
		Long: `Bind the engine, probe its optional liveness features, and list every
pooled connection record with its validity and generation.`,
		Example: `  # Human-readable status
  coffer status

  # Machine-readable status
  coffer status --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			r, err := openRuntime(ctx)
			if err != nil {
				return err
			}
			defer r.Close(ctx)

			info, err := r.super.EngineInfo(ctx)
			if err != nil {
				return err
			}

			report := statusReport{
				DataDir:     r.cfg.DataDir,
				Connections: r.super.Status(),
				MostRecent:  r.super.Pool().MostRecentlyUsed(),
				Engine: engineReport{
					Features:   info.Features,
					Generation: info.Generation,
				},
			}
			if r.cfg.Catalog.Enabled {
				report.CatalogPath = r.cfg.CatalogPath()
			}
			if img, ok := r.binder.Image(); ok {
				report.Engine.Path = img.Path
				report.Engine.Source = img.Source
			}

			if jsonOutput {
				return printJSON(report)
			}
			printStatus(report)
			return nil
		},
	}

	return cmd
}

func printStatus(report statusReport) {
	fmt.Println("Engine:")
	if report.Engine.Path != "" {
		fmt.Printf("  Path:        %s\n", report.Engine.Path)
	}
	fmt.Printf("  Source:      %s\n", report.Engine.Source)
	fmt.Printf("  Features:    %s\n", featureList(report.Engine.Features))
	if report.Engine.Generation > 0 {
		fmt.Printf("  Generation:  %d\n", report.Engine.Generation)
	}

	fmt.Printf("\nData dir:  %s\n", report.DataDir)
	if report.CatalogPath != "" {
		fmt.Printf("Catalog:   %s\n", report.CatalogPath)
	} else {
		fmt.Printf("Catalog:   disabled\n")
	}

	if len(report.Connections) == 0 {
		fmt.Println("\nConnections: none")
		return
	}
	fmt.Println("\nConnections:")
	fmt.Printf("  %-20s %-10s %-11s %-6s %s\n", "NAME", "HANDLE", "GENERATION", "VALID", "LAST USED")
	for _, rec := range report.Connections {
		fmt.Printf("  %-20s %-10d %-11d %-6v %s\n",
			rec.Database, rec.Handle, rec.Generation, rec.Valid, rec.LastUsed.Format("2006-01-02 15:04:05"))
	}
}

func featureList(features []engine.Feature) string {
	if len(features) == 0 {
		return "none"
	}
	names := make([]string, len(features))
	for i, f := range features {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
