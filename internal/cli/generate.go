package cli

import (
	"github.com/spf13/cobra"

	"github.com/designcraft-ai/design-assistant/internal/docgen"
	"github.com/designcraft-ai/design-assistant/internal/model"
)

func newGenerateCommand(a *app) *cobra.Command {
	var (
		sessionID string
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate project documents from a stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}
			record, result, err := eng.GenerateDocuments(cmd.Context(), sessionID, outputDir)
			if err != nil {
				return err
			}
			reportGeneration(record, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID (see 'sessions list')")
	cmd.Flags().StringVar(&outputDir, "output-dir", ".", "Output directory for generated documents")
	cmd.MarkFlagRequired("session")
	return cmd
}

func reportGeneration(record *model.DesignRecord, result *docgen.Result) {
	okStyle.Printf("Documents for %s:\n", record.ProjectName)
	for _, d := range result.Documents {
		if d.Err != nil {
			warnStyle.Printf("  %s: failed: %v\n", d.FileName, d.Err)
			continue
		}
		okStyle.Printf("  %s: %s\n", d.FileName, d.Path)
	}
}
