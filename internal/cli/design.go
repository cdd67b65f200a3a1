package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/designcraft-ai/design-assistant/internal/model"
	"github.com/designcraft-ai/design-assistant/internal/session"
)

var (
	questionStyle = color.New(color.FgCyan, color.Bold)
	infoStyle     = color.New(color.FgBlue)
	warnStyle     = color.New(color.FgYellow)
	okStyle       = color.New(color.FgGreen)
)

func newDesignCommand(a *app) *cobra.Command {
	var (
		projectName    string
		projectType    string
		nonInteractive bool
		maxTurns       int
		outputDir      string
		generate       bool
	)

	cmd := &cobra.Command{
		Use:   "design",
		Short: "Start the interactive design process",
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}

			mode := model.ModeInteractive
			if nonInteractive {
				mode = model.ModeNonInteractive
			} else {
				reader := bufio.NewReader(os.Stdin)
				eng.AskUser = func(question string) (string, error) {
					questionStyle.Println(question)
					fmt.Print("> ")
					line, err := reader.ReadString('\n')
					if err != nil {
						return "", err
					}
					return strings.TrimSpace(line), nil
				}
				eng.ConfirmComplete = func() bool {
					questionStyle.Println("Is the design complete? [y/N]")
					fmt.Print("> ")
					line, err := reader.ReadString('\n')
					if err != nil {
						return false
					}
					return strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "y")
				}
			}
			eng.OnMessage = func(m model.Message) {
				if m.Kind == model.KindText {
					fmt.Println()
					fmt.Println(m.Content)
				}
			}

			infoStyle.Println("Starting design session...")
			conv, path, err := eng.StartSession(cmd.Context(), session.StartOptions{
				ProjectName: projectName,
				ProjectType: model.ParseProjectType(projectType),
				Mode:        mode,
				MaxTurns:    maxTurns,
			})
			if err != nil {
				return err
			}

			switch conv.Status {
			case model.StatusCancelled:
				warnStyle.Println("Session cancelled; progress saved.")
			case model.StatusExhausted:
				warnStyle.Printf("Turn limit reached after %d turns.\n", len(conv.Turns))
			default:
				okStyle.Println("Design session complete.")
			}
			infoStyle.Printf("Transcript: %s\n", path)

			if !generate || conv.Status == model.StatusCancelled {
				return nil
			}

			record, result, err := eng.GenerateDocuments(cmd.Context(), conv.ID, outputDir)
			if err != nil {
				return err
			}
			reportGeneration(record, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectName, "name", "", "Project name")
	cmd.Flags().StringVar(&projectType, "type", "", "Project type (web, cli, api, mobile, desktop, library, other)")
	cmd.Flags().BoolVar(&nonInteractive, "non-interactive", false, "Run without prompting the user")
	cmd.Flags().IntVar(&maxTurns, "max-turns", 0, "Maximum number of turns (0 = configured default)")
	cmd.Flags().StringVar(&outputDir, "output-dir", ".", "Output directory for generated documents")
	cmd.Flags().BoolVar(&generate, "generate", true, "Generate documents when the session completes")
	return cmd
}
