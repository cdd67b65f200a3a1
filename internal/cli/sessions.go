package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSessionsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage stored design sessions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored sessions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, err := a.engine()
			if err != nil {
				return err
			}
			summaries, err := eng.ListSessions()
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				infoStyle.Println("No stored sessions.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SESSION\tSTARTED\tPROJECT\tMESSAGES\tSTATUS")
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
					s.SessionID,
					s.StartedAt.Format("2006-01-02 15:04"),
					s.ProjectName,
					s.MessageCount,
					s.Status)
			}
			return w.Flush()
		},
	})
	return cmd
}
