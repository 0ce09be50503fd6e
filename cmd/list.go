package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"shelf/internal/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cataloged projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		catalog, err := store.Open(cfg.Catalog.DBPath)
		if err != nil {
			return fmt.Errorf("open catalog: %w", err)
		}
		defer catalog.Close()

		projects, err := catalog.List()
		if err != nil {
			return fmt.Errorf("list projects: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tREPO\tLAST MODIFIED\tPATH")
		for _, p := range projects {
			repo := "-"
			if p.RepoURL.Valid {
				repo = p.RepoURL.String
			}
			modified := "-"
			if p.LastModified.Valid {
				modified = p.LastModified.Time.Format("2006-01-02")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name, repo, modified, p.Path)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
