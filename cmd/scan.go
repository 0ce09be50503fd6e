package cmd

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"shelf/internal/scanner"
	"shelf/internal/store"
)

var scanCmd = &cobra.Command{
	Use:   "scan <dir>",
	Short: "Scan a directory of projects into the catalog",
	Long: `Scan treats every direct subdirectory of <dir> as one project,
collects its metadata (README, back-link, repository URL, last
modification time), and upserts it into the catalog database.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		parent, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		catalog, err := store.Open(cfg.Catalog.DBPath)
		if err != nil {
			return fmt.Errorf("open catalog: %w", err)
		}
		defer catalog.Close()

		projects, err := scanner.ScanProjects(parent)
		if err != nil {
			return fmt.Errorf("scan %s: %w", parent, err)
		}

		ctx := cmd.Context()
		for _, dir := range projects {
			md := scanner.Collect(ctx, dir)
			if err := catalog.Upsert(toProject(md)); err != nil {
				return err
			}
			log.Info().Str("project", md.Name).Str("repo", md.RepoURL).Msg("cataloged")
		}

		log.Info().Int("projects", len(projects)).Str("db", cfg.Catalog.DBPath).Msg("scan complete")
		return nil
	},
}

func toProject(md scanner.Metadata) store.Project {
	p := store.Project{
		Name: md.Name,
		Path: md.Path,
	}
	if md.ReadmePath != "" {
		p.ReadmePath = sql.NullString{String: md.ReadmePath, Valid: true}
	}
	if md.BacklinkPage != "" {
		p.BacklinkPage = sql.NullString{String: md.BacklinkPage, Valid: true}
	}
	if md.RepoURL != "" {
		p.RepoURL = sql.NullString{String: md.RepoURL, Valid: true}
	}
	if md.HasLastModified {
		p.LastModified = sql.NullTime{Time: md.LastModified, Valid: true}
	}
	return p
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
