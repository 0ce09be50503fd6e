package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"shelf/internal/analyzer"
	"shelf/internal/chunker"
	"shelf/internal/config"
	"shelf/internal/embedder"
	"shelf/internal/llm"
	"shelf/internal/rag"
	"shelf/internal/vectorstore"
)

var (
	flagOutput string
	flagPrint  bool
)

var readmeCmd = &cobra.Command{
	Use:   "readme <project-dir>",
	Short: "Generate a README for a project with the RAG pipeline",
	Long: `Readme analyzes the Python source of one project, indexes it in the
configured vector store, retrieves the fragments most relevant to the
project's purpose, and asks the language model to draft a README.

The result is written to README_GENERATED.md inside the project unless
-o names another location.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		root, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		project, err := analyzer.AnalyzeProject(root)
		if err != nil {
			return fmt.Errorf("analyze project: %w", err)
		}
		chunks := chunker.ChunkProject(project)
		log.Info().
			Str("project", project.Name).
			Int("files", project.FileCount).
			Int("functions", project.TotalFunctions).
			Int("classes", project.TotalClasses).
			Int("chunks", len(chunks)).
			Msg("analyzed project")

		vs, closeVS, err := openVectorStore(cfg)
		if err != nil {
			return err
		}
		defer closeVS()

		gen := rag.NewReadmeGenerator(
			llm.NewOllama(cfg.Ollama.Host, cfg.Ollama.LLMModel),
			embedder.NewOllama(cfg.Ollama.Host, cfg.Ollama.EmbedModel),
			vs,
		)

		readme, err := gen.GenerateReadme(ctx, project, chunks)
		if err != nil {
			return fmt.Errorf("generate readme: %w", err)
		}

		out := flagOutput
		if out == "" {
			out = filepath.Join(root, "README_GENERATED.md")
		}
		if err := os.WriteFile(out, []byte(readme), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		log.Info().Str("path", out).Msg("readme written")

		if flagPrint {
			rendered, err := glamour.Render(readme, "auto")
			if err != nil {
				// Fall back to the raw markdown.
				rendered = readme
			}
			fmt.Fprint(cmd.OutOrStdout(), rendered)
		}
		return nil
	},
}

// openVectorStore builds the configured vector store backend. The returned
// func releases any held resources.
func openVectorStore(cfg *config.Config) (rag.VectorStore, func(), error) {
	switch cfg.Vector.Backend {
	case config.BackendChroma:
		vs, err := vectorstore.NewChroma(cfg.Vector.ChromaURL)
		if err != nil {
			return nil, nil, err
		}
		return vs, func() {}, nil
	case config.BackendSQLite:
		vs, err := vectorstore.OpenSQLiteVec(cfg.Vector.DBPath, cfg.Vector.Dim)
		if err != nil {
			return nil, nil, err
		}
		return vs, func() { vs.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown vector backend %q", cfg.Vector.Backend)
	}
}

func init() {
	readmeCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output path (default <project>/README_GENERATED.md)")
	readmeCmd.Flags().BoolVar(&flagPrint, "print", false, "render the generated README to the terminal")
	rootCmd.AddCommand(readmeCmd)
}
