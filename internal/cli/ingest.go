package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"studyrag/internal/adapter/fs"
	"studyrag/internal/usecase"
)

var (
	ingestSubject        string
	ingestSubjectFromDir bool
	ingestForce          bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Ingest study documents",
	Long: `Ingest a .txt/.md file or every matching file under a directory.
Files already ingested and unchanged since are skipped; modified files
replace their previous copy.

Examples:
  studyrag ingest notes/ --subject Physics   # One subject for every file
  studyrag ingest notes/ --subject-from-dir  # Subject from top-level folder
  studyrag ingest lecture3.md -s Chemistry   # A single file`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVarP(&ingestSubject, "subject", "s", "", "subject label (default from config)")
	ingestCmd.Flags().BoolVar(&ingestSubjectFromDir, "subject-from-dir", false, "use each file's top-level directory as its subject")
	ingestCmd.Flags().BoolVar(&ingestForce, "force", false, "re-ingest files even when unchanged")
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := GetRootDir()
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if !info.IsDir() {
		return ingestFile(cmd, a.Engine, path)
	}

	fmt.Printf("Scanning %s...\n", path)

	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	var startTime time.Time

	progressCallback := func(processed, total int, currentFile string) {
		barMu.Lock()
		defer barMu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Ingesting[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}

		bar.Set(processed)

		if processed > 0 {
			elapsed := time.Since(startTime)
			rate := float64(processed) / elapsed.Seconds()
			remaining := total - processed
			if rate > 0 {
				eta := time.Duration(float64(remaining)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]Ingesting[reset] ETA: %s", formatDuration(eta)))
			}
		}
	}

	result, err := a.Indexer.Index(cmd.Context(), path, usecase.IndexOptions{
		Subject:        ingestSubject,
		SubjectFromDir: ingestSubjectFromDir,
		Force:          ingestForce,
	}, progressCallback)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("\nIngestion complete:\n")
	fmt.Printf("  Files ingested: %d\n", result.FilesIndexed)
	fmt.Printf("  Files skipped:  %d (unchanged)\n", result.FilesSkipped)
	fmt.Printf("  Files replaced: %d (modified)\n", result.FilesReplaced)
	fmt.Printf("  Too short:      %d\n", result.FilesEmpty)
	fmt.Printf("  Chunks created: %d\n", result.ChunksCreated)

	if len(result.Errors) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}

	return nil
}

func ingestFile(cmd *cobra.Command, engine *usecase.Engine, path string) error {
	text, err := fs.TextReader{}.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	doc, err := engine.Ingest(cmd.Context(), usecase.IngestRequest{
		Text:     text,
		Filename: filepath.Base(path),
		Subject:  ingestSubject,
	})
	if err != nil {
		return err
	}

	if doc.ChunkCount == 0 {
		fmt.Printf("%s is too short to index; nothing stored\n", doc.Filename)
		return nil
	}
	fmt.Printf("Ingested %s as %s (%s, %d chunks)\n", doc.Filename, doc.ID, doc.Subject, doc.ChunkCount)
	return nil
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
