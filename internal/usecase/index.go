package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"studyrag/internal/domain"
	"studyrag/internal/logger"
	"studyrag/internal/port"
)

// IndexUseCase ingests a directory of study material through the engine.
type IndexUseCase struct {
	engine *Engine
	walker port.FileWalker
	reader port.FileReader
}

// NewIndexUseCase creates a new index use case.
func NewIndexUseCase(engine *Engine, walker port.FileWalker, reader port.FileReader) *IndexUseCase {
	return &IndexUseCase{
		engine: engine,
		walker: walker,
		reader: reader,
	}
}

// IndexOptions controls how files are labelled.
type IndexOptions struct {
	// Subject applied to every file. Empty falls back to SubjectFromDir.
	Subject string
	// SubjectFromDir labels each file with its top-level directory name.
	SubjectFromDir bool
	// Force re-ingests files even when an up-to-date copy is registered.
	Force bool
}

// IndexResult contains the results of an indexing operation.
type IndexResult struct {
	FilesIndexed  int
	FilesSkipped  int
	FilesReplaced int
	FilesEmpty    int
	ChunksCreated int
	Errors        []string
}

// ProgressFunc reports progress after each file.
type ProgressFunc func(processed, total int, currentFile string)

// Index ingests every file the walker finds under root. Files are
// registered under their slash-separated path relative to root; a file
// whose registered copy is at least as new as the file is skipped, and an
// older copy is deleted once the file has been ingested again. Per-file
// failures are collected rather than aborting the run.
func (u *IndexUseCase) Index(ctx context.Context, root string, opts IndexOptions, progress ProgressFunc) (*IndexResult, error) {
	result := &IndexResult{}

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	listed, err := u.engine.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list existing documents: %w", err)
	}
	existing := make(map[string]domain.Document, len(listed.Documents))
	for _, doc := range listed.Documents {
		existing[doc.Filename] = doc
	}

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		rel, err := filepath.Rel(root, file.Path)
		if err != nil {
			rel = filepath.Base(file.Path)
		}
		rel = filepath.ToSlash(rel)

		prev, registered := existing[rel]
		if registered && !opts.Force && !prev.UploadedAt.Before(time.Unix(file.ModTime, 0)) {
			result.FilesSkipped++
			report(progress, i+1, len(files), rel)
			continue
		}

		doc, err := u.indexFile(ctx, file, rel, opts)
		switch {
		case err != nil:
			logger.Warnf("failed to index %s: %v", rel, err)
			result.Errors = append(result.Errors, fmt.Sprintf("failed to index %s: %v", rel, err))
		case doc.ChunkCount == 0:
			result.FilesEmpty++
		default:
			result.FilesIndexed++
			result.ChunksCreated += doc.ChunkCount
		}

		// The previous copy goes only once its replacement is stored.
		if registered && err == nil {
			if _, err := u.engine.DeleteDocument(ctx, prev.ID); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("failed to remove previous copy of %s: %v", rel, err))
			} else {
				result.FilesReplaced++
			}
		}

		report(progress, i+1, len(files), rel)
	}

	logger.Infof("indexed %s: %d new, %d replaced, %d skipped, %d failed",
		root, result.FilesIndexed, result.FilesReplaced, result.FilesSkipped, len(result.Errors))
	return result, nil
}

func (u *IndexUseCase) indexFile(ctx context.Context, file port.FileInfo, rel string, opts IndexOptions) (domain.Document, error) {
	content, err := u.reader.ReadFile(file.Path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to read file: %w", err)
	}

	return u.engine.Ingest(ctx, IngestRequest{
		Text:     content,
		Filename: rel,
		Subject:  subjectFor(rel, opts),
	})
}

// subjectFor picks the subject label of a file.
func subjectFor(rel string, opts IndexOptions) string {
	if opts.Subject != "" {
		return opts.Subject
	}
	if opts.SubjectFromDir {
		if dir, _, found := strings.Cut(rel, "/"); found {
			return dir
		}
	}
	return ""
}

func report(progress ProgressFunc, processed, total int, current string) {
	if progress != nil {
		progress(processed, total, current)
	}
}
