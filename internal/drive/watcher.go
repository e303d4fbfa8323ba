package drive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/replenish/internal/ingest"
)

// DownloadOptions controls how files are pulled from Google Drive.
type DownloadOptions struct {
	FolderID    string
	DownloadDir string
}

// Downloader pulls analysis inputs out of a Drive folder.
type Downloader struct {
	source Source
}

func NewDownloader(s Source) *Downloader {
	return &Downloader{source: s}
}

// DownloadFolder downloads every workbook in the folder and returns one
// input path per workbook. Loose sales, inventory and SKU master CSV files
// are collected into a "csv" subdirectory, which is returned as one extra
// input when all three are present.
func (d *Downloader) DownloadFolder(ctx context.Context, opts DownloadOptions) ([]string, error) {
	if opts.DownloadDir == "" {
		return nil, fmt.Errorf("download dir is required")
	}
	if err := os.MkdirAll(opts.DownloadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}

	files, err := d.source.ListFiles(ctx, opts.FolderID)
	if err != nil {
		return nil, err
	}

	csvDir := filepath.Join(opts.DownloadDir, "csv")
	csvSeen := make(map[string]bool)

	var inputs []string
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := strings.ToLower(f.Name)
		switch {
		case f.IsSpreadsheet() || strings.HasSuffix(name, ".xlsx") || strings.HasSuffix(name, ".xlsm"):
			localName := f.Name
			if f.IsSpreadsheet() {
				localName += ".xlsx"
			}
			path := filepath.Join(opts.DownloadDir, filepath.Base(localName))
			if err := d.downloadTo(ctx, f, path); err != nil {
				return nil, err
			}
			inputs = append(inputs, path)

		case isDatasetCSV(name):
			if err := os.MkdirAll(csvDir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create csv dir: %w", err)
			}
			if err := d.downloadTo(ctx, f, filepath.Join(csvDir, name)); err != nil {
				return nil, err
			}
			csvSeen[name] = true

		default:
			log.Debug().Str("file", f.Name).Msg("drive: skipping non-input file")
		}
	}

	if csvSeen[ingest.SalesFile] && csvSeen[ingest.InventoryFile] && csvSeen[ingest.SKUMasterFile] {
		inputs = append(inputs, csvDir)
	} else if len(csvSeen) > 0 {
		log.Warn().Int("files", len(csvSeen)).Msg("drive: incomplete csv dataset ignored")
	}

	return inputs, nil
}

func (d *Downloader) downloadTo(ctx context.Context, f *File, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create local file %s: %w", path, err)
	}
	if err := d.source.DownloadFile(ctx, f, out); err != nil {
		out.Close()
		return fmt.Errorf("failed to download %s: %w", f.Name, err)
	}
	return out.Close()
}

func isDatasetCSV(name string) bool {
	switch name {
	case ingest.SalesFile, ingest.InventoryFile, ingest.SKUMasterFile:
		return true
	}
	return false
}
