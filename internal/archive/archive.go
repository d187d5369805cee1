package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// Write bundles the named files into a zip archive at path for download.
// Members are stored under their base names in sorted order so repeat runs
// produce identical archives. An existing archive at path is overwritten.
func Write(path string, files []string) error {
	if len(files) == 0 {
		return fmt.Errorf("archive: no files to bundle")
	}

	sorted := make([]string, len(files))
	copy(sorted, files)
	sort.Strings(sorted)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("archive: failed to create %s: %w", path, err)
	}

	zw := zip.NewWriter(f)

	for _, name := range sorted {
		if err := addFile(zw, name); err != nil {
			zw.Close()
			f.Close()
			return err
		}
	}

	if err := zw.Close(); err != nil {
		f.Close()
		return fmt.Errorf("archive: failed to finalize %s: %w", path, err)
	}

	return f.Close()
}

func addFile(zw *zip.Writer, name string) error {
	src, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("archive: failed to open %s: %w", name, err)
	}
	defer src.Close()

	dst, err := zw.Create(filepath.Base(name))
	if err != nil {
		return fmt.Errorf("archive: failed to add %s: %w", name, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("archive: failed to write %s: %w", name, err)
	}

	return nil
}
