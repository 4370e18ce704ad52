// Package archive stages test assets into a temporary tree and packs
// and unpacks the tar.gz bundles exchanged with the server.
package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
)

// Stage copies each source path into a fresh temporary directory,
// keyed by its basename, and returns the staging directory. The caller
// owns the returned tree and removes it after packing.
func Stage(paths []string) (string, error) {
	dir := filepath.Join(os.TempDir(), "wdio-staging-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	for _, src := range paths {
		info, err := os.Stat(src)
		if err != nil {
			return "", fmt.Errorf("staging %s: %w", src, err)
		}

		dst := filepath.Join(dir, filepath.Base(src))
		if info.IsDir() {
			if err := copyTree(src, dst); err != nil {
				return "", fmt.Errorf("staging %s: %w", src, err)
			}
			continue
		}
		if err := copyFile(src, dst, info.Mode()); err != nil {
			return "", fmt.Errorf("staging %s: %w", src, err)
		}
	}

	return dir, nil
}

// copyTree copies a directory recursively, skipping version-control
// metadata and dependency trees that have no business in the bundle.
func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return os.MkdirAll(dst, info.Mode())
		}

		base := filepath.Base(path)
		if strings.HasPrefix(base, ".git") || base == "node_modules" {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		dstPath := filepath.Join(dst, relPath)
		if info.IsDir() {
			return os.MkdirAll(dstPath, info.Mode())
		}
		return copyFile(path, dstPath, info.Mode())
	})
}

func copyFile(src, dst string, mode os.FileMode) error {
	input, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, input, mode)
}

// Pack writes srcDir as a gzipped tarball at outPath. Entry names are
// relative to srcDir.
func Pack(srcDir, outPath string) error {
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	gw := gzip.NewWriter(out)
	tw := tar.NewWriter(gw)

	err = filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(relPath)

		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return gw.Close()
}

// Extract unpacks a gzipped tarball into destDir, rejecting entries
// that would escape it.
func Extract(archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("reading gzip stream: %w", err)
	}
	defer gr.Close()

	tr := tar.NewReader(gr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar entry: %w", err)
		}

		target, err := safeJoin(destDir, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(header.Mode)); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(header.Mode))
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
		default:
			// Symlinks and special files are not part of the result
			// archive format; skip them.
		}
	}
}

// safeJoin joins an archive entry name onto destDir, refusing names
// that traverse outside it.
func safeJoin(destDir, name string) (string, error) {
	target := filepath.Join(destDir, filepath.FromSlash(name))
	rel, err := filepath.Rel(filepath.Clean(destDir), target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry escapes destination: %q", name)
	}
	return target, nil
}
