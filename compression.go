package rotolog

import (
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// compressFileGzip writes path's contents to path.gz and removes the
// original. The raw file is deleted only after the compressed copy is fully
// written and closed, so a crash mid-compression leaves the raw file intact.
func compressFileGzip(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	src, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening source file")
	}
	defer src.Close()

	compressedPath := path + ".gz"
	dst, err := os.OpenFile(compressedPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, defaultFilePerm)
	if err != nil {
		return errors.Wrap(err, "creating compressed file")
	}

	gw := gzip.NewWriter(dst)
	if _, err := io.Copy(gw, src); err != nil {
		gw.Close()
		dst.Close()
		os.Remove(compressedPath)
		return errors.Wrap(err, "compressing file")
	}
	if err := gw.Close(); err != nil {
		dst.Close()
		os.Remove(compressedPath)
		return errors.Wrap(err, "finishing gzip stream")
	}
	if err := dst.Close(); err != nil {
		os.Remove(compressedPath)
		return errors.Wrap(err, "closing compressed file")
	}

	if err := os.Remove(path); err != nil {
		return errors.Wrap(err, "removing original after compression")
	}
	return nil
}
