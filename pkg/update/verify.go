package update

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/arthur-debert/fwprov/pkg/errors"
)

// Verify parses the header of an image on disk, re-hashes its data
// segment and checks that the file holds exactly header + app + data.
func Verify(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrSourceMissing, "update image %s does not exist", path).
				WithDetail("path", path)
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot open %s", path)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	h, err := ParseHeader(r)
	if err != nil {
		return nil, err
	}

	if _, err := io.CopyN(io.Discard, r, h.AppSize); err != nil {
		return nil, truncated(path, err)
	}

	sum := sha256.New()
	if _, err := io.CopyN(sum, r, h.DataSize); err != nil {
		return nil, truncated(path, err)
	}
	if got := hex.EncodeToString(sum.Sum(nil)); got != h.DataSHA256 {
		return nil, errors.Newf(errors.ErrImageCorrupt, "data digest mismatch in %s", path).
			WithDetail("want", h.DataSHA256).
			WithDetail("got", got)
	}

	if extra, _ := io.Copy(io.Discard, r); extra != 0 {
		return nil, errors.Newf(errors.ErrImageCorrupt, "%s has %d trailing bytes", path, extra)
	}
	return h, nil
}

func truncated(path string, err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errors.Newf(errors.ErrImageCorrupt, "%s is shorter than its header declares", path)
	}
	return errors.Wrapf(err, errors.ErrFileAccess, "cannot read %s", path)
}
