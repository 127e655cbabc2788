package update

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/fwprov/pkg/errors"
	"github.com/arthur-debert/fwprov/pkg/logging"
)

// Compose writes an update image to dest from the application and data
// images. Sizes come from the files themselves at composition time. The
// image is written to a temporary file next to dest and renamed into
// place, so dest is either the previous image or the complete new one.
func Compose(appFile, dataFile, moduleType, dest string) (*Header, error) {
	if err := ValidateModuleType(moduleType); err != nil {
		return nil, err
	}

	logger := logging.GetLogger("update")
	done := logging.LogOperationStart(logger, "compose")
	defer done()

	appSize, err := sourceSize(appFile)
	if err != nil {
		return nil, err
	}
	dataSize, err := sourceSize(dataFile)
	if err != nil {
		return nil, err
	}

	digest, hashed, err := digestFile(dataFile)
	if err != nil {
		return nil, err
	}
	if hashed != dataSize {
		return nil, errors.Newf(errors.ErrFileAccess, "%s changed size while hashing", dataFile).
			WithDetail("path", dataFile)
	}

	h := &Header{
		ModuleType: moduleType,
		AppSize:    appSize,
		DataSize:   dataSize,
		DataSHA256: digest,
	}

	if err := writeImage(dest, h, appFile, dataFile); err != nil {
		return nil, err
	}

	logger.Info().
		Str("module_type", moduleType).
		Int64("app_size", appSize).
		Int64("data_size", dataSize).
		Str("sha256", digest).
		Str("dest", dest).
		Msg("Update image written")
	return h, nil
}

// ValidateModuleType rejects module types the header cannot carry: line
// breaks end the TYPE line early and angle brackets end the field.
func ValidateModuleType(moduleType string) error {
	if strings.TrimSpace(moduleType) == "" {
		return errors.New(errors.ErrConfigValid, "module type must not be empty").
			WithDetail("key", "module_type")
	}
	if strings.ContainsAny(moduleType, "\r\n<>") {
		return errors.Newf(errors.ErrConfigValid, "module type %q contains a line break or angle bracket", moduleType).
			WithDetail("key", "module_type")
	}
	return nil
}

func sourceSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, errors.Newf(errors.ErrSourceMissing, "source image %s does not exist", path).
				WithDetail("path", path)
		}
		return 0, errors.Wrapf(err, errors.ErrFileAccess, "cannot stat %s", path)
	}
	if info.IsDir() {
		return 0, errors.Newf(errors.ErrSourceMissing, "source image %s is a directory", path).
			WithDetail("path", path)
	}
	return info.Size(), nil
}

func digestFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, errors.Wrapf(err, errors.ErrFileAccess, "cannot open %s", path)
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, errors.Wrapf(err, errors.ErrFileAccess, "cannot read %s", path)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

func writeImage(dest string, h *Header, appFile, dataFile string) (err error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrFileCreate, "cannot create directory for %s", dest)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*")
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileCreate, "cannot create %s", dest)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriter(tmp)
	if _, err = w.Write(h.Bytes()); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot write header to %s", dest)
	}
	if err = appendFile(w, appFile, h.AppSize); err != nil {
		return err
	}
	if err = appendFile(w, dataFile, h.DataSize); err != nil {
		return err
	}
	if err = w.Flush(); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot write %s", dest)
	}
	if err = tmp.Sync(); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot sync %s", dest)
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot close %s", dest)
	}
	if err = os.Chmod(tmp.Name(), 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot chmod %s", dest)
	}
	if err = os.Rename(tmp.Name(), dest); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot replace %s", dest)
	}
	return nil
}

// appendFile copies exactly want bytes of path into w
func appendFile(w io.Writer, path string, want int64) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot open %s", path)
	}
	defer f.Close()

	n, err := io.Copy(w, f)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot copy %s", path)
	}
	if n != want {
		return errors.Newf(errors.ErrFileAccess, "%s changed size during composition: expected %d bytes, copied %d", path, want, n).
			WithDetail("path", path)
	}
	return nil
}
