// Package encryption prepares images for a chip with flash encryption
// enabled and sequences the one-time secure provisioning of the chip.
//
// Partition images are encrypted with AES-XTS, tweaked by the absolute
// flash offset they will be written to, so an image encrypted for one
// partition is useless at any other address.
package encryption

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/fwprov/pkg/errors"
	"github.com/arthur-debert/fwprov/pkg/logging"
	"github.com/arthur-debert/fwprov/pkg/toolchain"
	"github.com/arthur-debert/fwprov/pkg/types"
)

// Encryptor turns a plaintext image into one ready to be written at addr
type Encryptor interface {
	Encrypt(ctx context.Context, addr uint32, src, dst string) error
}

// OffsetResolver locates a named partition
type OffsetResolver interface {
	Offset(name string) (uint32, error)
}

// NativeEncryptor encrypts in process
type NativeEncryptor struct {
	KeyFile string
}

// Encrypt implements Encryptor
func (n *NativeEncryptor) Encrypt(ctx context.Context, addr uint32, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.ErrCanceled, "encryption canceled")
	}

	key, err := ReadKey(n.KeyFile)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot read %s", src)
	}

	out, err := EncryptFlashData(key, addr, data)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInvalidInput, "cannot encrypt %s", src).
			WithDetail("path", src)
	}
	return writeFile(dst, out)
}

// EspsecureEncryptor delegates to espsecure.py
type EspsecureEncryptor struct {
	KeyFile string
	Tools   *toolchain.Tools
	Runner  toolchain.Runner
}

// Encrypt implements Encryptor
func (e *EspsecureEncryptor) Encrypt(ctx context.Context, addr uint32, src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrFileCreate, "cannot create directory for %s", dst)
	}
	return e.Runner.Run(ctx, e.Tools.EncryptFlashData(e.KeyFile, addr, src, dst))
}

// PartitionEncryptor encrypts images for named partitions
type PartitionEncryptor struct {
	logger    zerolog.Logger
	layout    OffsetResolver
	encryptor Encryptor
}

// NewPartitionEncryptor binds an Encryptor to a layout
func NewPartitionEncryptor(layout OffsetResolver, enc Encryptor) *PartitionEncryptor {
	return &PartitionEncryptor{
		logger:    logging.GetLogger("encryption"),
		layout:    layout,
		encryptor: enc,
	}
}

// EncryptPartition encrypts src into dst using the flash offset of the
// named partition as the tweak. Unknown names and missing sources fail
// before any output is produced.
func (p *PartitionEncryptor) EncryptPartition(ctx context.Context, name, src, dst string) error {
	offset, err := p.layout.Offset(name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return errors.Newf(errors.ErrSourceMissing, "cannot encrypt %s: %s does not exist", name, src).
				WithDetail("partition", name).
				WithDetail("path", src)
		}
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot stat %s", src)
	}

	p.logger.Info().
		Str("partition", name).
		Str("offset", types.FormatHex(offset)).
		Str("src", src).
		Str("dst", dst).
		Msg("Encrypting partition image")

	return p.encryptor.Encrypt(ctx, offset, src, dst)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrFileCreate, "cannot create directory for %s", path)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileCreate, "cannot create %s", path)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot write %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot write %s", path)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot chmod %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot replace %s", path)
	}
	return nil
}
