package encryption

import (
	"crypto/aes"
	"os"

	"golang.org/x/crypto/xts"

	"github.com/arthur-debert/fwprov/pkg/errors"
)

// The flash controller encrypts in 1024-bit units, each tweaked with the
// flash address of the unit.
const (
	xtsUnit      = 0x80
	xtsAlignment = 16
)

// Key sizes accepted for XTS: two AES-128 keys or two AES-256 keys
const (
	KeySizeXTS128 = 32
	KeySizeXTS256 = 64
)

// EncryptFlashData encrypts data as it will be stored at addr. The output
// has the same length as data.
func EncryptFlashData(key []byte, addr uint32, data []byte) ([]byte, error) {
	return xtsFlash(key, addr, data, false)
}

// DecryptFlashData reverses EncryptFlashData
func DecryptFlashData(key []byte, addr uint32, data []byte) ([]byte, error) {
	return xtsFlash(key, addr, data, true)
}

func xtsFlash(key []byte, addr uint32, data []byte, decrypt bool) ([]byte, error) {
	if len(key) != KeySizeXTS128 && len(key) != KeySizeXTS256 {
		return nil, errors.Newf(errors.ErrInvalidInput, "XTS key must be %d or %d bytes, got %d",
			KeySizeXTS128, KeySizeXTS256, len(key))
	}
	if addr%xtsAlignment != 0 {
		return nil, errors.Newf(errors.ErrInvalidInput, "flash address 0x%x is not a multiple of %d", addr, xtsAlignment)
	}
	if len(data) == 0 || len(data)%xtsAlignment != 0 {
		return nil, errors.Newf(errors.ErrInvalidInput, "data length %d is not a non-zero multiple of %d", len(data), xtsAlignment)
	}

	c, err := xts.NewCipher(aes.NewCipher, key)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidInput, "invalid XTS key")
	}

	padLeft := int(addr % xtsUnit)
	padded := make([]byte, padLeft+len(data))
	copy(padded[padLeft:], data)
	padRight := 0
	if rem := len(padded) % xtsUnit; rem != 0 {
		padRight = xtsUnit - rem
		padded = append(padded, make([]byte, padRight)...)
	}

	out := make([]byte, len(padded))
	unitAddr := uint64(addr &^ (xtsUnit - 1))
	in := make([]byte, xtsUnit)
	for off := 0; off < len(padded); off += xtsUnit {
		reverseInto(in, padded[off:off+xtsUnit])
		dst := out[off : off+xtsUnit]
		if decrypt {
			c.Decrypt(dst, in, unitAddr)
		} else {
			c.Encrypt(dst, in, unitAddr)
		}
		reverseInPlace(dst)
		unitAddr += xtsUnit
	}

	return out[padLeft : len(out)-padRight], nil
}

func reverseInto(dst, src []byte) {
	n := len(src)
	for i := 0; i < n; i++ {
		dst[i] = src[n-1-i]
	}
}

func reverseInPlace(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// ReadKey loads a raw XTS key file
func ReadKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrSourceMissing, "key file %s does not exist", path).
				WithDetail("path", path)
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot read key file %s", path)
	}
	if len(key) != KeySizeXTS128 && len(key) != KeySizeXTS256 {
		return nil, errors.Newf(errors.ErrConfigValid, "key file %s holds %d bytes, want %d or %d",
			path, len(key), KeySizeXTS128, KeySizeXTS256).
			WithDetail("key", "flash_encryption_key")
	}
	return key, nil
}
