// Package update builds and reads the self-describing update image.
//
// Wire format, byte exact, angle brackets included:
//
//	TYPE:<moduleType>\n
//	APP:<appSize>\n
//	DATA:<dataSize><sha256hex>\n
//	START:\n
//	<app bytes><data bytes>
//
// Sizes are decimal. The digest covers the data segment only. There is
// no separator between the DATA size and the digest; device parsers rely
// on that exact shape.
package update

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/arthur-debert/fwprov/pkg/errors"
)

// Header tag text
const (
	tagType  = "TYPE:"
	tagApp   = "APP:"
	tagData  = "DATA:"
	tagStart = "START:"

	digestHexLen = 64
)

// Header describes an update image
type Header struct {
	ModuleType string
	AppSize    int64
	DataSize   int64
	DataSHA256 string
}

// Bytes renders the header exactly as it appears on the wire
func (h Header) Bytes() []byte {
	return []byte(fmt.Sprintf("%s<%s>\n%s<%d>\n%s<%d><%s>\n%s\n",
		tagType, h.ModuleType,
		tagApp, h.AppSize,
		tagData, h.DataSize, h.DataSHA256,
		tagStart))
}

// Len is the header length in bytes
func (h Header) Len() int64 {
	return int64(len(h.Bytes()))
}

// PayloadLen is the number of raw bytes that follow the header
func (h Header) PayloadLen() int64 {
	return h.AppSize + h.DataSize
}

// ParseHeader reads a header from r, leaving r positioned at the first
// application byte.
func ParseHeader(r *bufio.Reader) (*Header, error) {
	h := &Header{}

	line, err := readLine(r, tagType)
	if err != nil {
		return nil, err
	}
	if h.ModuleType, err = bracketed(line, tagType); err != nil {
		return nil, err
	}

	if line, err = readLine(r, tagApp); err != nil {
		return nil, err
	}
	if h.AppSize, err = bracketedSize(line, tagApp); err != nil {
		return nil, err
	}

	if line, err = readLine(r, tagData); err != nil {
		return nil, err
	}
	rest := strings.TrimPrefix(line, tagData)
	// DATA:<n><digest> splits at the first '>'
	sizePart, digestPart, ok := strings.Cut(rest, ">")
	if !ok {
		return nil, corrupt("DATA line %q", line)
	}
	if h.DataSize, err = bracketedSize(tagData+sizePart+">", tagData); err != nil {
		return nil, err
	}
	if h.DataSHA256, err = bracketed(digestPart, ""); err != nil {
		return nil, err
	}
	if len(h.DataSHA256) != digestHexLen {
		return nil, corrupt("digest has %d hex chars", len(h.DataSHA256))
	}

	if line, err = readLine(r, tagStart); err != nil {
		return nil, err
	}
	if line != tagStart {
		return nil, corrupt("START line %q", line)
	}
	return h, nil
}

func readLine(r *bufio.Reader, tag string) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if err == io.EOF {
			return "", corrupt("truncated before %s", tag)
		}
		return "", errors.Wrap(err, errors.ErrFileAccess, "cannot read update header")
	}
	line = strings.TrimSuffix(line, "\n")
	if !strings.HasPrefix(line, tag) {
		return "", corrupt("expected %s, got %q", tag, line)
	}
	return line, nil
}

func bracketed(s, tag string) (string, error) {
	v := strings.TrimPrefix(s, tag)
	if !strings.HasPrefix(v, "<") || !strings.HasSuffix(v, ">") || len(v) < 2 {
		return "", corrupt("field %q is not bracketed", s)
	}
	return v[1 : len(v)-1], nil
}

func bracketedSize(s, tag string) (int64, error) {
	v, err := bracketed(s, tag)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, corrupt("bad size %q", v)
	}
	return n, nil
}

func corrupt(format string, args ...interface{}) error {
	return errors.Newf(errors.ErrImageCorrupt, "malformed update header: "+format, args...)
}
