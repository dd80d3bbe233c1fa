// Package ncmdump decodes NCM containers, the obfuscated wrapper the
// netease cloud music client puts around a FLAC or MP3 stream together
// with its metadata and cover image.
//
// A container is opened once with FromReader, which validates the magic
// header and records the offset and length of every section. The four
// extractors (GetKey, GetInfo, GetImage, GetData) then seek back into
// the shared reader independently, so each of them can be called any
// number of times and in any order.
package ncmdump

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"unicode/utf8"
)

const (
	magicSize   = 10
	leadingSize = 4
	gapSize     = 9

	// Fixed plaintext tags stripped after each unwrap stage:
	// "neteasecloudmusic", "163 key(Don't modify):" and "music:".
	keyTagSize    = 17
	infoBase64Tag = 22
	infoPlainTag  = 6

	keyXOR  = 0x64
	infoXOR = 0x63
)

var (
	// magicHeader is "CTENFDAM", the first 8 bytes of every container.
	magicHeader = []byte{0x43, 0x54, 0x45, 0x4e, 0x46, 0x44, 0x41, 0x4d}

	// headerKey unwraps the key block, infoKey the metadata block. Both
	// are fixed constants of the format, distinct from the per-file key.
	headerKey = []byte{0x68, 0x7A, 0x48, 0x52, 0x41, 0x6D, 0x73, 0x6F, 0x35, 0x6B, 0x49, 0x6E, 0x62, 0x61, 0x78, 0x57}
	infoKey   = []byte{0x23, 0x31, 0x34, 0x6C, 0x6A, 0x6B, 0x5F, 0x21, 0x5C, 0x5D, 0x26, 0x30, 0x55, 0x3C, 0x27, 0x28}
)

// section locates one length-prefixed block by absolute offset.
type section struct {
	start  uint64
	length uint64
}

// end is the absolute offset of the first byte after the section.
func (s section) end() uint64 {
	return s.start + s.length
}

// Dump is the handle over a single NCM container. It owns the reader
// exclusively: every extractor moves the read position, so calls on the
// same Dump must not run concurrently without external locking.
type Dump struct {
	reader io.ReadSeeker

	key   section
	info  section
	image section
}

// FromReader validates the container header and indexes the key,
// metadata and image sections without materializing any of them. The
// audio payload starts right after the image section and runs to the
// end of the source. The reader position after return is unspecified.
func FromReader(r io.ReadSeeker) (*Dump, error) {
	header := make([]byte, magicSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFileType, err)
	}
	if !bytes.Equal(header[:len(magicHeader)], magicHeader) {
		return nil, fmt.Errorf("%w: bad magic header", ErrInvalidFileType)
	}

	key, err := readSection(r, ErrInvalidKeyLength)
	if err != nil {
		return nil, err
	}
	if _, err := r.Seek(int64(key.length), io.SeekCurrent); err != nil {
		return nil, err
	}

	info, err := readSection(r, ErrInvalidInfoLength)
	if err != nil {
		return nil, err
	}
	// The 9 bytes after the info block are format-internal (CRC and
	// padding), never interpreted here.
	if _, err := r.Seek(int64(info.length)+gapSize, io.SeekCurrent); err != nil {
		return nil, err
	}

	image, err := readSection(r, ErrInvalidImageLength)
	if err != nil {
		return nil, err
	}

	return &Dump{
		reader: r,
		key:    key,
		info:   info,
		image:  image,
	}, nil
}

// readSection reads one 4-byte length field and records the position
// right after it as the section start. shortErr is returned on a short
// read of the length field.
func readSection(r io.ReadSeeker, shortErr error) (section, error) {
	buf := make([]byte, leadingSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return section{}, fmt.Errorf("%w: %s", shortErr, err)
	}
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return section{}, err
	}
	return section{
		start:  uint64(start),
		length: uint64(binary.LittleEndian.Uint32(buf)),
	}, nil
}

// readAll reads exactly the section's bytes at its absolute offset. A
// section length reaching past the end of the source is a hard error,
// not a truncation.
func (d *Dump) readAll(s section) ([]byte, error) {
	if _, err := d.reader.Seek(int64(s.start), io.SeekStart); err != nil {
		return nil, err
	}
	buf := make([]byte, s.length)
	if _, err := io.ReadFull(d.reader, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// GetKey recovers the raw per-file audio key from the key block: XOR
// with 0x64, AES-ECB decrypt with the header key, then strip the
// "neteasecloudmusic" tag.
func (d *Dump) GetKey() ([]byte, error) {
	data, err := d.readAll(d.key)
	if err != nil {
		return nil, err
	}
	for i := range data {
		data[i] ^= keyXOR
	}
	data, err = decryptAESECB(headerKey, data)
	if err != nil {
		return nil, err
	}
	if len(data) <= keyTagSize {
		return nil, fmt.Errorf("%w: key plaintext too short", ErrAESDecrypt)
	}
	return data[keyTagSize:], nil
}

// GetInfo decodes the metadata block: XOR with 0x63, strip the
// "163 key(Don't modify):" tag, base64 decode, AES-ECB decrypt with the
// info key, strip the "music:" tag and unmarshal the remaining JSON.
// Every failure in the chain is reported as ErrInfoDecode.
func (d *Dump) GetInfo() (*Info, error) {
	data, err := d.readAll(d.info)
	if err != nil {
		return nil, err
	}
	if len(data) < infoBase64Tag {
		return nil, fmt.Errorf("%w: info block too short", ErrInfoDecode)
	}
	for i := range data {
		data[i] ^= infoXOR
	}
	decoded, err := base64.StdEncoding.DecodeString(string(data[infoBase64Tag:]))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInfoDecode, err)
	}
	plain, err := decryptAESECB(infoKey, decoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInfoDecode, err)
	}
	if len(plain) < infoPlainTag {
		return nil, fmt.Errorf("%w: info plaintext too short", ErrInfoDecode)
	}
	plain = plain[infoPlainTag:]
	if !utf8.Valid(plain) {
		return nil, fmt.Errorf("%w: info is not valid utf-8", ErrInfoDecode)
	}
	info := &Info{}
	if err := json.Unmarshal(plain, info); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInfoDecode, err)
	}
	return info, nil
}

// GetImage returns the raw bytes of the cover image block. A
// zero-length block yields an empty slice, which is valid.
func (d *Dump) GetImage() ([]byte, error) {
	return d.readAll(d.image)
}

// GetData returns the decrypted audio stream: everything after the
// image section, XORed with the keystream derived from the raw key.
func (d *Dump) GetData() ([]byte, error) {
	key, err := d.GetKey()
	if err != nil {
		return nil, err
	}
	if _, err := d.reader.Seek(int64(d.image.end()), io.SeekStart); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(d.reader)
	if err != nil {
		return nil, err
	}
	box := buildKeyBox(key)
	decryptAudio(data, &box)
	return data, nil
}
