package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jdxj/ncmdump"
)

var (
	pngHeader  = []byte{0x89, 0x50, 0x4E, 0x47}
	flacHeader = []byte("fLaC")
)

func NewConverter(input, output string, saveCover bool) *Converter {
	return &Converter{
		input:     input,
		output:    output,
		saveCover: saveCover,
	}
}

// Converter decodes one ncm file into the output directory: audio
// stream first, then tags and cover embedded into the result.
type Converter struct {
	input     string
	output    string
	saveCover bool

	outputFile string
}

// OutputFile is the path of the decoded audio file. Empty until
// Convert has succeeded.
func (c *Converter) OutputFile() string {
	return c.outputFile
}

func (c *Converter) Convert() error {
	f, err := os.Open(c.input)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	dump, err := ncmdump.FromReader(f)
	if err != nil {
		return err
	}

	data, err := dump.GetData()
	if err != nil {
		return err
	}

	// A container with a mangled metadata block is still playable, so a
	// GetInfo failure only disables tagging.
	info, err := dump.GetInfo()
	if err != nil {
		log.Warn().Err(err).Str("file", c.input).Msg("metadata unreadable, skip tagging")
		info = nil
	}

	image, err := dump.GetImage()
	if err != nil {
		return err
	}

	c.outputFile = outputPath(c.input, c.output, audioFormat(info, data))
	if err := os.WriteFile(c.outputFile, data, 0644); err != nil {
		return err
	}

	if info != nil {
		if err := embedTags(c.outputFile, info, image); err != nil {
			return err
		}
	}
	if c.saveCover && len(image) > 0 {
		if err := c.writeCover(image); err != nil {
			return err
		}
	}
	return nil
}

func (c *Converter) writeCover(image []byte) error {
	ext := ".jpg"
	if bytes.HasPrefix(image, pngHeader) {
		ext = ".png"
	}
	name := strings.TrimSuffix(c.outputFile, filepath.Ext(c.outputFile))
	return os.WriteFile(name+ext, image, 0644)
}

// audioFormat prefers the metadata's format tag and falls back to
// sniffing the decoded stream when the metadata is missing.
func audioFormat(info *ncmdump.Info, data []byte) string {
	if info != nil && info.Format != "" {
		return info.Format
	}
	if bytes.HasPrefix(data, flacHeader) {
		return "flac"
	}
	return "mp3"
}

// outputPath maps input /a/b/song.ncm into output dir as song.<format>.
func outputPath(input, output, format string) string {
	basename := filepath.Base(input)
	filename := strings.TrimSuffix(basename, filepath.Ext(basename))
	return filepath.Join(output, fmt.Sprintf("%s.%s", filename, format))
}

// imageMIME sniffs the cover type; everything that is not png is
// reported as jpeg, matching what the upstream client stores.
func imageMIME(image []byte) string {
	if bytes.HasPrefix(image, pngHeader) {
		return "image/png"
	}
	return "image/jpeg"
}

func embedTags(path string, info *ncmdump.Info, image []byte) error {
	switch info.Format {
	case "mp3":
		return embedMP3(path, info, image)
	case "flac":
		return embedFLAC(path, info, image)
	}
	return nil
}
