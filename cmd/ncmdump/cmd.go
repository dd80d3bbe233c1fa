package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	ErrFindNCMFailed = errors.New("find *.ncm failed")
	ErrNotNCMFile    = errors.New("not ncm file")
	ErrNoNCMFile     = errors.New("no ncm file")
	ErrInvalidOutput = errors.New("invalid output")
)

var (
	input     *string
	files     *[]string
	output    *string
	saveCover *bool
)

func Execute() error {
	return NewRootCmd().Execute()
}

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ncmdump",
		Short: "Convert ncm files back to flac/mp3",
		Long: `ncmdump decodes .ncm containers and writes the original flac or mp3
stream next to its metadata tags and cover image.`,
		Run: rootCmdRun,
	}

	flags := cmd.Flags()
	input = flags.StringP("input", "i", "", "directory to search for ncm files")
	files = flags.StringSliceP("file", "f", nil, "a specific ncm file, repeatable")
	output = flags.StringP("output", "o", "./", "directory to save the decoded results")
	saveCover = flags.BoolP("image", "m", false, "also write the cover image next to the audio")
	return cmd
}

func rootCmdRun(cmd *cobra.Command, args []string) {
	inputFiles, err := getNCM(*input, *files)
	if err != nil {
		log.Err(err).Msg("collect input files")
		return
	}
	if err := checkOutput(*output); err != nil {
		log.Err(err).Msg("check output directory")
		return
	}

	pool, err := ants.NewPool(runtime.NumCPU())
	if err != nil {
		log.Err(err).Msg("create worker pool")
		return
	}
	defer pool.Release()

	wg := sync.WaitGroup{}
	wg.Add(len(inputFiles))

	for p := range inputFiles {
		in := p
		err := pool.Submit(func() {
			defer wg.Done()

			c := NewConverter(in, *output, *saveCover)
			if err := c.Convert(); err != nil {
				log.Err(err).Str("file", in).Msg("convert failed")
				return
			}
			log.Info().Str("file", in).Str("out", c.OutputFile()).Msg("convert ok")
		})
		if err != nil {
			wg.Done()
			log.Err(err).Str("file", in).Msg("submit failed")
		}
	}

	wg.Wait()
}

func getNCMFromDir(input string) ([]string, error) {
	if input == "" {
		return nil, nil
	}
	var found []string
	err := filepath.WalkDir(input, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(d.Name()) != ".ncm" {
			return nil
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		found = append(found, abs)
		return nil
	})
	return found, err
}

func getNCMFromFile(files []string) ([]string, error) {
	var found []string
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			return nil, err
		}
		if info.IsDir() || filepath.Ext(info.Name()) != ".ncm" {
			return nil, fmt.Errorf("%w: %s", ErrNotNCMFile, file)
		}
		abs, err := filepath.Abs(file)
		if err != nil {
			return nil, err
		}
		found = append(found, abs)
	}
	return found, nil
}

// getNCM merges the directory walk and the explicit file list,
// deduplicating by absolute path.
func getNCM(input string, files []string) (map[string]struct{}, error) {
	fromDir, err := getNCMFromDir(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFindNCMFailed, err)
	}
	fromFile, err := getNCMFromFile(files)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFindNCMFailed, err)
	}

	unique := make(map[string]struct{}, len(fromDir)+len(fromFile))
	for _, v := range fromDir {
		unique[v] = struct{}{}
	}
	for _, v := range fromFile {
		unique[v] = struct{}{}
	}
	if len(unique) == 0 {
		return nil, ErrNoNCMFile
	}
	return unique, nil
}

func checkOutput(output string) error {
	info, err := os.Stat(output)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrInvalidOutput, output)
	}
	return nil
}
