package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/geange/bisim/lts"
)

const (
	formatAut = "aut"
	formatDot = "dot"
)

// stdio is the file name that stands for standard input or output.
const stdio = "-"

func parseFormat(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case formatAut:
		return formatAut, nil
	case formatDot, "gv":
		return formatDot, nil
	}
	return "", fmt.Errorf("%q: %w", name, ErrUnknownFormat)
}

// detectFormat returns explicit when set and otherwise derives the format
// from the extension of path. Standard streams default to aut.
func detectFormat(path, explicit string) (string, error) {
	if explicit != "" {
		return parseFormat(explicit)
	}
	if path == "" || path == stdio {
		return formatAut, nil
	}
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%s has no extension: %w", path, ErrUnknownFormat)
	}
	return parseFormat(ext)
}

func readLTS(path, format string) (*lts.LTS, error) {
	if format != formatAut {
		return nil, fmt.Errorf("cannot read %s input: %w", format, ErrUnknownFormat)
	}
	var r io.Reader = os.Stdin
	if path != stdio {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	l, err := lts.ReadAut(bufio.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

func writeLTS(w io.Writer, l *lts.LTS, format string) error {
	switch format {
	case formatAut:
		return lts.WriteAut(w, l)
	case formatDot:
		return lts.WriteDot(w, l)
	}
	return fmt.Errorf("cannot write %s output: %w", format, ErrUnknownFormat)
}

// writeFile writes l to path, or to stdout for "-".
func writeFile(path string, l *lts.LTS, format string, stdout io.Writer) error {
	if path == "" || path == stdio {
		return writeLTS(stdout, l, format)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := writeLTS(w, l, format); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
