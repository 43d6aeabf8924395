// Package filter strips configured boilerplate phrases from message text.
package filter

import (
	"bufio"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"
)

// Filter removes every literal occurrence of each phrase from text, in the
// order the phrases are listed, and trims surrounding whitespace. Pure
// function; an empty phrase list is a no-op.
func Filter(text string, phrases []string) string {
	for _, phrase := range phrases {
		if phrase == "" {
			continue
		}
		text = strings.ReplaceAll(text, phrase, "")
	}
	return strings.TrimSpace(text)
}

// LoadPhrases reads a line-delimited phrase file. Blank lines are skipped.
// A missing file degrades to an empty list with a warning; it is never fatal.
func LoadPhrases(path string, logger *slog.Logger) []string {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("common phrases file not found, using an empty list", "path", path)
		} else {
			logger.Error("cannot read common phrases file", "path", path, "err", err)
		}
		return nil
	}
	defer f.Close()

	var phrases []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			phrases = append(phrases, line)
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Error("error reading common phrases file", "path", path, "err", err)
	}
	return phrases
}
