package cli

import (
	"errors"
	"io/fs"
	"os"
	"slices"
	"strings"
)

const gitignorePath = ".gitignore"

// addToGitignore appends the entries that are not already present.
func addToGitignore(entries []string) error {
	lines, err := readGitignore()
	if err != nil {
		return err
	}
	changed := false
	for _, e := range entries {
		if !slices.Contains(lines, e) {
			lines = append(lines, e)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return writeGitignore(lines)
}

// removeFromGitignore drops the entries. The file is left alone when
// nothing else would remain in it.
func removeFromGitignore(entries []string) error {
	lines, err := readGitignore()
	if err != nil || lines == nil {
		return err
	}
	kept := slices.DeleteFunc(slices.Clone(lines), func(l string) bool {
		return slices.Contains(entries, l)
	})
	if len(kept) == len(lines) || len(kept) == 0 {
		return nil
	}
	return writeGitignore(kept)
}

func readGitignore() ([]string, error) {
	data, err := os.ReadFile(gitignorePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	text := strings.TrimRight(string(data), "\n")
	if text == "" {
		return []string{}, nil
	}
	return strings.Split(text, "\n"), nil
}

func writeGitignore(lines []string) error {
	return os.WriteFile(gitignorePath, []byte(strings.Join(lines, "\n")+"\n"), 0644)
}
