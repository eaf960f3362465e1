package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/querylens/querylens/pkg/types"
)

// ErrParse indicates the source document is malformed. Parse errors are
// fatal: the load aborts rather than returning a partial dataset.
var ErrParse = errors.New("dataset parse failed")

// ParseError reports where and why parsing failed.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("dataset parse failed at line %d: %s", e.Line, e.Msg)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}

// Load reads and parses a relevance dataset from a file.
func Load(path string) (*types.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

// Parse reads a relevance dataset from a markdown-style document.
//
// The grammar is deliberately small:
//   - A line starting with "## " opens a new record; the rest of the line is
//     the query string.
//   - A fenced block (``` ... ```) inside a record is one relevant passage.
//     The fence info string is split on whitespace: the first token is the
//     language, the second token is the filename. A missing or malformed
//     header yields empty strings rather than an error.
//   - Prose lines outside fences are ignored.
//
// A fenced block before the first record heading, or a fence left open at
// end of input, is a ParseError. Records with zero passages are kept; the
// pair generator decides whether to skip them.
func Parse(r io.Reader) (*types.Dataset, error) {
	ds := &types.Dataset{}

	var (
		current    *types.Example
		inFence    bool
		fenceLine  int
		passage    types.Passage
		content    strings.Builder
		lineNumber int
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()

		if inFence {
			if strings.TrimSpace(line) == "```" {
				passage.Content = content.String()
				current.Passages = append(current.Passages, passage)
				content.Reset()
				inFence = false
				continue
			}
			if content.Len() > 0 {
				content.WriteString("\n")
			}
			content.WriteString(line)
			continue
		}

		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, "```"):
			if current == nil {
				return nil, &ParseError{Line: lineNumber, Msg: "passage before any record heading"}
			}
			lang, filename := parseFenceHeader(strings.TrimPrefix(trimmed, "```"))
			passage = types.Passage{Language: lang, Filename: filename}
			inFence = true
			fenceLine = lineNumber

		case strings.HasPrefix(line, "## "):
			if current != nil {
				ds.Examples = append(ds.Examples, *current)
			}
			current = &types.Example{Query: strings.TrimSpace(line[3:])}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	if inFence {
		return nil, &ParseError{Line: fenceLine, Msg: "unterminated passage fence"}
	}
	if current != nil {
		ds.Examples = append(ds.Examples, *current)
	}

	return ds, nil
}

// parseFenceHeader extracts the language and filename annotation from a fence
// info string. Split on whitespace: token one is the language, token two the
// filename; anything absent comes back empty.
func parseFenceHeader(info string) (lang, filename string) {
	fields := strings.Fields(info)
	if len(fields) > 0 {
		lang = fields[0]
	}
	if len(fields) > 1 {
		filename = fields[1]
	}
	return lang, filename
}
