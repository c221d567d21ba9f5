package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Clever/csvlint"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// MalformedInputError means the bytes cannot be read as delimited text.
type MalformedInputError struct {
	Reason string
	Err    error
}

func (e *MalformedInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed input: %s: %v", e.Reason, e.Err)
	}
	return "malformed input: " + e.Reason
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

func malformed(reason string, err error) error {
	return &MalformedInputError{Reason: reason, Err: err}
}

// decode strips a byte order mark. UTF-16 input with a BOM is transcoded to
// UTF-8; anything else passes through untouched.
func decode(data []byte) ([]byte, error) {
	out, _, err := transform.Bytes(unicode.BOMOverride(encoding.Nop.NewDecoder()), data)
	if err != nil {
		return nil, malformed("cannot decode text", err)
	}
	return out, nil
}

// checkText rejects content that is clearly not text.
func checkText(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return malformed("empty file", nil)
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return malformed("binary content", nil)
	}
	if !utf8.Valid(data) {
		return malformed("content is not valid UTF-8", nil)
	}
	return nil
}

// lint runs a strict structural pass over the whole document and returns
// the record numbers of ragged rows. A quoted field that is never closed, or
// that has text after its closing quote, makes the document malformed. A
// stray quote inside an unquoted field stops the strict pass but is left to
// the lenient reader.
func lint(data []byte, comma rune) ([]int, error) {
	issues, halted, err := csvlint.Validate(bytes.NewReader(data), comma, false)
	if err != nil {
		return nil, malformed("cannot parse delimited text", err)
	}
	if halted {
		last := issues[len(issues)-1]
		if !strings.HasSuffix(last.Error(), csv.ErrBareQuote.Error()) {
			return nil, malformed("cannot parse delimited text", last)
		}
		issues = issues[:len(issues)-1]
	}

	ragged := make([]int, 0, len(issues))
	for _, issue := range issues {
		ragged = append(ragged, issue.Num)
	}
	return ragged, nil
}

var delimiters = []rune{',', ';', '\t'}

// sniffDelimiter picks the candidate delimiter that occurs most often in the
// header line. Comma wins ties and the no-delimiter case.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}

	best, bestCount := ',', 0
	for _, d := range delimiters {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}
