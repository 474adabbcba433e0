package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Style captures the newline convention of a source document.
type Style struct {
	Newline string
}

// Document is a source file split into its metadata block and markdown body.
type Document struct {
	Fields map[string]any
	Body   []byte
	// HadFrontmatter reports whether a delimited block was present, even an empty one.
	HadFrontmatter bool
}

const delimiter = "---"

// Split separates YAML frontmatter (`---` delimited) from the Markdown body.
//
// If the document does not start with a YAML frontmatter delimiter, had is false
// and body is the full input. A closing delimiter on the final line without a
// trailing newline also ends the block.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, style Style, err error) {
	style = detectStyle(content)

	nl := style.Newline
	open := []byte(delimiter + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, style, nil
	}

	frontmatterStart := len(open)
	rest := content[frontmatterStart:]
	closeLine := []byte(delimiter + nl)
	if bytes.HasPrefix(rest, closeLine) {
		return []byte{}, rest[len(closeLine):], true, style, nil
	}
	if bytes.Equal(rest, []byte(delimiter)) {
		return []byte{}, []byte{}, true, style, nil
	}

	closeSeq := []byte(nl + delimiter + nl)
	if idx := bytes.Index(rest, closeSeq); idx >= 0 {
		frontmatterEnd := frontmatterStart + idx + len(nl)
		bodyStart := frontmatterStart + idx + len(closeSeq)
		return content[frontmatterStart:frontmatterEnd], content[bodyStart:], true, style, nil
	}

	closeEOF := []byte(nl + delimiter)
	if bytes.HasSuffix(rest, closeEOF) {
		end := len(content) - len(delimiter)
		return content[frontmatterStart:end], []byte{}, true, style, nil
	}

	return nil, nil, false, style, ErrMissingClosingDelimiter
}

// ParseYAML parses raw YAML frontmatter (without --- delimiters) into a map.
func ParseYAML(frontmatter []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(frontmatter)) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(frontmatter, &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidYAML, err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return Normalize(fields), nil
}

// Parse splits content and decodes its metadata block.
//
// Without a block the fields are empty and Body is the whole input.
func Parse(content []byte) (Document, error) {
	fm, body, had, _, err := Split(content)
	if err != nil {
		return Document{}, err
	}
	if !had {
		return Document{Fields: map[string]any{}, Body: content}, nil
	}

	fields, err := ParseYAML(fm)
	if err != nil {
		return Document{}, err
	}
	return Document{Fields: fields, Body: body, HadFrontmatter: true}, nil
}

// Normalize folds decoded YAML values into the closed set of kinds the
// rest of the pipeline handles: string, int, float64, bool, nil, []any and
// map[string]any.
func Normalize(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case nil, string, bool, int, float64:
		return val
	case int64:
		return int(val)
	case uint64:
		return float64(val)
	case float32:
		return float64(val)
	case time.Time:
		return val.Format(time.RFC3339)
	case []byte:
		return string(val)
	case []any:
		items := make([]any, len(val))
		for i, item := range val {
			items[i] = normalizeValue(item)
		}
		return items
	case map[string]any:
		return Normalize(val)
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, item := range val {
			m[fmt.Sprint(k)] = normalizeValue(item)
		}
		return m
	default:
		return fmt.Sprint(val)
	}
}

var (
	// ErrMissingClosingDelimiter indicates the document started with a YAML
	// frontmatter delimiter but did not contain a closing delimiter.
	ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

	// ErrInvalidYAML indicates the frontmatter block is not a YAML mapping.
	ErrInvalidYAML = errors.New("invalid yaml frontmatter")
)

func detectStyle(content []byte) Style {
	newline := "\n"
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			newline = "\r\n"
			break
		}
		if content[i] == '\n' {
			newline = "\n"
			break
		}
	}

	return Style{Newline: newline}
}
