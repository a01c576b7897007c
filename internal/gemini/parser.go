package gemini

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	json5 "github.com/yosuke-furukawa/json5/encoding/json5"
)

var (
	fencedJSONPattern    = regexp.MustCompile("(?s)```(?:json|JSON)?[ \t]*\r?\n(.*?)\r?\n?```")
	trailingCommaPattern = regexp.MustCompile(`,(\s*[}\]])`)
)

// AddCitations splices "[n](uri)" markers into text at the end of every
// supported segment. Supports are applied from the highest offset down so
// earlier insertions never shift later ones. Indices outside the source list
// are skipped.
func AddCitations(text string, supports []CitationSupport, sources []CitationSource) string {
	if len(supports) == 0 || len(sources) == 0 {
		return text
	}

	sorted := make([]CitationSupport, len(supports))
	copy(sorted, supports)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EndIndex > sorted[j].EndIndex
	})

	for _, support := range sorted {
		if len(support.ChunkIndices) == 0 {
			continue
		}
		end := support.EndIndex
		if end < 0 || end > len(text) {
			continue
		}

		links := make([]string, 0, len(support.ChunkIndices))
		for _, idx := range support.ChunkIndices {
			if idx < 0 || idx >= len(sources) {
				continue
			}
			links = append(links, fmt.Sprintf("[%d](%s)", idx+1, sources[idx].URI))
		}
		if len(links) == 0 {
			continue
		}

		text = text[:end] + strings.Join(links, ", ") + text[end:]
	}

	return text
}

// ExtractJSONSource returns the contents of the first fenced code block in
// text, or the whole text when there is none.
func ExtractJSONSource(text string) string {
	if m := fencedJSONPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return strings.TrimSpace(text)
}

// recoveryStrategy is one attempt at turning model output into JSON values.
type recoveryStrategy struct {
	name   string
	decode func(source string) (interface{}, error)
}

// recoveryChain is tried in order; the first strategy that decodes wins.
var recoveryChain = []recoveryStrategy{
	{name: "strict", decode: decodeStrict},
	{name: "repaired", decode: func(source string) (interface{}, error) {
		return decodeStrict(RepairJSON(source))
	}},
	{name: "json5", decode: func(source string) (interface{}, error) {
		var out interface{}
		err := json5.Unmarshal([]byte(RepairJSON(source)), &out)
		return out, err
	}},
}

func decodeStrict(source string) (interface{}, error) {
	dec := json.NewDecoder(strings.NewReader(source))
	dec.UseNumber()
	var out interface{}
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	return out, nil
}

// ParseStoreRecords decodes model text into raw store records. It never fails:
// when no strategy can decode the text it returns an empty slice and the name
// of the last strategy tried. Array items that are not objects are dropped.
func ParseStoreRecords(text string) ([]RawStoreRecord, string) {
	source := ExtractJSONSource(text)

	var (
		decoded interface{}
		used    string
	)
	for _, strategy := range recoveryChain {
		value, err := strategy.decode(source)
		used = strategy.name
		if err == nil {
			decoded = value
			break
		}
	}

	items, ok := decoded.([]interface{})
	if !ok {
		return []RawStoreRecord{}, used
	}

	records := make([]RawStoreRecord, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]interface{}); ok {
			records = append(records, RawStoreRecord(obj))
		}
	}
	return records, used
}

// RepairJSON fixes the malformations models commonly produce: trailing commas
// before a closing bracket or brace, and unescaped quotes inside string values.
func RepairJSON(s string) string {
	s = trailingCommaPattern.ReplaceAllString(s, "$1")
	return escapeStrayQuotes(s)
}

// escapeStrayQuotes escapes a quote found inside a string when the next
// non-space character could not follow a closing quote.
func escapeStrayQuotes(s string) string {
	var out bytes.Buffer
	out.Grow(len(s) + 16)

	inString := false
	for i := 0; i < len(s); i++ {
		ch := s[i]

		if !inString {
			if ch == '"' {
				inString = true
			}
			out.WriteByte(ch)
			continue
		}

		switch ch {
		case '\\':
			out.WriteByte(ch)
			if i+1 < len(s) {
				i++
				out.WriteByte(s[i])
			}
		case '"':
			if closesString(s, i+1) {
				inString = false
				out.WriteByte(ch)
			} else {
				out.WriteString(`\"`)
			}
		default:
			out.WriteByte(ch)
		}
	}

	return out.String()
}

func closesString(s string, from int) bool {
	for j := from; j < len(s); j++ {
		switch s[j] {
		case ' ', '\t', '\n', '\r':
			continue
		case ',', '}', ']', ':':
			return true
		default:
			return false
		}
	}
	return true
}
