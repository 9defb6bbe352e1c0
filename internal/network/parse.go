package network

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Markers understood by every OutputParser.
const (
	MarkerName     = "name"  // pseudo-marker: interface name from the header
	MarkerIndex    = "index" // pseudo-marker: ifindex from the header
	MarkerAlias    = "alias"
	MarkerEther    = "link/ether"
	MarkerPermAddr = "permaddr"
	MarkerState    = "state"
)

// OutputParser extracts named fields from `ip link show` output.
// Swapping the parser is the only change needed when the tool's output
// format drifts.
type OutputParser interface {
	// QueryOptions are extra global `ip` options the parser needs (e.g. "-j").
	QueryOptions() []string
	Field(raw, marker string) (string, bool)
	FlagList(raw string) ([]string, bool)
}

// ParseField returns the whitespace-separated token immediately following
// the first token equal to marker. It reports false when marker is absent
// or is the last token.
func ParseField(raw, marker string) (string, bool) {
	fields := strings.Fields(raw)
	for i, f := range fields {
		if f != marker {
			continue
		}
		if i+1 < len(fields) {
			return fields[i+1], true
		}
		return "", false
	}
	return "", false
}

// ParseFieldLine is like ParseField but returns the rest of the marker's
// line, for values that may contain spaces.
func ParseFieldLine(raw, marker string) (string, bool) {
	for _, line := range strings.Split(raw, "\n") {
		fields := strings.Fields(line)
		for i, f := range fields {
			if f != marker {
				continue
			}
			if i+1 < len(fields) {
				return strings.Join(fields[i+1:], " "), true
			}
			return "", false
		}
	}
	return "", false
}

// ParseFlagList parses the first bracketed, comma-separated flag list
// ("<BROADCAST,MULTICAST,UP>") into upper-case tokens.
func ParseFlagList(raw string) ([]string, bool) {
	for _, f := range strings.Fields(raw) {
		if !strings.HasPrefix(f, "<") || !strings.HasSuffix(f, ">") {
			continue
		}
		inner := strings.Trim(f, "<>")
		if inner == "" {
			return []string{}, true
		}
		parts := strings.Split(inner, ",")
		flags := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				flags = append(flags, strings.ToUpper(p))
			}
		}
		return flags, true
	}
	return nil, false
}

// parseHeader reads "2: eth0@if5: <...>" into index and name.
func parseHeader(raw string) (int, string, bool) {
	line, _, _ := strings.Cut(strings.TrimLeft(raw, "\n"), "\n")
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, "", false
	}
	idx, err := strconv.Atoi(strings.TrimSuffix(fields[0], ":"))
	if err != nil {
		return 0, "", false
	}
	name := strings.TrimSuffix(fields[1], ":")
	name, _, _ = strings.Cut(name, "@")
	if name == "" {
		return 0, "", false
	}
	return idx, name, true
}

// TextParser reads the default human-readable `ip link show` format.
type TextParser struct{}

// QueryOptions adds nothing; text is the default output.
func (TextParser) QueryOptions() []string { return nil }

// Field reads index and name from the header line, the alias from its own
// line and everything else as the token after marker.
func (TextParser) Field(raw, marker string) (string, bool) {
	switch marker {
	case MarkerIndex:
		idx, _, ok := parseHeader(raw)
		if !ok {
			return "", false
		}
		return strconv.Itoa(idx), true
	case MarkerName:
		_, name, ok := parseHeader(raw)
		return name, ok
	case MarkerAlias:
		return ParseFieldLine(raw, marker)
	default:
		return ParseField(raw, marker)
	}
}

// FlagList returns the tokens between < and > in the header.
func (TextParser) FlagList(raw string) ([]string, bool) {
	return ParseFlagList(raw)
}

// JSONParser reads `ip -j link show` output.
type JSONParser struct{}

var jsonKeys = map[string]string{
	MarkerName:     "ifname",
	MarkerIndex:    "ifindex",
	MarkerAlias:    "ifalias",
	MarkerEther:    "address",
	MarkerPermAddr: "permaddr",
	MarkerState:    "operstate",
}

// QueryOptions asks ip for JSON.
func (JSONParser) QueryOptions() []string { return []string{"-j"} }

// Field maps marker to the JSON key of the first link object. The ethernet
// address is only reported for link_type ether.
func (JSONParser) Field(raw, marker string) (string, bool) {
	link, ok := decodeLink(raw)
	if !ok {
		return "", false
	}
	key, known := jsonKeys[marker]
	if !known {
		key = marker
	}
	if marker == MarkerEther {
		if lt, _ := link["link_type"].(string); lt != "ether" {
			return "", false
		}
	}
	switch v := link[key].(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}

// FlagList returns the upper-cased "flags" array.
func (JSONParser) FlagList(raw string) ([]string, bool) {
	link, ok := decodeLink(raw)
	if !ok {
		return nil, false
	}
	list, ok := link["flags"].([]any)
	if !ok {
		return nil, false
	}
	flags := make([]string, 0, len(list))
	for _, f := range list {
		if s, ok := f.(string); ok {
			flags = append(flags, strings.ToUpper(s))
		}
	}
	return flags, true
}

func decodeLink(raw string) (map[string]any, bool) {
	var links []map[string]any
	if err := json.Unmarshal([]byte(raw), &links); err != nil || len(links) == 0 {
		return nil, false
	}
	return links[0], true
}

// ParserByName maps "text"/"json" to a parser. Empty means text.
func ParserByName(name string) (OutputParser, error) {
	switch strings.ToLower(name) {
	case "", "text":
		return TextParser{}, nil
	case "json":
		return JSONParser{}, nil
	default:
		return nil, &InvalidValueError{Attribute: "parser", Value: name, Reason: "expected text or json"}
	}
}
