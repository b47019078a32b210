package util

import (
	"os"
	"strconv"
	"strings"
)

// ReadFileString reads a file and returns its contents as a string.
func ReadFileString(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ParseKeyValueLines parses "key: value" or "key value" lines.
func ParseKeyValueLines(content string) map[string]string {
	m := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var key, val string
		if idx := strings.Index(line, ":"); idx >= 0 {
			key = strings.TrimSpace(line[:idx])
			val = strings.TrimSpace(line[idx+1:])
		} else {
			fields := strings.Fields(line)
			key = fields[0]
			if len(fields) >= 2 {
				val = strings.Join(fields[1:], " ")
			}
		}
		if key != "" {
			m[key] = val
		}
	}
	return m
}

// ParseKeyValueFile parses a file of "key: value" lines.
func ParseKeyValueFile(path string) (map[string]string, error) {
	content, err := ReadFileString(path)
	if err != nil {
		return nil, err
	}
	return ParseKeyValueLines(content), nil
}

// ParseUint64 parses a string to uint64, returning 0 on error.
// A trailing " kB" unit is ignored.
func ParseUint64(s string) uint64 {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "kB")
	s = strings.TrimSpace(s)
	v, _ := strconv.ParseUint(s, 10, 64)
	return v
}

// ParseInt parses a string to int, returning 0 on error.
func ParseInt(s string) int {
	v, _ := strconv.Atoi(strings.TrimSpace(s))
	return v
}

// ParseFloat64 parses a string to float64, returning 0 on error.
func ParseFloat64(s string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v
}

// SplitNul splits a NUL-separated /proc blob (cmdline, environ).
func SplitNul(data []byte, into []string) []string {
	into = into[:0]
	start := 0
	for i, b := range data {
		if b == 0 {
			if i > start {
				into = append(into, string(data[start:i]))
			}
			start = i + 1
		}
	}
	if start < len(data) {
		into = append(into, string(data[start:]))
	}
	return into
}
