package app

import (
	"fmt"
	"strings"
	"time"
)

var (
	// Version is filled by ldflags in release builds.
	Version = "dev"
	// BuildDate is filled by ldflags in release builds.
	BuildDate = ""
	// Commit is filled by ldflags in release builds.
	Commit = ""
)

func BuildVersion() string {
	version := strings.TrimSpace(Version)
	if version == "" {
		return "dev"
	}

	return version
}

func BuildDateYMD() string {
	raw := strings.TrimSpace(BuildDate)
	if raw == "" {
		return ""
	}

	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed.Format("2006-01-02")
	}

	if len(raw) >= len("2006-01-02") {
		date := raw[:len("2006-01-02")]
		if _, err := time.Parse("2006-01-02", date); err == nil {
			return date
		}
	}

	return raw
}

// BuildString is the one-line version shown by -version, e.g.
// "smartble 0.3.0 (2026-01-30, 1a2b3c4)".
func BuildString() string {
	var details []string
	if date := BuildDateYMD(); date != "" {
		details = append(details, date)
	}
	if commit := strings.TrimSpace(Commit); commit != "" {
		if len(commit) > 7 {
			commit = commit[:7]
		}
		details = append(details, commit)
	}

	if len(details) == 0 {
		return fmt.Sprintf("%s %s", Name, BuildVersion())
	}
	return fmt.Sprintf("%s %s (%s)", Name, BuildVersion(), strings.Join(details, ", "))
}
