package config

import (
	"os"
	"regexp"
)

var envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnv substitutes ${VAR} references in a loaded config string
// with the current process environment, leaving unresolved
// references untouched rather than collapsing them to empty string —
// a missing secret should surface as a literal, not silently vanish.
func ExpandEnv(raw string) string {
	return envRefPattern.ReplaceAllStringFunc(raw, func(match string) string {
		name := envRefPattern.FindStringSubmatch(match)[1]
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return match
	})
}
