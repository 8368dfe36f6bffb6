package config

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"
)

// envRef matches $$ or ${NAME}.
var envRef = regexp.MustCompile(`\$\$|\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnvStrict replaces every ${NAME} in a configuration document with
// the value of the environment variable NAME. $$ yields a literal $ and any
// other $ is left as is, so passwords containing $ survive.
//
// References to unset variables are collected rather than expanded; the
// error wraps ErrMissingEnv and names each variable once, sorted, with the
// line of its first use. A variable set to the empty string is not missing.
func ExpandEnvStrict(doc string) (string, error) {
	firstLine := make(map[string]int)

	lines := strings.SplitAfter(doc, "\n")
	for i, line := range lines {
		lines[i] = envRef.ReplaceAllStringFunc(line, func(ref string) string {
			if ref == "$$" {
				return "$"
			}
			name := ref[2 : len(ref)-1]
			if v, ok := os.LookupEnv(name); ok {
				return v
			}
			if _, seen := firstLine[name]; !seen {
				firstLine[name] = i + 1
			}
			return ref
		})
	}

	if len(firstLine) > 0 {
		names := make([]string, 0, len(firstLine))
		for name := range firstLine {
			names = append(names, name)
		}
		slices.Sort(names)

		refs := make([]string, len(names))
		for i, name := range names {
			refs[i] = fmt.Sprintf("%s (line %d)", name, firstLine[name])
		}
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(refs, ", "))
	}

	return strings.Join(lines, ""), nil
}
