package runner

import (
	"regexp"
	"slices"
	"strings"

	"github.com/BrowserStackCE/browserstack-playwright-nx/options"
)

// DefaultExcludedKeys are consumed by the executor and never passed to the runner.
var DefaultExcludedKeys = []string{options.SkipInstall, options.BrowserstackConfig}

var camelBoundary = regexp.MustCompile(`([a-z\d])([A-Z])`)

// KebabCase converts a camelCase option key into the runner's flag name,
// e.g. "grepInvert" becomes "grep-invert". Spaces and underscores become
// hyphens, except for a leading underscore.
func KebabCase(key string) string {
	s := strings.ToLower(camelBoundary.ReplaceAllString(key, "${1}_${2}"))
	b := []byte(s)
	for i, c := range b {
		if c == ' ' || (c == '_' && i > 0) {
			b[i] = '-'
		}
	}
	return string(b)
}

// BuildArgs translates opts into runner flags, one per key, in insertion order.
// Keys in exclude are skipped; with no exclusions given, DefaultExcludedKeys apply.
//
// The runner only accepts kebab-case flags and rejects "--flag=false", so false
// booleans are omitted instead.
func BuildArgs(opts *options.Options, exclude ...string) []string {
	if len(exclude) == 0 {
		exclude = DefaultExcludedKeys
	}
	args := make([]string, 0, opts.Len())
	for _, e := range opts.Entries() {
		if slices.Contains(exclude, e.Key) {
			continue
		}
		flag := "--" + KebabCase(e.Key)

		switch e.Value.Kind() {
		case options.KindList:
			items := e.Value.Items()
			for i := range items {
				items[i] = strings.TrimSpace(items[i])
			}
			args = append(args, flag+"="+strings.Join(items, ","))
		case options.KindBool:
			if b, _ := e.Value.AsBool(); b {
				args = append(args, flag)
			}
		default:
			args = append(args, flag+"="+e.Value.String())
		}
	}
	return args
}
