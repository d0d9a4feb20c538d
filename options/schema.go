package options

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Keys consumed by the executor itself rather than forwarded to the test runner.
const (
	SkipInstall        = "skipInstall"
	BrowserstackConfig = "browserstackConfig"
)

// Spec describes the accepted kinds of a known option and, for enumerations,
// the accepted values.
type Spec struct {
	Kinds []Kind
	Enum  []string
}

func (s Spec) accepts(k Kind) bool {
	return slices.Contains(s.Kinds, k)
}

// allows reports whether v fits s. Scalars render the same either way, so a
// number is allowed where free text is and numeric text where a number is.
func (s Spec) allows(v Value) bool {
	if s.accepts(v.Kind()) {
		return true
	}
	switch v.Kind() {
	case KindNumber:
		return s.accepts(KindString) && len(s.Enum) == 0
	case KindString:
		if !s.accepts(KindNumber) {
			return false
		}
		_, err := strconv.ParseFloat(strings.TrimSpace(v.String()), 64)
		return err == nil
	default:
		return false
	}
}

var (
	stringOpt = Spec{Kinds: []Kind{KindString}}
	numberOpt = Spec{Kinds: []Kind{KindNumber}}
	boolOpt   = Spec{Kinds: []Kind{KindBool}}
)

// Schema is the fixed option set understood by the executor.
// If the runner's "projects" setting is used, browser takes a project name
// instead of all/chromium/firefox/webkit, so it is left unconstrained.
var Schema = map[string]Spec{
	"browser":         stringOpt,
	"config":          stringOpt,
	"debug":           boolOpt,
	"forbidOnly":      boolOpt,
	"fullyParallel":   boolOpt,
	"grep":            stringOpt,
	"globalTimeout":   numberOpt,
	"grepInvert":      stringOpt,
	"headed":          boolOpt,
	"ignoreSnapshots": boolOpt,
	"workers":         {Kinds: []Kind{KindString, KindNumber}},
	"list":            boolOpt,
	"maxFailures":     {Kinds: []Kind{KindNumber, KindBool}},
	"noDeps":          boolOpt,
	"output":          stringOpt,
	"passWithNoTests": boolOpt,
	"project":         {Kinds: []Kind{KindList}},
	"quiet":           boolOpt,
	"repeatEach":      numberOpt,
	"reporter": {
		Kinds: []Kind{KindString},
		Enum:  []string{"list", "line", "dot", "json", "junit", "null", "github", "html", "blob"},
	},
	"retries": numberOpt,
	"shard":   stringOpt,
	"timeout": numberOpt,
	"trace": {
		Kinds: []Kind{KindString},
		Enum:  []string{"on", "off", "on-first-retry", "on-all-retries", "retain-on-failure"},
	},
	"updateSnapshots":  boolOpt,
	"ui":               boolOpt,
	"uiHost":           stringOpt,
	"uiPort":           stringOpt,
	SkipInstall:        boolOpt,
	BrowserstackConfig: stringOpt,
}

// Validate checks every known key in o against Schema. Unknown keys are ignored;
// use UnknownKeys to report them.
func Validate(o *Options) error {
	for _, e := range o.Entries() {
		spec, ok := Schema[e.Key]
		if !ok {
			continue
		}
		if !spec.allows(e.Value) {
			return fmt.Errorf("option %q must be %s, got %s", e.Key, kindList(spec.Kinds), e.Value.Kind())
		}
		if len(spec.Enum) > 0 && !slices.Contains(spec.Enum, e.Value.String()) {
			return fmt.Errorf("option %q must be one of %v, got %q", e.Key, spec.Enum, e.Value.String())
		}
	}
	return nil
}

// UnknownKeys returns the keys of o that are not part of Schema, sorted.
func UnknownKeys(o *Options) []string {
	var unknown []string
	for _, key := range o.Keys() {
		if _, ok := Schema[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	return unknown
}

func kindList(kinds []Kind) string {
	if len(kinds) == 1 {
		return kinds[0].String()
	}
	s := ""
	for i, k := range kinds {
		if i > 0 {
			s += " or "
		}
		s += k.String()
	}
	return s
}
