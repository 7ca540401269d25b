package feeds

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/samvad-hq/radiodir/pkg/radiobrowser"
)

// Filter is a compiled station predicate, safe for concurrent use.
//
// Expressions see these variables:
//
//	name, url, homepage, countrycode, state, codec  string
//	tags, language, languagecodes                  []string
//	votes, bitrate                                 int
//	lastcheckok, geo                               bool
//
// For example: `"jazz" in tags && bitrate >= 128 && countrycode == "FR"`.
type Filter struct {
	expression string
	program    *vm.Program
}

// CompileFilter compiles expression. An empty expression yields a Filter
// that matches every station.
func CompileFilter(expression string) (*Filter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return &Filter{}, nil
	}

	program, err := expr.Compile(expression,
		expr.Env(stationEnv(radiobrowser.Station{})),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", expression, err)
	}
	return &Filter{expression: expression, program: program}, nil
}

// Match reports whether st passes the filter. Evaluation errors count as a
// mismatch.
func (f *Filter) Match(st radiobrowser.Station) bool {
	if f == nil || f.program == nil {
		return true
	}
	out, err := expr.Run(f.program, stationEnv(st))
	if err != nil {
		return false
	}
	ok, _ := out.(bool)
	return ok
}

// Apply returns the stations that pass the filter, preserving order.
func (f *Filter) Apply(stations []radiobrowser.Station) []radiobrowser.Station {
	if f == nil || f.program == nil {
		return stations
	}
	out := make([]radiobrowser.Station, 0, len(stations))
	for _, st := range stations {
		if f.Match(st) {
			out = append(out, st)
		}
	}
	return out
}

// Expression returns the source expression.
func (f *Filter) Expression() string {
	if f == nil {
		return ""
	}
	return f.expression
}

func stationEnv(st radiobrowser.Station) map[string]any {
	_, _, hasGeo := st.Location()
	return map[string]any{
		"name":          st.Name,
		"url":           st.URL,
		"homepage":      st.Homepage,
		"countrycode":   st.CountryCode,
		"state":         st.State,
		"codec":         st.Codec,
		"tags":          nonNil(st.Tags),
		"language":      nonNil(st.Language),
		"languagecodes": nonNil(st.LanguageCodes),
		"votes":         st.Votes,
		"bitrate":       st.Bitrate,
		"lastcheckok":   st.LastCheckOK,
		"geo":           hasGeo,
	}
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
