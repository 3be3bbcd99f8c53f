// Package extract converts saved flight search-result HTML pages into the
// envelope JSON files the loader ingests. It exists so scraped pages can be
// replayed into the pipeline without re-fetching anything.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Records parses the given HTML and extracts one record map per element
// matched by mf.RecordSelector, applying each mapping relative to that
// element. The returned slice preserves DOM order.
//
// Resilience: a record whose mappings fail (e.g. invalid regex) is skipped so
// one broken row does not lose the whole page; missing selectors simply
// produce no field.
func Records(html string, mf *MappingFile) ([]map[string]any, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var records []map[string]any
	doc.Find(mf.RecordSelector).Each(func(_ int, rec *goquery.Selection) {
		obj, err := applyMappings(rec, mf.Mappings)
		if err != nil {
			return
		}
		if len(obj) > 0 {
			records = append(records, obj)
		}
	})
	return records, nil
}

// applyMappings evaluates all mappings relative to root and returns a
// JSON-ready map.
//
// Semantics:
//   - Only the first selector match is extracted.
//   - If Mapping.Match is set, it is a regular expression: with capture
//     groups, group 1 is the output; without, the full match. No match
//     omits the field.
func applyMappings(root *goquery.Selection, mappings []Mapping) (map[string]any, error) {
	output := make(map[string]any)

	for _, m := range mappings {
		re, err := compileOptionalRegex(m.Match, m.Field)
		if err != nil {
			return nil, err
		}

		sel := root.Find(m.Selector).First()
		if sel.Length() == 0 {
			continue
		}

		var v string
		switch m.Extract {
		case "", "text":
			v = strings.TrimSpace(sel.Text())
		case "attr":
			if m.Attr == "" {
				continue
			}
			if val, ok := sel.Attr(m.Attr); ok {
				v = strings.TrimSpace(val)
			}
		default:
			// Unknown extraction modes intentionally produce no value.
			continue
		}

		v = applyRegexFilter(v, re)
		if v == "" {
			continue
		}
		output[m.Field] = v
	}

	return output, nil
}

// compileOptionalRegex compiles pattern, annotating errors with the output
// field to make debugging mapping files straightforward. Empty pattern means
// no filtering.
func compileOptionalRegex(pattern, field string) (*regexp.Regexp, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex for field=%q: %w", field, err)
	}
	return re, nil
}

func applyRegexFilter(value string, re *regexp.Regexp) string {
	if value == "" || re == nil {
		return value
	}

	sm := re.FindStringSubmatch(value)
	if len(sm) == 0 {
		return ""
	}
	if len(sm) > 1 {
		return sm[1]
	}
	return sm[0]
}
