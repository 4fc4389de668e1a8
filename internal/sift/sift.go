// Package sift filters a mapping of named values against the set of
// names a constructor accepts. It is a pure utility with no knowledge
// of schemas or models.
package sift

// Keywords returns the subset of values whose keys appear in accepted.
// When acceptAll is set the input is returned unchanged, since any key
// is legal for a constructor that takes arbitrary extra keywords.
func Keywords(values map[string]any, accepted []string, acceptAll bool) map[string]any {
	if acceptAll || values == nil {
		return values
	}
	out := make(map[string]any, len(accepted))
	for _, name := range accepted {
		if v, ok := values[name]; ok {
			out[name] = v
		}
	}
	return out
}
