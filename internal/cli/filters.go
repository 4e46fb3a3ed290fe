package cli

import "strings"

// parseNameSet splits a comma-separated list into a set of names.
func parseNameSet(raw string) map[string]struct{} {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	out := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		out[name] = struct{}{}
	}
	return out
}

// selected reports whether name passes the filter; an empty filter selects everything.
func selected(filter map[string]struct{}, name string) bool {
	if len(filter) == 0 {
		return true
	}
	_, ok := filter[name]
	return ok
}
