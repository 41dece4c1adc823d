package executor

import (
	"sort"
	"strings"

	"github.com/dream-horizon/delivr/ent"
)

// generatePlatformVersionString builds the combined version string
// stamped on release tags and store uploads: each platform's mapping
// rendered as "version_platform", sorted by platform name and joined
// with "_" (spec.md §4.C). An empty input yields "unknown" rather than
// an empty string.
func generatePlatformVersionString(mappings []*ent.PlatformTargetMapping) string {
	if len(mappings) == 0 {
		return "unknown"
	}

	parts := make([]string, 0, len(mappings))
	for _, m := range mappings {
		parts = append(parts, string(m.Platform)+"\x00"+m.Version)
	}
	sort.Strings(parts)

	segments := make([]string, 0, len(mappings))
	for _, p := range parts {
		split := strings.SplitN(p, "\x00", 2)
		platform, version := split[0], split[1]
		segments = append(segments, version+"_"+platform)
	}
	return strings.Join(segments, "_")
}
