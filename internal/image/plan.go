package image

import (
	"path"
	"slices"
	"strings"
)

// Orders layers by increasing volatility.
//
// The sort is stable, so layers of equal kind keep their input order.
// Destinations must pass [CheckDestinations]. The input is not modified.
func Plan(layers []Layer) ([]Layer, error) {
	if err := CheckDestinations(layers); err != nil {
		return nil, err
	}

	planned := slices.Clone(layers)
	slices.SortStableFunc(planned, func(a, b Layer) int {
		return a.Kind.Rank() - b.Kind.Rank()
	})
	return planned, nil
}

// Checks that layers can be staged side by side.
//
// Destinations must be unique; the first repeat fails with a
// [DuplicateLayerError]. Layers of the same kind share a staging bucket
// keyed by destination, so one may not lie beneath another; the first such
// pair fails with an [OverlappingLayerError]. Extra-resources layers are
// staged by name and may nest freely.
func CheckDestinations(layers []Layer) error {
	seen := make(map[string]struct{}, len(layers))
	buckets := make(map[LayerKind][]string)

	for _, l := range layers {
		dest := path.Clean(l.Destination)
		if _, ok := seen[dest]; ok {
			return &DuplicateLayerError{Destination: l.Destination}
		}
		seen[dest] = struct{}{}

		if l.Kind == KindExtraResources {
			continue
		}
		for _, other := range buckets[l.Kind] {
			if within(dest, other) || within(other, dest) {
				return &OverlappingLayerError{Destination: l.Destination, Other: other}
			}
		}
		buckets[l.Kind] = append(buckets[l.Kind], dest)
	}
	return nil
}

// Whether the cleaned path p lies strictly beneath the cleaned path dir.
func within(p, dir string) bool {
	if dir == "/" {
		return p != "/"
	}
	return strings.HasPrefix(p, dir+"/")
}
