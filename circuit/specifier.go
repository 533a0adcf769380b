package circuit

import (
	"strconv"
	"strings"

	"github.com/circuitlens/circuitlens/errors"
)

// ParseHeadSpecifier parses one line of the head-specifier
// mini-language and expands it against the given bounds:
//
//	"layer,head"  a single head
//	"layer,:"     all heads in a layer
//	":,head"      one head index across all layers
//	":,:"         every head in every layer
//
// Whitespace around the comma is ignored and only the first line of a
// multi-line paste is honored. Malformed input yields a parse error,
// an index outside bounds a range error. Pairs come back sorted by
// (layer, head).
func ParseHeadSpecifier(text string, bounds Bounds) ([]HeadPair, error) {
	line := text
	if idx := strings.IndexAny(line, "\r\n"); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, errors.NewParseError("empty head specifier")
	}

	parts := strings.Split(line, ",")
	if len(parts) != 2 {
		return nil, errors.NewParseError("head specifier %q must be \"layer,head\"", line)
	}

	layers, err := parseIndexSet(parts[0], bounds.NumLayers, "layer")
	if err != nil {
		return nil, err
	}
	heads, err := parseIndexSet(parts[1], bounds.NumHeads, "head")
	if err != nil {
		return nil, err
	}

	pairs := make([]HeadPair, 0, len(layers)*len(heads))
	for _, layer := range layers {
		for _, head := range heads {
			pairs = append(pairs, HeadPair{Layer: layer, Head: head})
		}
	}
	return pairs, nil
}

// parseIndexSet parses one side of a specifier: ":" expands to all
// indices below limit, otherwise a single bounds-checked integer.
func parseIndexSet(field string, limit int, what string) ([]int, error) {
	field = strings.TrimSpace(field)
	if field == ":" {
		all := make([]int, limit)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}

	n, err := strconv.Atoi(field)
	if err != nil {
		return nil, errors.NewParseError("invalid %s index %q", what, field)
	}
	if n < 0 || n >= limit {
		return nil, errors.NewRangeError("%s %d outside [0,%d)", what, n, limit)
	}
	return []int{n}, nil
}

// ApplySpecifier parses the specifier against the workspace bounds and
// adds the resulting pairs to the individual selection, skipping any
// already selected or grouped. Partial success is normal: the returned
// slice holds only the pairs actually added.
func (w *Workspace) ApplySpecifier(text string) ([]HeadPair, error) {
	pairs, err := ParseHeadSpecifier(text, w.bounds)
	if err != nil {
		return nil, err
	}

	added := make([]HeadPair, 0, len(pairs))
	for _, p := range pairs {
		if w.IsSelected(p) {
			continue
		}
		if _, grouped := w.groupOf(p); grouped {
			continue
		}
		w.selected[p] = struct{}{}
		added = append(added, p)
	}
	return added, nil
}
