package negotiate

import (
	"cmp"
	"slices"

	"github.com/WhileEndless/go-conneg/pkg/accept"
	"github.com/WhileEndless/go-conneg/pkg/headers"
	"github.com/WhileEndless/go-conneg/pkg/mediatype"
	"github.com/WhileEndless/go-conneg/pkg/quality"
)

// Combined pairs a client media range with a compatible server media type
type Combined struct {
	// Type is the more specific of the two: concrete names replace wildcards
	Type          mediatype.MediaType
	Client        accept.AcceptableMediaType
	Server        accept.QualitySourceMediaType
	Quality       quality.Value
	QualitySource quality.Value
	// Distance counts the wildcards of one side filled in by the other,
	// e.g. 1 for text/* against text/html and 2 for text/html against */*
	Distance int
}

// Combine builds a Combined from a client range and a server type.
// ok is false when they are incompatible.
func Combine(client accept.AcceptableMediaType, server accept.QualitySourceMediaType) (Combined, bool) {
	if !client.IsCompatible(server.MediaType) {
		return Combined{}, false
	}

	c, s := client.MediaType, server.MediaType
	t := mediatype.MostSpecific(s, c)
	distance := 0

	switch {
	case c.IsWildcardType() && !s.IsWildcardType():
		t.Type = s.Type
		distance++
	case s.IsWildcardType() && !c.IsWildcardType():
		t.Type = c.Type
		distance++
	}
	switch {
	case c.IsWildcardSubtype() && !s.IsWildcardSubtype():
		t.Subtype = s.Subtype
		distance++
	case s.IsWildcardSubtype() && !c.IsWildcardSubtype():
		t.Subtype = c.Subtype
		distance++
	}

	return Combined{
		Type:          t,
		Client:        client,
		Server:        server,
		Quality:       client.Quality,
		QualitySource: server.QualitySource,
		Distance:      distance,
	}, true
}

// CombineMediaTypes pairs every acceptable range of the request with every
// compatible type in produces and sorts the pairs best first:
//
//  1. specificity of the combined type: type/subtype > type/* > */*
//  2. client quality, descending
//  3. server quality-of-source, descending
//  4. distance, ascending
//  5. client position, then server position
//
// A server type whose most specific compatible client range has q=0 is
// refused and produces no pairs. So are server types with qs=0.
func (n *Negotiator) CombineMediaTypes(h *headers.Headers, produces []accept.QualitySourceMediaType) ([]Combined, error) {
	acceptable, err := n.MediaTypes(h)
	if err != nil {
		return nil, err
	}

	var out []Combined
	for _, server := range produces {
		if server.QualitySource == quality.Minimum {
			continue
		}
		if refused(acceptable, server.MediaType) {
			continue
		}
		for _, client := range acceptable {
			if client.Quality == quality.Minimum {
				continue
			}
			if c, ok := Combine(client, server); ok {
				out = append(out, c)
			}
		}
	}

	slices.SortFunc(out, n.compareCombined)
	return out, nil
}

// SelectMediaType returns the best pair of CombineMediaTypes.
// ok is false when no server type is acceptable.
func (n *Negotiator) SelectMediaType(h *headers.Headers, produces []accept.QualitySourceMediaType) (best Combined, ok bool, err error) {
	combined, err := n.CombineMediaTypes(h, produces)
	if err != nil || len(combined) == 0 {
		return Combined{}, false, err
	}
	return combined[0], true, nil
}

func (n *Negotiator) compareCombined(x, y Combined) int {
	if d := mediatype.CompareSpecificity(x.Type, y.Type); d != 0 {
		return d
	}
	if d := cmp.Compare(y.Quality, x.Quality); d != 0 {
		return d
	}
	if d := cmp.Compare(y.QualitySource, x.QualitySource); d != 0 {
		return d
	}
	if d := cmp.Compare(x.Distance, y.Distance); d != 0 {
		return d
	}
	if d := n.comparePosition(x.Client.Position, y.Client.Position); d != 0 {
		return d
	}
	return n.comparePosition(x.Server.Position, y.Server.Position)
}

func (n *Negotiator) comparePosition(x, y int) int {
	if n.tieBreak == accept.ReverseDeclarationOrder {
		return cmp.Compare(y, x)
	}
	return cmp.Compare(x, y)
}

// refused reports whether the most specific client range covering m has q=0
func refused(acceptable []accept.AcceptableMediaType, m mediatype.MediaType) bool {
	best, ok := mostSpecificRange(acceptable, m)
	return ok && best.Quality == quality.Minimum
}

// mostSpecificRange finds the most specific range compatible with m. On a
// tie the earlier range wins, which in a sorted list is the higher quality.
func mostSpecificRange(acceptable []accept.AcceptableMediaType, m mediatype.MediaType) (accept.AcceptableMediaType, bool) {
	var best accept.AcceptableMediaType
	found := false
	for _, a := range acceptable {
		if !a.IsCompatible(m) {
			continue
		}
		if !found || a.Specificity() > best.Specificity() {
			best, found = a, true
		}
	}
	return best, found
}
