package osm

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"
)

func errMissingMember(relationId osm.RelationID, wayRef int64) error {
	return errors.Errorf("Member way %d of relation %d is not part of the input", wayRef, relationId)
}

// assembleRings joins the given lines to closed rings. Lines already being closed are used as they are, the others are
// connected at equal end points regardless of their direction.
func assembleRings(lines []orb.LineString) ([]orb.Ring, error) {
	var rings []orb.Ring
	var openLines []orb.LineString

	for _, line := range lines {
		if len(line) == 0 {
			continue
		}
		if isClosedRing(line) {
			rings = append(rings, orb.Ring(line.Clone()))
		} else {
			openLines = append(openLines, line)
		}
	}

	for len(openLines) > 0 {
		current := openLines[0].Clone()
		openLines = openLines[1:]

		for !isClosedRing(current) {
			nextIndex := -1
			var next orb.LineString
			for i, candidate := range openLines {
				if candidate[0] == current[len(current)-1] {
					next = candidate
				} else if candidate[len(candidate)-1] == current[len(current)-1] {
					next = candidate.Clone()
					next.Reverse()
				} else {
					continue
				}
				nextIndex = i
				break
			}

			if nextIndex == -1 {
				return nil, errors.Errorf("Unable to close ring starting at %v and ending at %v", current[0], current[len(current)-1])
			}

			current = append(current, next[1:]...)
			openLines = append(openLines[:nextIndex], openLines[nextIndex+1:]...)
		}

		rings = append(rings, orb.Ring(current))
	}

	return rings, nil
}

// toMultiPolygon creates one polygon per outer ring. Each inner ring becomes a hole of the first outer ring containing
// it, inner rings outside of all outer rings are dropped.
func toMultiPolygon(outerRings []orb.Ring, innerRings []orb.Ring) orb.MultiPolygon {
	multiPolygon := make(orb.MultiPolygon, len(outerRings))
	for i, outer := range outerRings {
		multiPolygon[i] = orb.Polygon{outer}
	}

	for _, inner := range innerRings {
		for i, outer := range outerRings {
			if planar.RingContains(outer, inner[0]) {
				multiPolygon[i] = append(multiPolygon[i], inner)
				break
			}
		}
	}

	return multiPolygon
}
