package geo

import (
	"math"

	"github.com/ctessum/geom/proj"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// Project converts the geometry from one reference into another. The input geometry is not modified.
func Project(g orb.Geometry, from CRS, to CRS) (orb.Geometry, error) {
	from = from.Normalize()
	to = to.Normalize()

	if from == to {
		return g, nil
	}

	transform, err := getTransformer(from, to)
	if err != nil {
		return nil, err
	}

	var transformErr error
	projected := project.Geometry(orb.Clone(g), func(p orb.Point) orb.Point {
		x, y, err := transform(p.X(), p.Y())
		if err != nil {
			if transformErr == nil {
				transformErr = err
			}
			return p
		}
		return orb.Point{x, y}
	})
	if transformErr != nil {
		return nil, WrapInvalidInputError(transformErr, "Unable to project geometry from '%s' to '%s'", from, to)
	}

	return projected, nil
}

// GetProjection returns the point projection between the two references. Points that can't be projected become NaN
// points, which fail the geometry validation later on.
func GetProjection(from CRS, to CRS) (orb.Projection, error) {
	transform, err := getTransformer(from, to)
	if err != nil {
		return nil, err
	}

	return func(p orb.Point) orb.Point {
		x, y, err := transform(p.X(), p.Y())
		if err != nil {
			return orb.Point{math.NaN(), math.NaN()}
		}
		return orb.Point{x, y}
	}, nil
}

func getTransformer(from CRS, to CRS) (proj.Transformer, error) {
	from = from.Normalize()
	to = to.Normalize()

	switch {
	case from == to:
		return func(x, y float64) (float64, float64, error) { return x, y, nil }, nil
	case from == WGS84 && to == WebMercator:
		return fromOrbProjection(project.WGS84.ToMercator), nil
	case from == WebMercator && to == WGS84:
		return fromOrbProjection(project.Mercator.ToWGS84), nil
	case from == WebMercator || to == WebMercator:
		// Web Mercator is always converted via WGS84 with the spherical formulas of orb
		first, err := getTransformer(from, WGS84)
		if err != nil {
			return nil, err
		}
		second, err := getTransformer(WGS84, to)
		if err != nil {
			return nil, err
		}
		return chainTransformers(first, second), nil
	}

	fromSR, err := from.SpatialReference()
	if err != nil {
		return nil, err
	}
	toSR, err := to.SpatialReference()
	if err != nil {
		return nil, err
	}

	transform, err := fromSR.NewTransform(toSR)
	if err != nil {
		return nil, WrapInvalidInputError(err, "Unsupported projection from '%s' to '%s'", from, to)
	}
	return transform, nil
}

func chainTransformers(first proj.Transformer, second proj.Transformer) proj.Transformer {
	return func(x, y float64) (float64, float64, error) {
		x, y, err := first(x, y)
		if err != nil {
			return 0, 0, err
		}
		return second(x, y)
	}
}

// fromOrbProjection uses the spherical formulas of orb for the most common conversion.
func fromOrbProjection(projection orb.Projection) proj.Transformer {
	return func(x, y float64) (float64, float64, error) {
		p := projection(orb.Point{x, y})
		return p.X(), p.Y(), nil
	}
}
