package geo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ctessum/geom/proj"
)

// CRS is a coordinate reference system, either an EPSG code like "EPSG:32648" or a proj4 definition starting with
// "+proj=".
type CRS string

const (
	WGS84       CRS = "EPSG:4326"
	WebMercator CRS = "EPSG:3857"

	wgs84Definition       = "+proj=longlat +datum=WGS84 +no_defs"
	webMercatorDefinition = "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +no_defs"
)

// Normalize returns the upper case code with the common aliases resolved. Proj4 definitions are only trimmed.
func (c CRS) Normalize() CRS {
	if c.isProj4() {
		return CRS(strings.TrimSpace(string(c)))
	}

	code := strings.ToUpper(strings.TrimSpace(string(c)))
	switch code {
	case "CRS84", "OGC:CRS84", "URN:OGC:DEF:CRS:OGC:1.3:CRS84", "WGS84":
		return WGS84
	case "EPSG:900913", "EPSG:3785", "EPSG:102100":
		return WebMercator
	}
	return CRS(code)
}

func (c CRS) isProj4() bool {
	return strings.HasPrefix(strings.TrimSpace(string(c)), "+")
}

// Definition returns the proj4 definition of this reference. Supported are WGS84, Web Mercator, the WGS84 UTM zones
// (EPSG:326xx north, EPSG:327xx south) and plain proj4 definitions.
func (c CRS) Definition() (string, error) {
	code := c.Normalize()
	switch {
	case code.isProj4():
		return string(code), nil
	case code == WGS84:
		return wgs84Definition, nil
	case code == WebMercator:
		return webMercatorDefinition, nil
	}

	if zone, ok := c.UtmZone(); ok {
		definition := fmt.Sprintf("+proj=utm +zone=%d", zone)
		if strings.HasPrefix(string(code), "EPSG:327") {
			definition += " +south"
		}
		return definition + " +datum=WGS84 +units=m +no_defs", nil
	}

	return "", NewInvalidInputError("Unknown coordinate reference '%s'", string(c))
}

// SpatialReference parses the definition of this reference.
func (c CRS) SpatialReference() (*proj.SR, error) {
	definition, err := c.Definition()
	if err != nil {
		return nil, err
	}

	sr, err := proj.Parse(definition)
	if err != nil {
		return nil, WrapInvalidInputError(err, "Unable to parse coordinate reference '%s'", string(c))
	}
	return sr, nil
}

// IsLinear returns true when distances in this reference are measured in meters. Geographic references (longlat) are
// angular. Unknown codes are rejected.
func (c CRS) IsLinear() (bool, error) {
	sr, err := c.SpatialReference()
	if err != nil {
		return false, err
	}

	switch sr.Name {
	case "longlat", "latlong":
		return false, nil
	}
	return true, nil
}

// UtmZone returns the UTM zone number of this reference, if it is a WGS84 UTM zone.
func (c CRS) UtmZone() (int, bool) {
	code := string(c.Normalize())
	if !strings.HasPrefix(code, "EPSG:326") && !strings.HasPrefix(code, "EPSG:327") {
		return 0, false
	}

	zone, err := strconv.Atoi(strings.TrimPrefix(strings.TrimPrefix(code, "EPSG:326"), "EPSG:327"))
	if err != nil || len(code) != len("EPSG:32648") || zone < 1 || zone > 60 {
		return 0, false
	}
	return zone, true
}

// RequireLinear returns an InvalidInputError unless this reference is linear.
func (c CRS) RequireLinear() error {
	linear, err := c.IsLinear()
	if err != nil {
		return err
	}
	if !linear {
		return NewInvalidInputError("Coordinate reference '%s' is not linear, project the data into a meter based reference first", string(c))
	}
	return nil
}
