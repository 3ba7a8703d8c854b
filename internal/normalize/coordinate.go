package normalize

import (
	"fmt"
	"strconv"

	"gorm.io/gorm/clause"
)

// ParseCoordinate converts an arbitrary stored coordinate representation
// (number, numeric string, empty string, NULL) into a verified finite degree
// value. Invalid input degrades to nil, never to a default number - there is
// no safe default coordinate.
func ParseCoordinate(raw any) *float64 {
	return Finite(raw)
}

// FormatCoordinate renders a parsed coordinate back into its canonical stored
// string form.
func FormatCoordinate(v *float64) *string {
	if v == nil {
		return nil
	}
	s := strconv.FormatFloat(*v, 'f', -1, 64)
	return &s
}

// BuildGeomValue derives the point value stored in the geom column. The pair
// is encoded longitude first: spatial convention is (x, y) = (lon, lat), and
// reversing the order corrupts every spatial query silently.
func BuildGeomValue(lat, lon *float64) *string {
	if lat == nil || lon == nil {
		return nil
	}
	s := fmt.Sprintf("SRID=4326;POINT(%s %s)",
		strconv.FormatFloat(*lon, 'f', -1, 64),
		strconv.FormatFloat(*lat, 'f', -1, 64))
	return &s
}

// BuildGeomUpdateExpr returns the geom assignment for a partial update. A
// coordinate the caller did not touch falls back to the stored column, so an
// update that only sets longitude keeps the previously stored latitude. The
// result is NULL whenever the effective post-update latitude or longitude is
// NULL.
func BuildGeomUpdateExpr(latTouched, lonTouched bool, lat, lon *float64) clause.Expr {
	latSQL, lonSQL := "latitude", "longitude"
	if latTouched {
		latSQL = "?"
	}
	if lonTouched {
		lonSQL = "?"
	}

	// Vars must follow placeholder order: lat, lon, lon, lat.
	var vars []any
	if latTouched {
		vars = append(vars, coordArg(lat))
	}
	if lonTouched {
		vars = append(vars, coordArg(lon))
	}
	if lonTouched {
		vars = append(vars, coordArg(lon))
	}
	if latTouched {
		vars = append(vars, coordArg(lat))
	}

	sql := fmt.Sprintf(
		"CASE WHEN %s IS NULL OR %s IS NULL THEN NULL ELSE 'SRID=4326;POINT(' || %s || ' ' || %s || ')' END",
		latSQL, lonSQL, lonSQL, latSQL)
	return clause.Expr{SQL: sql, Vars: vars}
}

func coordArg(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
