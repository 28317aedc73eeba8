package fetcher

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/gridkit/internal/record"
)

// ReadShapefile reads the attribute table of a shapefile. The .dbf must sit
// next to the .shp. Geometry is summarised in a trailing "shape" column
// holding the geometry type name.
func ReadShapefile(shpPath string) ([]record.Record, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "shapefile: open %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}
	names = dedupeHeader(names)

	var out []record.Record
	var empty int
	for reader.Next() {
		_, shape := reader.Shape()

		var rec record.Record
		for i, name := range names {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			rec.Set(name, val)
		}
		if shape == nil {
			empty++
			rec.Set("shape", "")
		} else {
			rec.Set("shape", shapeName(shape))
		}
		out = append(out, rec)
	}

	if empty > 0 {
		zap.L().Debug("shapefile: records without geometry",
			zap.String("path", shpPath),
			zap.Int("count", empty),
		)
	}
	return out, nil
}

func shapeName(s shp.Shape) string {
	switch s.(type) {
	case *shp.Point:
		return "point"
	case *shp.PolyLine:
		return "polyline"
	case *shp.Polygon:
		return "polygon"
	case *shp.MultiPoint:
		return "multipoint"
	default:
		return "other"
	}
}
