package query

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/tidwall/geojson"
	"github.com/tidwall/geojson/geometry"

	"github.com/you/transit-atlas/models"
)

// ExportHeader is the header line of the flat city export
const ExportHeader = "City,Country,Systems,Length,Stations,Lines"

// WriteExport writes the flat city export consumed by existing tools.
// Fields are written verbatim without CSV quoting.
func WriteExport(w io.Writer, cities []models.CityAggregate) error {
	exportRows := make([]models.ExportRow, len(cities))
	for i, c := range cities {
		exportRows[i] = models.ExportRowOf(c)
	}
	return WriteExportRows(w, exportRows)
}

// WriteExportRows writes already projected export lines, such as those kept
// in the snapshot history
func WriteExportRows(w io.Writer, exportRows []models.ExportRow) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(ExportHeader + "\n")
	for _, r := range exportRows {
		bw.WriteString(r.Name + "," +
			r.Country + "," +
			strconv.Itoa(r.Systems) + "," +
			models.FormatNumber(r.Length) + "," +
			strconv.Itoa(r.Stations) + "," +
			strconv.Itoa(r.Lines) + "\n")
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// WriteComparisonExport writes the two-city comparison table
func WriteComparisonExport(w io.Writer, cmp *models.Comparison) error {
	c1, c2 := cmp.City1, cmp.City2
	_, err := fmt.Fprintf(w,
		"Metric,%s,%s\nSystems,%d,%d\nLength,%s,%s\nStations,%d,%d\nLines,%d,%d\n",
		c1.Name, c2.Name,
		c1.SystemCount, c2.SystemCount,
		models.FormatNumber(c1.TotalLength), models.FormatNumber(c2.TotalLength),
		c1.TotalStations, c2.TotalStations,
		c1.TotalLines, c2.TotalLines,
	)
	if err != nil {
		return fmt.Errorf("failed to write comparison export: %w", err)
	}
	return nil
}

// Markers renders the cities as a GeoJSON FeatureCollection of styled points.
// highlight marks the collection as search results.
func Markers(cities []models.CityAggregate, highlight bool) (string, error) {
	features := make([]geojson.Object, 0, len(cities))
	for _, c := range cities {
		props, err := json.Marshal(struct {
			Properties models.MarkerProperties `json:"properties"`
		}{
			Properties: models.MarkerProperties{
				Name:          c.Name,
				Country:       c.Country,
				SystemCount:   c.SystemCount,
				TotalLength:   c.TotalLength,
				TotalStations: c.TotalStations,
				TotalLines:    c.TotalLines,
				HasMetro:      c.HasMetro,
				HasTram:       c.HasTram,
				Radius:        models.MarkerRadius(c.SystemCount),
				Color:         models.MarkerColor(c, highlight),
			},
		})
		if err != nil {
			return "", fmt.Errorf("failed to encode marker for %s: %w", c.ID(), err)
		}
		point := geojson.NewPoint(geometry.Point{X: c.Lng, Y: c.Lat})
		features = append(features, geojson.NewFeature(point, string(props)))
	}
	return geojson.NewFeatureCollection(features).JSON(), nil
}
