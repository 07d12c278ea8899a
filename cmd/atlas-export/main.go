package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"

	"github.com/you/transit-atlas/internal/dataset"
	"github.com/you/transit-atlas/internal/query"
	"github.com/you/transit-atlas/internal/source"
	"github.com/you/transit-atlas/models"
)

func usageAndDie() {
	fmt.Fprintln(os.Stderr, "Example usage:\n"+
		"    atlas-export --data-dir ./data --out transit_data.csv\n"+
		"    atlas-export --base-url https://example.com/transit --country France\n"+
		"    atlas-export --data-dir ./data --geojson markers.geojson --region europe.geojson\n"+
		"    atlas-export --data-dir ./data --rank stations")
	pflag.PrintDefaults()
	os.Exit(1)
}

func main() {
	dataDir := pflag.StringP("data-dir", "d", "", "Directory holding the CSV tables")
	baseURL := pflag.StringP("base-url", "u", "", "Base URL serving the CSV tables")
	output := pflag.StringP("out", "o", "", "Path to write the CSV export to (default stdout)")
	geojsonPath := pflag.StringP("geojson", "g", "", "Also write the markers as GeoJSON to this path")
	regionPath := pflag.String("region", "", "Keep only cities inside the GeoJSON region in this file")
	rankMetric := pflag.String("rank", "", "Print the top-20 ranking for a metric (length, stations, lines, systems) instead of the export")

	country := pflag.String("country", "", "Keep only this country")
	continent := pflag.String("continent", "", "Keep only this continent (europe, asia, north_america, ...)")
	search := pflag.StringP("search", "q", "", "Case-insensitive search in city and country names")
	minSystems := pflag.Int("min-systems", 0, "Minimum number of system types")
	systems := pflag.StringSlice("system", nil, "Keep cities having any of these system types")

	timeout := pflag.Duration("timeout", 30*time.Second, "Per-table fetch timeout")
	retries := pflag.Int("retries", 3, "Retries per table for transient HTTP failures")

	pflag.Parse()

	if (*dataDir == "") == (*baseURL == "") {
		usageAndDie()
	}

	v := url.Values{}
	if *country != "" {
		v.Set("country", *country)
	}
	if *continent != "" {
		v.Set("continent", *continent)
	}
	if *search != "" {
		v.Set("q", *search)
	}
	if *minSystems > 0 {
		v.Set("min_systems", strconv.Itoa(*minSystems))
	}
	for _, s := range *systems {
		v.Add("system", s)
	}
	criteria, err := query.ParseCriteria(v)
	if err != nil {
		die(err)
	}

	src, err := source.New(*dataDir, *baseURL, *timeout, *retries)
	if err != nil {
		die(err)
	}

	snap, err := dataset.NewLoader(src, nil).Load(context.Background())
	if err != nil {
		die(err)
	}
	for _, t := range snap.Tables {
		if t.Error != "" {
			log.Printf("Warning: %s treated as empty: %s", t.File, t.Error)
		}
	}

	cities := query.Filter(snap.Cities, criteria)

	if *regionPath != "" {
		data, err := os.ReadFile(*regionPath)
		if err != nil {
			die(err)
		}
		region, err := query.ParseRegion(data)
		if err != nil {
			die(err)
		}
		cities = query.Within(cities, region)
	}

	if *geojsonPath != "" {
		markers, err := query.Markers(cities, criteria.SearchText != "")
		if err != nil {
			die(err)
		}
		if err := os.WriteFile(*geojsonPath, []byte(markers), 0o644); err != nil {
			die(err)
		}
	}

	out, closeOut, err := openOutput(*output)
	if err != nil {
		die(err)
	}

	if *rankMetric != "" {
		err = writeRanking(out, cities, *rankMetric)
	} else {
		err = query.WriteExport(out, cities)
	}
	if err == nil {
		err = closeOut()
	}
	if err != nil {
		die(err)
	}

	log.Printf("Exported %d of %d cities", len(cities), len(snap.Cities))
}

func writeRanking(w io.Writer, cities []models.CityAggregate, metric string) error {
	m, err := models.ParseMetric(metric)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, m.Title(query.RankingLimit))
	for _, e := range query.RankingEntries(query.Rank(cities, m), m) {
		fmt.Fprintf(bw, "%2d. %s, %s: %s\n", e.Rank, e.Name, e.Country, e.Display)
	}
	return bw.Flush()
}

func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func die(err error) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	os.Exit(1)
}
