package dataset

// Table names the file of one source table
type Table struct {
	File   string
	System string // system type; empty for the master and coordinate tables
}

const (
	// MasterFile lists every city with its flags
	MasterFile = "combined.csv"
	// CoordinatesFile holds the geocoding results
	CoordinatesFile = "city_coordinates.csv"
)

// SystemTables is the per-system-type table list. Order matters: it fixes the
// order in which lengths are summed and the fingerprint is computed.
var SystemTables = []Table{
	{File: "metro.csv", System: "Metro"},
	{File: "tram.csv", System: "Tram"},
	{File: "light_rail.csv", System: "Light Rail"},
	{File: "Monorail.csv", System: "Monorail"},
	{File: "Maglev.csv", System: "Maglev"},
	{File: "PeopleMover.csv", System: "People Mover"},
	{File: "AirportShuttle.csv", System: "Airport Shuttle"},
	{File: "AmusementPark.csv", System: "Amusement Park"},
	{File: "heritage_tram.csv", System: "Heritage Tram"},
	{File: "tram_train.csv", System: "Tram Train"},
	{File: "interurban.csv", System: "Interurban"},
	{File: "specialTram.csv", System: "Special"},
	{File: "streetcar.csv", System: "Streetcar"},
}

// SystemTypes returns the system type names in table order
func SystemTypes() []string {
	types := make([]string, len(SystemTables))
	for i, t := range SystemTables {
		types[i] = t.System
	}
	return types
}
