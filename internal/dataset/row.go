package dataset

// Measure identifies one of the four seasonal anomaly measures.
type Measure int

const (
	SpringANPP Measure = iota
	SummerANPP
	SpringNDVI
	SummerNDVI
)

// NumMeasures is the number of anomaly measures carried by every row.
const NumMeasures = 4

// Measures lists every measure in panel order: ANPP on the top row, NDVI on
// the bottom, spring on the left, summer on the right.
var Measures = [NumMeasures]Measure{SpringANPP, SummerANPP, SpringNDVI, SummerNDVI}

var measureColumns = [NumMeasures]string{
	"spring_delta_anpp",
	"summer_delta_anpp",
	"spring_delta_ndvi",
	"summer_delta_ndvi",
}

var measureTitles = [NumMeasures]string{
	"GrassCast ANPP Spring (April-May)",
	"GrassCast ANPP Summer (August-September)",
	"MODIS NDVI Spring (April-May)",
	"MODIS NDVI Summer (August-September)",
}

// Column returns the dataset column holding the measure's anomaly.
func (m Measure) Column() string {
	if m < 0 || int(m) >= NumMeasures {
		return ""
	}
	return measureColumns[m]
}

// Title returns the human-readable panel title of the measure.
func (m Measure) Title() string {
	if m < 0 || int(m) >= NumMeasures {
		return ""
	}
	return measureTitles[m]
}

func (m Measure) String() string {
	return m.Column()
}

// ParseMeasure looks a measure up by its column name.
func ParseMeasure(column string) (Measure, bool) {
	for _, m := range Measures {
		if m.Column() == column {
			return m, true
		}
	}
	return 0, false
}

// Row is a single grid point observation for one year.
type Row struct {
	Year   int     `json:"year"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	GridID string  `json:"gridID"`

	// Deltas holds the raw percent anomaly of each measure, indexed by Measure.
	Deltas [NumMeasures]float64 `json:"deltas"`

	// Classes and ColorValues are filled in when the dataset is built.
	// ColorValues holds the midpoint of each delta's anomaly class.
	Classes     [NumMeasures]int     `json:"classes"`
	ColorValues [NumMeasures]float64 `json:"colorValues"`

	PrecipCategory string   `json:"pr_cat"`
	PrecipRatio    *float64 `json:"pr_ratio,omitempty"`
}

// Delta returns the raw anomaly of measure m.
func (r Row) Delta(m Measure) float64 {
	return r.Deltas[m]
}

// ColorValue returns the class-mapped value used to color measure m.
func (r Row) ColorValue(m Measure) float64 {
	return r.ColorValues[m]
}
