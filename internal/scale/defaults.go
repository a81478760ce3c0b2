package scale

// Scale names used in configuration.
const (
	AnomalyScaleName       = "anomaly"
	PrecipitationScaleName = "precipitation"
)

// Default boundaries and colors of the anomaly (percent departure) scale.
var (
	DefaultAnomalyBins   = []float64{-30, -15, -5, 5, 15, 30}
	DefaultAnomalyColors = []string{
		"rgb(244, 165, 130)",
		"rgb(253, 219, 199)",
		"rgb(247, 247, 247)",
		"rgb(209, 229, 240)",
		"rgb(146, 197, 222)",
	}
)

// Default boundaries and colors of the precipitation ratio scale.
var (
	DefaultPrecipitationBins   = []float64{0.36, 0.8, 1.2, 2.97}
	DefaultPrecipitationColors = []string{
		"rgb(146, 197, 222)",
		"rgb(247, 247, 247)",
		"rgb(244, 165, 130)",
	}
)
