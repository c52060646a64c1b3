package oracle

import (
	"github.com/mohtashimnawaz/prediction/internal/apperr"
)

// Params is the flat oracle section of a create-market request.
type Params struct {
	Source         Source        `json:"oracle_source"`
	DataType       DataType      `json:"oracle_data_type"`
	PriceFeed      string        `json:"price_feed,omitempty"`
	TargetPrice    *int64        `json:"target_price,omitempty"`
	GameID         string        `json:"game_id,omitempty"`
	TargetSpread   *int32        `json:"target_spread,omitempty"`
	Location       string        `json:"location,omitempty"`
	WeatherMetric  WeatherMetric `json:"weather_metric,omitempty"`
	TargetValue    *int64        `json:"target_value,omitempty"`
	DataIdentifier string        `json:"data_identifier,omitempty"`
	MetricType     MetricType    `json:"metric_type,omitempty"`
	Threshold      *uint64       `json:"threshold,omitempty"`
}

var knownSources = map[Source]bool{
	SourceManual: true, SourcePythPrice: true, SourceChainlinkPrice: true,
	SourceChainlinkSports: true, SourceChainlinkWeather: true, SourceSwitchboardPrice: true,
	SourceSwitchboardCustom: true, SourceCustomAPI: true,
}

var knownMetrics = map[MetricType]bool{
	MetricNone: true, MetricFollowerCount: true, MetricLikeCount: true, MetricViewCount: true,
	MetricBoxOfficeGross: true, MetricStreamRank: true, MetricCustom: true,
}

var knownWeather = map[WeatherMetric]bool{
	WeatherTemperature: true, WeatherPrecipitation: true, WeatherWindSpeed: true, WeatherHumidity: true,
}

// Build converts request parameters into a validated Spec. Fields that do not
// belong to the selected data type are dropped.
func Build(p Params) (Spec, error) {
	src := p.Source
	if src == "" {
		src = SourceManual
	}
	if !knownSources[src] {
		return Spec{}, apperr.ErrUnknownOracle
	}

	dt := p.DataType
	if dt == "" {
		dt = DataNone
	}

	switch dt {
	case DataNone:
		if src != SourceManual {
			return Spec{}, apperr.ErrOracleConfigRequired
		}
		return Spec{Source: src, Config: Manual{}}, nil

	case DataPrice:
		if p.PriceFeed == "" || p.TargetPrice == nil {
			return Spec{}, apperr.ErrOracleConfigRequired
		}
		return Spec{Source: src, Config: Price{Feed: p.PriceFeed, TargetPrice: *p.TargetPrice}}, nil

	case DataSportsScore, DataSportsWinner:
		s := Sports{Kind: dt, GameID: p.GameID}
		if dt == DataSportsScore {
			s.TargetSpread = copyPtr(p.TargetSpread)
			s.TargetValue = copyPtr(p.TargetValue)
		}
		return Spec{Source: src, Config: s}, nil

	case DataWeather:
		if p.Location == "" || p.TargetValue == nil || !knownWeather[p.WeatherMetric] {
			return Spec{}, apperr.ErrOracleConfigRequired
		}
		return Spec{Source: src, Config: Weather{
			Location:    p.Location,
			Metric:      p.WeatherMetric,
			TargetValue: copyPtr(p.TargetValue),
		}}, nil

	case DataSocial, DataBoxOffice, DataCustom:
		if p.DataIdentifier == "" || p.Threshold == nil {
			return Spec{}, apperr.ErrOracleConfigRequired
		}
		metric := p.MetricType
		if metric == "" {
			metric = MetricNone
		}
		if !knownMetrics[metric] {
			return Spec{}, apperr.ErrUnknownOracle
		}
		return Spec{Source: src, Config: Threshold{
			Kind:       dt,
			Identifier: p.DataIdentifier,
			Metric:     metric,
			Threshold:  copyPtr(p.Threshold),
		}}, nil
	}

	return Spec{}, apperr.ErrUnknownOracle
}
