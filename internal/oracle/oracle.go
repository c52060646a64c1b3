// Package oracle models how a market's outcome is decided. Each market carries
// exactly one strategy variant, chosen and validated when the market is created.
package oracle

// Source records where resolution data comes from. It does not change the
// evaluation rule; the Config variant does.
type Source string

const (
	SourceManual            Source = "manual"
	SourcePythPrice         Source = "pythPrice"
	SourceChainlinkPrice    Source = "chainlinkPrice"
	SourceChainlinkSports   Source = "chainlinkSports"
	SourceChainlinkWeather  Source = "chainlinkWeather"
	SourceSwitchboardPrice  Source = "switchboardPrice"
	SourceSwitchboardCustom Source = "switchboardCustom"
	SourceCustomAPI         Source = "customApi"
)

// DataType selects the strategy variant.
type DataType string

const (
	DataNone         DataType = "none"
	DataPrice        DataType = "price"
	DataSportsScore  DataType = "sportsScore"
	DataSportsWinner DataType = "sportsWinner"
	DataWeather      DataType = "weather"
	DataSocial       DataType = "social"
	DataBoxOffice    DataType = "boxOffice"
	DataCustom       DataType = "custom"
)

type WeatherMetric string

const (
	WeatherNone          WeatherMetric = "none"
	WeatherTemperature   WeatherMetric = "temperature"
	WeatherPrecipitation WeatherMetric = "precipitation"
	WeatherWindSpeed     WeatherMetric = "windSpeed"
	WeatherHumidity      WeatherMetric = "humidity"
)

type MetricType string

const (
	MetricNone           MetricType = "none"
	MetricFollowerCount  MetricType = "followerCount"
	MetricLikeCount      MetricType = "likeCount"
	MetricViewCount      MetricType = "viewCount"
	MetricBoxOfficeGross MetricType = "boxOfficeGross"
	MetricStreamRank     MetricType = "streamRank"
	MetricCustom         MetricType = "custom"
)

// Path is the resolution entry point a variant accepts.
type Path string

const (
	PathManual    Path = "manual"
	PathPrice     Path = "price"
	PathSports    Path = "sports"
	PathWeather   Path = "weather"
	PathThreshold Path = "social"
)

// MaxStaleness is the default freshness bound for price observations, in seconds.
const MaxStaleness int64 = 60

// Config is one of Manual, Price, Sports, Weather or Threshold.
type Config interface {
	DataType() DataType
	Path() Path
	clone() Config
}

// Manual markets are resolved directly by their authority.
type Manual struct{}

func (Manual) DataType() DataType { return DataNone }
func (Manual) Path() Path         { return PathManual }
func (m Manual) clone() Config    { return m }

// Price markets resolve YES when the observed value reaches TargetPrice.
type Price struct {
	Feed        string `json:"feed"`
	TargetPrice int64  `json:"target_price"`
	StrikePrice *int64 `json:"strike_price,omitempty"`
}

func (Price) DataType() DataType { return DataPrice }
func (Price) Path() Path         { return PathPrice }
func (p Price) clone() Config {
	p.StrikePrice = copyPtr(p.StrikePrice)
	return p
}

// Sports covers both winner and score markets.
type Sports struct {
	Kind         DataType `json:"kind"`
	GameID       string   `json:"game_id,omitempty"`
	TargetSpread *int32   `json:"target_spread,omitempty"`
	TargetValue  *int64   `json:"target_value,omitempty"`
	TeamAScore   *uint32  `json:"team_a_score,omitempty"`
	TeamBScore   *uint32  `json:"team_b_score,omitempty"`
}

func (s Sports) DataType() DataType { return s.Kind }
func (Sports) Path() Path           { return PathSports }
func (s Sports) clone() Config {
	s.TargetSpread = copyPtr(s.TargetSpread)
	s.TargetValue = copyPtr(s.TargetValue)
	s.TeamAScore = copyPtr(s.TeamAScore)
	s.TeamBScore = copyPtr(s.TeamBScore)
	return s
}

type Weather struct {
	Location      string        `json:"location"`
	Metric        WeatherMetric `json:"metric"`
	TargetValue   *int64        `json:"target_value,omitempty"`
	RecordedValue *int64        `json:"recorded_value,omitempty"`
}

func (Weather) DataType() DataType { return DataWeather }
func (Weather) Path() Path         { return PathWeather }
func (w Weather) clone() Config {
	w.TargetValue = copyPtr(w.TargetValue)
	w.RecordedValue = copyPtr(w.RecordedValue)
	return w
}

// Threshold covers social, box office and custom metric markets.
type Threshold struct {
	Kind        DataType   `json:"kind"`
	Identifier  string     `json:"identifier"`
	Metric      MetricType `json:"metric"`
	Threshold   *uint64    `json:"threshold,omitempty"`
	ActualValue *uint64    `json:"actual_value,omitempty"`
}

func (t Threshold) DataType() DataType { return t.Kind }
func (Threshold) Path() Path           { return PathThreshold }
func (t Threshold) clone() Config {
	t.Threshold = copyPtr(t.Threshold)
	t.ActualValue = copyPtr(t.ActualValue)
	return t
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Spec is the stored oracle configuration of a market.
type Spec struct {
	Source Source
	Config Config
}

// Clone returns a deep copy so evaluation never mutates a caller's Spec.
func (s Spec) Clone() Spec {
	if s.Config == nil {
		return s
	}
	return Spec{Source: s.Source, Config: s.Config.clone()}
}

// Path returns the resolution path, treating an empty spec as manual.
func (s Spec) Path() Path {
	if s.Config == nil {
		return PathManual
	}
	return s.Config.Path()
}

func (s Spec) DataType() DataType {
	if s.Config == nil {
		return DataNone
	}
	return s.Config.DataType()
}
