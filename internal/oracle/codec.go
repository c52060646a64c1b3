package oracle

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

type specJSON struct {
	Source   Source          `json:"source"`
	DataType DataType        `json:"data_type"`
	Path     Path            `json:"path"`
	Config   json.RawMessage `json:"config,omitempty"`
}

func (s Spec) MarshalJSON() ([]byte, error) {
	out := specJSON{Source: s.Source, DataType: s.DataType(), Path: s.Path()}
	if s.Config != nil {
		if _, manual := s.Config.(Manual); !manual {
			raw, err := json.Marshal(s.Config)
			if err != nil {
				return nil, err
			}
			out.Config = raw
		}
	}
	return json.Marshal(out)
}

func (s *Spec) UnmarshalJSON(data []byte) error {
	var in specJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	var cfg Config
	switch in.DataType {
	case DataNone, "":
		cfg = Manual{}
	case DataPrice:
		var p Price
		if err := decodeConfig(in.Config, &p); err != nil {
			return err
		}
		cfg = p
	case DataSportsScore, DataSportsWinner:
		var sp Sports
		if err := decodeConfig(in.Config, &sp); err != nil {
			return err
		}
		sp.Kind = in.DataType
		cfg = sp
	case DataWeather:
		var w Weather
		if err := decodeConfig(in.Config, &w); err != nil {
			return err
		}
		cfg = w
	case DataSocial, DataBoxOffice, DataCustom:
		var t Threshold
		if err := decodeConfig(in.Config, &t); err != nil {
			return err
		}
		t.Kind = in.DataType
		cfg = t
	default:
		return fmt.Errorf("unknown oracle data type %q", in.DataType)
	}

	s.Source = in.Source
	if s.Source == "" {
		s.Source = SourceManual
	}
	s.Config = cfg
	return nil
}

func decodeConfig(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// Value stores the spec as a JSON text column.
func (s Spec) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *Spec) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*s = Spec{Source: SourceManual, Config: Manual{}}
		return nil
	case []byte:
		return s.UnmarshalJSON(v)
	case string:
		return s.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("cannot scan %T into oracle.Spec", value)
	}
}
