package config

import "github.com/goccy/go-yaml"

func UnmarshalValues(data []byte) (Values, error) {
	var values Values
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	if values == nil {
		values = make(Values)
	}
	return values, nil
}

func MarshalValues(values Values) ([]byte, error) {
	return yaml.Marshal(values)
}

func UnmarshalServerConfig(data []byte) (*Server, error) {
	var cfg Server
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func MarshalServerConfig(cfg *Server) ([]byte, error) {
	return yaml.Marshal(cfg)
}
