package config

import "os"

// ExpandEnv expands ${VAR} / $VAR references in raw YAML bytes before
// parsing, so provider tokens never need to be checked into delivr.yaml.
func ExpandEnv(data []byte) []byte {
	return []byte(os.ExpandEnv(string(data)))
}
