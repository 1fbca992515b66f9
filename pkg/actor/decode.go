package actor

import (
	"encoding/json"
	"fmt"
)

// DecodeParams decodes a generic parameter map into a typed struct using its
// json tags.
func DecodeParams(params map[string]interface{}, into interface{}) error {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode parameters: %w", err)
	}
	if err := json.Unmarshal(data, into); err != nil {
		return fmt.Errorf("decode parameters: %w", err)
	}
	return nil
}
