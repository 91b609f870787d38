package common

import "encoding/json"

var entityKnownKeys = map[string]struct{}{
	"id": {}, "name": {}, "domain": {}, "position": {},
	"gender": {}, "country": {}, "relationships": {},
}

type entityAlias Entity

// UnmarshalJSON decodes the typed fields and keeps the rest in Extra.
func (e *Entity) UnmarshalJSON(data []byte) error {
	var typed entityAlias
	if err := json.Unmarshal(data, &typed); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	extra := make(map[string]any)
	for k, v := range raw {
		if _, known := entityKnownKeys[k]; known {
			continue
		}
		var value any
		if err := json.Unmarshal(v, &value); err != nil {
			return err
		}
		if value == nil {
			continue
		}
		extra[k] = value
	}

	*e = Entity(typed)
	if len(extra) > 0 {
		e.Extra = extra
	}
	return nil
}

// MarshalJSON writes Extra back next to the typed fields. Typed fields win on
// key collisions.
func (e Entity) MarshalJSON() ([]byte, error) {
	typed, err := json.Marshal(entityAlias(e))
	if err != nil {
		return nil, err
	}
	if len(e.Extra) == 0 {
		return typed, nil
	}

	merged := make(map[string]any, len(e.Extra)+len(entityKnownKeys))
	for k, v := range e.Extra {
		merged[k] = v
	}
	var fields map[string]any
	if err := json.Unmarshal(typed, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}
