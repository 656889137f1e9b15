// Package models defines the core domain models for DAG-based generator runs.
package models

import (
	"encoding/json"
	"fmt"
)

// Node is a unit of work in the DAG, bound to a named activity and its
// parameters. Its identity is the key under which it appears in DAG.Nodes.
type Node struct {
	ActivityID string         `json:"activity_id" validate:"required"`
	Params     ActivityParams `json:"params"`
}

// UnmarshalJSON decodes the params into the typed shape selected by the
// activity id. Unknown activity ids keep their params as a raw map.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw struct {
		ActivityID string          `json:"activity_id"`
		Params     json.RawMessage `json:"params"`
	}

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return err
	}

	params, err := decodeParams(raw.ActivityID, raw.Params)
	if err != nil {
		return err
	}

	n.ActivityID = raw.ActivityID
	n.Params = params

	return nil
}

func decodeParams(activityID string, raw json.RawMessage) (ActivityParams, error) {
	var target any

	switch activityID {
	case ActivityCtgan:
		target = &CtganParams{}
	case ActivityCustomCode:
		target = &CustomCodeParams{}
	case ActivityReport:
		target = &ReportParams{}
	default:
		target = &RawParams{}
	}

	if len(raw) > 0 {
		err := json.Unmarshal(raw, target)
		if err != nil {
			return nil, fmt.Errorf("failed to decode params for activity %q: %w", activityID, err)
		}
	}

	if rawParams, ok := target.(*RawParams); ok {
		if *rawParams == nil {
			*rawParams = RawParams{}
		}

		return *rawParams, nil
	}

	return target.(ActivityParams), nil
}
