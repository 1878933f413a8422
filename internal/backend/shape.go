package backend

import (
	"bytes"
	"encoding/json"
)

// Shape classifies a list response body.
type Shape string

const (
	ShapeEnvelope Shape = "envelope"
	ShapeArray    Shape = "array"
	ShapeUnknown  Shape = "unknown"
)

// Listing is a decoded list response. Items holds the entities regardless of
// whether the backend wrapped them in an envelope.
type Listing struct {
	StatusCode    int
	Shape         Shape
	Items         []json.RawMessage
	TotalElements int
	Raw           json.RawMessage
}

type envelopeProbe struct {
	Content       *[]json.RawMessage `json:"content"`
	TotalElements *int               `json:"totalElements"`
}

// DetectShape reports whether body is a paginated envelope (an object with a
// "content" array), a bare JSON array, or something else.
func DetectShape(body []byte) Shape {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ShapeUnknown
	}
	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if json.Unmarshal(trimmed, &items) == nil {
			return ShapeArray
		}
	case '{':
		var probe envelopeProbe
		if json.Unmarshal(trimmed, &probe) == nil && probe.Content != nil {
			return ShapeEnvelope
		}
	}
	return ShapeUnknown
}

func newListing(status int, body []byte) Listing {
	listing := Listing{StatusCode: status, Shape: DetectShape(body), Raw: body}
	switch listing.Shape {
	case ShapeEnvelope:
		var probe envelopeProbe
		_ = json.Unmarshal(body, &probe)
		listing.Items = *probe.Content
		listing.TotalElements = len(listing.Items)
		if probe.TotalElements != nil {
			listing.TotalElements = *probe.TotalElements
		}
	case ShapeArray:
		_ = json.Unmarshal(body, &listing.Items)
		listing.TotalElements = len(listing.Items)
	}
	return listing
}

// decodeItems unmarshals every item of the listing into T.
func decodeItems[T any](listing Listing) ([]T, error) {
	out := make([]T, 0, len(listing.Items))
	for _, raw := range listing.Items {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}
