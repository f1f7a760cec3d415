package field

import "encoding/json"

// Drag-and-drop payload MIME types for field-annotation fragments. The
// legacy type is kept for hosts that registered drop handlers against the
// older identifier; both carry the same JSON body.
const (
	DragMIMEType       = "application/x-folio-field"
	DragMIMETypeLegacy = "text/x-field-json"
)

// DragPayload is the JSON body carried under both MIME types.
type DragPayload struct {
	Attributes  map[string]string `json:"attributes"`
	SourceField string            `json:"sourceField"`
}

// EncodeDragPayload serializes a payload for both MIME types.
func EncodeDragPayload(p DragPayload) ([]byte, error) {
	return json.Marshal(p)
}

// DecodeDragPayload parses a payload received under either MIME type.
func DecodeDragPayload(data []byte) (DragPayload, error) {
	var p DragPayload
	err := json.Unmarshal(data, &p)
	return p, err
}
