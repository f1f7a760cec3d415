package field

import "testing"

func TestDragPayloadRoundTrip(t *testing.T) {
	p := DragPayload{
		Attributes:  map[string]string{"kind": "page-number", "format": "lowerRoman"},
		SourceField: TokenPage,
	}
	data, err := EncodeDragPayload(p)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeDragPayload(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.SourceField != TokenPage || got.Attributes["format"] != "lowerRoman" {
		t.Errorf("round trip = %+v", got)
	}
}

func TestDecodeDragPayloadLegacyBody(t *testing.T) {
	// Bodies written by older hosts under the legacy MIME type.
	data := []byte(`{"attributes":{"kind":"page-number"},"sourceField":"PAGE"}`)
	p, err := DecodeDragPayload(data)
	if err != nil {
		t.Fatal(err)
	}
	if p.SourceField != "PAGE" {
		t.Errorf("sourceField = %q", p.SourceField)
	}
}

func TestDecodeDragPayloadRejectsGarbage(t *testing.T) {
	if _, err := DecodeDragPayload([]byte("not json")); err == nil {
		t.Errorf("garbage payload should fail to decode")
	}
}
