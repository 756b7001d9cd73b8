package hook

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"io"
	"mime"
	"strings"
)

// Decoder decodes request bodies from a wire format into record parameters.
type Decoder interface {
	ContentType() string
	Decode(r io.Reader, v any) error
}

// jsonCodec decodes JSON bodies. Field names match case-insensitively.
type jsonCodec struct{}

func (jsonCodec) ContentType() string { return "application/json" }

func (jsonCodec) Decode(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}

// xmlCodec decodes XML bodies.
type xmlCodec struct{}

func (xmlCodec) ContentType() string { return "application/xml" }

func (xmlCodec) Decode(r io.Reader, v any) error {
	err := xml.NewDecoder(r).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// codecRegistry holds the body decoders. Index 0 is always JSON.
type codecRegistry struct {
	decoders []Decoder
}

// newCodecRegistry builds a registry with JSON first, XML second, then any
// user-registered decoders.
func newCodecRegistry(userDecoders []Decoder) *codecRegistry {
	cr := &codecRegistry{
		decoders: make([]Decoder, 0, 2+len(userDecoders)),
	}
	cr.decoders = append(cr.decoders, jsonCodec{}, xmlCodec{})
	cr.decoders = append(cr.decoders, userDecoders...)
	return cr
}

// decoderFor returns the decoder matching the given Content-Type.
// Returns (JSON decoder, true) for empty content type and "+json" suffixes.
// Returns (nil, false) if the content type is present but unrecognized.
func (cr *codecRegistry) decoderFor(contentType string) (Decoder, bool) {
	if contentType == "" {
		return cr.decoders[0], true
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, false
	}
	if strings.HasSuffix(mediaType, "+json") {
		return cr.decoders[0], true
	}
	if mediaType == "text/xml" || strings.HasSuffix(mediaType, "+xml") {
		mediaType = "application/xml"
	}

	for _, dec := range cr.decoders {
		if dec.ContentType() == mediaType {
			return dec, true
		}
	}
	return nil, false
}

// recordDecoder picks the decoder for a record body. Webhook senders often
// label JSON as text/plain or leave a form type in place, so anything
// unrecognized is read as JSON.
func (cr *codecRegistry) recordDecoder(contentType string) Decoder {
	if dec, ok := cr.decoderFor(contentType); ok {
		return dec
	}
	return cr.decoders[0]
}
