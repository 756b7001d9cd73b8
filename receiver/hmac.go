package receiver

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"net/http"
	"strings"

	"github.com/bjaus/hook"
)

// Signature encodings accepted by HMAC.
const (
	EncodingHex    = "hex"
	EncodingBase64 = "base64"
)

// Defaults for HMAC, matching GitHub's X-Hub-Signature-256 scheme.
const (
	DefaultSignatureHeader = "X-Hub-Signature-256"
	DefaultSignaturePrefix = "sha256="
)

var (
	ErrMissingSignature = errors.New("receiver: signature header is required")
	ErrBadSignature     = errors.New("receiver: signature verification failed")
	ErrNoSecret         = errors.New("receiver: signature secret is required")
)

// HMAC accepts requests whose body is signed with a shared secret.
//
// The zero value of every field but Secret selects GitHub's scheme: a hex
// SHA-256 digest in X-Hub-Signature-256 prefixed with "sha256=". The prefix
// default only applies to that scheme; with a custom Hash or base64 encoding
// there is none unless Prefix says so. Setting Prefix to "-" disables it.
// A body that cannot be read (for example one over hook.BodyLimit) is not a
// rejection: Validate returns the hook.ErrBindBody error and the dispatch
// fails with a 500.
type HMAC struct {
	Secret []byte

	Header   string
	Prefix   string
	Encoding string           // hex | base64
	Hash     func() hash.Hash // default sha256.New

	// EventHeader, when set, names the header whose value becomes the event
	// name of accepted requests (see hook.EventName).
	EventHeader string
}

// Validate implements hook.Receiver. The body is read and put back so that
// binding sees the same payload.
func (h *HMAC) Validate(_ context.Context, r *http.Request) (*http.Request, error) {
	if len(h.Secret) == 0 {
		return nil, ErrNoSecret
	}

	header := h.Header
	if header == "" {
		header = DefaultSignatureHeader
	}
	raw := strings.TrimSpace(r.Header.Get(header))
	if raw == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingSignature, header)
	}
	sig, err := h.decode(strings.TrimSpace(strings.TrimPrefix(raw, h.prefix())))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSignature, err)
	}

	body, err := hook.ReadBody(r)
	if err != nil {
		return nil, err
	}
	if !hmac.Equal(sig, h.sum(body)) {
		return nil, ErrBadSignature
	}

	if h.EventHeader != "" {
		if event := r.Header.Get(h.EventHeader); event != "" {
			r = hook.WithEventName(r, event)
		}
	}
	return r, nil
}

// Sign returns the header value a sender would attach to body.
func (h *HMAC) Sign(body []byte) string {
	mac := h.sum(body)
	if h.Encoding == EncodingBase64 {
		return h.prefix() + base64.StdEncoding.EncodeToString(mac)
	}
	return h.prefix() + hex.EncodeToString(mac)
}

func (h *HMAC) sum(body []byte) []byte {
	fn := h.Hash
	if fn == nil {
		fn = sha256.New
	}
	mac := hmac.New(fn, h.Secret)
	mac.Write(body)
	return mac.Sum(nil)
}

func (h *HMAC) prefix() string {
	switch h.Prefix {
	case "":
		if h.Hash != nil || h.Encoding == EncodingBase64 {
			return ""
		}
		return DefaultSignaturePrefix
	case "-":
		return ""
	default:
		return h.Prefix
	}
}

func (h *HMAC) decode(sig string) ([]byte, error) {
	switch strings.ToLower(h.Encoding) {
	case EncodingBase64:
		return base64.StdEncoding.DecodeString(sig)
	case "", EncodingHex:
		return hex.DecodeString(sig)
	default:
		return nil, fmt.Errorf("unknown encoding %q", h.Encoding)
	}
}
