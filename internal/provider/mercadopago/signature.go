package mercadopago

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/MrJamesThe3rd/payrecon/internal/provider"
)

const (
	HeaderSignature = "X-Signature"
	HeaderRequestID = "X-Request-Id"
)

type Verifier struct {
	secret string
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: strings.TrimSpace(secret)}
}

// Verify checks the x-signature header, an HMAC-SHA256 over the manifest
// "id:<data.id>;request-id:<x-request-id>;ts:<ts>;".
func (v *Verifier) Verify(payload []byte, header http.Header, query url.Values) error {
	if v.secret == "" {
		return provider.ErrInvalidSignature
	}

	ts, sig := parseSignatureHeader(header.Get(HeaderSignature))
	if ts == "" || sig == "" {
		return provider.ErrInvalidSignature
	}

	expected, err := hex.DecodeString(sig)
	if err != nil {
		return provider.ErrInvalidSignature
	}

	manifest := Manifest(dataID(payload, query), header.Get(HeaderRequestID), ts)

	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write([]byte(manifest))

	if !hmac.Equal(mac.Sum(nil), expected) {
		return provider.ErrInvalidSignature
	}

	return nil
}

func Manifest(dataID, requestID, ts string) string {
	var b strings.Builder
	if dataID != "" {
		fmt.Fprintf(&b, "id:%s;", dataID)
	}

	if requestID != "" {
		fmt.Fprintf(&b, "request-id:%s;", requestID)
	}

	fmt.Fprintf(&b, "ts:%s;", ts)

	return b.String()
}

// Sign produces an x-signature header value for the given manifest parts.
func Sign(secret, dataID, requestID, ts string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(Manifest(dataID, requestID, ts)))

	return "ts=" + ts + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

func parseSignatureHeader(h string) (ts, v1 string) {
	for _, part := range strings.Split(h, ",") {
		k, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}

		switch k {
		case "ts":
			ts = val
		case "v1":
			v1 = val
		}
	}

	return ts, v1
}

// dataID prefers the query string and falls back to the body. Alphanumeric
// ids are signed lower-cased.
func dataID(payload []byte, query url.Values) string {
	id := query.Get("data.id")
	if id == "" {
		var msg notification
		if err := json.Unmarshal(payload, &msg); err == nil {
			id = string(msg.Data.ID)
		}
	}

	return strings.ToLower(id)
}
