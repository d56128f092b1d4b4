package websub

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // sha1 is an opt-in legacy algorithm, gated by config
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"hash"
	"strings"
)

// ErrMalformedSignature is returned when the X-Hub-Signature header does
// not parse as "algo=hexdigest".
var ErrMalformedSignature = errors.New("websub: malformed signature header")

// ErrUnknownAlgorithm is returned for an algorithm name outside the
// supported set, or sha1 when AllowSHA1 is false. Fails closed.
var ErrUnknownAlgorithm = errors.New("websub: unknown or disabled signature algorithm")

// Verifier checks X-Hub-Signature headers against a shared secret.
type Verifier struct {
	// AllowSHA1 gates the legacy sha1 algorithm. Off by default: callers
	// opt in explicitly for hubs that have not migrated to sha256+.
	AllowSHA1 bool
}

func newHash(algo string, allowSHA1 bool) (func() hash.Hash, error) {
	switch algo {
	case "sha1":
		if !allowSHA1 {
			return nil, ErrUnknownAlgorithm
		}
		return sha1.New, nil
	case "sha256":
		return sha256.New, nil
	case "sha384":
		return sha512.New384, nil
	case "sha512":
		return sha512.New, nil
	default:
		return nil, ErrUnknownAlgorithm
	}
}

// ParseSignatureHeader splits "algo=hexdigest" into its two parts.
func ParseSignatureHeader(header string) (algo, digest string, err error) {
	parts := strings.SplitN(header, "=", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", ErrMalformedSignature
	}
	return parts[0], parts[1], nil
}

// Verify reports whether header is a valid HMAC of body under secret,
// using the algorithm the header names. Unknown or disabled algorithms,
// malformed headers, and digest mismatches all fail closed (false).
func (v Verifier) Verify(header string, body []byte, secret string) (bool, error) {
	algo, digestHex, err := ParseSignatureHeader(header)
	if err != nil {
		return false, err
	}

	newH, err := newHash(algo, v.AllowSHA1)
	if err != nil {
		return false, err
	}

	want, err := hex.DecodeString(digestHex)
	if err != nil {
		return false, ErrMalformedSignature
	}

	mac := hmac.New(newH, []byte(secret))
	mac.Write(body)
	got := mac.Sum(nil)

	return hmac.Equal(got, want), nil
}
