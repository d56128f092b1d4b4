package websub

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // exercising the opt-in legacy algorithm path
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(secret, algo string, body []byte) string {
	var h []byte
	switch algo {
	case "sha256":
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		h = mac.Sum(nil)
	default:
		panic("unsupported test algo " + algo)
	}
	return algo + "=" + hex.EncodeToString(h)
}

func TestVerifier_AcceptsCorrectSignature(t *testing.T) {
	body := []byte(`{"hello":"world"}`)
	header := sign("shh", "sha256", body)

	v := Verifier{}
	ok, err := v.Verify(header, body, "shh")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifier_RejectsWrongSignature(t *testing.T) {
	body := []byte(`{"hello":"world"}`)
	header := sign("wrong-secret", "sha256", body)

	v := Verifier{}
	ok, err := v.Verify(header, body, "shh")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifier_RejectsMalformedHeader(t *testing.T) {
	v := Verifier{}
	_, err := v.Verify("not-a-valid-header", []byte("x"), "shh")
	assert.ErrorIs(t, err, ErrMalformedSignature)
}

func TestVerifier_RejectsUnknownAlgorithm(t *testing.T) {
	v := Verifier{}
	_, err := v.Verify("md5=abcd", []byte("x"), "shh")
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestVerifier_SHA1GatedByConfig(t *testing.T) {
	body := []byte("payload")

	disabled := Verifier{AllowSHA1: false}
	_, err := disabled.Verify("sha1=abcd", body, "shh")
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)

	enabled := Verifier{AllowSHA1: true}
	mac := hmac.New(sha1.New, []byte("shh"))
	mac.Write(body)
	header := "sha1=" + hex.EncodeToString(mac.Sum(nil))
	ok, err := enabled.Verify(header, body, "shh")
	require.NoError(t, err)
	assert.True(t, ok)
}
