package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// signatureTolerance bounds replay of captured webhook payloads.
const signatureTolerance = 5 * time.Minute

var (
	ErrMalformedSignature = errors.New("malformed signature header")
	ErrExpiredSignature   = errors.New("signature timestamp outside tolerance")
	ErrInvalidSignature   = errors.New("signature mismatch")
)

// VerifyStripeSignature checks the v1 scheme of the Stripe-Signature
// header: HMAC-SHA256 over "<timestamp>.<payload>" with the endpoint
// secret. A failure here must only ever mean tampering or replay — Stripe
// does not retry on 4xx — so it accepts any one matching v1 candidate.
func VerifyStripeSignature(payload []byte, header string, secret string, now time.Time) error {
	var timestamp string
	var candidates []string

	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			candidates = append(candidates, value)
		}
	}

	if timestamp == "" || len(candidates) == 0 {
		return ErrMalformedSignature
	}

	unix, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrMalformedSignature
	}
	if diff := now.Sub(time.Unix(unix, 0)); diff > signatureTolerance || diff < -signatureTolerance {
		return ErrExpiredSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s.%s", timestamp, payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, candidate := range candidates {
		if hmac.Equal([]byte(expected), []byte(candidate)) {
			return nil
		}
	}
	return ErrInvalidSignature
}
