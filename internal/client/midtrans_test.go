package client

import (
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func signatureFor(orderID, statusCode, grossAmount, serverKey string) string {
	hash := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(hash[:])
}

func TestVerifySignature(t *testing.T) {
	const serverKey = "SB-Mid-server-test-key"
	valid := signatureFor("order-1", "200", "1200.00", serverKey)

	tests := []struct {
		name      string
		orderID   string
		status    string
		gross     string
		signature string
		want      bool
	}{
		{"valid signature", "order-1", "200", "1200.00", valid, true},
		{"wrong order", "order-2", "200", "1200.00", valid, false},
		{"wrong amount", "order-1", "200", "9999.00", valid, false},
		{"wrong status code", "order-1", "201", "1200.00", valid, false},
		{"empty signature", "order-1", "200", "1200.00", "", false},
		{"truncated signature", "order-1", "200", "1200.00", valid[:100], false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VerifySignature(tt.orderID, tt.status, tt.gross, tt.signature, serverKey)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVerifySignature_DifferentServerKey(t *testing.T) {
	sig := signatureFor("order-1", "200", "1200.00", "key-a")
	assert.False(t, VerifySignature("order-1", "200", "1200.00", sig, "key-b"))
}
