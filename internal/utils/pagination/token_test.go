package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeToken(t *testing.T) {
	transactionDate := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	createdAt := time.Date(2025, 3, 15, 14, 30, 45, 123456789, time.UTC)

	token := EncodeToken(transactionDate, createdAt)
	assert.NotEmpty(t, token, "Token should not be empty")

	decodedDate, decodedCreatedAt, err := DecodeToken(token)
	assert.NoError(t, err, "Decoding should not return an error")
	assert.Equal(t, transactionDate, decodedDate, "Transaction date should match after decode")
	assert.Equal(t, createdAt, decodedCreatedAt, "Created at time should match after decode")

	// Zero values survive the round trip too.
	zeroTime := time.Time{}
	zeroToken := EncodeToken(zeroTime, zeroTime)
	decodedZeroDate, decodedZeroCreatedAt, err := DecodeToken(zeroToken)
	assert.NoError(t, err, "Decoding zero time should not return an error")
	assert.Equal(t, zeroTime, decodedZeroDate)
	assert.Equal(t, zeroTime, decodedZeroCreatedAt)
}

func TestDecodeTokenError(t *testing.T) {
	_, _, err := DecodeToken("this is not base64!")
	assert.Error(t, err, "Should return an error for invalid base64")
	assert.Contains(t, err.Error(), "base64 decode")

	// Base64 encoded date without the separator.
	_, _, err = DecodeToken("MjAyNS0wMy0xNVQwMDowMDowMFo=")
	assert.Error(t, err, "Should return an error for a token without a separator")
	assert.Contains(t, err.Error(), "split")

	// Base64 encoded "notadate|2025-03-15T14:30:45.123456789Z".
	_, _, err = DecodeToken("bm90YWRhdGV8MjAyNS0wMy0xNVQxNDozMDo0NS4xMjM0NTY3ODla")
	assert.Error(t, err, "Should return an error for an unparseable date")
	assert.Contains(t, err.Error(), "transaction date parse")
}
