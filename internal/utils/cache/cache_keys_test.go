package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "account:balance:ACC-1", BalanceKey("ACC-1"))
	assert.Equal(t, "account:balance_version:ACC-1", BalanceVersionKey("ACC-1"))
	assert.Equal(t, "otp:transfer:ACC-1", TransferOTPKey("ACC-1"))
}
