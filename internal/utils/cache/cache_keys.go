package cache

import (
	"fmt"
)

type EntityType string

const (
	EntityAccount EntityType = "account"
	EntityOTP     EntityType = "otp"
)

type KeyType string

const (
	KeyBalance        KeyType = "balance"
	KeyBalanceVersion KeyType = "balance_version"
	KeyTransfer       KeyType = "transfer"
)

// GenerateKey creates a standardized cache key
func GenerateKey(entity EntityType, keyType KeyType, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entity, keyType, value)
}

// BalanceKey is the cache key of an account balance.
func BalanceKey(accountNumber string) string {
	return GenerateKey(EntityAccount, KeyBalance, accountNumber)
}

// BalanceVersionKey counts the invalidations of an account balance.
func BalanceVersionKey(accountNumber string) string {
	return GenerateKey(EntityAccount, KeyBalanceVersion, accountNumber)
}

// TransferOTPKey is the key holding the pending transfer OTP of subject.
func TransferOTPKey(subject string) string {
	return GenerateKey(EntityOTP, KeyTransfer, subject)
}
