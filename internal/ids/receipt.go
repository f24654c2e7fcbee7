package ids

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"math/big"

	"golang.org/x/crypto/scrypt"
)

// DefaultReceiptDigits is the length of a whistleblower receipt.
const DefaultReceiptDigits = 16

// scrypt cost parameters. Receipts are looked up by hash so the derivation must
// be deterministic for a given salt.
var (
	scryptN      = 1 << 14
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
)

var ErrEmptyReceipt = errors.New("receipt is empty")

// NumericReceipts generates receipts made of random decimal digits.
type NumericReceipts struct {
	Digits int
}

// NewReceipt returns a fresh random receipt.
func (g NumericReceipts) NewReceipt() (string, error) {
	n := g.Digits
	if n <= 0 {
		n = DefaultReceiptDigits
	}
	buf := make([]byte, n)
	ten := big.NewInt(10)
	for i := range buf {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + d.Int64())
	}
	return string(buf), nil
}

// HashReceipt derives the storage key of a receipt. The plaintext receipt is
// never persisted.
func HashReceipt(salt, receipt string) (string, error) {
	if receipt == "" {
		return "", ErrEmptyReceipt
	}
	key, err := scrypt.Key([]byte(receipt), []byte(salt), scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}
