package auth

import (
	"crypto/rand"
	"math/big"
)

// Alphabet without 0/O and 1/I so a passcode survives being copied by hand.
const passcodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const PasscodeLength = 8

// GeneratePasscode returns a short random passcode. It is shown to the user
// exactly once at registration; only its bcrypt hash is stored.
func GeneratePasscode() (string, error) {
	max := big.NewInt(int64(len(passcodeAlphabet)))
	buf := make([]byte, PasscodeLength)

	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = passcodeAlphabet[n.Int64()]
	}

	return string(buf), nil
}
