package model

import (
	"crypto/rand"
	"math/big"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// SessionIDLength is short on purpose: ids are watch-page path segments meant
// to be pasted into chats. A colliding save overwrites the older session;
// that risk is accepted for this sharing feature.
const SessionIDLength = 8

// NewSessionID generates a random lowercase-alphanumeric session id.
func NewSessionID() string {
	buf := make([]byte, SessionIDLength)
	max := big.NewInt(int64(len(idAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform source is broken.
			panic(err)
		}
		buf[i] = idAlphabet[n.Int64()]
	}
	return string(buf)
}
