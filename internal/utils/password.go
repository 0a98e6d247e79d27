package utils

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong is returned for passwords bcrypt would silently truncate.
var ErrPasswordTooLong = errors.New("password longer than 72 bytes")

// dummyHashes holds one throwaway hash per cost.  Unknown usernames are
// compared against the hash matching the cost real accounts use, so a
// failed login costs the same whether or not the account exists.
var (
	dummyMu     sync.Mutex
	dummyHashes = map[int][]byte{}
)

// normalizeCost maps costs outside bcrypt's range to bcrypt.DefaultCost.
func normalizeCost(cost int) int {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return cost
}

// HashPassword returns a salted bcrypt hash using the given cost.  Costs
// outside bcrypt's range fall back to bcrypt.DefaultCost.
func HashPassword(plain string, cost int) (string, error) {
	if len(plain) > 72 {
		return "", ErrPasswordTooLong
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), normalizeCost(cost))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// BurnPasswordCheck performs a comparison at cost whose result is discarded.
func BurnPasswordCheck(plain string, cost int) {
	_ = bcrypt.CompareHashAndPassword(dummyHash(cost), []byte(plain))
}

func dummyHash(cost int) []byte {
	cost = normalizeCost(cost)
	dummyMu.Lock()
	defer dummyMu.Unlock()
	if h, ok := dummyHashes[cost]; ok {
		return h
	}
	h, err := bcrypt.GenerateFromPassword([]byte("pickflix-timing-equalizer"), cost)
	if err != nil {
		panic(err)
	}
	dummyHashes[cost] = h
	return h
}
