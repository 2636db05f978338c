// Package gameid mints match identifiers: a UUIDv7 written as 26 characters of
// Crockford base32, so identifiers sort by creation time.
package gameid

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/coder/quartz"
)

const (
	alphabet = "0123456789abcdefghjkmnpqrstvwxyz"
	length   = 26
)

// RandSource supplies the random part of an id. *rand.Rand from math/rand/v2
// satisfies it.
type RandSource interface {
	IntN(n int) int
}

// Generator mints ids from a clock and an optional random source
type Generator struct {
	src   RandSource
	clock quartz.Clock
}

// NewGenerator creates a generator. A nil src uses crypto/rand; a nil clock
// uses the wall clock.
func NewGenerator(src RandSource, clock quartz.Clock) *Generator {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Generator{src: src, clock: clock}
}

// Generate returns a fresh id from the wall clock and crypto/rand.
func Generate() string {
	return NewGenerator(nil, nil).Next()
}

// Next returns a new id.
func (g *Generator) Next() string {
	var id [16]byte

	ms := g.clock.Now().UnixMilli()
	for i := 0; i < 6; i++ {
		id[i] = byte(ms >> (40 - 8*i))
	}

	if g.src != nil {
		for i := 6; i < 16; i++ {
			id[i] = byte(g.src.IntN(256))
		}
	} else if _, err := rand.Read(id[6:]); err != nil {
		panic("gameid: reading random bytes: " + err.Error())
	}

	id[6] = (id[6] & 0x0f) | 0x70 // version 7
	id[8] = (id[8] & 0x3f) | 0x80 // RFC 4122 variant

	return encode(id)
}

// encode writes the 128 bits as 130 with two leading zero bits, five bits per character.
func encode(id [16]byte) string {
	out := make([]byte, length)
	for i := range out {
		var v byte
		for b := 0; b < 5; b++ {
			bit := i*5 + b - 2
			v <<= 1
			if bit >= 0 {
				v |= (id[bit/8] >> (7 - bit%8)) & 1
			}
		}
		out[i] = alphabet[v]
	}
	return string(out)
}

func decode(s string) ([16]byte, error) {
	var id [16]byte
	if err := Validate(s); err != nil {
		return id, err
	}
	for i := 0; i < length; i++ {
		v := byte(strings.IndexByte(alphabet, s[i]))
		for b := 0; b < 5; b++ {
			bit := i*5 + b - 2
			if bit < 0 {
				continue
			}
			if v&(1<<(4-b)) != 0 {
				id[bit/8] |= 1 << (7 - bit%8)
			}
		}
	}
	return id, nil
}

// Timestamp recovers the creation time encoded in an id, to millisecond precision.
func Timestamp(s string) (time.Time, error) {
	id, err := decode(s)
	if err != nil {
		return time.Time{}, err
	}
	var ms int64
	for i := 0; i < 6; i++ {
		ms = ms<<8 | int64(id[i])
	}
	return time.UnixMilli(ms), nil
}

// Validate checks an id is 26 base32 characters whose first character fits in three bits.
func Validate(s string) error {
	if len(s) != length {
		return fmt.Errorf("match id must be exactly %d characters, got %d", length, len(s))
	}
	if s[0] > '7' {
		return fmt.Errorf("match id first character must be 0-7, got %c", s[0])
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(alphabet, s[i]) < 0 {
			return fmt.Errorf("invalid character %c at position %d", s[i], i)
		}
	}
	return nil
}
