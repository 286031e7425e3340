// Package roomcode generates the short codes players type into the game
// client to join a private room.
package roomcode

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

const (
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	Length   = 6
)

// Source is satisfied by *rand.Rand.
type Source interface {
	IntN(n int) int
}

type Generator struct {
	mu  sync.Mutex
	src Source
}

func New(src Source) *Generator {
	return &Generator{src: src}
}

// NewDefault seeds a PCG source from crypto/rand.
func NewDefault() *Generator {
	var seed [16]byte
	if _, err := crand.Read(seed[:]); err != nil {
		panic("roomcode: failed to read seed: " + err.Error())
	}
	pcg := rand.NewPCG(binary.LittleEndian.Uint64(seed[:8]), binary.LittleEndian.Uint64(seed[8:]))
	return New(rand.New(pcg))
}

// Generate returns a code of Length symbols drawn uniformly from Alphabet.
// Codes are not checked for uniqueness.
func (g *Generator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	code := make([]byte, Length)
	for i := range code {
		code[i] = Alphabet[g.src.IntN(len(Alphabet))]
	}
	return string(code)
}
