// Package utils holds the Fiat-Shamir transcript shared by prover and verifier
package utils

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"

	"golang.org/x/crypto/sha3"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// Channel represents a Fiat-Shamir transcript channel
type Channel struct {
	state []byte
	proof []string
}

// NewChannel creates a new Fiat-Shamir channel bound to a domain label
func NewChannel(domain string) *Channel {
	c := &Channel{
		state: []byte{0},
		proof: make([]string, 0, 16),
	}
	c.Send([]byte(domain))
	return c
}

// Send appends data to the channel state
func (c *Channel) Send(data []byte) {
	c.proof = append(c.proof, fmt.Sprintf("send:%s", hex.EncodeToString(data)))
	c.state = c.hash(append(c.state, data...))
}

// SendElements absorbs field elements in little-endian form
func (c *Channel) SendElements(elems []field.Element) {
	buf := make([]byte, 8*len(elems))
	for i, e := range elems {
		binary.LittleEndian.PutUint64(buf[8*i:], e.Value())
	}
	c.Send(buf)
}

// SendUint64 absorbs a single integer
func (c *Channel) SendUint64(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	c.Send(buf[:])
}

// ReceiveRandomInt generates a random integer in the range [min, max]
// Returns nil if min > max (invalid range)
func (c *Channel) ReceiveRandomInt(min, max *big.Int) *big.Int {
	if min.Cmp(max) > 0 {
		return nil
	}

	stateAsInt := new(big.Int).SetBytes(c.state)

	rangeSize := new(big.Int).Sub(max, min)
	rangeSize.Add(rangeSize, big.NewInt(1))

	random := new(big.Int).Mod(stateAsInt, rangeSize)
	random.Add(random, min)

	c.proof = append(c.proof, fmt.Sprintf("receiveRandInt:%s", random.String()))
	c.state = c.hash(c.state)

	return random
}

// SampleIndices draws count indices in [0, upper)
func (c *Channel) SampleIndices(count, upper int) []int {
	if upper <= 0 {
		return nil
	}
	max := big.NewInt(int64(upper - 1))
	indices := make([]int, count)
	for i := range indices {
		indices[i] = int(c.ReceiveRandomInt(big.NewInt(0), max).Int64())
	}
	return indices
}

// State returns the current channel state
func (c *Channel) State() []byte {
	return append([]byte(nil), c.state...)
}

// Proof returns the proof transcript
func (c *Channel) Proof() []string {
	return append([]string(nil), c.proof...)
}

func (c *Channel) hash(data []byte) []byte {
	h := sha3.Sum256(data)
	return h[:]
}
