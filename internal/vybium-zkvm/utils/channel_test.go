package utils

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

func TestChannelDeterministic(t *testing.T) {
	a := NewChannel("test")
	b := NewChannel("test")

	for _, c := range []*Channel{a, b} {
		c.SendElements([]field.Element{field.New(1), field.New(2)})
		c.SendUint64(16)
	}

	if !bytes.Equal(a.State(), b.State()) {
		t.Fatal("same transcript should give the same state")
	}

	ia := a.SampleIndices(8, 15)
	ib := b.SampleIndices(8, 15)
	for i := range ia {
		if ia[i] != ib[i] {
			t.Fatalf("index %d differs: %d vs %d", i, ia[i], ib[i])
		}
		if ia[i] < 0 || ia[i] >= 15 {
			t.Errorf("index %d out of range: %d", i, ia[i])
		}
	}
}

func TestChannelDomainSeparation(t *testing.T) {
	a := NewChannel("one")
	b := NewChannel("two")
	if bytes.Equal(a.State(), b.State()) {
		t.Error("different domains should give different states")
	}
}

func TestReceiveRandomIntInvalidRange(t *testing.T) {
	c := NewChannel("test")
	if got := c.ReceiveRandomInt(big.NewInt(5), big.NewInt(1)); got != nil {
		t.Errorf("expected nil for an empty range, got %s", got)
	}
	if got := c.SampleIndices(3, 0); got != nil {
		t.Errorf("expected no indices for an empty range, got %v", got)
	}
}

func TestChannelTranscript(t *testing.T) {
	c := NewChannel("test")
	c.SendUint64(1)
	c.SampleIndices(2, 4)

	if n := len(c.Proof()); n != 4 {
		t.Errorf("transcript has %d entries, want 4", n)
	}
}
