package protocols

import (
	"runtime"

	"github.com/pkg/errors"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"
	"golang.org/x/sync/errgroup"

	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/vm"
)

// MerkleTree is a binary hash tree over row digests.
// levels[0] holds the leaves and the last level holds the root.
type MerkleTree struct {
	levels [][]hash.Digest
}

// HashRow returns the leaf digest of a row
func HashRow(elems []field.Element) hash.Digest {
	out := hash.HashVarlen(elems)
	var d hash.Digest
	for i := range d {
		d[i] = out[i]
	}
	return d
}

func hashPair(left, right hash.Digest) hash.Digest {
	var input [10]field.Element
	copy(input[:hash.DigestLen], left[:])
	copy(input[hash.DigestLen:], right[:])
	out := hash.Hash10(input)
	var d hash.Digest
	for i := range d {
		d[i] = out[i]
	}
	return d
}

// HashRows hashes trace rows into leaves, spreading the work over the CPUs
func HashRows(rows []vm.Row) ([]hash.Digest, error) {
	leaves := make([]hash.Digest, len(rows))

	workers := runtime.GOMAXPROCS(0)
	chunk := (len(rows) + workers - 1) / workers
	if chunk < 64 {
		chunk = 64
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < len(rows); start += chunk {
		start, end := start, start+chunk
		if end > len(rows) {
			end = len(rows)
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				leaves[i] = HashRow(rows[i].Elements())
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return leaves, nil
}

// NewMerkleTree builds a tree over a power-of-two number of leaves
func NewMerkleTree(leaves []hash.Digest) (*MerkleTree, error) {
	n := len(leaves)
	if n == 0 || n&(n-1) != 0 {
		return nil, errors.Errorf("leaf count %d is not a power of two", n)
	}

	levels := [][]hash.Digest{append([]hash.Digest(nil), leaves...)}
	for cur := levels[0]; len(cur) > 1; {
		next := make([]hash.Digest, len(cur)/2)
		for i := range next {
			next[i] = hashPair(cur[2*i], cur[2*i+1])
		}
		levels = append(levels, next)
		cur = next
	}
	return &MerkleTree{levels: levels}, nil
}

// Root returns the root digest
func (t *MerkleTree) Root() hash.Digest {
	return t.levels[len(t.levels)-1][0]
}

// Height returns the number of levels above the leaves
func (t *MerkleTree) Height() int {
	return len(t.levels) - 1
}

// AuthPath returns the sibling digests from the leaf up to the root
func (t *MerkleTree) AuthPath(index int) ([]hash.Digest, error) {
	if index < 0 || index >= len(t.levels[0]) {
		return nil, errors.Errorf("leaf index %d out of range", index)
	}
	path := make([]hash.Digest, 0, t.Height())
	for level := 0; level < t.Height(); level++ {
		path = append(path, t.levels[level][index^1])
		index >>= 1
	}
	return path, nil
}

// VerifyAuthPath checks that leaf sits at index under root
func VerifyAuthPath(root, leaf hash.Digest, index int, path []hash.Digest) bool {
	if index < 0 || index >= 1<<len(path) {
		return false
	}
	cur := leaf
	for _, sibling := range path {
		if index&1 == 0 {
			cur = hashPair(cur, sibling)
		} else {
			cur = hashPair(sibling, cur)
		}
		index >>= 1
	}
	return cur == root
}
