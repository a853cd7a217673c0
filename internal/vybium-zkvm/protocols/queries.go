package protocols

import (
	"sort"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/hash"

	"github.com/vybium/vybium-zkvm/internal/vybium-zkvm/utils"
)

const transcriptDomain = "vybium-zkvm/trace-proof/v1"

// sampleTransitions derives the transitions (i, i+1) a proof must open.
// Every transition is opened when there are no more than numQueries.
func sampleTransitions(claimHash, root hash.Digest, log2Height uint32, numQueries int) []int {
	transitions := (1 << log2Height) - 1
	if transitions <= numQueries {
		all := make([]int, transitions)
		for i := range all {
			all[i] = i
		}
		return all
	}

	channel := utils.NewChannel(transcriptDomain)
	channel.SendElements(claimHash[:])
	channel.SendElements(root[:])
	channel.SendUint64(uint64(log2Height))
	channel.SendUint64(uint64(numQueries))

	return dedupe(channel.SampleIndices(numQueries, transitions))
}

// openedRows lists the rows a proof reveals: both boundaries and both ends
// of every sampled transition
func openedRows(height int, transitions []int) []int {
	rows := make([]int, 0, 2*len(transitions)+2)
	rows = append(rows, 0, height-1)
	for _, i := range transitions {
		rows = append(rows, i, i+1)
	}
	return dedupe(rows)
}

func dedupe(indices []int) []int {
	sort.Ints(indices)
	out := make([]int, 0, len(indices))
	for _, v := range indices {
		if len(out) == 0 || out[len(out)-1] != v {
			out = append(out, v)
		}
	}
	return out
}
