package ledger_gateway

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"evote-node/modules/db/evote/votes"
)

// recordVote(bytes32 electionRef, bytes32 candidateRef, uint256 position)
var recordVoteSelector = crypto.Keccak256([]byte("recordVote(bytes32,bytes32,uint256)"))[:4]

// encodeVotePayload ABI-encodes the vote for the election contract.
// Election and candidate ids are carried as their keccak hashes so the
// calldata stays fixed-width regardless of id format.
func encodeVotePayload(vote votes.VoteRecord) []byte {
	data := make([]byte, 0, 4+3*32)
	data = append(data, recordVoteSelector...)
	data = append(data, crypto.Keccak256([]byte(vote.ElectionId))...)
	data = append(data, crypto.Keccak256([]byte(vote.CandidateId))...)
	data = append(data, common.LeftPadBytes(new(big.Int).SetUint64(vote.Position).Bytes(), 32)...)
	return data
}
