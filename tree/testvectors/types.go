package testvectors

// IncremerkleVectorRaw represents an incremerkle test vector: the leaves to
// append, the root after every append and the state after the last one
type IncremerkleVectorRaw struct {
	Description      string   `json:"description"`
	Leaves           []string `json:"leaves"`
	Roots            []string `json:"roots"`
	FinalNodeCount   uint64   `json:"finalNodeCount"`
	FinalActiveNodes []string `json:"finalActiveNodes"`
}
