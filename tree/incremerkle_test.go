package tree

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"testing"

	pegcommon "github.com/0xPolygon/pegcore/common"
	"github.com/0xPolygon/pegcore/merkle"
	"github.com/0xPolygon/pegcore/tree/testvectors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func testLeaves(n int) []common.Hash {
	leaves := make([]common.Hash, n)
	for i := range leaves {
		leaves[i] = sha256.Sum256([]byte(fmt.Sprintf("leaf-%d", i)))
	}
	return leaves
}

func TestIncremerkleVectors(t *testing.T) {
	data, err := os.ReadFile("testvectors/incremerkle-vectors.json")
	require.NoError(t, err)

	var vectors []testvectors.IncremerkleVectorRaw
	require.NoError(t, json.Unmarshal(data, &vectors))

	for _, vector := range vectors {
		t.Run(vector.Description, func(t *testing.T) {
			tree := NewIncremerkle()
			for i, leaf := range vector.Leaves {
				root, err := tree.Append(common.HexToHash(leaf))
				require.NoError(t, err)
				require.Equal(t, common.HexToHash(vector.Roots[i]), root, "leaf %d", i)
				require.Equal(t, root, tree.Root())
				require.Equal(t, uint64(i+1), tree.NodeCount())
			}
			require.Equal(t, vector.FinalNodeCount, tree.NodeCount())
			expectedNodes := make([]common.Hash, len(vector.FinalActiveNodes))
			for i, n := range vector.FinalActiveNodes {
				expectedNodes[i] = common.HexToHash(n)
			}
			require.Equal(t, expectedNodes, tree.ActiveNodes())
		})
	}
}

func TestIncremerkleMatchesDigest(t *testing.T) {
	leaves := testLeaves(70)
	tree := NewIncremerkle()
	require.Equal(t, common.Hash{}, tree.Root())

	previousCount := tree.NodeCount()
	for i, leaf := range leaves {
		root, err := tree.Append(leaf)
		require.NoError(t, err)
		require.Equal(t, previousCount+1, tree.NodeCount())
		previousCount = tree.NodeCount()
		require.Equal(t, merkle.Digest(leaves[:i+1]), root, "after %d leaves", i+1)
		require.Equal(t, root, tree.ActiveNodes()[len(tree.ActiveNodes())-1])
	}
}

func TestIncremerkleCorruptedState(t *testing.T) {
	_, err := NewIncremerkleFromState(1, nil)
	require.ErrorIs(t, err, ErrCorruptedState)
	_, err = NewIncremerkleFromState(0, testLeaves(1))
	require.ErrorIs(t, err, ErrCorruptedState)

	nodes := testLeaves(1)
	tree, err := NewIncremerkleFromState(3, nodes)
	require.NoError(t, err)

	_, err = tree.Append(common.HexToHash("0x01"))
	require.ErrorIs(t, err, ErrCorruptedState)
	require.True(t, pegcommon.IsKind(err, pegcommon.KindVerification))
	// untouched
	require.Equal(t, uint64(3), tree.NodeCount())
	require.Equal(t, nodes, tree.ActiveNodes())
}

func TestIncremerkleCopyIsIndependent(t *testing.T) {
	leaves := testLeaves(5)
	tree := NewIncremerkle()
	for _, leaf := range leaves[:3] {
		_, err := tree.Append(leaf)
		require.NoError(t, err)
	}
	cp := tree.Copy()
	_, err := tree.Append(leaves[3])
	require.NoError(t, err)
	require.Equal(t, uint64(3), cp.NodeCount())
	require.Equal(t, merkle.Digest(leaves[:3]), cp.Root())

	nodes := tree.ActiveNodes()
	nodes[0] = common.Hash{}
	require.NotEqual(t, nodes, tree.ActiveNodes())
}

func TestIncremerkleJSON(t *testing.T) {
	tree := NewIncremerkle()
	for _, leaf := range testLeaves(6) {
		_, err := tree.Append(leaf)
		require.NoError(t, err)
	}

	data, err := json.Marshal(tree)
	require.NoError(t, err)
	require.Contains(t, string(data), `"node_count":6`)

	again, err := json.Marshal(tree)
	require.NoError(t, err)
	require.Equal(t, data, again)

	restored := &Incremerkle{}
	require.NoError(t, json.Unmarshal(data, restored))
	require.Equal(t, tree.NodeCount(), restored.NodeCount())
	require.Equal(t, tree.ActiveNodes(), restored.ActiveNodes())
	require.Equal(t, tree.Root(), restored.Root())

	// appending to the restored tree yields the same roots
	next := common.HexToHash("0x42")
	r1, err := tree.Append(next)
	require.NoError(t, err)
	r2, err := restored.Append(next)
	require.NoError(t, err)
	require.Equal(t, r1, r2)

	err = json.Unmarshal([]byte(`{"node_count":1,"active_nodes":["zz"]}`), restored)
	require.True(t, pegcommon.IsKind(err, pegcommon.KindDecoding))
	err = json.Unmarshal([]byte(`{"node_count":0,"active_nodes":["`+common.Hash{}.Hex()+`"]}`), restored)
	require.ErrorIs(t, err, ErrCorruptedState)
}

func TestIncremerkleState(t *testing.T) {
	tree := NewIncremerkle()
	for _, leaf := range testLeaves(3) {
		_, err := tree.Append(leaf)
		require.NoError(t, err)
	}
	state := tree.State()
	require.Equal(t, uint64(3), state.BlockNum)
	require.Equal(t, tree.Root(), state.Root)

	restored, err := NewIncremerkleFromRow(state)
	require.NoError(t, err)
	require.Equal(t, tree.ActiveNodes(), restored.ActiveNodes())

	state.Root = common.HexToHash("0x1")
	_, err = NewIncremerkleFromRow(state)
	require.ErrorIs(t, err, ErrCorruptedState)
}

func TestCalculateMaxDepth(t *testing.T) {
	testCases := []struct {
		n        uint64
		expected int
	}{
		{0, 0}, {1, 1}, {2, 2}, {3, 3}, {4, 3}, {5, 4}, {8, 4}, {9, 5}, {1 << 40, 41},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expected, calculateMaxDepth(tc.n), "n=%d", tc.n)
	}
}

func TestIncremerkles(t *testing.T) {
	list := NewIncremerkles(3)
	require.Nil(t, list.Latest())

	tree := NewIncremerkle()
	for i, leaf := range testLeaves(5) {
		_, err := tree.Append(leaf)
		require.NoError(t, err)
		require.True(t, list.Add(tree))
		require.Equal(t, uint64(i+1), list.Latest().NodeCount())
	}
	require.Equal(t, 3, list.Len())

	// not newer than the latest
	stale, err := NewIncremerkleFromState(2, testLeaves(1))
	require.NoError(t, err)
	require.False(t, list.Add(stale))

	_, ok := list.ByBlockNum(2)
	require.False(t, ok)
	state, ok := list.ByBlockNum(4)
	require.True(t, ok)
	require.Equal(t, uint64(4), state.NodeCount())

	list.DropFrom(4)
	require.Equal(t, 1, list.Len())
	require.Equal(t, uint64(3), list.Latest().NodeCount())

	require.Equal(t, MaxIncremerkles, NewIncremerkles(0).max)
}
