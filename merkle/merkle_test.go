package merkle

import (
	"crypto/sha256"
	"testing"

	pegcommon "github.com/0xPolygon/pegcore/common"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

// action receipt digests and action_mroot values taken from mainnet blocks
var (
	evenLeaves = []common.Hash{
		common.HexToHash("1b9653d26c9d83f36ad6565e2d69c4068f38f085992b58a77257db93ccdfd61e"),
		common.HexToHash("405bae3ab3fdab8611a28e49033b39345ac0097c4fad451aabaf14b5fdf45397"),
	}
	evenRoot = common.HexToHash("2f013d3ed57c89f1824772d18a4a74c043574bad47e9c6f088136e7595511810")

	oddLeaves = []common.Hash{
		common.HexToHash("214052353e0bf3326a18ec569065e757d471448d7c39682e2e442089d7016592"),
		common.HexToHash("9f126c1f22d85247c7b03f9fba9180578bfb6e53429a115f1c9070294bf99305"),
		common.HexToHash("5005111c21ed07001417b749ce46d325d30527adf6335ae0c3d2f4f992b07e7e"),
	}
	oddRoot = common.HexToHash("593f54cbc0b877b30cec5e510838b2b16ca00aca43e21d204d21eb8e8f947aa0")

	multiAuthLeaves = []common.Hash{
		common.HexToHash("a8eba91d3f5e1cb11e9b3103b84c8e46f79521d760de47b1bd55defe48296ed0"),
		common.HexToHash("12299dd07164f77d60e8074cb6ec1a65473c1875aad8f7fb6ac9e67606d3cc8c"),
	}
	multiAuthRoot = common.HexToHash("f93a91688d12170c24807d4bd507cf52dcde962ae4a41a86fe55231dee4df348")

	d1 = common.HexToHash("9b9babebfbdff48ce4002b5f3c7f999c0ee74707b6d121c47ef5db68c6be7262")
	d2 = common.HexToHash("122cd09d66ca7df007a35bd9c9be5484833f1a69ad0c8527c3e2a56b6955e761")
)

func testLeaves(n int) []common.Hash {
	leaves := make([]common.Hash, n)
	for i := range leaves {
		leaves[i] = sha256.Sum256([]byte{byte(i)})
	}
	return leaves
}

func TestCanonicalize(t *testing.T) {
	left := CanonicalLeft(d1)
	require.Equal(t, byte(0b0001_1011), left[0])
	require.Equal(t, d1[1:], left[1:])
	require.True(t, IsCanonicalLeft(left))
	require.False(t, IsCanonicalRight(left))

	right := CanonicalRight(d2)
	require.Equal(t, byte(0b1001_0010), right[0])
	require.Equal(t, d2[1:], right[1:])
	require.True(t, IsCanonicalRight(right))

	// input is not modified
	require.Equal(t, byte(0x9b), d1[0])
	require.Equal(t, byte(0x12), d2[0])

	for _, h := range []common.Hash{d1, d2, {}, common.HexToHash("0xff")} {
		require.Equal(t, CanonicalLeft(h), CanonicalLeft(CanonicalLeft(h)))
		require.Equal(t, CanonicalRight(h), CanonicalRight(CanonicalRight(h)))
		require.Equal(t, CanonicalLeft(h), CanonicalLeft(CanonicalRight(h)))
		require.Equal(t, CanonicalRight(h), Canonicalize(CanonicalLeft(h), Right))
	}
	require.Equal(t, "left", Left.String())
	require.Equal(t, "right", Right.String())
}

func TestHashPair(t *testing.T) {
	expected := common.HexToHash("a26284468e89fe4a5cce763ca3b3d3d37d5fcb35f289c63f0558487ec57ace28")
	require.Equal(t, expected, HashPair(d1, d2))
	// inputs are canonicalized before hashing
	require.Equal(t, expected, HashPair(CanonicalRight(d1), CanonicalLeft(d2)))
	require.NotEqual(t, expected, HashPair(d2, d1))
}

func TestDigest(t *testing.T) {
	testCases := []struct {
		name     string
		leaves   []common.Hash
		expected common.Hash
	}{
		{name: "empty", leaves: nil, expected: common.Hash{}},
		{name: "single leaf", leaves: evenLeaves[:1], expected: evenLeaves[0]},
		{name: "even number of leaves", leaves: evenLeaves, expected: evenRoot},
		{name: "odd number of leaves", leaves: oddLeaves, expected: oddRoot},
		{name: "receipt with several auths", leaves: multiAuthLeaves, expected: multiAuthRoot},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, Digest(tc.leaves))
		})
	}

	t.Run("odd level duplicates the raw last node", func(t *testing.T) {
		expected := HashPair(HashPair(oddLeaves[0], oddLeaves[1]), HashPair(oddLeaves[2], oddLeaves[2]))
		require.Equal(t, expected, Digest(oddLeaves))
	})

	t.Run("repeated leaf", func(t *testing.T) {
		a := evenLeaves[0]
		l, r := CanonicalLeft(a), CanonicalRight(a)
		pair := common.Hash(sha256.Sum256(append(l[:], r[:]...)))

		require.Equal(t, a, Digest([]common.Hash{a}))
		require.Equal(t, HashPair(a, a), Digest([]common.Hash{a, a}))
		require.Equal(t, pair, Digest([]common.Hash{a, a}))
		require.Equal(t, HashPair(HashPair(a, a), HashPair(a, a)), Digest([]common.Hash{a, a, a}))
		require.Equal(t, Digest([]common.Hash{a, a, a, a}), Digest([]common.Hash{a, a, a}))
	})

	t.Run("input is not modified", func(t *testing.T) {
		leaves := testLeaves(5)
		backup := make([]common.Hash, len(leaves))
		copy(backup, leaves)
		Digest(leaves[:3])
		require.Equal(t, backup, leaves)
	})
}

func TestGenerateAndVerifyProof(t *testing.T) {
	for n := 1; n <= 17; n++ {
		leaves := testLeaves(n)
		root := Digest(leaves)
		for i := 0; i < n; i++ {
			proof, err := GenerateProof(leaves, i)
			require.NoError(t, err)
			require.Equal(t, leaves[i], proof.Leaf())
			require.Equal(t, root, proof.Root())
			require.True(t, VerifyProof(proof), "n=%d i=%d", n, i)
			require.NoError(t, proof.VerifyAgainst(root))

			for j := 1; j < len(proof); j++ {
				corrupted := make(Proof, len(proof))
				copy(corrupted, proof)
				corrupted[j][31] ^= 0x01
				require.False(t, corrupted.Verify(), "n=%d i=%d corrupted=%d", n, i, j)
			}
		}
	}

	t.Run("known vectors", func(t *testing.T) {
		proof, err := GenerateProof(oddLeaves, 2)
		require.NoError(t, err)
		require.Len(t, proof, 4)
		require.True(t, IsCanonicalRight(proof[1]))
		require.True(t, IsCanonicalLeft(proof[2]))
		require.NoError(t, proof.VerifyAgainst(oddRoot))
	})

	t.Run("index out of range", func(t *testing.T) {
		_, err := GenerateProof(evenLeaves, 2)
		require.ErrorIs(t, err, ErrIndexOutOfRange)
		require.True(t, pegcommon.IsKind(err, pegcommon.KindDecoding))
		_, err = GenerateProof(nil, 0)
		require.ErrorIs(t, err, ErrIndexOutOfRange)
	})
}

func TestVerifyProofEdgeCases(t *testing.T) {
	require.False(t, VerifyProof(nil))
	require.True(t, VerifyProof(Proof{d1}))
	require.Empty(t, Proof{d1}.Siblings())

	err := Proof{}.VerifyAgainst(d1)
	require.ErrorIs(t, err, ErrEmptyProof)
	require.True(t, pegcommon.IsKind(err, pegcommon.KindVerification))

	proof, err := GenerateProof(evenLeaves, 0)
	require.NoError(t, err)
	err = proof.VerifyAgainst(oddRoot)
	require.ErrorIs(t, err, ErrRootMismatch)

	// a consistent proof whose root was swapped
	proof[len(proof)-1] = oddRoot
	require.ErrorIs(t, proof.VerifyAgainst(oddRoot), ErrInvalidProof)
}

func TestProofHex(t *testing.T) {
	proof, err := GenerateProof(oddLeaves, 1)
	require.NoError(t, err)

	decoded, err := ProofFromHex(proof.Hex())
	require.NoError(t, err)
	require.Equal(t, proof, decoded)

	withPrefix := proof.Hex()
	withPrefix[0] = "0x" + withPrefix[0]
	decoded, err = ProofFromHex(withPrefix)
	require.NoError(t, err)
	require.Equal(t, proof, decoded)

	b, err := proof.MarshalJSON()
	require.NoError(t, err)
	var fromJSON Proof
	require.NoError(t, fromJSON.UnmarshalJSON(b))
	require.Equal(t, proof, fromJSON)

	testCases := []struct {
		name  string
		items []string
	}{
		{name: "not hex", items: []string{"zz"}},
		{name: "odd length", items: []string{"abc"}},
		{name: "short hash", items: []string{"abcd"}},
		{name: "long hash", items: []string{oddRoot.Hex()[2:] + "00"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ProofFromHex(tc.items)
			require.Error(t, err)
			require.True(t, pegcommon.IsKind(err, pegcommon.KindDecoding))
		})
	}

	require.Error(t, fromJSON.UnmarshalJSON([]byte(`{"not":"a list"}`)))
}
