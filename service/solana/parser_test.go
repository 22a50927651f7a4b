package solana

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSystemTransfer(t *testing.T) {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], SystemProgramTransferInstruction)
	binary.LittleEndian.PutUint64(data[4:12], 42)

	amount, err := parseSystemTransfer(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), amount)

	_, err = parseSystemTransfer(data[:8])
	assert.Error(t, err)

	binary.LittleEndian.PutUint32(data[0:4], 0) // CreateAccount
	_, err = parseSystemTransfer(data)
	assert.Error(t, err)
}

func TestParseTokenTransfer(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    uint64
		wantErr bool
	}{
		{
			name: "transfer",
			data: append([]byte{TokenProgramTransferInstruction}, le64(2_000_000)...),
			want: 2_000_000,
		},
		{
			name: "transfer checked",
			data: append(append([]byte{TokenProgramTransferCheckedInstruction}, le64(7)...), 6),
			want: 7,
		},
		{name: "empty", data: nil, wantErr: true},
		{name: "too short", data: []byte{TokenProgramTransferInstruction, 1, 2}, wantErr: true},
		{name: "other instruction", data: append([]byte{7}, le64(1)...), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTokenTransfer(tt.data)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDescribeInstruction_Unknown(t *testing.T) {
	ix := solana.NewInstruction(solana.MemoProgramID, solana.AccountMetaSlice{}, []byte("hello"))

	summary, err := DescribeInstruction(ix)
	require.NoError(t, err)
	assert.Equal(t, KindUnknown, summary.Kind)
	assert.Equal(t, solana.MemoProgramID.String(), summary.ProgramID)
}

func TestDescribe_PreservesOrder(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	src := solana.NewWallet().PublicKey()
	dst := solana.NewWallet().PublicKey()

	tx := NewTransaction(owner,
		token.NewTransferInstruction(5, src, dst, owner, nil).Build(),
	)
	tx.Add(BuildNativeTransfer(owner, dst, 9).Instructions...)

	summaries, err := Describe(tx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, KindTokenTransfer, summaries[0].Kind)
	assert.Equal(t, uint64(5), summaries[0].Amount)
	assert.Equal(t, KindNativeTransfer, summaries[1].Kind)
	assert.Equal(t, uint64(9), summaries[1].Amount)
}

func le64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}
