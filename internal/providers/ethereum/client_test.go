package ethereum_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-ledger/internal/domain"
	"github.com/feral-file/ff-ledger/internal/mocks"
	"github.com/feral-file/ff-ledger/internal/providers/ethereum"
)

func TestDial(t *testing.T) {
	tests := []struct {
		name    string
		chain   domain.Chain
		nodeID  int64
		wantErr bool
	}{
		{name: "matching chain", chain: domain.ChainBaseMainnet, nodeID: 8453},
		{name: "node on another chain", chain: domain.ChainBaseMainnet, nodeID: 1, wantErr: true},
		{name: "sepolia", chain: domain.ChainBaseSepolia, nodeID: 84532},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			dialer := mocks.NewMockEthClientDialer(ctrl)
			client := mocks.NewMockEthClient(ctrl)

			dialer.EXPECT().Dial(gomock.Any(), "wss://node").Return(client, nil)
			client.EXPECT().ChainID(gomock.Any()).Return(big.NewInt(tt.nodeID), nil)
			if tt.wantErr {
				client.EXPECT().Close()
			}

			got, err := ethereum.Dial(context.Background(), dialer, "wss://node", tt.chain)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidArgument)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, client, got)
		})
	}
}

func TestDial_Errors(t *testing.T) {
	ctrl := gomock.NewController(t)
	dialer := mocks.NewMockEthClientDialer(ctrl)

	_, err := ethereum.Dial(context.Background(), dialer, "wss://node", domain.Chain("tezos:NetXdQprcVkpaWU"))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	dialer.EXPECT().Dial(gomock.Any(), "wss://node").Return(nil, assert.AnError)
	_, err = ethereum.Dial(context.Background(), dialer, "wss://node", domain.ChainBaseMainnet)
	assert.ErrorIs(t, err, assert.AnError)

	client := mocks.NewMockEthClient(ctrl)
	dialer.EXPECT().Dial(gomock.Any(), "wss://node").Return(client, nil)
	client.EXPECT().ChainID(gomock.Any()).Return(nil, assert.AnError)
	client.EXPECT().Close()
	_, err = ethereum.Dial(context.Background(), dialer, "wss://node", domain.ChainBaseMainnet)
	assert.ErrorIs(t, err, assert.AnError)
}
