package workflows_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/feral-file/ff-ledger/internal/domain"
	"github.com/feral-file/ff-ledger/internal/logger"
	"github.com/feral-file/ff-ledger/internal/mocks"
	"github.com/feral-file/ff-ledger/internal/reconcile"
	"github.com/feral-file/ff-ledger/internal/store"
	"github.com/feral-file/ff-ledger/internal/workflows"
)

func TestMain(m *testing.M) {
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

// testExecutorMocks contains all the mocks needed for testing the executor
type testExecutorMocks struct {
	ctrl             *gomock.Controller
	store            store.Store
	engine           *mocks.MockReconcileEngine
	temporalActivity *mocks.MockActivity
	executor         workflows.Executor
}

func setupTestExecutor(t *testing.T) *testExecutorMocks {
	ctrl := gomock.NewController(t)
	tm := &testExecutorMocks{
		ctrl:             ctrl,
		store:            store.NewMemoryStore(),
		engine:           mocks.NewMockReconcileEngine(ctrl),
		temporalActivity: mocks.NewMockActivity(ctrl),
	}
	tm.executor = workflows.NewExecutor(tm.store, tm.engine, tm.temporalActivity, 2)
	return tm
}

func TestExecutor_ListUserIDs(t *testing.T) {
	tm := setupTestExecutor(t)
	ctx := context.Background()
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	err := tm.store.WithinTx(ctx, func(tx store.Tx) error {
		for _, addr := range []string{"0x03", "0x01", "0x02"} {
			if _, _, err := tx.UpsertUser(ctx, domain.ChainBaseMainnet, addr, at); err != nil {
				return err
			}
		}
		_, _, err := tx.UpsertUser(ctx, domain.ChainEthereumMainnet, "0x09", at)
		return err
	})
	require.NoError(t, err)

	ids, err := tm.executor.ListUserIDs(ctx, domain.ChainBaseMainnet, "", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"eip155:8453:0x01", "eip155:8453:0x02"}, ids)

	ids, err = tm.executor.ListUserIDs(ctx, domain.ChainBaseMainnet, ids[1], 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"eip155:8453:0x03"}, ids)
}

func TestExecutor_ReconcileUsers(t *testing.T) {
	tm := setupTestExecutor(t)
	ctx := context.Background()

	tm.temporalActivity.EXPECT().GetInfo(gomock.Any()).Return(activity.Info{Attempt: 1})
	tm.temporalActivity.EXPECT().RecordHeartbeat(gomock.Any(), gomock.Any()).Times(3)
	tm.engine.EXPECT().Reconcile(gomock.Any(), "u1", reconcile.PolicyV1).Return(&reconcile.Report{UserID: "u1", Match: true}, nil)
	tm.engine.EXPECT().Reconcile(gomock.Any(), "u2", reconcile.PolicyV1).Return(&reconcile.Report{UserID: "u2", Match: false}, nil)
	tm.engine.EXPECT().Reconcile(gomock.Any(), "u3", reconcile.PolicyV1).Return(nil, domain.ErrUserNotFound)

	result, err := tm.executor.ReconcileUsers(ctx, []string{"u1", "u2", "u3"}, reconcile.PolicyV1)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Checked)
	assert.Equal(t, []string{"u2"}, result.Drifted)
	assert.Contains(t, result.Failed, "u3")
}

func TestExecutor_ReconcileUsersUnknownPolicy(t *testing.T) {
	tm := setupTestExecutor(t)

	_, err := tm.executor.ReconcileUsers(context.Background(), []string{"u1"}, "v99")
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.True(t, appErr.NonRetryable())
}
