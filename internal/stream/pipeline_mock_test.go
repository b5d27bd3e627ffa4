package stream

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/bugVanisher/bkrcodec/internal/bkrerrs"
)

// This exercises Manager.Run's stage-ordering and call-count contract with
// precise expectations, complementing pipeline_test.go's behavioral tests
// against real Stage implementations.
func TestManagerCallsStagesInOrderUntilDrained(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	first := NewMockStage(ctrl)
	second := NewMockStage(ctrl)

	gomock.InOrder(
		first.EXPECT().Step().Return(nil),
		first.EXPECT().Step().Return(bkrerrs.ErrEndOfStream),
	)
	gomock.InOrder(
		second.EXPECT().Step().Return(bkrerrs.ErrWouldBlock),
		second.EXPECT().Step().Return(nil),
		second.EXPECT().Step().Return(bkrerrs.ErrEndOfStream),
	)
	first.EXPECT().Name().Return("first").AnyTimes()
	second.EXPECT().Name().Return("second").AnyTimes()

	m := NewManager(first, second)
	require.Nil(t, m.Run())
}

func TestManagerStopsOnFirstFatalError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	boom := bkrerrs.New(bkrerrs.CodeOutOfMemory, "disk exploded")
	st := NewMockStage(ctrl)
	st.EXPECT().Step().Return(boom)
	st.EXPECT().Name().Return("doomed").AnyTimes()

	m := NewManager(st)
	err := m.Run()
	require.NotNil(t, err)
	require.True(t, bkrerrs.Is(err, bkrerrs.CodeOutOfMemory))
}
