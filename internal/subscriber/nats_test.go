package subscriber

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	perrors "github.com/avazquez/product-service/internal/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAckableMsg struct {
	mock.Mock
}

func (m *mockAckableMsg) Data() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *mockAckableMsg) Subject() string {
	args := m.Called()
	return args.String(0)
}

func (m *mockAckableMsg) Ack() error {
	args := m.Called()
	return args.Error(0)
}

func (m *mockAckableMsg) Nak() error {
	args := m.Called()
	return args.Error(0)
}

type mockRestorer struct {
	mock.Mock
}

func (m *mockRestorer) Restock(ctx context.Context, id uuid.UUID, quantity int32) error {
	args := m.Called(ctx, id, quantity)
	return args.Error(0)
}

func Test_handleMessage(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	productID := uuid.MustParse("123e4567-e89b-12d3-a456-426614174000")
	testCases := []struct {
		name            string
		newMockMsg      func() *mockAckableMsg
		newMockRestorer func() *mockRestorer
	}{
		{
			name: "valid message - restocked and acked",
			newMockMsg: func() *mockAckableMsg {
				msg := new(mockAckableMsg)
				msg.On("Data").Return([]byte(productID.String() + ",5"))
				msg.On("Ack").Return(nil).Times(1)
				return msg
			},
			newMockRestorer: func() *mockRestorer {
				restorer := new(mockRestorer)
				restorer.On("Restock", mock.Anything, productID, int32(5)).Return(nil).Times(1)
				return restorer
			},
		},
		{
			name: "valid message with whitespace",
			newMockMsg: func() *mockAckableMsg {
				msg := new(mockAckableMsg)
				msg.On("Data").Return([]byte(" " + productID.String() + " , 5 \n"))
				msg.On("Ack").Return(nil).Times(1)
				return msg
			},
			newMockRestorer: func() *mockRestorer {
				restorer := new(mockRestorer)
				restorer.On("Restock", mock.Anything, productID, int32(5)).Return(nil).Times(1)
				return restorer
			},
		},
		{
			name: "malformed payload - dropped without restocking",
			newMockMsg: func() *mockAckableMsg {
				msg := new(mockAckableMsg)
				msg.On("Data").Return([]byte("not a rollback"))
				msg.On("Subject").Return("product.stock.rollback")
				msg.On("Ack").Return(nil).Times(1)
				return msg
			},
			newMockRestorer: func() *mockRestorer {
				return new(mockRestorer)
			},
		},
		{
			name: "non-numeric quantity - dropped",
			newMockMsg: func() *mockAckableMsg {
				msg := new(mockAckableMsg)
				msg.On("Data").Return([]byte(productID.String() + ",many"))
				msg.On("Subject").Return("product.stock.rollback")
				msg.On("Ack").Return(nil).Times(1)
				return msg
			},
			newMockRestorer: func() *mockRestorer {
				return new(mockRestorer)
			},
		},
		{
			name: "negative quantity - dropped",
			newMockMsg: func() *mockAckableMsg {
				msg := new(mockAckableMsg)
				msg.On("Data").Return([]byte(productID.String() + ",-2"))
				msg.On("Subject").Return("product.stock.rollback")
				msg.On("Ack").Return(nil).Times(1)
				return msg
			},
			newMockRestorer: func() *mockRestorer {
				return new(mockRestorer)
			},
		},
		{
			name: "unknown product - dropped",
			newMockMsg: func() *mockAckableMsg {
				msg := new(mockAckableMsg)
				msg.On("Data").Return([]byte(productID.String() + ",5"))
				msg.On("Ack").Return(nil).Times(1)
				return msg
			},
			newMockRestorer: func() *mockRestorer {
				restorer := new(mockRestorer)
				restorer.On("Restock", mock.Anything, productID, int32(5)).
					Return(perrors.ErrProductNotFound).Times(1)
				return restorer
			},
		},
		{
			name: "transient store failure - nacked for redelivery",
			newMockMsg: func() *mockAckableMsg {
				msg := new(mockAckableMsg)
				msg.On("Data").Return([]byte(productID.String() + ",5"))
				msg.On("Nak").Return(nil).Times(1)
				return msg
			},
			newMockRestorer: func() *mockRestorer {
				restorer := new(mockRestorer)
				restorer.On("Restock", mock.Anything, productID, int32(5)).
					Return(errors.New("connection reset")).Times(1)
				return restorer
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			mockMsg := tc.newMockMsg()
			restorer := tc.newMockRestorer()

			// when
			handleMessage(context.Background(), mockMsg, restorer, logger)

			// then
			mockMsg.AssertExpectations(t)
			restorer.AssertExpectations(t)
		})
	}
}

func Test_parseRollback(t *testing.T) {
	productID := uuid.MustParse("123e4567-e89b-12d3-a456-426614174000")
	testCases := []struct {
		name     string
		payload  string
		id       uuid.UUID
		quantity int32
		ok       bool
	}{
		{name: "valid", payload: productID.String() + ",7", id: productID, quantity: 7, ok: true},
		{name: "valid with whitespace", payload: "  " + productID.String() + " , 7\n", id: productID, quantity: 7, ok: true},
		{name: "empty payload", payload: "", ok: false},
		{name: "missing quantity", payload: productID.String(), ok: false},
		{name: "too many fields", payload: productID.String() + ",7,extra", ok: false},
		{name: "bad uuid", payload: "not-a-uuid,7", ok: false},
		{name: "zero quantity", payload: productID.String() + ",0", ok: false},
		{name: "negative quantity", payload: productID.String() + ",-1", ok: false},
		{name: "fractional quantity", payload: productID.String() + ",1.5", ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			id, quantity, ok := parseRollback(tc.payload)
			// then
			require.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.id, id)
				assert.Equal(t, tc.quantity, quantity)
			}
		})
	}
}
