package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionHappyPath(t *testing.T) {
	steps := []OrderStatus{OrderPlaced, OrderConfirmed, OrderPreparing, OrderReady, OrderOutForDelivery, OrderDelivered}
	for i := 0; i < len(steps)-1; i++ {
		assert.True(t, CanTransition(steps[i], steps[i+1]), "%s -> %s should be legal", steps[i], steps[i+1])
	}
	assert.True(t, CanTransition(OrderReady, OrderPickedUp))
	assert.True(t, CanTransition(OrderPickedUp, OrderDelivered))
}

func TestCanTransitionRejectsSkips(t *testing.T) {
	assert.False(t, CanTransition(OrderPlaced, OrderDelivered))
	assert.False(t, CanTransition(OrderPlaced, OrderPreparing))
	assert.False(t, CanTransition(OrderConfirmed, OrderReady))
}

func TestCanTransitionRejectsBackward(t *testing.T) {
	assert.False(t, CanTransition(OrderDelivered, OrderPlaced))
	assert.False(t, CanTransition(OrderReady, OrderConfirmed))
	assert.False(t, CanTransition(OrderDelivered, OrderOutForDelivery))
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, OrderDelivered.Terminal())
	assert.True(t, OrderCancelled.Terminal())
	assert.False(t, OrderPlaced.Terminal())
	assert.False(t, OrderOutForDelivery.Terminal())
}

func TestTxStatusTerminal(t *testing.T) {
	assert.False(t, TxPending.Terminal())
	assert.True(t, TxSuccess.Terminal())
	assert.True(t, TxFailed.Terminal())
	assert.True(t, TxCancelled.Terminal())
}
