package event_test

import (
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/blues/cds/internal/event"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversToSubscribers(t *testing.T) {
	bus, err := event.NewBus(4)
	require.NoError(t, err)
	defer bus.Close()

	var wg sync.WaitGroup
	wg.Add(2)

	var mu sync.Mutex
	var got []event.Event
	handler := func(e event.Event) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
		wg.Done()
	}
	bus.Subscribe(event.TypeDonationReceived, handler)
	bus.Subscribe(event.TypeDonationReceived, handler)

	payload := event.DonationReceived{
		Donor:      common.HexToAddress("0x00000000000000000000000000000000000000E1"),
		CampaignID: 1,
		Amount:     big.NewInt(100),
	}
	bus.Publish(event.TypeDonationReceived, payload)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("handlers not invoked in time")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	for _, e := range got {
		assert.Equal(t, event.TypeDonationReceived, e.Type)
		assert.Equal(t, payload, e.Payload)
		assert.False(t, e.At.IsZero())
	}
}

func TestBusIgnoresUnsubscribedTypes(t *testing.T) {
	bus, err := event.NewBus(2)
	require.NoError(t, err)
	defer bus.Close()

	called := make(chan struct{}, 1)
	bus.Subscribe(event.TypeCampaignStopped, func(event.Event) {
		called <- struct{}{}
	})

	// 没有订阅者的事件被静默丢弃
	bus.Publish(event.TypeFundsWithdrawn, event.FundsWithdrawn{CampaignID: 1})

	select {
	case <-called:
		t.Fatal("handler invoked for wrong event type")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBusDefaultWorkerCount(t *testing.T) {
	bus, err := event.NewBus(0)
	require.NoError(t, err)
	defer bus.Close()

	done := make(chan struct{})
	bus.Subscribe(event.TypeRewardIssued, func(event.Event) { close(done) })
	bus.Publish(event.TypeRewardIssued, event.RewardIssued{TokenID: 1})

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("handler not invoked")
	}
}
