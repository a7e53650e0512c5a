package ws

import (
	"testing"

	"github.com/Jmdec/ipponyari-sub001/notify"
	"github.com/stretchr/testify/assert"
)

func TestDeliverFailsInsteadOfBlockingWhenSaturated(t *testing.T) {
	h := NewNotifyHub() // Run is never started, so the queue only drains by capacity

	var err error
	for i := 0; i < cap(h.broadcast)+1; i++ {
		err = h.Deliver(notify.Event{Kind: "order.placed"})
	}
	assert.Error(t, err, "a saturated hub must fail fast, not block the dispatcher")
}
