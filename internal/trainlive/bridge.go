package trainlive

import (
	"log"

	"denseforge/internal/runstore"
)

// Bridge implements network.ProgressCallback, recording each epoch into
// runstore and broadcasting it to every connected dashboard.
type Bridge struct {
	hub   *Hub
	store *runstore.Store
	runID string
}

// NewBridge returns a Bridge that records and broadcasts epochs for runID.
func NewBridge(hub *Hub, store *runstore.Store, runID string) *Bridge {
	return &Bridge{hub: hub, store: store, runID: runID}
}

// OnEpoch satisfies network.ProgressCallback.
func (b *Bridge) OnEpoch(epoch int, avgLoss float64) {
	b.store.Append(b.runID, epoch, avgLoss)

	msg, err := NewEnvelope(TypeEpoch, EpochPayload{RunID: b.runID, Epoch: epoch, Loss: avgLoss})
	if err != nil {
		log.Printf("trainlive: marshaling epoch: %v", err)
		return
	}
	b.hub.Broadcast(msg)
}
