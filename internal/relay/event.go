package relay

// Event is a message processed by the Actor. The set of implementations is
// closed: Connected, Disconnected, Payload and the internal snapshot query.
type Event interface {
	isEvent()
}

// Connected hands the write half of a new peer over to the Actor.
type Connected struct {
	ID     string
	Addr   string
	Writer WriteHalf
}

// Disconnected reports that the peer's read side has ended.
type Disconnected struct {
	ID   string
	Addr string
}

// Payload carries bytes read from Addr, to be written to every other peer.
type Payload struct {
	Addr string
	Data []byte
}

// snapshotRequest asks the Actor for a copy of its peer list.
type snapshotRequest struct {
	reply chan<- Snapshot
}

func (Connected) isEvent()       {}
func (Disconnected) isEvent()    {}
func (Payload) isEvent()         {}
func (snapshotRequest) isEvent() {}

// Snapshot is a point-in-time view of the live peer table.
type Snapshot struct {
	Peers []string
}
