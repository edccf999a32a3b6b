package events

// defines all shared event messages

// ConnState is the actual state of the single serial connection.
type ConnState int

const (
	Closed ConnState = iota
	Opening
	Open
	Closing
)

func (s ConnState) String() string {
	switch s {
	case Opening:
		return "opening"
	case Open:
		return "open"
	case Closing:
		return "closing"
	default:
		return "closed"
	}
}

// Broadcast on every connection state transition.
type ConnectionStatusMsg struct {
	State    ConnState
	Port     string
	BaudRate string
	Wanted   bool
}

// Indicates the set of present devices changed. Ports is sorted.
type PortsChangedMsg struct {
	Ports []string
}

// Indicates a line was received from the serial port.
type SerialRxMsg struct {
	Conn int
	Line string
}

// Indicates the read worker of connection Conn failed.
type ReadErrMsg struct {
	Conn int
	Err  error
}

// Indicates the read worker of connection Conn has terminated.
type WorkerStoppedMsg struct {
	Conn int
}

// Indicates the user picked a port in the port list.
type PortSelectedMsg string

// Indicates the user picked a baud rate.
type BaudSelectedMsg string

// Indicates the live include/exclude filter text was applied.
type LiveFilterMsg struct {
	Include string
	Exclude string
}

// Indicates the history filter text was applied.
type HistoryFilterMsg string

// Error banner for the message view.
type ErrMsg struct{ Err error }

func (e ErrMsg) Error() string { return e.Err.Error() }

// Info banner for the message view.
type InfoMsg string
