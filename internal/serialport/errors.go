package serialport

import "errors"

var (
	// No device or the placeholder entry was chosen.
	ErrInvalidSelection = errors.New("invalid port selection")
	// Baud rate text is not a positive integer.
	ErrInvalidBaudRate = errors.New("invalid baud rate")
	// The OS or driver rejected the open.
	ErrOpenFailure = errors.New("cannot open port")
	// Read failed on an established connection.
	ErrIOFailure = errors.New("port read failed")
	// A worker or the scanner did not acknowledge stop in time.
	ErrShutdownTimeout = errors.New("shutdown timed out")
)
