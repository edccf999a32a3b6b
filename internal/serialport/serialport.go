package serialport

import (
	"fmt"
	"io"
	"log"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// Placeholder is shown in place of a device name when no device is present.
// It is never a valid selection.
const Placeholder = "No serial ports"

// Port is the device handle owned by the connection manager and lent to
// exactly one read worker while the connection is open.
// Both serial.Port and our MockPort implement this interface.
type Port interface {
	io.ReadCloser
	SetReadTimeout(t time.Duration) error
}

// Opener acquires a device handle.
type Opener func(name string, baudRate int) (Port, error)

// Lister enumerates the names of currently present devices.
type Lister func() ([]string, error)

// Open a real serial port with 8N1 framing.
func Open(name string, baudRate int) (Port, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, err
	}
	return port, nil
}

// List returns the names of all serial ports the OS currently reports.
func List() ([]string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(ports))
	for _, port := range ports {
		names = append(names, port.Name)
	}
	return names, nil
}

// Print out a list of all available ports.
func ListDetailed() {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		log.Fatal(err)
	}

	if len(ports) == 0 {
		fmt.Println("No serial ports found!")
		return
	}

	for _, port := range ports {
		fmt.Printf("Found port: %s\n", port.Name)
		if port.IsUSB {
			fmt.Printf("   USB ID     %s:%s\n", port.VID, port.PID)
			fmt.Printf("   USB serial %s\n", port.SerialNumber)
		}
	}
}

// Close releases a handle and swallows the error. Closing twice is harmless.
func Close(p Port) {
	if p == nil {
		return
	}
	if err := p.Close(); err != nil {
		log.Printf("close port: %v", err)
	}
}
