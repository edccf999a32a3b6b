package internal

import "flag"

type Flags struct {
	List       bool
	Port       string
	BaudRate   string
	Open       bool
	Timestamp  bool
	Escapes    bool
	Mock       bool
	ConfigPath string
}

// Get all command line arguments.
func GetFlags() Flags {
	listArg := flag.Bool("l", false, "list available ports")
	portArg := flag.String("p", "", "serial port (default: last used)")
	baudArg := flag.String("b", "", "baud rate (default: last used)")
	openArg := flag.Bool("o", false, "open the port at start")
	timestampArg := flag.Bool("t", false, "show timestamp")
	escapesArg := flag.Bool("e", false, "show escape characters")
	mockArg := flag.Bool("m", false, "use a simulated device")
	configArg := flag.String("c", "", "config file (default: ~/.config/serialmon/config.yaml)")

	flag.Parse()

	return Flags{
		List:       *listArg,
		Port:       *portArg,
		BaudRate:   *baudArg,
		Open:       *openArg,
		Timestamp:  *timestampArg,
		Escapes:    *escapesArg,
		Mock:       *mockArg,
		ConfigPath: *configArg,
	}
}
