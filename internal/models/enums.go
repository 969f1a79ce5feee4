package models

import "fmt"

// FareClass represents a priced seating tier on a trip
type FareClass string

const (
	FareClassEconomy    FareClass = "Economy"
	FareClassBusiness   FareClass = "Business"
	FareClassFirstClass FareClass = "FirstClass"
)

// AllFareClasses lists every fare class in display order
var AllFareClasses = []FareClass{FareClassEconomy, FareClassBusiness, FareClassFirstClass}

// ParseFareClass validates a raw string into a FareClass
func ParseFareClass(s string) (FareClass, error) {
	switch FareClass(s) {
	case FareClassEconomy, FareClassBusiness, FareClassFirstClass:
		return FareClass(s), nil
	}
	return "", fmt.Errorf("%w: invalid fare class %q", ErrValidation, s)
}

// Initial returns the seat-label prefix for the class (E, B or F)
func (fc FareClass) Initial() byte {
	return fc[0]
}

// Valid reports whether the fare class is one of the known tiers
func (fc FareClass) Valid() bool {
	_, err := ParseFareClass(string(fc))
	return err == nil
}

// Terminal represents a station a trip can run between
type Terminal string

const (
	TerminalLagos        Terminal = "Lagos"
	TerminalIbadan       Terminal = "Ibadan"
	TerminalAbeokuta     Terminal = "Abeokuta"
	TerminalAbuja        Terminal = "Abuja"
	TerminalKaduna       Terminal = "Kaduna"
	TerminalKano         Terminal = "Kano"
	TerminalEnugu        Terminal = "Enugu"
	TerminalPortHarcourt Terminal = "PortHarcourt"
)

// AllTerminals lists every terminal the network serves
var AllTerminals = []Terminal{
	TerminalLagos, TerminalIbadan, TerminalAbeokuta, TerminalAbuja,
	TerminalKaduna, TerminalKano, TerminalEnugu, TerminalPortHarcourt,
}

// ParseTerminal validates a raw string into a Terminal
func ParseTerminal(s string) (Terminal, error) {
	for _, t := range AllTerminals {
		if Terminal(s) == t {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown terminal %q", ErrValidation, s)
}
