package ivr

import "strings"

// Choice is a decoded DTMF menu selection.
type Choice int

const (
	ChoiceNone Choice = iota
	ChoiceOne
	ChoiceTwo
	ChoiceThree
	ChoiceInvalid
)

func (c Choice) String() string {
	switch c {
	case ChoiceNone:
		return "none"
	case ChoiceOne:
		return "1"
	case ChoiceTwo:
		return "2"
	case ChoiceThree:
		return "3"
	default:
		return "invalid"
	}
}

// ParseChoice decodes the Digits field once. Anything other than a single
// known key, including "12" or "1#", is invalid.
func ParseChoice(digits string) Choice {
	switch strings.TrimSpace(digits) {
	case "":
		return ChoiceNone
	case "1":
		return ChoiceOne
	case "2":
		return ChoiceTwo
	case "3":
		return ChoiceThree
	default:
		return ChoiceInvalid
	}
}
