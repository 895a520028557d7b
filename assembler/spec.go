package assembler

import "fmt"

// Spec holds immutable configuration values for the assembler.
type Spec struct {
	// TypeTag and SourceID identify the frames of this merger. They are
	// carried in the preamble.
	TypeTag  uint8
	SourceID uint32
}

// Validate checks that the identity fits the preamble.
func (s Spec) Validate() error {
	if s.TypeTag >= 1<<6 {
		return fmt.Errorf("type tag %#x does not fit in 6 bits", s.TypeTag)
	}

	if s.SourceID >= 1<<18 {
		return fmt.Errorf("source id %#x does not fit in 18 bits", s.SourceID)
	}

	return nil
}

// Defaults returns a Spec with sane defaults.
func Defaults() Spec {
	return Spec{
		TypeTag:  0x3A,
		SourceID: 0,
	}
}
