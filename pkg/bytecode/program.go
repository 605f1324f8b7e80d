package bytecode

import (
	"fmt"
	"math"
)

// Process is one repeat section: a body of instructions executed every
// Frequency-th simulation tick.
type Process struct {
	Frequency uint64 `cbor:"1,keyasint"`
	Code      []Word `cbor:"2,keyasint"`
}

// Program is a compiled spell. The Ready block runs once at spawn, each
// Process runs on its tick schedule, and About holds static attribute
// words that are never executed.
//
// A Program is immutable after compilation.
type Program struct {
	Ready     []Word    `cbor:"1,keyasint,omitempty"`
	Processes []Process `cbor:"2,keyasint,omitempty"`
	About     []Word    `cbor:"3,keyasint,omitempty"`
}

// Encode flattens the program into a single word stream with section
// markers, the transport form described by the wire format.
func (p *Program) Encode() []Word {
	size := len(p.About)
	size += len(p.Ready) + 1
	for _, proc := range p.Processes {
		size += len(proc.Code) + 2
	}

	words := make([]Word, 0, size+1)
	if len(p.Ready) > 0 {
		words = append(words, ReadySection)
		words = append(words, p.Ready...)
	}
	for _, proc := range p.Processes {
		words = append(words, ProcessSection, Word(proc.Frequency))
		words = append(words, proc.Code...)
	}
	if len(p.About) > 0 {
		words = append(words, MetadataSection)
		words = append(words, p.About...)
	}
	return words
}

// Decode rebuilds a structured Program from a flat word stream. Later
// ready/about sections replace earlier ones; processes accumulate.
func Decode(words []Word) (*Program, error) {
	p := &Program{}
	i := 0
	for i < len(words) {
		switch words[i] {
		case ReadySection:
			end, err := sectionEnd(words, i+1)
			if err != nil {
				return nil, err
			}
			p.Ready = append([]Word(nil), words[i+1:end]...)
			i = end

		case ProcessSection:
			if i+1 >= len(words) {
				return nil, fmt.Errorf("bytecode: process section at %d is missing its frequency word", i)
			}
			freq := uint64(words[i+1])
			if freq == 0 {
				freq = 1
			}
			end, err := sectionEnd(words, i+2)
			if err != nil {
				return nil, err
			}
			p.Processes = append(p.Processes, Process{
				Frequency: freq,
				Code:      append([]Word(nil), words[i+2:end]...),
			})
			i = end

		case MetadataSection:
			end, err := sectionEnd(words, i+1)
			if err != nil {
				return nil, err
			}
			p.About = append([]Word(nil), words[i+1:end]...)
			i = end

		default:
			return nil, fmt.Errorf("bytecode: expected a section marker at %d, found %s", i, words[i])
		}
	}
	return p, nil
}

// sectionEnd finds the index of the next section marker, honoring the
// width of literal and component instructions so that a raw bits word
// can never be mistaken for a marker.
func sectionEnd(words []Word, start int) (int, error) {
	i := start
	for i < len(words) {
		switch words[i] {
		case ReadySection, ProcessSection, MetadataSection:
			return i, nil
		case NumberLiteral, Component:
			if i+1 >= len(words) {
				return 0, fmt.Errorf("bytecode: truncated %s at %d", words[i], i)
			}
			i += 2
		default:
			i++
		}
	}
	return i, nil
}

// Color decodes the color attribute from the About words. ok is false
// when the program declares no color.
func (p *Program) Color() (rgb [3]float64, ok bool) {
	words := p.About
	for i := 0; i < len(words); {
		if words[i] != AttrColor {
			// Unknown attribute: skip its literal words conservatively.
			i++
			continue
		}
		i++
		for c := 0; c < 3; c++ {
			if i+1 >= len(words) || words[i] != NumberLiteral {
				return rgb, false
			}
			rgb[c] = math.Float64frombits(uint64(words[i+1]))
			i += 2
		}
		return rgb, true
	}
	return rgb, false
}

// FloatWord encodes a float64 as its raw bit pattern word.
func FloatWord(f float64) Word {
	return Word(math.Float64bits(f))
}

// WordFloat decodes a raw bit pattern word back into a float64.
func WordFloat(w Word) float64 {
	return math.Float64frombits(uint64(w))
}
