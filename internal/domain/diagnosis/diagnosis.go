// Package diagnosis defines the diagnostic superclasses produced by the classifier.
package diagnosis

import "fmt"

// Class is one of the five diagnostic superclasses of the PTB-XL
// labeling scheme.
type Class string

// The five superclasses, in the order the dashboard displays them.
const (
	Normal      Class = "NORM"
	Infarction  Class = "MI"
	STTChange   Class = "STTC"
	Conduction  Class = "CD"
	Hypertrophy Class = "HYP"
)

// All returns every known class in display order.
func All() []Class {
	return []Class{Normal, Infarction, STTChange, Conduction, Hypertrophy}
}

// Parse converts a raw label into a Class.
// Labels are case-sensitive; the data files always carry them uppercased.
func Parse(s string) (Class, error) {
	c := Class(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownClass, s)
	}
	return c, nil
}

// Valid reports whether c is a known class.
func (c Class) Valid() bool {
	switch c {
	case Normal, Infarction, STTChange, Conduction, Hypertrophy:
		return true
	default:
		return false
	}
}

// Label returns the human-readable diagnosis name.
func (c Class) Label() string {
	switch c {
	case Normal:
		return "Normal ECG"
	case Infarction:
		return "Myocardial Infarction"
	case STTChange:
		return "ST/T Change"
	case Conduction:
		return "Conduction Disturbance"
	case Hypertrophy:
		return "Hypertrophy"
	default:
		return string(c)
	}
}

func (c Class) String() string {
	return string(c)
}
