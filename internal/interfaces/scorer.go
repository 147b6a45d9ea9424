package interfaces

// Polarizer maps text to a polarity in [-1, 1].
type Polarizer interface {
	Polarity(text string) (float64, error)
}
