package nn

// Example is one labelled input to a classification network.
type Example interface {
	// Input returns the feature vector. Its length must equal the
	// network's input size.
	Input() []float32

	// Category returns the index of the expected class.
	Category() int

	// Categories returns the number of classes.
	Categories() int
}

// OneHot returns the expected output of e: 1 at Category, 0 elsewhere.
// An out-of-range category yields all zeros.
func OneHot(e Example) []float32 {
	out := make([]float32, e.Categories())
	if c := e.Category(); c >= 0 && c < len(out) {
		out[c] = 1
	}
	return out
}

// Labeled is an Example backed by plain fields.
type Labeled struct {
	Features []float32
	Label    int
	Classes  int
}

// Input returns the feature vector.
func (l Labeled) Input() []float32 { return l.Features }

// Category returns the expected class.
func (l Labeled) Category() int { return l.Label }

// Categories returns the number of classes.
func (l Labeled) Categories() int { return l.Classes }
