package loader

import "github.com/born-ml/gradtape/internal/nn"

// Examples converts images to the slice type the trainer consumes.
func Examples(images []*Image) []nn.Example {
	out := make([]nn.Example, len(images))
	for i, im := range images {
		out[i] = im
	}
	return out
}
