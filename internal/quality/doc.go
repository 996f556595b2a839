// Package quality implements the quality gate run before extraction.
//
// A file passes through a size gate, then image scoring (for images),
// then a text density estimate. The overall score is the mean of the size
// verdict, the image score and the density, with 0.8 standing in for
// scores that do not apply. The score maps to PROCESS, ENHANCE or REJECT.
package quality
