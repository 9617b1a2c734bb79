package detector

import (
	"image"
	"math"
)

const histogramBins = 256

// grayHistogram builds a normalized 256-bin luminance histogram. Normalizing
// by pixel count makes frames of different dimensions directly comparable.
func grayHistogram(img image.Image) [histogramBins]float64 {
	var hist [histogramBins]float64

	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return hist
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// ITU-R BT.601 luma, 16-bit channels down to 8-bit bins.
			luma := (299*r + 587*g + 114*b) / 1000
			hist[luma>>8]++
		}
	}

	inv := 1.0 / float64(total)
	for i := range hist {
		hist[i] *= inv
	}
	return hist
}

// histogramCorrelation is the Pearson correlation of two histograms,
// in [-1, 1]. Identical histograms correlate at 1.
func histogramCorrelation(a, b [histogramBins]float64) float64 {
	var meanA, meanB float64
	for i := 0; i < histogramBins; i++ {
		meanA += a[i]
		meanB += b[i]
	}
	meanA /= histogramBins
	meanB /= histogramBins

	var num, denA, denB float64
	for i := 0; i < histogramBins; i++ {
		da := a[i] - meanA
		db := b[i] - meanB
		num += da * db
		denA += da * da
		denB += db * db
	}

	den := math.Sqrt(denA * denB)
	if den == 0 {
		// Flat histograms: identical if both are flat the same way.
		if denA == denB {
			return 1
		}
		return 0
	}
	return num / den
}

// difference maps histogram correlation onto a difference score in [0, 1]:
// 0 for identical content, 1 for maximally different.
func difference(a, b [histogramBins]float64) float64 {
	d := 1 - histogramCorrelation(a, b)
	if d < 0 {
		return 0
	}
	if d > 1 {
		return 1
	}
	return d
}
