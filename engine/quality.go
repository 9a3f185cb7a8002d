package engine

import "math"

// qualityToMSE maps a 0..100 quality to the largest acceptable mean square
// error in internal units.
func qualityToMSE(q int) float64 {
	if q <= 0 {
		return 1e20
	}
	if q >= 100 {
		return 0
	}
	fq := float64(q)
	extra := math.Max(0, 0.016/(0.001+fq)-0.001)
	return extra + 2.5/math.Pow(210+fq, 1.2)*(100.1-fq)/100
}

// mseToQuality is the inverse of qualityToMSE, rounded down.
func mseToQuality(mse float64) int {
	for i := 100; i > 0; i-- {
		if mse <= qualityToMSE(i)+1e-6 {
			return i
		}
	}
	return 0
}

// standardMSE converts an internal error to the conventional 0..65536/6
// per-channel scale reported to callers.
func standardMSE(mse float64) float64 {
	return mse * 65536 / 6
}
