package statement

import "math"

// FilterOutliers removes statistically anomalous values using the 3-sigma
// rule. With fewer than three points, or a zero standard deviation, the data
// is returned untouched. The returned outliers are the distinct offending
// values; every occurrence of an outlier value is dropped from clean.
func FilterOutliers(values []float64) (clean []float64, outliers []float64) {
	if len(values) < 3 {
		return values, nil
	}

	m := mean(values)
	sd := sampleStdev(values, m)
	if sd == 0 {
		return values, nil
	}

	threshold := 3 * sd
	outlierSet := make(map[float64]struct{})
	for _, v := range values {
		if math.Abs(v-m) > threshold {
			if _, dup := outlierSet[v]; !dup {
				outlierSet[v] = struct{}{}
				outliers = append(outliers, v)
			}
		}
	}
	if len(outlierSet) == 0 {
		return values, nil
	}

	clean = make([]float64, 0, len(values))
	for _, v := range values {
		if _, isOutlier := outlierSet[v]; !isOutlier {
			clean = append(clean, v)
		}
	}
	return clean, outliers
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdev computes the sample (n-1) standard deviation.
func sampleStdev(values []float64, m float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}
