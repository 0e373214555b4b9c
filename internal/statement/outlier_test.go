package statement

import "testing"

func TestFilterOutliersSmallSample(t *testing.T) {
	values := []float64{100, 5000}
	clean, outliers := FilterOutliers(values)
	if len(clean) != 2 || len(outliers) != 0 {
		t.Fatalf("少于三个点不应过滤: clean=%v outliers=%v", clean, outliers)
	}
}

func TestFilterOutliersZeroDeviation(t *testing.T) {
	values := []float64{200, 200, 200, 200}
	clean, outliers := FilterOutliers(values)
	if len(clean) != 4 || len(outliers) != 0 {
		t.Fatalf("标准差为零不应过滤: clean=%v outliers=%v", clean, outliers)
	}
}

func TestFilterOutliersRemovesExtreme(t *testing.T) {
	values := make([]float64, 0, 11)
	for i := 0; i < 10; i++ {
		values = append(values, 100)
	}
	values = append(values, 10000)

	clean, outliers := FilterOutliers(values)
	if len(outliers) != 1 || outliers[0] != 10000 {
		t.Fatalf("应识别出离群值 10000, 实际 %v", outliers)
	}
	if len(clean) != 10 {
		t.Fatalf("清洗后应剩 10 个点, 实际 %v", clean)
	}
	for _, v := range clean {
		if v != 100 {
			t.Fatalf("清洗结果混入离群值: %v", clean)
		}
	}
}

func TestFilterOutliersDistinctValues(t *testing.T) {
	// 同一离群数值出现多次只报告一次, 但所有出现都被剔除.
	values := make([]float64, 0, 30)
	for i := 0; i < 28; i++ {
		values = append(values, 100)
	}
	values = append(values, 10000, 10000)

	clean, outliers := FilterOutliers(values)
	if len(outliers) != 1 || outliers[0] != 10000 {
		t.Fatalf("重复离群值应只报告一次, 实际 %v", outliers)
	}
	if len(clean) != 28 {
		t.Fatalf("所有离群出现都应被剔除, 实际剩 %d", len(clean))
	}
}

func TestSampleStdev(t *testing.T) {
	values := []float64{1000, 3000}
	m := mean(values)
	if m != 2000 {
		t.Fatalf("均值应为 2000, 实际 %v", m)
	}
	sd := sampleStdev(values, m)
	if sd < 1414.21 || sd > 1414.22 {
		t.Fatalf("样本标准差应约为 1414.21, 实际 %v", sd)
	}
}
