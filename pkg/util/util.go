package util

import (
	"math"
)

func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

func ReverseG[T any](arr []T) []T {
	copyArr := make([]T, len(arr))
	copy(copyArr, arr)
	for i, j := 0, len(copyArr)-1; i < j; i, j = i+1, j-1 {
		copyArr[i], copyArr[j] = copyArr[j], copyArr[i]
	}
	return copyArr
}

func BitPackInt64(a int64, b int64, offset int) int64 {
	return b<<offset | a
}

func BitUnpackInt64(packed int64, offset int) (int64, int64) {
	mask := int64(1)<<offset - 1
	return packed & mask, packed >> offset
}
