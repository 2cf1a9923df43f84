package meshbuilder

// Grow returns buf resliced to n, reallocating only when n exceeds its
// capacity. Reused storage is not cleared.
func Grow[T any](buf []T, n int) []T {
	if n <= 0 {
		return buf[:0]
	}
	if cap(buf) < n {
		return make([]T, n)
	}
	return buf[:n]
}

func fill[T any](buf []T, value T) {
	for i := range buf {
		buf[i] = value
	}
}

func zero[T any](buf []T) {
	clear(buf)
}
