package utils

func Map[T any, R any](a []T, mapper func(T) R) []R {
	res := make([]R, len(a))
	for i, v := range a {
		res[i] = mapper(v)
	}
	return res
}

func Filter[T any](a []T, keep func(T) bool) []T {
	res := make([]T, 0, len(a))
	for _, v := range a {
		if keep(v) {
			res = append(res, v)
		}
	}
	return res
}
