package main

import (
	"strconv"
	"strings"
)

func itoa[T ~int | ~int32 | ~int64](v T) string {
	return strconv.FormatInt(int64(v), 10)
}

func joinNames(names []string) string {
	return strings.Join(names, ", ")
}
