package testutil

import (
	"strconv"
	"strings"
)

func slugify(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "-")
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
