package utils

import (
	"strconv"
)

// StringToInt converts string to int, returns 0 if error
func StringToInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}

// ParsePage reads a ?page= value. Anything missing or below 1 is page 1.
func ParsePage(s string) int {
	if p := StringToInt(s); p > 1 {
		return p
	}
	return 1
}

// ParseID reads a positive numeric route id.
func ParseID(s string) (uint, bool) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
