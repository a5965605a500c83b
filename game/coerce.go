package game

import (
	"strconv"

	"github.com/virgilvox/bitrealm-sub000/script"
)

// The language compares loosely, after the fashion of its dynamically typed
// ancestry. The coercion table is fixed and explicit: number-vs-number is
// numeric; a string compared against a number parses as a number when it
// can; booleans coerce to 0/1 against numbers; nil equals only nil;
// ordering between two strings is lexicographic; every other ordering is
// false.

func numberOf(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		return f, err == nil
	}
	return 0, false
}

func looselyEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	aStr, aIsStr := a.(string)
	bStr, bIsStr := b.(string)
	if aIsStr && bIsStr {
		return aStr == bStr
	}
	aNum, aOK := numberOf(a)
	bNum, bOK := numberOf(b)
	if aOK && bOK {
		return aNum == bNum
	}
	return false
}

func looselyOrdered(a, b any, op script.TokenType) bool {
	aStr, aIsStr := a.(string)
	bStr, bIsStr := b.(string)
	if aIsStr && bIsStr {
		switch op {
		case script.LESS:
			return aStr < bStr
		case script.LESS_EQ:
			return aStr <= bStr
		case script.GREATER:
			return aStr > bStr
		case script.GREATER_EQ:
			return aStr >= bStr
		}
		return false
	}
	aNum, aOK := numberOf(a)
	bNum, bOK := numberOf(b)
	if aOK && bOK {
		switch op {
		case script.LESS:
			return aNum < bNum
		case script.LESS_EQ:
			return aNum <= bNum
		case script.GREATER:
			return aNum > bNum
		case script.GREATER_EQ:
			return aNum >= bNum
		}
	}
	return false
}

func looseCompare(a, b any, op script.TokenType) bool {
	switch op {
	case script.EQ:
		return looselyEqual(a, b)
	case script.NEQ:
		return !looselyEqual(a, b)
	default:
		return looselyOrdered(a, b, op)
	}
}
