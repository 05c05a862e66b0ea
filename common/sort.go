package common

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
)

type sortableString struct {
	value                string
	isNumber             bool    // True when item is a number without string text
	containsNumberPrefix bool    // Is true is the item is a number or has a number prefix (like in "3 floors")
	number               float64 // The numerical value of the prefix or number. Only contains a useful value when containsNumberPrefix is true.
}

func (this sortableString) isLessThan(other sortableString) bool {
	if this.containsNumberPrefix && other.containsNumberPrefix {
		if this.number == other.number {
			if this.isNumber != other.isNumber {
				return this.isNumber
			}
			return this.value < other.value
		}
		return this.number < other.number
	}

	if this.containsNumberPrefix != other.containsNumberPrefix {
		// Numbers come before plain text
		return this.containsNumberPrefix
	}

	return this.value < other.value
}

func toSortableString(s string) sortableString {
	sortableStringObj := sortableString{
		value: s,
	}

	numberPrefix := extractNumberPrefix(s)
	sortableStringObj.containsNumberPrefix = numberPrefix != ""
	sortableStringObj.isNumber = len(numberPrefix) == len(s)

	if sortableStringObj.containsNumberPrefix {
		sortableStringObj.number, _ = strconv.ParseFloat(numberPrefix, 64)
	}
	return sortableStringObj
}

// Sort returns a sorted copy of the given tag values. Values starting with a number are ordered numerically and placed
// before all other values, which are ordered lexicographically. OSM values like "1", "2a" and "garage" therefore end up
// in the order a human would expect.
func Sort(values []string) []string {
	sortableStrings := make([]sortableString, 0, len(values))
	for _, s := range values {
		sortableStrings = append(sortableStrings, toSortableString(strings.TrimSpace(s)))
	}

	sort.SliceStable(sortableStrings, func(i, j int) bool {
		return sortableStrings[i].isLessThan(sortableStrings[j])
	})

	sortedStrings := make([]string, len(sortableStrings))
	for i, s := range sortableStrings {
		sortedStrings[i] = s.value
	}

	return sortedStrings
}

// IsLessThan returns true if s1 is less than s2, i.e. if s1 appears before s2 in a sorted list.
func IsLessThan(s1, s2 string) bool {
	return toSortableString(s1).isLessThan(toSortableString(s2))
}

func extractNumberPrefix(s string) string {
	var prefix []rune

	for _, r := range s {
		if r == '-' || r == '.' || unicode.IsDigit(r) {
			prefix = append(prefix, r)
		} else {
			break
		}
	}

	prefixString := string(prefix)
	if isNumber(prefixString) {
		return prefixString
	}

	return ""
}

func isNumber(s string) bool {
	containsDecimalPoint := false
	containsDigit := false

	for i, c := range s {
		if c == '-' && i != 0 {
			// A dash is only allowed at the beginning
			return false
		} else if c == '.' {
			if containsDecimalPoint {
				return false
			}
			containsDecimalPoint = true
		} else if unicode.IsDigit(c) {
			containsDigit = true
		} else if c != '-' {
			return false
		}
	}

	return containsDigit
}
