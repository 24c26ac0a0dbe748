package ir

import (
	"slices"
	"unicode/utf16"
)

// IRValue is a sealed interface over the JSON shapes confgate serializes.
// Only IRString, IRInt, IRBool, IRArray and IRObject implement it.
// There is no float and no null.
type IRValue interface {
	irValue() // Sealed
}

// IRString is a JSON string.
type IRString string

// IRInt is a JSON integer. Always int64, never float64.
type IRInt int64

// IRBool is a JSON boolean.
type IRBool bool

// IRArray is an ordered JSON array.
type IRArray []IRValue

// IRObject is a JSON object. Use SortedKeys() for deterministic iteration.
type IRObject map[string]IRValue

func (IRString) irValue() {}
func (IRInt) irValue()    {}
func (IRBool) irValue()   {}
func (IRArray) irValue()  {}
func (IRObject) irValue() {}

// Strings converts a string slice into an IRArray.
func Strings(ss []string) IRArray {
	arr := make(IRArray, len(ss))
	for i, s := range ss {
		arr[i] = IRString(s)
	}
	return arr
}

// SortedKeys returns the object keys in RFC 8785 order (UTF-16 code units).
func (obj IRObject) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings by UTF-16 code units, which differs
// from Go's byte order for characters outside the BMP.
func compareKeysRFC8785(a, b string) int {
	ua := utf16.Encode([]rune(a))
	ub := utf16.Encode([]rune(b))
	return slices.Compare(ua, ub)
}
