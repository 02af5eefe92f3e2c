package integrations

import (
	"slices"
	"strconv"
	"strings"
)

// CompareVersions orders dotted version strings component by component.
// Missing trailing components count as zero, and when two versions are equal
// on every shared component the one with more components is greater, so
// 1.2.3 > 1.2 and 1.2.3.4 > 1.2.3. Non-numeric components sort after numeric
// ones and compare lexically among themselves.
func CompareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	n := max(len(as), len(bs))
	for i := 0; i < n; i++ {
		var x, y string
		if i < len(as) {
			x = as[i]
		}
		if i < len(bs) {
			y = bs[i]
		}
		if c := compareComponent(x, y); c != 0 {
			return c
		}
	}
	switch {
	case len(as) > len(bs):
		return 1
	case len(as) < len(bs):
		return -1
	}
	return 0
}

func compareComponent(x, y string) int {
	xn, xerr := componentValue(x)
	yn, yerr := componentValue(y)
	switch {
	case xerr == nil && yerr == nil:
		switch {
		case xn > yn:
			return 1
		case xn < yn:
			return -1
		}
		return 0
	case xerr == nil:
		return -1
	case yerr == nil:
		return 1
	}
	return strings.Compare(x, y)
}

func componentValue(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 10, 64)
}

// SortVersionsDescending sorts versions in place, newest first.
func SortVersionsDescending(versions []string) {
	slices.SortStableFunc(versions, func(a, b string) int {
		return CompareVersions(b, a)
	})
}
