package triage

import (
	"cmp"
	"slices"
)

// Order sorts emails into review sequence: descending by sender domain, then
// sender name, then date. Emails with identical keys keep their input order,
// so runs from one sender stay contiguous and stable.
func Order(emails []Email) {
	slices.SortStableFunc(emails, func(a, b Email) int {
		return -compareKey(a, b)
	})
}

func compareKey(a, b Email) int {
	if c := cmp.Compare(a.FromDomain, b.FromDomain); c != 0 {
		return c
	}
	if c := cmp.Compare(a.FromName, b.FromName); c != 0 {
		return c
	}
	return cmp.Compare(a.Date, b.Date)
}
