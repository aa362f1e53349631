package triage

// Email is a normalized inbox message under review.
type Email struct {
	ID         string
	Subject    string
	FromName   string
	FromDomain string
	Body       string
	Date       int64
	Status     Disposition
}

// Sender returns the address the message was grouped under.
func (e Email) Sender() string {
	return e.FromName + "@" + e.FromDomain
}

func sameSender(a, b Email) bool {
	return a.FromName == b.FromName && a.FromDomain == b.FromDomain
}

func sameDomain(a, b Email) bool {
	return a.FromDomain == b.FromDomain
}
