package session

// Kind distinguishes a TCP session (long-lived, many commands) from an
// HTTP session (exactly one request, bridged onto the same wire protocol
// per spec.md §4.8).
type Kind int

const (
	KindTCP Kind = iota
	KindHTTP
)

func (k Kind) String() string {
	if k == KindHTTP {
		return "http"
	}
	return "tcp"
}
