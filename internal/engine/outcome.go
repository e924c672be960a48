package engine

import "github.com/lattice-labs/matchcore/internal/book"

// AdmitStatus is the outcome kind of a call to OrderBook.Admit.
type AdmitStatus int

const (
	Accepted AdmitStatus = iota
	AcceptedAndMatched
	Rejected
)

// RejectReason classifies why an admission was rejected.
type RejectReason int

const (
	RejectNone RejectReason = iota
	RejectInvalidPrice
	RejectInvalidQuantity
	RejectInvalidSymbol
	RejectInvalidSide
)

func (r RejectReason) String() string {
	switch r {
	case RejectInvalidPrice:
		return "invalid price"
	case RejectInvalidQuantity:
		return "invalid quantity"
	case RejectInvalidSymbol:
		return "invalid symbol"
	case RejectInvalidSide:
		return "invalid side"
	default:
		return "invalid"
	}
}

// AdmitResult is the sum type returned by Admit, collapsing the
// Accepted/AcceptedAndMatched/Rejected(reason) outcomes into one value
// instead of a bare boolean-plus-out-parameter.
type AdmitResult struct {
	Status AdmitStatus
	Order  book.Order // the stamped order (id, arrival_seq assigned)
	Trades []Trade
	Reason RejectReason
}

func (r AdmitResult) Accepted() bool {
	return r.Status == Accepted || r.Status == AcceptedAndMatched
}

// CancelStatus is the outcome kind of a call to OrderBook.Cancel.
type CancelStatus int

const (
	CancelSuccess CancelStatus = iota
	CancelNotFound
	CancelAlreadyFilled
	CancelInvalidBook
)

// CancelResult is the sum type returned by Cancel.
type CancelResult struct {
	Status CancelStatus
	Order  book.Order // zero value unless Status == CancelSuccess
}
