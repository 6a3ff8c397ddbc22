package ledger

import "github.com/shopspring/decimal"

// Publisher delivers ledger events to an external broker. Implementations
// live outside this package (see events/kafka).
type Publisher interface {
	Publish(topic string, event any) error
}

// Event topics.
const (
	TopicEntryRecorded = "ledger.entry_recorded"
	TopicStatusChanged = "ledger.status_changed"
)

// EntryRecordedEvent announces a successfully appended entry.
type EntryRecordedEvent struct {
	ID        string          `json:"id"`
	Account   string          `json:"account"`
	Kind      string          `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp string          `json:"timestamp"`
	Owner     string          `json:"owner,omitempty"`
}

// StatusChangedEvent announces an audited status transition.
type StatusChangedEvent struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
}
