package domain

// MatchSuggestion is an ephemeral pairing proposal between a book-side
// ledger entry and a bank-side feed row. It is computed per session and
// never persisted; it only becomes state when a caller applies it.
type MatchSuggestion struct {
	EntryID           string `json:"entryID"`
	BankTransactionID string `json:"bankTransactionID"`
	Confidence        int    `json:"confidence"` // 0-100
	Reason            string `json:"reason"`
}
