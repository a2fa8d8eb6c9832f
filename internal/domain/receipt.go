package domain

// ReceiptItem is one line item extracted from a receipt.
type ReceiptItem struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// Receipt is the structured data extracted from a receipt image or PDF.
type Receipt struct {
	Merchant    string        `json:"merchant"`
	Date        string        `json:"date"`
	TotalAmount float64       `json:"total_amount"`
	Items       []ReceiptItem `json:"items"`
	Category    string        `json:"category"`
	Confidence  float64       `json:"confidence"`
}

// ReceiptResult is the OCR endpoint response. RawResponse carries the model
// text verbatim so callers can audit what was extracted; Note is set when the
// regex fallback produced the data instead of strict JSON parsing.
type ReceiptResult struct {
	Success     bool    `json:"success"`
	Data        Receipt `json:"data"`
	RawResponse string  `json:"raw_response,omitempty"`
	Note        string  `json:"note,omitempty"`
	Error       string  `json:"error,omitempty"`
}
