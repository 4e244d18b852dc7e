package stock

import "time"

// Entry is one paper receipt in the append-only stock ledger.
type Entry struct {
	ID            int64     `json:"id"`
	Code          string    `json:"code"`
	PaperItemID   int64     `json:"paper_item_id"`
	Quantity      float64   `json:"quantity"`
	Supplier      string    `json:"supplier"`
	InvoiceNumber string    `json:"invoice_number"`
	CertCode      string    `json:"cert_code"`
	ReceivedAt    time.Time `json:"received_at"`
	CreatedAt     time.Time `json:"created_at"`

	// Joined for listings.
	PaperName string `json:"paper_name"`
}
