package customer

import "time"

// Customer is a read-only snapshot of a row in the Supabase customers table.
// The sync pipeline never mutates it.
type Customer struct {
	Doc              string     `json:"doc"`
	Nome             string     `json:"nome"`
	Telefone         string     `json:"telefone"`
	Email            string     `json:"email,omitempty"`
	Segment          string     `json:"segment"`
	RiskLevel        string     `json:"risk_level"`
	SaldoCarteira    float64    `json:"saldo_carteira"`
	TransactionCount int        `json:"transaction_count"`
	TotalSpent       float64    `json:"total_spent"`
	LastVisit        *time.Time `json:"last_visit,omitempty"`
}
