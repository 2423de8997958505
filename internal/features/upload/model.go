package upload

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	FileTypeSales     = "sales"
	FileTypeCustomers = "customers"
	FileTypeUnknown   = "unknown"
)

// UploadResult is the outcome of one file ingestion.
type UploadResult struct {
	Success  bool     `json:"success"`
	Total    int      `json:"total"`
	Inserted int      `json:"inserted"`
	Updated  int      `json:"updated"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

// UploadHistory is the per-upload document kept in the upload_history
// collection. Errors are capped at 10 entries.
type UploadHistory struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	FileType        string             `json:"file_type" bson:"file_type"`
	FileName        string             `json:"file_name" bson:"file_name"`
	RecordsTotal    int                `json:"records_total" bson:"records_total"`
	RecordsInserted int                `json:"records_inserted" bson:"records_inserted"`
	RecordsUpdated  int                `json:"records_updated" bson:"records_updated"`
	RecordsSkipped  int                `json:"records_skipped" bson:"records_skipped"`
	Errors          []string           `json:"errors" bson:"errors"`
	Source          string             `json:"source" bson:"source"`
	DurationMs      int64              `json:"duration_ms" bson:"duration_ms"`
	Status          string             `json:"status" bson:"status"` // "success", "partial"
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
}

// Transaction is a sales row with every derived field computed, ready for
// the transactions table.
type Transaction struct {
	DataHora          string
	ValorVenda        float64
	ValorPago         float64
	MeioDePagamento   string
	ComprovanteCartao string
	BandeiraCartao    string
	Loja              string
	NomeCliente       string
	DocCliente        string
	Telefone          string
	Maquinas          string
	UsouCupom         bool
	CodigoCupom       string
	TransactionType   string
	IsRecarga         bool
	WashCount         int
	DryCount          int
	TotalServices     int
	NetValue          float64
	CashbackAmount    float64
	ImportHash        string
	SourceFile        string
}

// CustomerRecord is a customer row ready for the customers table.
type CustomerRecord struct {
	Doc              string
	Nome             string
	Telefone         string
	Email            string
	DataCadastro     string
	SaldoCarteira    float64
	FirstVisit       string
	LastVisit        string
	TransactionCount int
	TotalSpent       float64
	Source           string
}
