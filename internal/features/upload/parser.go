package upload

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var imtPrefixRe = regexp.MustCompile(`^IMTString\(\d+\):\s*`)

// CleanCSV strips the UTF-8 BOM and the POS export's "IMTString(n):" prefix.
func CleanCSV(text string) string {
	text = strings.TrimPrefix(text, "\uFEFF")
	text = imtPrefixRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// DetectDelimiter guesses between semicolon and comma from the header line.
func DetectDelimiter(text string) rune {
	firstLine, _, _ := strings.Cut(text, "\n")
	if strings.Count(firstLine, ";") > strings.Count(firstLine, ",") {
		return ';'
	}
	return ','
}

// ParseCSV parses POS export CSV content into header-keyed rows.
func ParseCSV(content []byte) ([]map[string]string, error) {
	text := CleanCSV(string(content))
	if text == "" {
		return nil, nil
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = DetectDelimiter(text)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	headers := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(headers))
		for i, value := range rec {
			if i < len(headers) {
				row[headers[i]] = value
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseXLSX parses the first sheet of an Excel export into header-keyed rows.
func ParseXLSX(content []byte) ([]map[string]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	headers := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(headers))
		for i, value := range rec {
			if i < len(headers) {
				row[headers[i]] = value
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseBRDate converts "DD/MM/YYYY" or "DD/MM/YYYY HH:MM:SS" to an ISO
// timestamp "YYYY-MM-DDTHH:MM:SS". Two-digit years are assumed to be 20xx.
// Returns "" when the input is empty or malformed.
func ParseBRDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	datePart, timePart, found := strings.Cut(s, " ")
	if !found {
		timePart = "00:00:00"
	}

	parts := strings.Split(datePart, "/")
	if len(parts) != 3 {
		return ""
	}
	day, month, year := pad2(parts[0]), pad2(parts[1]), parts[2]
	if len(year) == 2 {
		year = "20" + year
	}

	return year + "-" + month + "-" + day + "T" + timePart
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// ParseBRDateOnly is ParseBRDate truncated to "YYYY-MM-DD".
func ParseBRDateOnly(s string) string {
	iso := ParseBRDate(s)
	if iso == "" {
		return ""
	}
	date, _, _ := strings.Cut(iso, "T")
	return date
}

// ParseBRNumber parses Brazilian decimal notation ("1.234,56" -> 1234.56,
// "1,5" -> 1.5). Plain numbers pass through; garbage parses to 0.
func ParseBRNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	switch {
	case strings.Contains(s, ".") && strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ",", ".")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// MachineInfo breaks a raw machine list down by kind.
type MachineInfo struct {
	Wash  int
	Dry   int
	Total int
}

// CountMachines counts washers ("lavadora") and dryers ("secadora") in the
// comma-separated machine field.
func CountMachines(machines string) MachineInfo {
	if machines == "" {
		return MachineInfo{}
	}

	var info MachineInfo
	for _, m := range strings.Split(strings.ToLower(machines), ",") {
		if strings.Contains(m, "lavadora") {
			info.Wash++
		}
		if strings.Contains(m, "secadora") {
			info.Dry++
		}
	}
	info.Total = info.Wash + info.Dry
	return info
}

const (
	TxTypeNormal  = "TYPE_1" // machines used, paid with money
	TxTypeWallet  = "TYPE_2" // machines used, paid from wallet balance
	TxTypeRecarga = "TYPE_3" // wallet recharge
	TxTypeUnknown = "UNKNOWN"
)

// ClassifyTransaction derives the transaction type from the machine field,
// the payment method and the gross value.
func ClassifyTransaction(machines, paymentMethod string, grossValue float64) string {
	machines = strings.ToLower(machines)
	paymentMethod = strings.ToLower(paymentMethod)

	if strings.Contains(machines, "recarga") {
		return TxTypeRecarga
	}
	if strings.Contains(paymentMethod, "saldo da carteira") {
		return TxTypeWallet
	}
	if machines != "" && grossValue == 0 {
		return TxTypeWallet
	}
	if machines != "" && grossValue > 0 {
		return TxTypeNormal
	}
	return TxTypeUnknown
}

// GenerateImportHash builds the dedup key for a sales row from its raw field
// values: first 32 hex chars of the SHA-256 digest.
func GenerateImportHash(dataHora, docCliente, valorVenda, maquinas string) string {
	content := dataHora + "|" + docCliente + "|" + valorVenda + "|" + maquinas
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:32]
}

// DetectFileType decides whether an export holds sales or customer data by
// looking at its header line.
func DetectFileType(content []byte) string {
	text := CleanCSV(string(content))
	firstLine, _, _ := strings.Cut(text, "\n")
	firstLine = strings.ToLower(firstLine)

	if strings.Contains(firstLine, "data_hora") || strings.Contains(firstLine, "maquinas") {
		return FileTypeSales
	}
	if strings.Contains(firstLine, "documento") || strings.Contains(firstLine, "saldo_carteira") {
		return FileTypeCustomers
	}
	return FileTypeUnknown
}
