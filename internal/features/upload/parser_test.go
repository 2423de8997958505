package upload

import (
	"testing"
)

func TestParseBRDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"15/03/2025 14:30:00", "2025-03-15T14:30:00"},
		{"15/03/2025", "2025-03-15T00:00:00"},
		{"1/3/2025", "2025-03-01T00:00:00"},
		{"15/03/25", "2025-03-15T00:00:00"},
		{"", ""},
		{"   ", ""},
		{"not-a-date", ""},
		{"15-03-2025", ""},
	}

	for _, tt := range tests {
		if got := ParseBRDate(tt.input); got != tt.want {
			t.Errorf("ParseBRDate(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParseBRDateOnly(t *testing.T) {
	if got := ParseBRDateOnly("15/03/2025 14:30:00"); got != "2025-03-15" {
		t.Errorf("expected 2025-03-15, got %q", got)
	}
	if got := ParseBRDateOnly(""); got != "" {
		t.Errorf("expected empty for empty input, got %q", got)
	}
}

func TestParseBRNumber(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"1.234,56", 1234.56},
		{"1,5", 1.5},
		{"42", 42},
		{"42.5", 42.5},
		{"", 0},
		{"abc", 0},
		{"  10,00  ", 10},
	}

	for _, tt := range tests {
		if got := ParseBRNumber(tt.input); got != tt.want {
			t.Errorf("ParseBRNumber(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestCleanCSV(t *testing.T) {
	input := "\uFEFFIMTString(123): Nome;Documento\nAna;123"
	want := "Nome;Documento\nAna;123"
	if got := CleanCSV(input); got != want {
		t.Errorf("CleanCSV = %q, want %q", got, want)
	}
}

func TestDetectDelimiter(t *testing.T) {
	if got := DetectDelimiter("a;b;c\n1;2;3"); got != ';' {
		t.Errorf("expected semicolon, got %q", got)
	}
	if got := DetectDelimiter("a,b,c\n1,2,3"); got != ',' {
		t.Errorf("expected comma, got %q", got)
	}
}

func TestParseCSVSemicolon(t *testing.T) {
	content := []byte("\uFEFFNome;Documento;Saldo_Carteira\nAna;123.456.789-01;10,50\nBia;987;0")

	rows, err := ParseCSV(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["Nome"] != "Ana" || rows[0]["Documento"] != "123.456.789-01" {
		t.Errorf("wrong first row: %v", rows[0])
	}
	if rows[1]["Saldo_Carteira"] != "0" {
		t.Errorf("wrong second row: %v", rows[1])
	}
}

func TestCountMachines(t *testing.T) {
	tests := []struct {
		input string
		wash  int
		dry   int
	}{
		{"Lavadora 01, Secadora 02", 1, 1},
		{"Lavadora 01, Lavadora 02, Secadora 01", 2, 1},
		{"Recarga", 0, 0},
		{"", 0, 0},
	}

	for _, tt := range tests {
		info := CountMachines(tt.input)
		if info.Wash != tt.wash || info.Dry != tt.dry || info.Total != tt.wash+tt.dry {
			t.Errorf("CountMachines(%q) = %+v, want wash=%d dry=%d", tt.input, info, tt.wash, tt.dry)
		}
	}
}

func TestClassifyTransaction(t *testing.T) {
	tests := []struct {
		name     string
		machines string
		payment  string
		gross    float64
		want     string
	}{
		{"recarga", "Recarga R$50", "Pix", 50, TxTypeRecarga},
		{"wallet by payment method", "Lavadora 01", "Saldo da Carteira", 15, TxTypeWallet},
		{"wallet by zero gross", "Secadora 02", "Cartao", 0, TxTypeWallet},
		{"normal purchase", "Lavadora 01", "Cartao de Credito", 25, TxTypeNormal},
		{"no machines", "", "Pix", 25, TxTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyTransaction(tt.machines, tt.payment, tt.gross); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestGenerateImportHash(t *testing.T) {
	h1 := GenerateImportHash("15/03/2025 10:00:00", "123", "25,00", "Lavadora 01")
	h2 := GenerateImportHash("15/03/2025 10:00:00", "123", "25,00", "Lavadora 01")
	h3 := GenerateImportHash("15/03/2025 10:00:01", "123", "25,00", "Lavadora 01")

	if len(h1) != 32 {
		t.Errorf("expected 32 hex chars, got %d", len(h1))
	}
	if h1 != h2 {
		t.Errorf("identical rows must hash identically")
	}
	if h1 == h3 {
		t.Errorf("different rows must hash differently")
	}
}

func TestDetectFileType(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Data_Hora;Valor_Venda;Maquinas", FileTypeSales},
		{"Nome;Documento;Saldo_Carteira", FileTypeCustomers},
		{"foo;bar", FileTypeUnknown},
	}

	for _, tt := range tests {
		if got := DetectFileType([]byte(tt.header + "\nrow")); got != tt.want {
			t.Errorf("DetectFileType(%q) = %s, want %s", tt.header, got, tt.want)
		}
	}
}
