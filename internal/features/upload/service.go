package upload

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"lavpop-sync/internal/features/settings"
	"lavpop-sync/pkg/utils"

	"go.uber.org/zap"
)

const batchSize = 100

type UploadService interface {
	UploadSales(ctx context.Context, fileName string, content []byte, source string) (*UploadResult, error)
	UploadCustomers(ctx context.Context, fileName string, content []byte, source string) (*UploadResult, error)
	DetectAndUpload(ctx context.Context, fileName string, content []byte, source string) (string, *UploadResult, error)
	History(ctx context.Context, limit int64) ([]UploadHistory, error)
}

type UploadServiceImpl struct {
	Repo     UploadRepository
	Settings settings.SettingsService
	Log      *zap.Logger
}

func NewUploadService(repo UploadRepository, settingsService settings.SettingsService, log *zap.Logger) UploadService {
	return &UploadServiceImpl{
		Repo:     repo,
		Settings: settingsService,
		Log:      log,
	}
}

// DetectAndUpload routes a POS export to the right ingestion path based on
// its header line. XLSX files are always sales exports; the POS only emits
// customer data as CSV.
func (s *UploadServiceImpl) DetectAndUpload(ctx context.Context, fileName string, content []byte, source string) (string, *UploadResult, error) {
	fileType := FileTypeUnknown
	if strings.HasSuffix(strings.ToLower(fileName), ".xlsx") {
		fileType = FileTypeSales
	} else {
		fileType = DetectFileType(content)
	}

	switch fileType {
	case FileTypeSales:
		result, err := s.UploadSales(ctx, fileName, content, source)
		return fileType, result, err
	case FileTypeCustomers:
		result, err := s.UploadCustomers(ctx, fileName, content, source)
		return fileType, result, err
	default:
		return FileTypeUnknown, nil, fmt.Errorf("could not detect file type of %s", fileName)
	}
}

// UploadSales ingests a sales export: every row gets its derived fields
// computed (classification, machine counts, cashback, import hash), then
// rows go to Postgres in batches; hash collisions are skipped, both within
// the file and against earlier uploads.
func (s *UploadServiceImpl) UploadSales(ctx context.Context, fileName string, content []byte, source string) (*UploadResult, error) {
	start := time.Now()
	result := &UploadResult{Errors: []string{}}

	rows, err := s.parse(fileName, content)
	if err != nil {
		return nil, err
	}
	result.Total = len(rows)

	cashbackRate, cashbackStart := s.cashbackConfig(ctx)

	var transactions []Transaction
	seen := make(map[string]bool)

	for i, row := range rows {
		dataHora := ParseBRDate(row["Data_Hora"])
		if dataHora == "" {
			result.Skipped++
			continue
		}

		doc := utils.NormalizeCPF(row["Doc_Cliente"])
		if doc == "" {
			result.Skipped++
			continue
		}

		hash := GenerateImportHash(row["Data_Hora"], row["Doc_Cliente"], row["Valor_Venda"], row["Maquinas"])
		if seen[hash] {
			continue
		}
		seen[hash] = true

		grossValue := ParseBRNumber(row["Valor_Venda"])
		paidValue := ParseBRNumber(row["Valor_Pago"])
		machines := row["Maquinas"]
		machineInfo := CountMachines(machines)

		cashback := 0.0
		netValue := paidValue
		txDate, err := time.Parse("2006-01-02", strings.SplitN(dataHora, "T", 2)[0])
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: invalid date %q", i+1, row["Data_Hora"]))
			continue
		}
		if !txDate.Before(cashbackStart) && grossValue > 0 {
			cashback = round2(grossValue * cashbackRate)
			netValue = round2(paidValue - cashback)
		}

		coupon := strings.TrimSpace(row["Codigo_Cupom"])
		if strings.EqualFold(coupon, "n/d") {
			coupon = ""
		} else {
			coupon = strings.ToUpper(coupon)
		}

		transactions = append(transactions, Transaction{
			DataHora:          dataHora,
			ValorVenda:        grossValue,
			ValorPago:         paidValue,
			MeioDePagamento:   row["Meio_de_Pagamento"],
			ComprovanteCartao: row["Comprovante_cartao"],
			BandeiraCartao:    row["Bandeira_Cartao"],
			Loja:              row["Loja"],
			NomeCliente:       row["Nome_Cliente"],
			DocCliente:        doc,
			Telefone:          row["Telefone"],
			Maquinas:          machines,
			UsouCupom:         strings.EqualFold(row["Usou_Cupom"], "sim"),
			CodigoCupom:       coupon,
			TransactionType:   ClassifyTransaction(machines, row["Meio_de_Pagamento"], grossValue),
			IsRecarga:         strings.Contains(strings.ToLower(machines), "recarga"),
			WashCount:         machineInfo.Wash,
			DryCount:          machineInfo.Dry,
			TotalServices:     machineInfo.Total,
			NetValue:          netValue,
			CashbackAmount:    cashback,
			ImportHash:        hash,
			SourceFile:        source,
		})
	}

	for i := 0; i < len(transactions); i += batchSize {
		end := i + batchSize
		if end > len(transactions) {
			end = len(transactions)
		}
		inserted, err := s.Repo.InsertTransactions(ctx, transactions[i:end])
		result.Inserted += inserted
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Batch %d: %v", i/batchSize, err))
		}
	}

	result.Success = len(result.Errors) == 0
	s.logHistory(ctx, FileTypeSales, fileName, result, time.Since(start), source)
	return result, nil
}

// UploadCustomers ingests a customer export: rows deduplicate by CPF (last
// row wins), then upsert keyed by doc with forward-only metric columns.
func (s *UploadServiceImpl) UploadCustomers(ctx context.Context, fileName string, content []byte, source string) (*UploadResult, error) {
	start := time.Now()
	result := &UploadResult{Errors: []string{}}

	rows, err := s.parse(fileName, content)
	if err != nil {
		return nil, err
	}
	result.Total = len(rows)

	byDoc := make(map[string]CustomerRecord)
	var order []string

	for _, row := range rows {
		doc := utils.NormalizeCPF(row["Documento"])
		if doc == "" {
			result.Skipped++
			continue
		}

		txCount, _ := strconv.Atoi(strings.TrimSpace(row["Quantidade_Compras"]))

		if _, exists := byDoc[doc]; !exists {
			order = append(order, doc)
		}
		byDoc[doc] = CustomerRecord{
			Doc:              doc,
			Nome:             row["Nome"],
			Telefone:         row["Telefone"],
			Email:            row["Email"],
			DataCadastro:     ParseBRDate(row["Data_Cadastro"]),
			SaldoCarteira:    ParseBRNumber(row["Saldo_Carteira"]),
			FirstVisit:       ParseBRDateOnly(row["Data_Cadastro"]),
			LastVisit:        ParseBRDateOnly(row["Data_Ultima_Compra"]),
			TransactionCount: txCount,
			TotalSpent:       ParseBRNumber(row["Total_Compras"]),
			Source:           source,
		}
	}

	customers := make([]CustomerRecord, 0, len(byDoc))
	for _, doc := range order {
		customers = append(customers, byDoc[doc])
	}

	for i := 0; i < len(customers); i += batchSize {
		end := i + batchSize
		if end > len(customers) {
			end = len(customers)
		}
		inserted, updated, err := s.Repo.UpsertCustomers(ctx, customers[i:end])
		result.Inserted += inserted
		result.Updated += updated
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Batch %d: %v", i/batchSize, err))
		}
	}

	result.Success = len(result.Errors) == 0
	s.logHistory(ctx, FileTypeCustomers, fileName, result, time.Since(start), source)
	return result, nil
}

func (s *UploadServiceImpl) History(ctx context.Context, limit int64) ([]UploadHistory, error) {
	return s.Repo.ListHistory(ctx, limit)
}

func (s *UploadServiceImpl) parse(fileName string, content []byte) ([]map[string]string, error) {
	if strings.HasSuffix(strings.ToLower(fileName), ".xlsx") {
		return ParseXLSX(content)
	}
	return ParseCSV(content)
}

// cashbackConfig reads the cashback rate and start date from settings,
// falling back to the launch defaults when unset or unreadable.
func (s *UploadServiceImpl) cashbackConfig(ctx context.Context) (float64, time.Time) {
	rate := 0.075
	startDate := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	cfg, err := s.Settings.GetGeneralConfig(ctx)
	if err != nil {
		s.Log.Warn("Failed to load cashback settings, using defaults", zap.Error(err))
		return rate, startDate
	}

	if cfg.CashbackPercent > 0 {
		rate = cfg.CashbackPercent / 100
	}
	if cfg.CashbackStartDate != "" {
		if parsed, err := time.Parse("2006-01-02", cfg.CashbackStartDate); err == nil {
			startDate = parsed
		}
	}
	return rate, startDate
}

func (s *UploadServiceImpl) logHistory(ctx context.Context, fileType, fileName string, result *UploadResult, duration time.Duration, source string) {
	status := "success"
	if len(result.Errors) > 0 {
		status = "partial"
	}

	entry := &UploadHistory{
		FileType:        fileType,
		FileName:        fileName,
		RecordsTotal:    result.Total,
		RecordsInserted: result.Inserted,
		RecordsUpdated:  result.Updated,
		RecordsSkipped:  result.Skipped,
		Errors:          result.Errors,
		Source:          source,
		DurationMs:      duration.Milliseconds(),
		Status:          status,
	}
	if err := s.Repo.LogHistory(ctx, entry); err != nil {
		// History is best effort, a failed write never fails the upload.
		s.Log.Warn("Failed to log upload history", zap.Error(err))
	}

	s.Log.Info("Upload finished",
		zap.String("file_type", fileType),
		zap.String("file_name", fileName),
		zap.Int("total", result.Total),
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", len(result.Errors)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
