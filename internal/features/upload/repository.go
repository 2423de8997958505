package upload

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lavpop-sync/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UploadRepository interface {
	InsertTransactions(ctx context.Context, txs []Transaction) (int, error)
	UpsertCustomers(ctx context.Context, customers []CustomerRecord) (inserted, updated int, err error)
	LogHistory(ctx context.Context, entry *UploadHistory) error
	ListHistory(ctx context.Context, limit int64) ([]UploadHistory, error)
}

type UploadRepositoryImpl struct {
	db      *sql.DB
	history *mongo.Collection
}

func NewUploadRepository(supabase *database.SupabaseDB, mongodb *database.MongodbDB) UploadRepository {
	return &UploadRepositoryImpl{
		db:      supabase.DB,
		history: mongodb.DB.Collection("upload_history"),
	}
}

// InsertTransactions writes a batch of sales rows, silently skipping rows
// whose import_hash is already present. Returns the number actually
// inserted.
func (r *UploadRepositoryImpl) InsertTransactions(ctx context.Context, txs []Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}

	const query = `INSERT INTO transactions (
		data_hora, valor_venda, valor_pago, meio_de_pagamento, comprovante_cartao,
		bandeira_cartao, loja, nome_cliente, doc_cliente, telefone, maquinas,
		usou_cupom, codigo_cupom, transaction_type, is_recarga, wash_count,
		dry_count, total_services, net_value, cashback_amount, import_hash, source_file
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	ON CONFLICT (import_hash) DO NOTHING`

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, t := range txs {
		res, err := stmt.ExecContext(ctx,
			t.DataHora, t.ValorVenda, t.ValorPago,
			nullable(t.MeioDePagamento), nullable(t.ComprovanteCartao),
			nullable(t.BandeiraCartao), nullable(t.Loja), nullable(t.NomeCliente),
			t.DocCliente, nullable(t.Telefone), nullable(t.Maquinas),
			t.UsouCupom, nullable(t.CodigoCupom), t.TransactionType, t.IsRecarga,
			t.WashCount, t.DryCount, t.TotalServices, t.NetValue, t.CashbackAmount,
			t.ImportHash, t.SourceFile,
		)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert transaction %s: %w", t.ImportHash, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("failed to commit transactions: %w", err)
	}
	return inserted, nil
}

// UpsertCustomers writes customer rows keyed by doc. Profile fields always
// win; visit dates and the monotone counters only move forward, so a stale
// export can never regress computed metrics.
func (r *UploadRepositoryImpl) UpsertCustomers(ctx context.Context, customers []CustomerRecord) (int, int, error) {
	if len(customers) == 0 {
		return 0, 0, nil
	}

	const query = `INSERT INTO customers (
		doc, nome, telefone, email, data_cadastro, saldo_carteira,
		first_visit, last_visit, transaction_count, total_spent, source
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (doc) DO UPDATE SET
		nome = EXCLUDED.nome,
		telefone = EXCLUDED.telefone,
		email = EXCLUDED.email,
		saldo_carteira = EXCLUDED.saldo_carteira,
		first_visit = LEAST(COALESCE(customers.first_visit, EXCLUDED.first_visit), EXCLUDED.first_visit),
		last_visit = GREATEST(COALESCE(customers.last_visit, EXCLUDED.last_visit), EXCLUDED.last_visit),
		transaction_count = GREATEST(customers.transaction_count, EXCLUDED.transaction_count),
		total_spent = GREATEST(customers.total_spent, EXCLUDED.total_spent),
		source = EXCLUDED.source
	RETURNING (xmax = 0)`

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	inserted, updated := 0, 0
	for _, c := range customers {
		var wasInsert bool
		err := stmt.QueryRowContext(ctx,
			c.Doc, nullable(c.Nome), nullable(c.Telefone), nullable(c.Email),
			nullDate(c.DataCadastro), c.SaldoCarteira,
			nullDate(c.FirstVisit), nullDate(c.LastVisit),
			c.TransactionCount, c.TotalSpent, c.Source,
		).Scan(&wasInsert)
		if err != nil {
			return inserted, updated, fmt.Errorf("failed to upsert customer %s: %w", c.Doc, err)
		}
		if wasInsert {
			inserted++
		} else {
			updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return inserted, updated, fmt.Errorf("failed to commit customers: %w", err)
	}
	return inserted, updated, nil
}

func (r *UploadRepositoryImpl) LogHistory(ctx context.Context, entry *UploadHistory) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if len(entry.Errors) > 10 {
		entry.Errors = entry.Errors[:10]
	}

	_, err := r.history.InsertOne(ctx, entry)
	return err
}

func (r *UploadRepositoryImpl) ListHistory(ctx context.Context, limit int64) ([]UploadHistory, error) {
	if limit <= 0 {
		limit = 20
	}

	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetLimit(limit)

	cursor, err := r.history.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []UploadHistory
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullDate(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
