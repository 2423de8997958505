package customer

import (
	"context"
	"database/sql"
	"fmt"

	"lavpop-sync/internal/database"
)

type CustomerRepository interface {
	List(ctx context.Context) ([]Customer, error)
	GetByDoc(ctx context.Context, doc string) (*Customer, error)
	GetByPhone(ctx context.Context, phone string) (*Customer, error)
	ListBlacklist(ctx context.Context) ([]string, error)
}

type CustomerRepositoryImpl struct {
	db *sql.DB
}

func NewCustomerRepository(supabase *database.SupabaseDB) CustomerRepository {
	return &CustomerRepositoryImpl{db: supabase.DB}
}

const customerColumns = `doc, COALESCE(nome, ''), COALESCE(telefone, ''), COALESCE(email, ''),
	COALESCE(rfm_segment, ''), COALESCE(risk_level, ''),
	COALESCE(saldo_carteira, 0), COALESCE(transaction_count, 0),
	COALESCE(total_spent, 0), last_visit`

func (r *CustomerRepositoryImpl) List(ctx context.Context) ([]Customer, error) {
	query := fmt.Sprintf("SELECT %s FROM customers ORDER BY doc", customerColumns)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

func (r *CustomerRepositoryImpl) GetByDoc(ctx context.Context, doc string) (*Customer, error) {
	query := fmt.Sprintf("SELECT %s FROM customers WHERE doc = $1", customerColumns)
	return scanCustomer(r.db.QueryRowContext(ctx, query, doc))
}

func (r *CustomerRepositoryImpl) GetByPhone(ctx context.Context, phone string) (*Customer, error) {
	// Phones are stored with inconsistent formatting, compare digits only.
	query := fmt.Sprintf(
		"SELECT %s FROM customers WHERE regexp_replace(COALESCE(telefone, ''), '\\D', '', 'g') = $1 LIMIT 1",
		customerColumns)
	return scanCustomer(r.db.QueryRowContext(ctx, query, phone))
}

func (r *CustomerRepositoryImpl) ListBlacklist(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT phone FROM whatsapp_blacklist")
	if err != nil {
		return nil, fmt.Errorf("failed to query blacklist: %w", err)
	}
	defer rows.Close()

	var phones []string
	for rows.Next() {
		var phone string
		if err := rows.Scan(&phone); err != nil {
			return nil, err
		}
		phones = append(phones, phone)
	}
	return phones, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCustomer(row rowScanner) (*Customer, error) {
	var c Customer
	var lastVisit sql.NullTime
	err := row.Scan(&c.Doc, &c.Nome, &c.Telefone, &c.Email,
		&c.Segment, &c.RiskLevel,
		&c.SaldoCarteira, &c.TransactionCount, &c.TotalSpent, &lastVisit)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if lastVisit.Valid {
		c.LastVisit = &lastVisit.Time
	}
	return &c, nil
}
