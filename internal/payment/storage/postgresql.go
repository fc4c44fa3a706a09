package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"venue-booking/internal/config"
	"venue-booking/internal/logger"
	"venue-booking/internal/models"
)

type PostgreSQLStore struct {
	db  *sql.DB
	log *logger.Logger
}

// NewPostgreSQLStoreWithDB creates a transaction store on an existing database
// connection. Tests use this with an in-memory SQLite handle.
func NewPostgreSQLStoreWithDB(db *sql.DB, log *logger.Logger) (*PostgreSQLStore, error) {
	log.Info("DATABASE", "Creating transaction storage with existing database connection")

	store := &PostgreSQLStore{
		db:  db,
		log: log,
	}

	if err := store.initTables(); err != nil {
		log.Error("DATABASE", "Failed to initialize transaction tables: "+err.Error())
		return nil, fmt.Errorf("failed to initialize transaction tables: %w", err)
	}

	log.Info("DATABASE", "Transaction storage initialized successfully with existing connection")
	return store, nil
}

func NewPostgreSQLStore(cfg config.DatabaseConfig, log *logger.Logger) (*PostgreSQLStore, error) {
	log.LogDatabase("CONNECT", "postgresql", fmt.Sprintf("Connecting to PostgreSQL at %s:%s", cfg.Host, cfg.Port))

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Error("DATABASE", "Failed to open PostgreSQL connection: "+err.Error())
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MaxLifetime)

	if err := db.Ping(); err != nil {
		log.Error("DATABASE", "Failed to ping PostgreSQL: "+err.Error())
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgreSQLStore{
		db:  db,
		log: log,
	}

	if err := store.initTables(); err != nil {
		log.Error("DATABASE", "Failed to initialize tables: "+err.Error())
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	log.LogDatabase("SUCCESS", "postgresql", "PostgreSQL connection established and tables initialized")
	return store, nil
}

func (s *PostgreSQLStore) initTables() error {
	s.log.LogDatabase("MIGRATE", "postgresql", "Creating payment_transactions table if not exists")

	// session_id is unique: one transaction row per checkout session.
	transactionsQuery := `
    CREATE TABLE IF NOT EXISTS payment_transactions (
        transaction_id VARCHAR(36) PRIMARY KEY,
        session_id VARCHAR(255) NOT NULL UNIQUE,
        booking_id VARCHAR(36) NOT NULL,
        amount DECIMAL(10,2) NOT NULL,
        currency VARCHAR(10) NOT NULL,
        service_fee DECIMAL(10,2) NOT NULL,
        owner_payout DECIMAL(10,2) NOT NULL,
        payment_status VARCHAR(50) NOT NULL,
        metadata TEXT,
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
    );
    `

	if _, err := s.db.Exec(transactionsQuery); err != nil {
		return fmt.Errorf("failed to create payment_transactions table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_transactions_booking_id ON payment_transactions(booking_id);",
		"CREATE INDEX IF NOT EXISTS idx_transactions_status ON payment_transactions(payment_status);",
	}

	for _, indexQuery := range indexes {
		if _, err := s.db.Exec(indexQuery); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	s.log.LogDatabase("SUCCESS", "postgresql", "Transaction tables and indexes ready")
	return nil
}

// SaveTransaction saves a payment transaction to the database
func (s *PostgreSQLStore) SaveTransaction(tx *models.PaymentTransaction) error {
	s.log.LogDatabase("INSERT", "postgresql", fmt.Sprintf("Saving transaction %s for session %s", tx.TransactionID, tx.SessionID))

	metadata, err := json.Marshal(tx.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction metadata: %w", err)
	}

	query := `
    INSERT INTO payment_transactions (
        transaction_id, session_id, booking_id, amount, currency,
        service_fee, owner_payout, payment_status, metadata, created_at
    ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `

	_, err = s.db.Exec(query,
		tx.TransactionID, tx.SessionID, tx.BookingID, tx.Amount, tx.Currency,
		tx.ServiceFee, tx.OwnerPayout, tx.PaymentStatus, string(metadata), tx.CreatedAt,
	)

	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to save transaction %s: %s", tx.TransactionID, err.Error()))
		return fmt.Errorf("failed to save transaction: %w", err)
	}

	s.log.LogDatabase("SUCCESS", "postgresql", fmt.Sprintf("Transaction %s saved successfully", tx.TransactionID))
	return nil
}

// GetTransactionBySessionID retrieves the transaction matching a checkout session
func (s *PostgreSQLStore) GetTransactionBySessionID(sessionID string) (*models.PaymentTransaction, error) {
	s.log.LogDatabase("SELECT", "postgresql", fmt.Sprintf("Fetching transaction for session %s", sessionID))

	query := `
    SELECT transaction_id, session_id, booking_id, amount, currency,
           service_fee, owner_payout, payment_status, metadata, created_at
    FROM payment_transactions WHERE session_id = $1
    `

	tx := &models.PaymentTransaction{}
	var metadata string
	err := s.db.QueryRow(query, sessionID).Scan(
		&tx.TransactionID, &tx.SessionID, &tx.BookingID, &tx.Amount, &tx.Currency,
		&tx.ServiceFee, &tx.OwnerPayout, &tx.PaymentStatus, &metadata, &tx.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			s.log.LogDatabase("NOT_FOUND", "postgresql", fmt.Sprintf("Transaction not found for session %s", sessionID))
			return nil, models.ErrTransactionNotFound
		}
		s.log.Error("DATABASE", fmt.Sprintf("Failed to get transaction for session %s: %s", sessionID, err.Error()))
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &tx.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transaction metadata: %w", err)
		}
	}

	s.log.LogDatabase("SUCCESS", "postgresql", fmt.Sprintf("Transaction %s fetched successfully", tx.TransactionID))
	return tx, nil
}

// GetTransactionsByBookingID retrieves all transactions opened for a booking
func (s *PostgreSQLStore) GetTransactionsByBookingID(bookingID string) ([]*models.PaymentTransaction, error) {
	s.log.LogDatabase("SELECT", "postgresql", fmt.Sprintf("Listing transactions for booking %s", bookingID))

	query := `
    SELECT transaction_id, session_id, booking_id, amount, currency,
           service_fee, owner_payout, payment_status, metadata, created_at
    FROM payment_transactions
    WHERE booking_id = $1
    ORDER BY created_at DESC
    `

	rows, err := s.db.Query(query, bookingID)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to list transactions: %s", err.Error()))
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*models.PaymentTransaction
	for rows.Next() {
		tx := &models.PaymentTransaction{}
		var metadata string
		err := rows.Scan(
			&tx.TransactionID, &tx.SessionID, &tx.BookingID, &tx.Amount, &tx.Currency,
			&tx.ServiceFee, &tx.OwnerPayout, &tx.PaymentStatus, &metadata, &tx.CreatedAt,
		)
		if err != nil {
			s.log.Error("DATABASE", fmt.Sprintf("Failed to scan transaction row: %s", err.Error()))
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if metadata != "" {
			if err := json.Unmarshal([]byte(metadata), &tx.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal transaction metadata: %w", err)
			}
		}
		transactions = append(transactions, tx)
	}

	if err = rows.Err(); err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Row iteration error: %s", err.Error()))
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	s.log.LogDatabase("SUCCESS", "postgresql", fmt.Sprintf("Listed %d transactions for booking %s", len(transactions), bookingID))
	return transactions, nil
}

// MarkStatus sets the payment status of a transaction. Once a transaction is
// paid it stays paid: the guard in the WHERE clause makes replays no-ops, so
// the same gateway result can be applied any number of times. Marking paid
// additionally requires that no other transaction for the same booking is
// already paid, so at most one session per booking can ever win.
func (s *PostgreSQLStore) MarkStatus(sessionID, status string) (bool, error) {
	s.log.LogDatabase("UPDATE", "postgresql", fmt.Sprintf("Marking session %s as %s", sessionID, status))

	query := `
    UPDATE payment_transactions SET payment_status = $1
    WHERE session_id = $2 AND payment_status <> 'paid'
    `
	if status == models.PaymentPaid {
		query = `
    UPDATE payment_transactions SET payment_status = $1
    WHERE session_id = $2 AND payment_status <> 'paid'
      AND NOT EXISTS (
          SELECT 1 FROM payment_transactions other
          WHERE other.booking_id = payment_transactions.booking_id
            AND other.payment_status = 'paid'
      )
    `
	}

	res, err := s.db.Exec(query, status, sessionID)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to update session %s: %s", sessionID, err.Error()))
		return false, fmt.Errorf("failed to update transaction: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		// Either the session does not exist or it is already paid.
		if _, err := s.GetTransactionBySessionID(sessionID); err != nil {
			return false, err
		}
		s.log.LogDatabase("NOOP", "postgresql", fmt.Sprintf("Session %s already paid, status unchanged", sessionID))
		return false, nil
	}

	s.log.LogDatabase("SUCCESS", "postgresql", fmt.Sprintf("Session %s marked as %s", sessionID, status))
	return true, nil
}

func (s *PostgreSQLStore) Close() error {
	s.log.LogDatabase("CLOSE", "postgresql", "Closing PostgreSQL connection")
	return s.db.Close()
}

func (s *PostgreSQLStore) HealthCheck() error {
	return s.db.Ping()
}
