package db

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
)

// 参照されている行は削除不可（ON DELETE RESTRICT）
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		username      VARCHAR(64)  NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role          VARCHAR(16)  NOT NULL DEFAULT 'user',
		created_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_username (username)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS clients (
		id              BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		first_name      VARCHAR(20) NOT NULL,
		last_name       VARCHAR(20) NOT NULL,
		father_name     VARCHAR(20) NULL,
		passport_seria  CHAR(4)     NOT NULL,
		passport_number CHAR(6)     NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS book_types (
		id        BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		type      VARCHAR(20)   NOT NULL,
		fine      DECIMAL(10,2) NOT NULL,
		day_count INT UNSIGNED  NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS books (
		id      BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name    VARCHAR(50)     NOT NULL,
		cnt     INT UNSIGNED    NOT NULL DEFAULT 0,
		type_id BIGINT UNSIGNED NOT NULL,
		UNIQUE KEY uq_books_name (name),
		CONSTRAINT fk_books_type FOREIGN KEY (type_id) REFERENCES book_types(id) ON DELETE RESTRICT
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_general_ci`,

	`CREATE TABLE IF NOT EXISTS journal (
		id        BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		ulid      CHAR(26)        NOT NULL,
		client_id BIGINT UNSIGNED NOT NULL,
		book_id   BIGINT UNSIGNED NOT NULL,
		date_beg  DATE            NOT NULL,
		date_end  DATE            NOT NULL,
		date_ret  DATE            NULL,
		UNIQUE KEY uq_journal_ulid (ulid),
		KEY idx_journal_open (date_ret, date_end),
		CONSTRAINT fk_journal_client FOREIGN KEY (client_id) REFERENCES clients(id) ON DELETE RESTRICT,
		CONSTRAINT fk_journal_book FOREIGN KEY (book_id) REFERENCES books(id) ON DELETE RESTRICT
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate はテーブルが無ければ作成する
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, ddl := range schema {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	log.Printf("[INFO] schema ready (%d tables)", len(schema))
	return nil
}
