// Package repository реализует хранилище данных на основе PostgreSQL
// для маркетплейса лидов. Содержит методы работы с артистами, лидами,
// кредитным журналом, подписками и правилами распределения.
//
// Все операции, изменяющие баланс артиста или состав участников лида,
// выполняются в одной транзакции под блокировкой строки
// (SELECT ... FOR UPDATE) — это единственный механизм, исключающий
// перебронирование лида и уход баланса в минус.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func CheckDatabaseReady(storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRow(`SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'artists'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table artists missing or query error: %w", err)
	}
	return nil
}

// rollback откатывает транзакцию, не затирая исходную ошибку.
func rollback(tx *sql.Tx) {
	_ = tx.Rollback()
}
