package postgresql

import (
	"database/sql"
	"fmt"

	"github.com/lxyzcm1/parking-manage-system/internal/config"
	"github.com/lxyzcm1/parking-manage-system/internal/repository"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func NewDB(cfg *config.Config) (*sql.DB, error) {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSslMode)

	db, err := sql.Open("pgx", psqlInfo)
	if err != nil {
		return nil, fmt.Errorf("opening database connection: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping failed: %v", repository.ErrStoreUnavailable, err)
	}
	return db, nil
}
