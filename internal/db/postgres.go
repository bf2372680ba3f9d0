package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/dossier-backend/internal/logger"
	"github.com/yungbote/dossier-backend/internal/types"
	"github.com/yungbote/dossier-backend/internal/utils"
)

type DatabaseService struct {
	db     *gorm.DB
	driver string
	log    *logger.Logger
}

// NewDatabaseService opens the backing store. DB_DRIVER=sqlite selects an
// embedded database for local development and tests; anything else is Postgres.
func NewDatabaseService(log *logger.Logger) (*DatabaseService, error) {
	serviceLog := log.With("service", "DatabaseService")

	driver := utils.GetEnv("DB_DRIVER", "postgres", log)
	if driver == "sqlite" {
		path := utils.GetEnv("SQLITE_PATH", "dossier.db", log)
		log.Info("Connecting to SQLite...", "path", path)
		gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
		})
		if err != nil {
			log.Error("Failed to connect to SQLite", "error", err)
			return nil, fmt.Errorf("Failed to connect to SQLite: %w", err)
		}
		return &DatabaseService{db: gdb, driver: driver, log: serviceLog}, nil
	}

	log.Info("Loading environment variables...")
	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "dossier", log)
	log.Debug("Environment variables loaded")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("Failed to connect to Postgres: %w", err)
	}

	if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		log.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("Failed to enable uuid-ossp extension: %w", err)
	}
	log.Info("uuid-ossp extension enabled")

	return &DatabaseService{db: gdb, driver: driver, log: serviceLog}, nil
}

func (s *DatabaseService) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	err := s.db.AutoMigrate(
		&types.Dossier{},
		&types.DossierMember{},
		&types.Claim{},
		&types.Source{},
		&types.Finding{},
		&types.Edge{},
		&types.Revision{},
	)
	if err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if s.driver == "sqlite" {
		return nil
	}
	s.log.Info("Configuring foreign key relationships...")
	constraints := []struct {
		name string
		stmt string
	}{
		{"fk_dossier_member_dossier_id", `
			ALTER TABLE "dossier_member"
			ADD CONSTRAINT "fk_dossier_member_dossier_id"
			FOREIGN KEY ("dossier_id")
			REFERENCES "dossier"("id")
			ON DELETE CASCADE
		`},
		{"fk_claim_dossier_id", `
			ALTER TABLE "claim"
			ADD CONSTRAINT "fk_claim_dossier_id"
			FOREIGN KEY ("dossier_id")
			REFERENCES "dossier"("id")
			ON DELETE CASCADE
		`},
		{"fk_source_dossier_id", `
			ALTER TABLE "source"
			ADD CONSTRAINT "fk_source_dossier_id"
			FOREIGN KEY ("dossier_id")
			REFERENCES "dossier"("id")
			ON DELETE CASCADE
		`},
		{"fk_finding_dossier_id", `
			ALTER TABLE "finding"
			ADD CONSTRAINT "fk_finding_dossier_id"
			FOREIGN KEY ("dossier_id")
			REFERENCES "dossier"("id")
			ON DELETE CASCADE
		`},
		{"fk_edge_dossier_id", `
			ALTER TABLE "edge"
			ADD CONSTRAINT "fk_edge_dossier_id"
			FOREIGN KEY ("dossier_id")
			REFERENCES "dossier"("id")
			ON DELETE CASCADE
		`},
		{"fk_revision_dossier_id", `
			ALTER TABLE "revision"
			ADD CONSTRAINT "fk_revision_dossier_id"
			FOREIGN KEY ("dossier_id")
			REFERENCES "dossier"("id")
			ON DELETE CASCADE
		`},
	}
	for _, c := range constraints {
		var count int64
		s.db.Raw(`SELECT COUNT(*) FROM pg_constraint WHERE conname = ?`, c.name).Scan(&count)
		if count > 0 {
			continue
		}
		if err := s.db.Exec(c.stmt).Error; err != nil {
			return fmt.Errorf("Failed to add %s: %w", c.name, err)
		}
	}
	return nil
}

func (s *DatabaseService) DB() *gorm.DB {
	return s.db
}
