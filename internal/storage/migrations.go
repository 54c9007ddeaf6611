package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a
// fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS categories (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					slug TEXT UNIQUE NOT NULL,
					name TEXT NOT NULL,
					parent_id INTEGER REFERENCES categories(id),
					is_active BOOLEAN DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_categories_slug ON categories(slug)`,
				`CREATE INDEX idx_categories_active ON categories(is_active)`,

				`CREATE TABLE IF NOT EXISTS category_keywords (
					category_id INTEGER NOT NULL REFERENCES categories(id),
					keyword TEXT NOT NULL,
					position INTEGER NOT NULL DEFAULT 0,
					UNIQUE(category_id, keyword)
				)`,
				`CREATE INDEX idx_category_keywords_category ON category_keywords(category_id)`,

				`CREATE TABLE IF NOT EXISTS learning_entries (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id TEXT NOT NULL,
					keyword TEXT NOT NULL,
					category_id INTEGER NOT NULL REFERENCES categories(id),
					weight REAL NOT NULL DEFAULT 1.0,
					use_count INTEGER NOT NULL DEFAULT 1,
					last_used_at DATETIME NOT NULL,
					UNIQUE(user_id, keyword, category_id)
				)`,
				`CREATE INDEX idx_learning_user_keyword ON learning_entries(user_id, keyword)`,

				`CREATE TABLE IF NOT EXISTS expenses (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id TEXT NOT NULL,
					description TEXT NOT NULL,
					amount REAL,
					category_id INTEGER NOT NULL REFERENCES categories(id),
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_expenses_user_created ON expenses(user_id, created_at)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Seed the reserved uncategorized fallback",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				INSERT INTO categories (slug, name, is_active)
				VALUES ('uncategorized', 'Sin categoría', 1)
				ON CONFLICT(slug) DO NOTHING
			`)
			return err
		},
	},
	{
		Version:     3,
		Description: "Seed the default category catalog",
		Up:          seedDefaultCatalog,
	},
}

// seedCategory is compact seed data for the default two-level catalog.
type seedCategory struct {
	slug     string
	name     string
	parent   string
	keywords []string
}

var defaultCatalog = []seedCategory{
	{slug: "food_drink", name: "Comida y Bebida", keywords: []string{"comida", "food", "restaurante", "antojo"}},
	{slug: "coffee_shops", name: "Cafeterías", parent: "food_drink", keywords: []string{"café", "cafe", "coffee", "starbucks", "latte", "capuchino", "espresso"}},
	{slug: "restaurants", name: "Restaurantes", parent: "food_drink", keywords: []string{"restaurante", "restaurant", "cena", "comida corrida", "lunch", "dinner", "tacos", "sushi", "pizza"}},
	{slug: "groceries", name: "Supermercado", parent: "food_drink", keywords: []string{"super", "supermercado", "groceries", "despensa", "walmart", "soriana", "chedraui", "oxxo", "mandado"}},
	{slug: "transport", name: "Transporte", keywords: []string{"transporte", "transport", "viaje"}},
	{slug: "rideshare", name: "Taxis y Apps", parent: "transport", keywords: []string{"uber", "didi", "cabify", "taxi", "ride"}},
	{slug: "fuel", name: "Gasolina", parent: "transport", keywords: []string{"gasolina", "gas", "pemex", "fuel", "combustible"}},
	{slug: "public_transit", name: "Transporte Público", parent: "transport", keywords: []string{"metro", "metrobus", "camion", "camión", "bus", "tren"}},
	{slug: "housing", name: "Vivienda", keywords: []string{"casa", "hogar", "home"}},
	{slug: "rent_mortgage", name: "Renta e Hipoteca", parent: "housing", keywords: []string{"renta", "rent", "hipoteca", "mortgage", "departamento"}},
	{slug: "utilities", name: "Servicios del Hogar", parent: "housing", keywords: []string{"luz", "agua", "cfe", "electricidad", "internet", "telmex", "izzi", "totalplay"}},
	{slug: "entertainment", name: "Entretenimiento", keywords: []string{"diversión", "diversion", "entertainment"}},
	{slug: "streaming", name: "Streaming", parent: "entertainment", keywords: []string{"netflix", "spotify", "disney", "hbo", "prime", "streaming", "suscripción", "suscripcion"}},
	{slug: "cinema", name: "Cine", parent: "entertainment", keywords: []string{"cine", "cinepolis", "cinemex", "película", "pelicula", "movie"}},
	{slug: "health", name: "Salud", keywords: []string{"salud", "health", "doctor", "médico", "medico"}},
	{slug: "pharmacy", name: "Farmacia", parent: "health", keywords: []string{"farmacia", "pharmacy", "medicina", "guadalajara", "similares", "ahorro"}},
	{slug: "shopping", name: "Compras", keywords: []string{"shopping", "tienda", "store"}},
	{slug: "clothing", name: "Ropa", parent: "shopping", keywords: []string{"ropa", "clothes", "zara", "bershka", "zapatos", "shoes"}},
	{slug: "electronics", name: "Electrónica", parent: "shopping", keywords: []string{"amazon", "mercadolibre", "liverpool", "electrónica", "electronica", "gadget"}},
}

func seedDefaultCatalog(tx *sql.Tx) error {
	ids := make(map[string]int64, len(defaultCatalog))

	for _, seed := range defaultCatalog {
		var parentID any
		if seed.parent != "" {
			id, ok := ids[seed.parent]
			if !ok {
				return fmt.Errorf("seed category %q references unknown parent %q", seed.slug, seed.parent)
			}
			parentID = id
		}

		if _, err := tx.Exec(`
			INSERT INTO categories (slug, name, parent_id, is_active)
			VALUES (?, ?, ?, 1)
			ON CONFLICT(slug) DO NOTHING
		`, seed.slug, seed.name, parentID); err != nil {
			return fmt.Errorf("failed to seed category %q: %w", seed.slug, err)
		}

		// LastInsertId is unreliable after ON CONFLICT DO NOTHING, so
		// read the id back by slug.
		var id int64
		if err := tx.QueryRow(`SELECT id FROM categories WHERE slug = ?`, seed.slug).Scan(&id); err != nil {
			return fmt.Errorf("failed to get seeded category id: %w", err)
		}
		ids[seed.slug] = id

		for pos, keyword := range seed.keywords {
			if _, err := tx.Exec(`
				INSERT INTO category_keywords (category_id, keyword, position)
				VALUES (?, ?, ?)
				ON CONFLICT(category_id, keyword) DO NOTHING
			`, id, keyword, pos); err != nil {
				return fmt.Errorf("failed to seed keyword %q for %q: %w", keyword, seed.slug, err)
			}
		}
	}

	return nil
}

// Migrate applies any pending schema migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
