package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Cascade/internal/domain"
)

// SpecRepo — репозиторий для работы со specs и spec_versions.
type SpecRepo struct {
	pool *pgxpool.Pool
}

// NewSpecRepo создаёт новый SpecRepo.
func NewSpecRepo(pool *pgxpool.Pool) *SpecRepo {
	return &SpecRepo{pool: pool}
}

// --- Spec CRUD ---

// Create создаёт новый документ развёртывания.
func (r *SpecRepo) Create(ctx context.Context, spec *domain.StoredSpec) error {
	query := `
		INSERT INTO specs (id, name, created_at)
		VALUES ($1, $2, $3)
	`
	_, err := r.pool.Exec(ctx, query,
		spec.ID,
		spec.Name,
		spec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert spec: %w", err)
	}
	return nil
}

// GetByID возвращает документ по ID.
func (r *SpecRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.StoredSpec, error) {
	query := `
		SELECT id, name, created_at
		FROM specs
		WHERE id = $1
	`
	var spec domain.StoredSpec
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&spec.ID,
		&spec.Name,
		&spec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get spec by id: %w", err)
	}
	return &spec, nil
}

// GetByName возвращает документ по имени.
func (r *SpecRepo) GetByName(ctx context.Context, name string) (*domain.StoredSpec, error) {
	query := `
		SELECT id, name, created_at
		FROM specs
		WHERE name = $1
	`
	var spec domain.StoredSpec
	err := r.pool.QueryRow(ctx, query, name).Scan(
		&spec.ID,
		&spec.Name,
		&spec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get spec by name: %w", err)
	}
	return &spec, nil
}

// List возвращает список всех документов.
func (r *SpecRepo) List(ctx context.Context) ([]domain.StoredSpec, error) {
	query := `
		SELECT id, name, created_at
		FROM specs
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list specs: %w", err)
	}
	defer rows.Close()

	var specs []domain.StoredSpec
	for rows.Next() {
		var spec domain.StoredSpec
		if err := rows.Scan(
			&spec.ID,
			&spec.Name,
			&spec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan spec: %w", err)
		}
		specs = append(specs, spec)
	}
	return specs, rows.Err()
}

// Delete удаляет документ (каскадно удалит versions, runs, schedules).
func (r *SpecRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM specs WHERE id = $1`
	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete spec: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- SpecVersion CRUD ---

// CreateVersion создаёт новую версию документа.
// Номер версии инкрементируется автоматически.
func (r *SpecRepo) CreateVersion(ctx context.Context, specID uuid.UUID, doc domain.DeploymentSpec) (*domain.SpecVersion, error) {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	var nextVersion int
	err = r.pool.QueryRow(ctx, `
		SELECT COALESCE(MAX(version), 0) + 1
		FROM spec_versions
		WHERE spec_id = $1
	`, specID).Scan(&nextVersion)
	if err != nil {
		return nil, fmt.Errorf("get next version: %w", err)
	}

	var version domain.SpecVersion
	err = r.pool.QueryRow(ctx, `
		INSERT INTO spec_versions (spec_id, version, document, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING spec_id, version, document, created_at
	`, specID, nextVersion, docJSON).Scan(
		&version.SpecID,
		&version.Version,
		&docJSON,
		&version.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert spec version: %w", err)
	}

	if err := json.Unmarshal(docJSON, &version.Document); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}

	return &version, nil
}

// GetVersion возвращает конкретную версию документа.
func (r *SpecRepo) GetVersion(ctx context.Context, specID uuid.UUID, version int) (*domain.SpecVersion, error) {
	query := `
		SELECT spec_id, version, document, created_at
		FROM spec_versions
		WHERE spec_id = $1 AND version = $2
	`
	var sv domain.SpecVersion
	var docJSON []byte
	err := r.pool.QueryRow(ctx, query, specID, version).Scan(
		&sv.SpecID,
		&sv.Version,
		&docJSON,
		&sv.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get spec version: %w", err)
	}

	if err := json.Unmarshal(docJSON, &sv.Document); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}

	return &sv, nil
}

// GetLatestVersion возвращает последнюю версию документа.
func (r *SpecRepo) GetLatestVersion(ctx context.Context, specID uuid.UUID) (*domain.SpecVersion, error) {
	query := `
		SELECT spec_id, version, document, created_at
		FROM spec_versions
		WHERE spec_id = $1
		ORDER BY version DESC
		LIMIT 1
	`
	var sv domain.SpecVersion
	var docJSON []byte
	err := r.pool.QueryRow(ctx, query, specID).Scan(
		&sv.SpecID,
		&sv.Version,
		&docJSON,
		&sv.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get latest spec version: %w", err)
	}

	if err := json.Unmarshal(docJSON, &sv.Document); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}

	return &sv, nil
}

// ListVersions возвращает все версии документа.
func (r *SpecRepo) ListVersions(ctx context.Context, specID uuid.UUID) ([]domain.SpecVersion, error) {
	query := `
		SELECT spec_id, version, document, created_at
		FROM spec_versions
		WHERE spec_id = $1
		ORDER BY version DESC
	`
	rows, err := r.pool.Query(ctx, query, specID)
	if err != nil {
		return nil, fmt.Errorf("list spec versions: %w", err)
	}
	defer rows.Close()

	var versions []domain.SpecVersion
	for rows.Next() {
		var sv domain.SpecVersion
		var docJSON []byte
		if err := rows.Scan(
			&sv.SpecID,
			&sv.Version,
			&docJSON,
			&sv.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan spec version: %w", err)
		}

		if err := json.Unmarshal(docJSON, &sv.Document); err != nil {
			return nil, fmt.Errorf("unmarshal document: %w", err)
		}

		versions = append(versions, sv)
	}
	return versions, rows.Err()
}
