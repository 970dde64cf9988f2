package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Cascade/internal/params"
)

// ParamRepo — каталог параметров поверх Postgres.
//
// Реализует params.Directory: задачи развёртывания публикуют через него
// параметры обнаружения эндпоинтов, downstream-потребители читают их
// по префиксу своей группы зависимостей.
type ParamRepo struct {
	pool *pgxpool.Pool
}

// NewParamRepo создаёт новый ParamRepo.
func NewParamRepo(pool *pgxpool.Pool) *ParamRepo {
	return &ParamRepo{pool: pool}
}

// Put создаёт или перезаписывает параметр.
func (r *ParamRepo) Put(ctx context.Context, path, value string) error {
	if path == "" {
		return params.ErrEmptyPath
	}
	query := `
		INSERT INTO parameters (path, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (path) DO UPDATE SET value = $2, updated_at = NOW()
	`
	if _, err := r.pool.Exec(ctx, query, path, value); err != nil {
		return fmt.Errorf("put parameter: %w", err)
	}
	return nil
}

// Get возвращает значение параметра.
func (r *ParamRepo) Get(ctx context.Context, path string) (string, error) {
	if path == "" {
		return "", params.ErrEmptyPath
	}
	var value string
	err := r.pool.QueryRow(ctx, `SELECT value FROM parameters WHERE path = $1`, path).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", params.ErrParamNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get parameter: %w", err)
	}
	return value, nil
}

// List возвращает параметры с указанным префиксом пути.
func (r *ParamRepo) List(ctx context.Context, prefix string) ([]params.Param, error) {
	query := `
		SELECT path, value
		FROM parameters
		WHERE path LIKE $1 || '%'
		ORDER BY path ASC
	`
	rows, err := r.pool.Query(ctx, query, prefix)
	if err != nil {
		return nil, fmt.Errorf("list parameters: %w", err)
	}
	defer rows.Close()

	var out []params.Param
	for rows.Next() {
		var p params.Param
		if err := rows.Scan(&p.Path, &p.Value); err != nil {
			return nil, fmt.Errorf("scan parameter: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Delete удаляет параметр.
func (r *ParamRepo) Delete(ctx context.Context, path string) error {
	if path == "" {
		return params.ErrEmptyPath
	}
	result, err := r.pool.Exec(ctx, `DELETE FROM parameters WHERE path = $1`, path)
	if err != nil {
		return fmt.Errorf("delete parameter: %w", err)
	}
	if result.RowsAffected() == 0 {
		return params.ErrParamNotFound
	}
	return nil
}
