package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/likhith1253/chemicalanalyzer/internal/dataset/entity"
	"github.com/likhith1253/chemicalanalyzer/internal/dataset/usecase"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgerror"
)

// SQLStore persists datasets through sqlx. Row slices and the type
// distribution are stored as JSON text so one schema serves sqlite and
// postgres.
type SQLStore struct {
	db *sqlx.DB
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

type datasetRow struct {
	ID               int64           `db:"id"`
	Name             string          `db:"name"`
	OriginalFilename string          `db:"original_filename"`
	UploadedBy       int64           `db:"uploaded_by"`
	UploaderName     string          `db:"uploader_name"`
	UploadedAt       int64           `db:"uploaded_at"`
	TotalCount       int             `db:"total_count"`
	RejectedCount    int             `db:"rejected_count"`
	AvgFlowrate      sql.NullFloat64 `db:"avg_flowrate"`
	AvgPressure      sql.NullFloat64 `db:"avg_pressure"`
	AvgTemperature   sql.NullFloat64 `db:"avg_temperature"`
	TypeDistribution string          `db:"type_distribution"`
	PreviewRows      string          `db:"preview_rows"`
	FullRows         string          `db:"full_rows"`
	RawPath          string          `db:"raw_path"`
}

const summaryColumns = `id, name, original_filename, uploaded_by, uploader_name, uploaded_at, total_count, rejected_count,
	avg_flowrate, avg_pressure, avg_temperature, type_distribution, preview_rows, raw_path`

func (s *SQLStore) Create(ctx context.Context, ds entity.Dataset) error {
	row, err := toRow(ds)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create dataset: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.NamedExecContext(ctx, `INSERT INTO datasets (
		id, name, original_filename, uploaded_by, uploader_name, uploaded_at, total_count, rejected_count,
		avg_flowrate, avg_pressure, avg_temperature, type_distribution, preview_rows, full_rows, raw_path
	) VALUES (
		:id, :name, :original_filename, :uploaded_by, :uploader_name, :uploaded_at, :total_count, :rejected_count,
		:avg_flowrate, :avg_pressure, :avg_temperature, :type_distribution, :preview_rows, :full_rows, :raw_path
	)`, row)
	if err != nil {
		if isUniqueViolation(err) {
			return pkgerror.NewBusiness("dataset already exists", pkgerror.CodeConflict)
		}
		return fmt.Errorf("insert dataset: %w", err)
	}

	return tx.Commit()
}

// List returns datasets without FullRows.
func (s *SQLStore) List(ctx context.Context, q usecase.ListQuery) ([]entity.Dataset, error) {
	var (
		where string
		args  []any
	)
	if !q.AllOwners {
		where = "WHERE uploaded_by = ?"
		args = append(args, q.OwnerID)
	}

	query := fmt.Sprintf(`SELECT %s FROM datasets %s ORDER BY uploaded_at DESC, id DESC`, summaryColumns, where)
	switch {
	case q.Limit > 0:
		query += " LIMIT ?"
		args = append(args, q.Limit)
	case q.Offset > 0:
		// sqlite does not accept OFFSET without LIMIT
		query += " LIMIT ?"
		args = append(args, int64(1)<<62)
	}
	if q.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, q.Offset)
	}

	var rows []datasetRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}

	out := make([]entity.Dataset, 0, len(rows))
	for _, row := range rows {
		ds, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, ds)
	}

	return out, nil
}

func (s *SQLStore) Get(ctx context.Context, id int64) (entity.Dataset, error) {
	var row datasetRow
	query := s.db.Rebind(`SELECT ` + summaryColumns + `, full_rows FROM datasets WHERE id = ?`)
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Dataset{}, pkgerror.ErrNotFound
		}
		return entity.Dataset{}, fmt.Errorf("get dataset: %w", err)
	}

	return fromRow(row)
}

// Delete removes a dataset and its cached insight in one transaction.
func (s *SQLStore) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete dataset: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM dataset_insights WHERE dataset_id = ?`), id); err != nil {
		return fmt.Errorf("delete insight: %w", err)
	}

	res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM datasets WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return pkgerror.ErrNotFound
	}

	return tx.Commit()
}

type insightRow struct {
	DatasetID int64  `db:"dataset_id"`
	Body      string `db:"body"`
	Model     string `db:"model"`
	CreatedAt int64  `db:"created_at"`
}

// SaveInsight stores generated text. The first stored insight wins.
func (s *SQLStore) SaveInsight(ctx context.Context, in entity.Insight) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO dataset_insights (dataset_id, body, model, created_at)
		VALUES (:dataset_id, :body, :model, :created_at)
		ON CONFLICT (dataset_id) DO NOTHING`, insightRow{
		DatasetID: in.DatasetID,
		Body:      in.Text,
		Model:     in.Model,
		CreatedAt: in.CreatedAt.UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("save insight: %w", err)
	}
	return nil
}

func (s *SQLStore) GetInsight(ctx context.Context, datasetID int64) (entity.Insight, error) {
	var row insightRow
	query := s.db.Rebind(`SELECT dataset_id, body, model, created_at FROM dataset_insights WHERE dataset_id = ?`)
	if err := s.db.GetContext(ctx, &row, query, datasetID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Insight{}, pkgerror.ErrNotFound
		}
		return entity.Insight{}, fmt.Errorf("get insight: %w", err)
	}

	return entity.Insight{
		DatasetID: row.DatasetID,
		Text:      row.Body,
		Model:     row.Model,
		CreatedAt: time.Unix(0, row.CreatedAt).UTC(),
	}, nil
}

func toRow(ds entity.Dataset) (datasetRow, error) {
	dist := ds.TypeDistribution
	if dist == nil {
		dist = map[string]int{}
	}
	distJSON, err := json.Marshal(dist)
	if err != nil {
		return datasetRow{}, fmt.Errorf("encode type distribution: %w", err)
	}

	previewJSON, err := marshalRows(ds.PreviewRows)
	if err != nil {
		return datasetRow{}, err
	}
	fullJSON, err := marshalRows(ds.FullRows)
	if err != nil {
		return datasetRow{}, err
	}

	return datasetRow{
		ID:               ds.ID,
		Name:             ds.Name,
		OriginalFilename: ds.OriginalFilename,
		UploadedBy:       ds.UploadedBy,
		UploaderName:     ds.UploaderName,
		UploadedAt:       ds.UploadedAt.UnixNano(),
		TotalCount:       ds.TotalCount,
		RejectedCount:    ds.RejectedCount,
		AvgFlowrate:      nullFloat(ds.AvgFlowrate),
		AvgPressure:      nullFloat(ds.AvgPressure),
		AvgTemperature:   nullFloat(ds.AvgTemperature),
		TypeDistribution: string(distJSON),
		PreviewRows:      previewJSON,
		FullRows:         fullJSON,
		RawPath:          ds.RawPath,
	}, nil
}

func fromRow(row datasetRow) (entity.Dataset, error) {
	ds := entity.Dataset{
		ID:               row.ID,
		Name:             row.Name,
		OriginalFilename: row.OriginalFilename,
		UploadedBy:       row.UploadedBy,
		UploaderName:     row.UploaderName,
		UploadedAt:       time.Unix(0, row.UploadedAt).UTC(),
		RejectedCount:    row.RejectedCount,
		Summary: entity.Summary{
			TotalCount:     row.TotalCount,
			AvgFlowrate:    floatPtr(row.AvgFlowrate),
			AvgPressure:    floatPtr(row.AvgPressure),
			AvgTemperature: floatPtr(row.AvgTemperature),
		},
		RawPath: row.RawPath,
	}

	if err := json.Unmarshal([]byte(row.TypeDistribution), &ds.TypeDistribution); err != nil {
		return entity.Dataset{}, fmt.Errorf("decode type distribution of dataset %d: %w", row.ID, err)
	}
	if err := json.Unmarshal([]byte(row.PreviewRows), &ds.PreviewRows); err != nil {
		return entity.Dataset{}, fmt.Errorf("decode preview rows of dataset %d: %w", row.ID, err)
	}
	if row.FullRows != "" {
		if err := json.Unmarshal([]byte(row.FullRows), &ds.FullRows); err != nil {
			return entity.Dataset{}, fmt.Errorf("decode rows of dataset %d: %w", row.ID, err)
		}
	}

	return ds, nil
}

func marshalRows(rows []entity.EquipmentRow) (string, error) {
	if rows == nil {
		rows = []entity.EquipmentRow{}
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("encode rows: %w", err)
	}
	return string(b), nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
