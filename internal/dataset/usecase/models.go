package usecase

import (
	"io"

	"github.com/likhith1253/chemicalanalyzer/internal/dataset/entity"
)

// ListQuery selects datasets most recent first.
//
// OwnerID scopes the query to one uploader unless AllOwners is set. Offset
// skips the newest rows; a zero Limit means no limit.
type ListQuery struct {
	OwnerID   int64
	AllOwners bool
	Limit     int
	Offset    int
}

type UploadInput struct {
	Owner     int64
	OwnerName string
	Name      string
	Filename  string
	Content   io.Reader
}

type UploadResult struct {
	Dataset entity.Dataset
}

type ListResult struct {
	Datasets []entity.Dataset
}

// FileResult is a download: the rendered PDF report or the original CSV.
type FileResult struct {
	Filename string
	Content  []byte
}

type InsightResult struct {
	DatasetID int64
	Text      string
	Cached    bool
}
