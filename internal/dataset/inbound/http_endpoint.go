package inbound

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/likhith1253/chemicalanalyzer/internal/dataset/usecase"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgauth"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgerror"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgrouter"
)

// multipart framing allowance on top of the file limit
const multipartOverhead = 64 << 10

type HTTPEndpoint struct {
	uc             uc
	maxUploadBytes int64
}

func (h *HTTPEndpoint) Upload(ctx context.Context, r *http.Request) (any, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, h.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		return nil, h.multipartErr(err)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, pkgerror.NewBusiness("no file uploaded", pkgerror.CodeInvalidFormat)
		}
		return nil, pkgerror.NewInvalidFormat()
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		return nil, pkgerror.NewBusiness("only CSV files are allowed", pkgerror.CodeInvalidFormat)
	}
	if header.Size > h.maxUploadBytes {
		return nil, h.tooLarge()
	}

	p, _ := pkgauth.FromContext(ctx)
	result, err := h.uc.Upload(ctx, usecase.UploadInput{
		Owner:     p.UserID,
		OwnerName: p.Username,
		Name:      r.FormValue("name"),
		Filename:  header.Filename,
		Content:   file,
	})
	if err != nil {
		return nil, err
	}

	return UploadResponse{
		DatasetDetail: toDetail(result.Dataset),
		RejectedCount: result.Dataset.RejectedCount,
	}, nil
}

func (h *HTTPEndpoint) List(ctx context.Context, r *http.Request) (any, error) {
	p, _ := pkgauth.FromContext(ctx)

	result, err := h.uc.List(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	out := make(DatasetListResponse, 0, len(result.Datasets))
	for _, ds := range result.Datasets {
		out = append(out, toSummary(ds))
	}

	return out, nil
}

func (h *HTTPEndpoint) Detail(ctx context.Context, r *http.Request) (any, error) {
	id, err := datasetID(ctx)
	if err != nil {
		return nil, err
	}
	p, _ := pkgauth.FromContext(ctx)

	ds, err := h.uc.Get(ctx, p.UserID, id)
	if err != nil {
		return nil, err
	}

	return toDetail(ds), nil
}

func (h *HTTPEndpoint) Delete(ctx context.Context, r *http.Request) (any, error) {
	id, err := datasetID(ctx)
	if err != nil {
		return nil, err
	}
	p, _ := pkgauth.FromContext(ctx)

	if err := h.uc.Delete(ctx, p.UserID, id); err != nil {
		return nil, err
	}

	return DeletedResponse{}, nil
}

func (h *HTTPEndpoint) Report(ctx context.Context, r *http.Request) (any, error) {
	id, err := datasetID(ctx)
	if err != nil {
		return nil, err
	}
	p, _ := pkgauth.FromContext(ctx)

	result, err := h.uc.Report(ctx, p.UserID, id)
	if err != nil {
		return nil, err
	}

	return ReportResponse{filename: result.Filename, content: result.Content}, nil
}

func (h *HTTPEndpoint) Original(ctx context.Context, r *http.Request) (any, error) {
	id, err := datasetID(ctx)
	if err != nil {
		return nil, err
	}
	p, _ := pkgauth.FromContext(ctx)

	result, err := h.uc.Original(ctx, p.UserID, id)
	if err != nil {
		return nil, err
	}

	return CSVResponse{filename: result.Filename, content: result.Content}, nil
}

func (h *HTTPEndpoint) Insights(ctx context.Context, r *http.Request) (any, error) {
	id, err := datasetID(ctx)
	if err != nil {
		return nil, err
	}
	p, _ := pkgauth.FromContext(ctx)

	result, err := h.uc.Insights(ctx, p.UserID, id)
	if err != nil {
		return nil, err
	}

	return InsightResponse{
		DatasetID: strconv.FormatInt(result.DatasetID, 10),
		Insights:  result.Text,
		Cached:    result.Cached,
	}, nil
}

func (h *HTTPEndpoint) multipartErr(err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return h.tooLarge()
	case errors.Is(err, http.ErrNotMultipart):
		return pkgerror.NewBusiness("request must be multipart/form-data", pkgerror.CodeInvalidFormat)
	default:
		return pkgerror.NewInvalidFormat()
	}
}

func (h *HTTPEndpoint) tooLarge() error {
	return pkgerror.NewBusiness(
		fmt.Sprintf("file size must be less than %dMB", h.maxUploadBytes>>20),
		pkgerror.CodeTooLarge,
	)
}

func datasetID(ctx context.Context) (int64, error) {
	id, ok := pkgrouter.GetParamInt64(ctx, "id")
	if !ok {
		return 0, pkgerror.NewBusiness("dataset not found", pkgerror.CodeNotFound)
	}
	return id, nil
}
