// Package insight produces short AI commentary for a dataset summary.
package insight

import (
	"context"
	"time"

	"github.com/likhith1253/chemicalanalyzer/internal/dataset/entity"
)

const DefaultModel = "gemini-2.5-flash"

type textGenerator interface {
	GenerateText(ctx context.Context, model, prompt string) (string, error)
}

// Generator turns a dataset into an entity.Insight using a text model.
type Generator struct {
	client  textGenerator
	model   string
	timeout time.Duration
}

func NewGenerator(client *Client, model string, timeout time.Duration) *Generator {
	return newGenerator(client, model, timeout)
}

func newGenerator(client textGenerator, model string, timeout time.Duration) *Generator {
	if model == "" {
		model = DefaultModel
	}
	return &Generator{client: client, model: model, timeout: timeout}
}

func (g *Generator) Generate(ctx context.Context, ds entity.Dataset) (entity.Insight, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	text, err := g.client.GenerateText(ctx, g.model, BuildPrompt(ds.Summary))
	if err != nil {
		return entity.Insight{}, err
	}

	return entity.Insight{DatasetID: ds.ID, Text: text, Model: g.model}, nil
}
