// Package emotion maps user stories onto a small closed set of mood
// labels and the visual style each one implies.
package emotion

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"dreamreel/internal/inference"
)

type Label string

const (
	Joy      Label = "joy"
	Sadness  Label = "sadness"
	Fear     Label = "fear"
	Love     Label = "love"
	Anger    Label = "anger"
	Surprise Label = "surprise"
	Neutral  Label = "neutral"
)

var known = map[Label]struct{}{
	Joy: {}, Sadness: {}, Fear: {}, Love: {}, Anger: {}, Surprise: {}, Neutral: {},
}

// classificationAPI is the slice of the inference client the classifier
// needs; tests substitute it.
type classificationAPI interface {
	TextClassification(ctx context.Context, text, model string) ([]inference.Classification, error)
}

type Classifier struct {
	api   classificationAPI
	model string
	log   zerolog.Logger
}

func NewClassifier(api classificationAPI, model string, log zerolog.Logger) *Classifier {
	return &Classifier{api: api, model: model, log: log}
}

// Detect returns the dominant emotion of the text. Empty text and every
// remote failure resolve to Neutral; classification is advisory and must
// never fail the request.
func (c *Classifier) Detect(ctx context.Context, text string) Label {
	if strings.TrimSpace(text) == "" {
		return Neutral
	}

	results, err := c.api.TextClassification(ctx, text, c.model)
	if err != nil {
		c.log.Warn().Err(err).Msg("emotion classification failed, defaulting to neutral")
		return Neutral
	}
	if len(results) == 0 {
		return Neutral
	}

	top := results[0]
	for _, r := range results[1:] {
		if r.Score > top.Score {
			top = r
		}
	}

	label := Label(strings.ToLower(top.Label))
	if _, ok := known[label]; !ok {
		return Neutral
	}
	return label
}
