package emotion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStyleFor_KnownLabels(t *testing.T) {
	assert.Equal(t, "bright, vibrant, warm lighting, happy atmosphere", StyleFor(Joy))
	assert.Equal(t, "rain, dark blue tones, cinematic, gloomy, lonely", StyleFor(Sadness))
	assert.Equal(t, "misty, horror, dark, cold tones, mysterious", StyleFor(Fear))
	assert.Equal(t, "romantic, soft focus, pink and red tones, dreamy", StyleFor(Love))
	assert.Equal(t, "intense, red, fire, high contrast, dramatic", StyleFor(Anger))
	assert.Equal(t, "surreal, wide angle, dramatic lighting", StyleFor(Surprise))
	assert.Equal(t, "cinematic, photorealistic, balanced lighting", StyleFor(Neutral))
}

func TestStyleFor_UnknownLabelFallsBack(t *testing.T) {
	assert.Equal(t, "cinematic", StyleFor(Label("boredom")))
	assert.Equal(t, "cinematic", StyleFor(Label("")))
}

func TestPromptFor(t *testing.T) {
	got := PromptFor("a sunny day at the beach", Joy)
	assert.Equal(t,
		"a sunny day at the beach, bright, vibrant, warm lighting, happy atmosphere, 8k, highly detailed, masterpiece, movie scene",
		got)
}
