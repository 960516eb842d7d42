package emotion

// styleTable pairs each label with the prompt fragment steering the
// image model toward a matching atmosphere.
var styleTable = map[Label]string{
	Joy:      "bright, vibrant, warm lighting, happy atmosphere",
	Sadness:  "rain, dark blue tones, cinematic, gloomy, lonely",
	Fear:     "misty, horror, dark, cold tones, mysterious",
	Love:     "romantic, soft focus, pink and red tones, dreamy",
	Anger:    "intense, red, fire, high contrast, dramatic",
	Surprise: "surreal, wide angle, dramatic lighting",
	Neutral:  "cinematic, photorealistic, balanced lighting",
}

const fallbackStyle = "cinematic"

const qualitySuffix = "8k, highly detailed, masterpiece, movie scene"

// StyleFor returns the style phrase for a label, or the generic
// cinematic fallback for anything outside the table.
func StyleFor(label Label) string {
	if style, ok := styleTable[label]; ok {
		return style
	}
	return fallbackStyle
}

// PromptFor composes the full text-to-image prompt from the story, the
// label's style phrase and the fixed quality tokens.
func PromptFor(text string, label Label) string {
	return text + ", " + StyleFor(label) + ", " + qualitySuffix
}
