// Package pipeline sequences the story-to-video generation steps:
// classify the emotion, obtain a base image, normalize it and hand it to
// the video service.
package pipeline

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"dreamreel/internal/assets"
	"dreamreel/internal/emotion"
	"dreamreel/internal/media"
	"dreamreel/internal/media/sniffer"
)

// EmotionDetector yields the dominant mood of a story; it never fails,
// falling back to neutral instead.
type EmotionDetector interface {
	Detect(ctx context.Context, text string) emotion.Label
}

// ImageGenerator produces an image from a prompt.
type ImageGenerator interface {
	TextToImage(ctx context.Context, prompt, model string) ([]byte, error)
}

// VideoGenerator turns a normalized still into a video clip, returning
// the path of a temp file the caller takes ownership of.
type VideoGenerator interface {
	Generate(ctx context.Context, imagePath string) (string, error)
}

type Input struct {
	Text  string
	Image []byte
}

type Result struct {
	Emotion  emotion.Label
	VideoURL string
	ImageURL string
}

type Pipeline struct {
	classifier    EmotionDetector
	images        ImageGenerator
	videos        VideoGenerator
	store         *assets.Store
	queue         *redis.Client
	cleanupStream string
	imageModel    string
	log           zerolog.Logger
}

func New(classifier EmotionDetector, images ImageGenerator, videos VideoGenerator, store *assets.Store, queue *redis.Client, cleanupStream, imageModel string, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		classifier:    classifier,
		images:        images,
		videos:        videos,
		store:         store,
		queue:         queue,
		cleanupStream: cleanupStream,
		imageModel:    imageModel,
		log:           log,
	}
}

// Run executes the linear pipeline. Any step failure aborts the whole
// request; files written before the failure stay on disk for the sweeper.
func (p *Pipeline) Run(ctx context.Context, input Input) (Result, error) {
	if input.Text == "" && len(input.Image) == 0 {
		return Result{}, newError(KindValidation, "either text or an image is required", nil)
	}

	label := p.classifier.Detect(ctx, input.Text)
	p.log.Info().Str("emotion", string(label)).Msg("emotion detected")

	baseName, uploaded, err := p.obtainBaseImage(ctx, input, label)
	if err != nil {
		return Result{}, err
	}

	resizedName, err := p.normalize(baseName, uploaded)
	if err != nil {
		return Result{}, err
	}

	p.log.Info().Str("asset", resizedName).Msg("submitting to video service")
	tmpVideo, err := p.videos.Generate(ctx, p.store.Path(resizedName))
	if err != nil {
		return Result{}, newError(KindRemote, "generate video", err)
	}

	videoName, err := p.store.MoveIn(assets.PrefixDream, "mp4", tmpVideo)
	if err != nil {
		return Result{}, newError(KindIO, "store video", err)
	}
	p.log.Info().Str("asset", videoName).Msg("video stored")

	p.enqueueIntermediateCleanup(ctx, resizedName)

	return Result{
		Emotion:  label,
		VideoURL: p.store.URLFor(videoName),
		ImageURL: p.store.URLFor(baseName),
	}, nil
}

// obtainBaseImage persists the upload verbatim when one is present;
// otherwise it prompts the image model. The two paths are mutually
// exclusive.
func (p *Pipeline) obtainBaseImage(ctx context.Context, input Input, label emotion.Label) (name string, uploaded bool, err error) {
	if len(input.Image) > 0 {
		ext := "png"
		if detected, serr := sniffer.DetectHead(head(input.Image)); serr == nil {
			ext = detected.Ext
		}
		name, err := p.store.Save(assets.PrefixUpload, ext, input.Image)
		if err != nil {
			return "", false, newError(KindIO, "store upload", err)
		}
		return name, true, nil
	}

	prompt := emotion.PromptFor(input.Text, label)
	p.log.Info().Str("prompt", prompt).Msg("generating base image")

	data, err := p.images.TextToImage(ctx, prompt, p.imageModel)
	if err != nil {
		return "", false, newError(KindRemote, "generate image", err)
	}

	name, err = p.store.Save(assets.PrefixGen, "png", data)
	if err != nil {
		return "", false, newError(KindIO, "store generated image", err)
	}
	return name, false, nil
}

func (p *Pipeline) normalize(baseName string, uploaded bool) (string, error) {
	f, err := p.store.Open(baseName)
	if err != nil {
		return "", newError(KindIO, "open base image", err)
	}
	defer f.Close()

	data, err := media.Normalize(f)
	if err != nil {
		// A corrupt upload is the caller's fault; a garbage response
		// from the image model is not.
		kind := KindRemote
		if uploaded {
			kind = KindValidation
		}
		return "", newError(kind, "normalize image", err)
	}

	name, err := p.store.Save(assets.PrefixResized, "jpg", data)
	if err != nil {
		return "", newError(KindIO, "store normalized image", err)
	}
	return name, nil
}

// enqueueIntermediateCleanup hands the resized working file to the
// cleanup worker. Best effort: a missing queue or a failed XAdd never
// fails the request.
func (p *Pipeline) enqueueIntermediateCleanup(ctx context.Context, names ...string) {
	if p.queue == nil || len(names) == 0 {
		return
	}
	for _, name := range names {
		if _, err := p.queue.XAdd(ctx, &redis.XAddArgs{
			Stream: p.cleanupStream,
			Values: map[string]any{"type": "intermediates", "asset": name},
		}).Result(); err != nil {
			p.log.Warn().Err(err).Str("asset", name).Msg("enqueue cleanup failed")
		}
	}
}

func head(data []byte) []byte {
	if len(data) > 512 {
		return data[:512]
	}
	return data
}
