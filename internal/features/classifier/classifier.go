package classifier

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	"golang.org/x/image/draw"

	"github.com/xyz-asif/roadwatch/internal/features/media"
	"github.com/xyz-asif/roadwatch/internal/pkg/logger"
	"github.com/xyz-asif/roadwatch/internal/pkg/metrics"
)

// Model input shape
const (
	InputSize     = 224
	InputChannels = 3
)

// Tensor is one normalised RGB image laid out as [batch][height][width][channel]
type Tensor [1][InputSize][InputSize][InputChannels]float32

// Model runs one forward pass and returns the probability that the image shows road damage
type Model interface {
	Predict(ctx context.Context, input *Tensor) (float32, error)
}

var ErrNoModel = errors.New("no classifier model configured")

// NopModel always fails so every verdict is unknown
type NopModel struct{}

func (NopModel) Predict(context.Context, *Tensor) (float32, error) {
	return 0, ErrNoModel
}

type Verdict string

const (
	Accept  Verdict = "accept"
	Reject  Verdict = "reject"
	Unknown Verdict = "unknown"
)

// RejectWarning is attached to a draft whose photo the model rejected. The photo is kept.
const RejectWarning = "The uploaded image does not appear to contain a pothole. Please upload a clear image of the road damage."

// Gate turns a model score into an advisory verdict
type Gate struct {
	Model     Model
	Threshold float32
	Timeout   time.Duration
	Log       *logger.Logger
}

func NewGate(model Model, threshold float64, timeout time.Duration) *Gate {
	if model == nil {
		model = NopModel{}
	}
	return &Gate{
		Model:     model,
		Threshold: float32(threshold),
		Timeout:   timeout,
		Log:       logger.Default().Named("classifier"),
	}
}

// Classify never fails. Any error along the way is logged and becomes Unknown.
func (g *Gate) Classify(ctx context.Context, img *media.Image) Verdict {
	verdict, err := g.classify(ctx, img)
	if err != nil {
		g.Log.Warn("classification failed, verdict unknown: %v", err)
		verdict = Unknown
	}
	metrics.ClassifierVerdicts.WithLabelValues(string(verdict)).Inc()
	return verdict
}

func (g *Gate) classify(ctx context.Context, img *media.Image) (v Verdict, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = Unknown, fmt.Errorf("model panicked: %v", r)
		}
	}()

	if img == nil || img.Decoded == nil {
		return Unknown, errors.New("no decoded image")
	}

	input, err := ToTensor(img.Decoded)
	if err != nil {
		return Unknown, err
	}

	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	score, err := g.Model.Predict(ctx, input)
	if err != nil {
		return Unknown, err
	}
	if math.IsNaN(float64(score)) || score < 0 || score > 1 {
		return Unknown, fmt.Errorf("score %v outside [0,1]", score)
	}

	if score >= g.Threshold {
		return Accept, nil
	}
	return Reject, nil
}

// ToTensor resizes src to 224x224 with bilinear interpolation and scales channels to [0,1]
func ToTensor(src image.Image) (*Tensor, error) {
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, errors.New("image has no pixels")
	}

	dst := image.NewRGBA(image.Rect(0, 0, InputSize, InputSize))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)

	t := new(Tensor)
	for y := 0; y < InputSize; y++ {
		for x := 0; x < InputSize; x++ {
			i := dst.PixOffset(x, y)
			t[0][y][x][0] = float32(dst.Pix[i]) / 255
			t[0][y][x][1] = float32(dst.Pix[i+1]) / 255
			t[0][y][x][2] = float32(dst.Pix[i+2]) / 255
		}
	}
	return t, nil
}
