package detection

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/multierr"
)

var runtimeMu sync.Mutex

// ensureRuntime loads the onnxruntime shared library once per process. A failed
// attempt is not remembered, so a later call with a corrected path can succeed.
func ensureRuntime(library string) error {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}
	if library != "" {
		ort.SetSharedLibraryPath(library)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize onnxruntime: %w", err)
	}
	return nil
}

type onnxDetector struct {
	mu       sync.Mutex
	category Category
	params   ONNXParams
	layout   yoloLayout
	session  *ort.AdvancedSession
	input    *ort.Tensor[float32]
	output   *ort.Tensor[float32]
}

func openONNX(cat Category, p ONNXParams) (Detector, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(p.Model)
	if err != nil {
		return nil, modelError(MethodONNX, p.Model, err)
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return nil, modelError(MethodONNX, p.Model,
			fmt.Errorf("want 1 input and 1 output, model has %d and %d", len(inputs), len(outputs)))
	}

	inDims := inputs[0].Dimensions
	if len(inDims) != 4 || inDims[1] != 3 {
		return nil, modelError(MethodONNX, p.Model, fmt.Errorf("unsupported input shape %v", inDims))
	}
	if inDims[2] > 0 {
		p.InputSize = int(inDims[2])
	}

	outDims := outputs[0].Dimensions
	if len(outDims) != 3 || outDims[1] < 5 {
		return nil, modelError(MethodONNX, p.Model, fmt.Errorf("unsupported output shape %v", outDims))
	}
	layout := yoloLayout{channels: int(outDims[1]), anchors: int(outDims[2])}
	if layout.anchors <= 0 {
		layout.anchors = anchorsFor(p.InputSize)
	}
	if 4+p.ClassIndex >= layout.channels {
		return nil, modelError(MethodONNX, p.Model,
			fmt.Errorf("class index %d out of range for %d classes", p.ClassIndex, layout.channels-4))
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("error creating session options: %w", err)
	}
	defer options.Destroy()
	if err := options.SetIntraOpNumThreads(p.Threads); err != nil {
		return nil, fmt.Errorf("error setting thread count: %w", err)
	}

	size := int64(p.InputSize)
	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, size, size))
	if err != nil {
		return nil, fmt.Errorf("error creating input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(layout.channels), int64(layout.anchors)))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("error creating output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(p.Model,
		[]string{inputs[0].Name}, []string{outputs[0].Name},
		[]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output},
		options)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, modelError(MethodONNX, p.Model, err)
	}

	return &onnxDetector{
		category: cat,
		params:   p,
		layout:   layout,
		session:  session,
		input:    input,
		output:   output,
	}, nil
}

func (d *onnxDetector) Method() string { return MethodONNX }

func (d *onnxDetector) Detect(ctx context.Context, frame *Frame) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	fillInput(frame.Color, d.params.InputSize, d.input.GetData())
	if err := d.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx inference failed: %w", err)
	}
	return decodeYOLO(d.output.GetData(), d.layout, d.params, d.category, frame.Bounds()), nil
}

func (d *onnxDetector) Close() error {
	return multierr.Combine(d.session.Destroy(), d.input.Destroy(), d.output.Destroy())
}

// fillInput resizes img to size x size and writes it to dst in CHW order with
// RGB values scaled to [0,1].
func fillInput(img image.Image, size int, dst []float32) {
	resized := imaging.Resize(img, size, size, imaging.Linear)
	plane := size * size
	for y := 0; y < size; y++ {
		row := resized.Pix[y*resized.Stride:]
		for x := 0; x < size; x++ {
			i := y*size + x
			px := row[x*4 : x*4+3]
			dst[i] = float32(px[0]) / 255
			dst[plane+i] = float32(px[1]) / 255
			dst[2*plane+i] = float32(px[2]) / 255
		}
	}
}
