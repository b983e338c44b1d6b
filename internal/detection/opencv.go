//go:build opencv

package detection

import (
	"context"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

const opencvCompiled = true

func grayMat(frame *Frame) (gocv.Mat, error) {
	if frame.Gray == nil {
		return gocv.NewMat(), fmt.Errorf("frame has no grayscale image")
	}
	return gocv.ImageGrayToMatGray(frame.Gray)
}

type cascadeDetector struct {
	mu         sync.Mutex
	category   Category
	params     CascadeParams
	classifier gocv.CascadeClassifier
}

func openCascade(cat Category, p CascadeParams) (Detector, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(p.Model) {
		classifier.Close()
		return nil, modelError(MethodHaar, p.Model, fmt.Errorf("OpenCV rejected the cascade"))
	}
	return &cascadeDetector{category: cat, params: p, classifier: classifier}, nil
}

func (d *cascadeDetector) Method() string { return MethodHaar }

func (d *cascadeDetector) Detect(ctx context.Context, frame *Frame) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mat, err := grayMat(frame)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	minSize := image.Pt(d.params.MinSize, d.params.MinSize)
	maxSize := image.Pt(d.params.MaxSize, d.params.MaxSize)

	d.mu.Lock()
	rects := d.classifier.DetectMultiScaleWithParams(mat, d.params.ScaleFactor, d.params.MinNeighbors, 0, minSize, maxSize)
	d.mu.Unlock()

	return newDetections(d.category, rects, frame.Bounds()), nil
}

func (d *cascadeDetector) Close() error {
	return d.classifier.Close()
}

type hogDetector struct {
	mu       sync.Mutex
	category Category
	params   HOGParams
	hog      gocv.HOGDescriptor
}

func openHOG(cat Category, p HOGParams) (Detector, error) {
	hog := gocv.NewHOGDescriptor()
	svm := gocv.HOGDefaultPeopleDetector()
	defer svm.Close()
	if err := hog.SetSVMDetector(svm); err != nil {
		hog.Close()
		return nil, modelError(MethodHOG, "default people detector", err)
	}
	return &hogDetector{category: cat, params: p, hog: hog}, nil
}

func (d *hogDetector) Method() string { return MethodHOG }

func (d *hogDetector) Detect(ctx context.Context, frame *Frame) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mat, err := grayMat(frame)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	stride := image.Pt(d.params.WinStride, d.params.WinStride)
	padding := image.Pt(d.params.Padding, d.params.Padding)

	d.mu.Lock()
	rects := d.hog.DetectMultiScaleWithParams(mat, d.params.HitThreshold, stride, padding,
		d.params.ScaleFactor, d.params.FinalThreshold, d.params.MeanShift)
	d.mu.Unlock()

	return newDetections(d.category, rects, frame.Bounds()), nil
}

func (d *hogDetector) Close() error {
	return d.hog.Close()
}

type dnnDetector struct {
	mu       sync.Mutex
	category Category
	params   DNNParams
	net      gocv.Net
}

func openDNN(cat Category, p DNNParams) (Detector, error) {
	net := gocv.ReadNet(p.Model, p.Config)
	if net.Empty() {
		net.Close()
		return nil, modelError(MethodDNN, p.Model, fmt.Errorf("OpenCV could not read the network"))
	}
	return &dnnDetector{category: cat, params: p, net: net}, nil
}

func (d *dnnDetector) Method() string { return MethodDNN }

func (d *dnnDetector) Detect(ctx context.Context, frame *Frame) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mat, err := gocv.ImageToMatRGB(frame.Color)
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame: %w", err)
	}
	defer mat.Close()

	p := d.params
	blob := gocv.BlobFromImage(mat, p.ScaleFactor, image.Pt(p.InputSize, p.InputSize),
		gocv.NewScalar(p.Mean[0], p.Mean[1], p.Mean[2], 0), p.SwapRB, false)
	defer blob.Close()

	d.mu.Lock()
	d.net.SetInput(blob, "")
	prob := d.net.Forward("")
	d.mu.Unlock()
	defer prob.Close()

	data, err := prob.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read network output: %w", err)
	}
	return decodeSSD(data, d.category, p.ClassID, p.Confidence, frame.Bounds()), nil
}

func (d *dnnDetector) Close() error {
	return d.net.Close()
}
