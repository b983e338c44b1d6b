package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/ironsheep/vision-lab/internal/detection"
	"github.com/ironsheep/vision-lab/internal/imaging"
	"github.com/ironsheep/vision-lab/internal/monitor"
)

// Model files looked up relative to the working directory.
const (
	FaceCascade  = "haarcascade_frontalface_default.xml"
	CarCascade   = "cars.xml"
	FaceSSDProto = "deploy.prototxt"
	FaceSSDModel = "res10_300x300_ssd_iter_140000.caffemodel"
	DlibModelDir = "models"
	YOLOModel    = "yolov8n.onnx"
)

// COCO class indices used by the YOLO fallbacks.
const (
	cocoPerson = 0
	cocoCar    = 2
)

var presets = map[string]func() *Config{
	"assignment1": assignment1,
	"assignment2": assignment2,
	"assignment3": assignment3,
	"capstone":    capstone,
	"compare":     compare,
}

// Presets lists the built-in preset names in sorted order.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preset returns a fresh copy of the named built-in configuration.
func Preset(name string) (*Config, error) {
	build, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q (available: %v)", name, Presets())
	}
	return build(), nil
}

func base(name, input, output string) *Config {
	return &Config{
		Name:         name,
		Input:        input,
		Output:       output,
		MaxDimension: imaging.DefaultMaxDimension,
		JPEGQuality:  imaging.DefaultJPEGQuality,
		Monitor: Monitor{
			CPUInterval:        time.Second,
			Tegrastats:         true,
			TegrastatsDuration: 2 * time.Second,
		},
		Log:   Log{Level: "info"},
		Batch: Batch{Suffix: "detected", Workers: 1},
	}
}

func haarFace() Detector {
	return Detector{Method: MethodHaar, Cascade: &detection.CascadeParams{
		Model: FaceCascade, ScaleFactor: 1.1, MinNeighbors: 5, MinSize: 30,
	}}
}

func dlibFace() Detector {
	return Detector{Method: MethodDlib, Dlib: &detection.DlibParams{ModelDir: DlibModelDir}}
}

func dnnFace() Detector {
	return Detector{Method: MethodDNN, DNN: &detection.DNNParams{
		Model: FaceSSDModel, Config: FaceSSDProto,
		InputSize: 300, ScaleFactor: 1.0, Mean: [3]float64{104, 177, 123},
		ClassID: 1, Confidence: 0.5,
	}}
}

func yolo(class int) Detector {
	return Detector{Method: MethodONNX, ONNX: &detection.ONNXParams{
		Model: YOLOModel, InputSize: 640, ClassIndex: class, Confidence: 0.5, IoU: 0.45,
	}}
}

// assignment1 is the first face detection exercise: a Haar cascade with blue
// boxes and no monitoring.
func assignment1() *Config {
	c := base("assignment1", "image.jpg", "assignment1_face_detected.jpg")
	c.Targets = []Target{{
		Category:  string(detection.CategoryFace),
		Color:     "blue",
		Thickness: 2,
		Detectors: []Detector{haarFace()},
	}}
	c.Report.Title = "Assignment 1: Face Detection"
	return c
}

func assignment2() *Config {
	c := base("assignment2", "image.jpg", "assignment2_face_detected.jpg")
	c.Targets = []Target{{
		Category:  string(detection.CategoryFace),
		Color:     "green",
		Thickness: 2,
		Detectors: []Detector{haarFace()},
	}}
	c.Monitor.Enabled = true
	c.Report.Title = "Assignment 2: Face Detection with Monitoring"
	c.Report.Details = true
	return c
}

// assignment3 prefers the dlib HOG face detector and falls back to the SSD
// face network. The bundled YOLO model knows no face class, so it is not used
// for faces.
func assignment3() *Config {
	c := base("assignment3", "image.jpg", "assignment3_face_detected_hog.jpg")
	c.Targets = []Target{{
		Category:      string(detection.CategoryFace),
		Color:         "blue",
		Thickness:     2,
		MinConfidence: 0.5,
		Detectors:     []Detector{dlibFace(), dnnFace()},
	}}
	c.Overlay = Overlay{Header: true}
	c.Monitor.Enabled = true
	c.Report.Title = "Assignment 3: HOG Face Detection"
	c.Report.Details = true
	return c
}

// capstone detects people and cars in a street scene, draws the full overlay
// and writes the report and log files.
func capstone() *Config {
	c := base("capstone", "street_scene.jpg", "capstone_output.jpg")
	c.Targets = []Target{
		{
			Category:  string(detection.CategoryPerson),
			Color:     "green",
			Thickness: 2,
			Detectors: []Detector{
				{Method: MethodHOG, HOG: &detection.HOGParams{WinStride: 8, Padding: 8, ScaleFactor: 1.05, FinalThreshold: 2}},
				yolo(cocoPerson),
			},
		},
		{
			Category:  string(detection.CategoryCar),
			Color:     "blue",
			Thickness: 2,
			MinArea:   400,
			Detectors: []Detector{
				{Method: MethodHaar, Cascade: &detection.CascadeParams{
					Model: CarCascade, ScaleFactor: 1.1, MinNeighbors: 3, MinSize: 30,
				}},
				yolo(cocoCar),
			},
		},
	}
	c.Overlay = Overlay{Header: true, Timestamp: true, Legend: true}
	c.Monitor.Enabled = true
	c.Alerts = monitor.Thresholds{CPUPercent: 90, MemoryPercent: 90, TemperatureC: 80}
	c.Report = Report{Title: "Capstone: Person and Car Detection", File: "capstone_report.txt", Details: true}
	c.Log.File = "capstone_log.txt"
	return c
}

// compare runs each face method on its own for the method comparison.
func compare() *Config {
	c := base("compare", "image.jpg", "method_comparison.jpg")
	c.Targets = []Target{{
		Category:      string(detection.CategoryFace),
		Color:         "green",
		Thickness:     2,
		MinConfidence: 0.5,
		Detectors:     []Detector{haarFace(), dlibFace(), dnnFace()},
	}}
	c.Report.Title = "Face Detection Method Comparison"
	return c
}
