package report

import (
	"bytes"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ironsheep/vision-lab/internal/detection"
	"github.com/ironsheep/vision-lab/internal/imaging"
	"github.com/ironsheep/vision-lab/internal/monitor"
)

func capstoneReport() *Report {
	return &Report{
		Title:     "Capstone",
		Input:     "street_scene.jpg",
		InputInfo: imaging.Info{Width: 1920, Height: 1080, Channels: 3, Format: "jpeg"},
		Processed: image.Pt(800, 450),
		Categories: []CategorySummary{
			{
				Category: detection.CategoryPerson, Label: "Person", Method: "HOG",
				Detections: []detection.Detection{
					{Category: detection.CategoryPerson, Box: image.Rect(10, 20, 60, 140)},
					{Category: detection.CategoryPerson, Box: image.Rect(100, 20, 150, 140)},
					{Category: detection.CategoryPerson, Box: image.Rect(200, 20, 250, 140)},
				},
				Elapsed: 245 * time.Millisecond,
			},
			{
				Category: detection.CategoryCar, Label: "Car", Method: "Haar Cascade",
				Detections: []detection.Detection{
					{Category: detection.CategoryCar, Box: image.Rect(300, 200, 400, 260), Confidence: 0.91, Scored: true},
					{Category: detection.CategoryCar, Box: image.Rect(420, 200, 520, 260)},
					{Category: detection.CategoryCar, Box: image.Rect(540, 200, 640, 260)},
					{Category: detection.CategoryCar, Box: image.Rect(660, 200, 760, 260)},
					{Category: detection.CategoryCar, Box: image.Rect(10, 300, 110, 360)},
				},
				Elapsed: 180 * time.Millisecond,
			},
		},
		Stages: []Stage{{Name: "Load", Elapsed: 12 * time.Millisecond}},
		Total:  time.Second,
		MemoryBefore: &monitor.MemoryStat{Used: 1288490189},
		MemoryAfter:  &monitor.MemoryStat{Used: 1610612736},
		Resources: &monitor.ResourceSample{
			CPUPercent: 67.5,
			Memory:     monitor.MemoryStat{Total: 4 << 30, Used: 1610612736, UsedPercent: 37.5},
			Board:      monitor.BoardSample{Reason: "tegrastats: executable file not found in $PATH"},
		},
		Output:      "capstone_output.jpg",
		OutputBytes: 123456,
		BoxesDrawn:  8,
	}
}

func TestRender_Capstone(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, capstoneReport(), Options{}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"===== DETECTION RESULTS =====",
		"Persons Detected: 3\n",
		"Cars Detected: 5\n",
		"Total Objects: 8\n",
		"===== PERFORMANCE METRICS =====",
		"Person Detection Time: 0.245 seconds",
		"Car Detection Time: 0.180 seconds",
		"Total Detection Time: 0.425 seconds",
		"===== SYSTEM RESOURCES =====",
		"CPU Usage: 67.5%",
		"Memory Before: 1.20 GB",
		"Memory After: 1.50 GB",
		"Memory Used: 0.30 GB",
		"not collected (tegrastats: executable file not found in $PATH)",
		"capstone_output.jpg",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("color codes present with Color disabled")
	}
	if strings.Contains(out, "DETECTION DETAILS") {
		t.Error("details rendered without Details option")
	}
}

func TestRender_SectionOrder(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, capstoneReport(), Options{Details: true}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	order := []string{"DETECTION RESULTS", "DETECTION DETAILS", "PERFORMANCE METRICS", "SYSTEM RESOURCES", "OUTPUT"}
	last := -1
	for _, s := range order {
		i := strings.Index(out, "===== "+s+" =====")
		if i < 0 || i < last {
			t.Fatalf("section %q out of order in\n%s", s, out)
		}
		last = i
	}
	if !strings.Contains(out, "Car #1: x=300, y=200, w=100, h=60, confidence=0.91") {
		t.Errorf("details missing scored car:\n%s", out)
	}
}

func TestRender_BoardTableAndAlerts(t *testing.T) {
	stats, err := monitor.ParseTegrastats("RAM 2143/3964MB SWAP 0/1982MB CPU [14%@1479,off] GR3D_FREQ 12%@921 GPU@39C")
	if err != nil {
		t.Fatal(err)
	}
	r := capstoneReport()
	r.Resources.Board = monitor.BoardSample{Available: true, Stats: stats}
	r.Alerts = []monitor.Alert{{Resource: "cpu", Message: "CPU usage 95.0% exceeds 90%"}}

	var buf bytes.Buffer
	if err := Render(&buf, r, Options{}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"2143 / 3964 MB", "14% @ 1479 MHz", "CPU1", "12% @ 921 MHz", "GPU temp", "===== ALERTS =====", "CPU usage 95.0% exceeds 90%"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q\n%s", want, out)
		}
	}
}

func TestRender_MonitoringDisabled(t *testing.T) {
	r := &Report{Categories: []CategorySummary{{Category: detection.CategoryFace, Method: "Haar Cascade",
		Detections: []detection.Detection{{}, {}}}}}
	var buf bytes.Buffer
	if err := Render(&buf, r, Options{}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Faces Detected: 2") || !strings.Contains(buf.String(), "Resource monitoring: disabled") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "capstone_report.txt")
	if err := WriteFile(path, capstoneReport(), Options{Color: true}); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Total Objects: 8") {
		t.Error("report file missing totals")
	}
	if strings.Contains(string(data), "\x1b[") {
		t.Error("report file must not contain color codes")
	}
}

func TestRenderBatch(t *testing.T) {
	s := &BatchSummary{
		Dir:     "photos",
		Methods: []string{"HOG", "Haar Cascade"},
		Items: []BatchItem{
			{Input: "a.jpg", Report: capstoneReport()},
			{Input: "b.jpg", Err: errors.New("image could not be decoded")},
		},
		Elapsed: 2 * time.Second,
	}
	var buf bytes.Buffer
	if err := RenderBatch(&buf, s, Options{}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"a.jpg", "b.jpg", "PERSONS", "CARS", "failed: image could not be decoded", "1 of 2 images failed", "Methods: HOG, Haar Cascade"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q\n%s", want, out)
		}
	}
}

func TestRenderComparison(t *testing.T) {
	runs := []MethodRun{
		{Method: "Haar Cascade", Count: 2, Elapsed: 30 * time.Millisecond},
		{Method: "HOG", Count: 3, Elapsed: 120 * time.Millisecond},
		{Method: "dlib HOG", Err: errors.New("unavailable")},
	}
	var buf bytes.Buffer
	if err := RenderComparison(&buf, "image.jpg", runs, Options{}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "Fastest method: Haar Cascade (0.030 seconds)") {
		t.Errorf("fastest line missing:\n%s", out)
	}
	if !strings.Contains(out, "ONNX (YOLO)") {
		t.Error("trait table missing")
	}
}

func TestRenderSweep(t *testing.T) {
	runs := []VariantRun{
		{Name: "400px", Processed: image.Pt(400, 225), Objects: 3, Elapsed: 40 * time.Millisecond},
		{Name: "800px", Processed: image.Pt(800, 450), Objects: 5, Elapsed: 150 * time.Millisecond},
	}
	var buf bytes.Buffer
	if err := RenderSweep(&buf, "street_scene.jpg", runs, Options{}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"PREPROCESSING COMPARISON", "400x225", "800x450", "Fastest variant: 400px (0.040 seconds, 3 objects)"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q\n%s", want, out)
		}
	}
}

func TestStatus(t *testing.T) {
	var buf bytes.Buffer
	Status(&buf, false, StatusError, "Image not found")
	if got := buf.String(); got != "❌ Image not found\n" {
		t.Errorf("Status = %q", got)
	}
}
