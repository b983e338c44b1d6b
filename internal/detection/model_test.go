package detection

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeFile writes content to name inside a fresh temp dir and returns the path.
func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

const cascadeXML = `<?xml version="1.0"?>
<opencv_storage>
<cascade type_id="opencv-cascade-classifier"><stageType>BOOST</stageType>
  <featureType>HAAR</featureType>
  <height>24</height>
  <width>24</width>
</cascade>
</opencv_storage>
`

const legacyCascadeXML = `<?xml version="1.0"?>
<opencv_storage>
<cars3 type_id="opencv-haar-classifier">
  <size>40 40</size>
</cars3>
</opencv_storage>
`

func TestCheckCascade(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"current layout", cascadeXML, false},
		{"legacy layout", legacyCascadeXML, false},
		{"not xml", "definitely not xml <<<", true},
		{"wrong root", "<html><body/></html>", true},
		{"no cascade node", "<opencv_storage><other/></opencv_storage>", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkCascade(writeFile(t, "cascade.xml", []byte(tt.content)))
			if (err != nil) != tt.wantErr {
				t.Errorf("checkCascade() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheckCascade_Missing(t *testing.T) {
	err := checkCascade(filepath.Join(t.TempDir(), "haarcascade_frontalface_default.xml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
	if err := checkCascade(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestCheckONNX(t *testing.T) {
	if err := checkONNX(writeFile(t, "ok.onnx", []byte{0x08, 0x07, 0x12, 0x00})); err != nil {
		t.Errorf("valid header rejected: %v", err)
	}
	if err := checkONNX(writeFile(t, "bad.onnx", []byte("garbage"))); err == nil {
		t.Error("expected error for garbage model")
	}
	if err := checkONNX(writeFile(t, "empty.onnx", nil)); err == nil {
		t.Error("expected error for empty model")
	}
}

func TestCheckDir(t *testing.T) {
	dir := t.TempDir()
	if err := checkDir(dir); err != nil {
		t.Errorf("checkDir(%q) = %v", dir, err)
	}
	if err := checkDir(writeFile(t, "file", []byte("x"))); err == nil {
		t.Error("expected error for a regular file")
	}
}

func TestNewONNX_CorruptModel(t *testing.T) {
	path := writeFile(t, "yolov8n.onnx", []byte("not a protobuf"))

	_, err := NewONNX(CategoryCar, ONNXParams{Model: path})
	if !errors.Is(err, ErrModelLoad) {
		t.Fatalf("expected ErrModelLoad, got %v", err)
	}
	var mle *ModelLoadError
	if !errors.As(err, &mle) || mle.Method != MethodONNX {
		t.Errorf("unexpected error detail: %v", err)
	}
}

func TestNewONNX_MissingModel(t *testing.T) {
	_, err := NewONNX(CategoryFace, ONNXParams{Model: filepath.Join(t.TempDir(), "face.onnx")})
	if !errors.Is(err, ErrModelLoad) {
		t.Fatalf("expected ErrModelLoad, got %v", err)
	}
}
