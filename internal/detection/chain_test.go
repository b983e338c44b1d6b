package detection

import (
	"context"
	"errors"
	"fmt"
	"image"
	"testing"
)

type fakeDetector struct {
	method string
	dets   []Detection
	calls  int
	closed bool
}

func (f *fakeDetector) Method() string { return f.method }

func (f *fakeDetector) Detect(ctx context.Context, frame *Frame) ([]Detection, error) {
	f.calls++
	return f.dets, nil
}

func (f *fakeDetector) Close() error {
	f.closed = true
	return nil
}

func okFactory(method string) (Factory, *fakeDetector) {
	det := &fakeDetector{method: method}
	return Factory{Method: method, Open: func() (Detector, error) { return det, nil }}, det
}

func failingFactory(method string, err error) (Factory, *int) {
	attempts := 0
	return Factory{Method: method, Open: func() (Detector, error) {
		attempts++
		return nil, err
	}}, &attempts
}

func TestOpen_FirstAvailable(t *testing.T) {
	first, want := okFactory("A")
	second, _ := okFactory("B")

	det, err := Open(CategoryFace, []Factory{first, second}, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if det != want {
		t.Errorf("got %q, want the first factory's detector", det.Method())
	}
}

func TestOpen_SkipsUnavailable(t *testing.T) {
	dlib, attempts := failingFactory(MethodDlib, unavailable(MethodDlib, "not compiled"))
	dnn, want := okFactory(MethodDNN)

	det, err := Open(CategoryFace, []Factory{dlib, dnn}, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if *attempts != 1 {
		t.Errorf("dlib attempts = %d, want 1", *attempts)
	}
	if det != want {
		t.Errorf("got %q, want DNN fallback", det.Method())
	}
}

func TestOpen_ModelErrorIsFatal(t *testing.T) {
	broken, _ := failingFactory(MethodHaar, modelError(MethodHaar, "cars.xml", fmt.Errorf("bad xml")))
	next, nextDet := okFactory(MethodONNX)

	_, err := Open(CategoryCar, []Factory{broken, next}, nil)
	if !errors.Is(err, ErrModelLoad) {
		t.Fatalf("expected ErrModelLoad, got %v", err)
	}
	var mle *ModelLoadError
	if !errors.As(err, &mle) || mle.Path != "cars.xml" {
		t.Errorf("expected ModelLoadError for cars.xml, got %#v", err)
	}
	if nextDet.calls != 0 {
		t.Error("fallback must not run after a model error")
	}
}

func TestOpen_NoneAvailable(t *testing.T) {
	a, _ := failingFactory("A", unavailable("A", "x"))
	b, _ := failingFactory("B", unavailable("B", "y"))

	_, err := Open(CategoryPerson, []Factory{a, b}, nil)
	if !errors.Is(err, ErrNoDetector) {
		t.Fatalf("expected ErrNoDetector, got %v", err)
	}

	_, err = Open(CategoryPerson, nil, nil)
	if !errors.Is(err, ErrNoDetector) {
		t.Fatalf("expected ErrNoDetector for empty list, got %v", err)
	}
}

func TestModelLoadError(t *testing.T) {
	cause := errors.New("permission denied")
	err := modelError(MethodDNN, "model.caffemodel", cause)

	if !errors.Is(err, ErrModelLoad) {
		t.Error("ModelLoadError should match ErrModelLoad")
	}
	if !errors.Is(err, cause) {
		t.Error("ModelLoadError should unwrap to its cause")
	}
	if errors.Is(err, ErrUnavailable) {
		t.Error("ModelLoadError must not match ErrUnavailable")
	}
}

func TestCategory(t *testing.T) {
	c, err := ParseCategory(" Person ")
	if err != nil || c != CategoryPerson {
		t.Fatalf("ParseCategory = %q, %v", c, err)
	}
	if c.Plural() != "Persons" || c.Title() != "Person" {
		t.Errorf("Plural/Title = %q/%q", c.Plural(), c.Title())
	}
	if _, err := ParseCategory("dog"); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestNewDetections_Clips(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 100)
	got := newDetections(CategoryFace, []image.Rectangle{
		image.Rect(10, 10, 40, 40),
		image.Rect(90, 90, 130, 130),
		image.Rect(200, 200, 210, 210),
	}, bounds)

	if len(got) != 2 {
		t.Fatalf("got %d detections, want 2", len(got))
	}
	if got[1].Box != image.Rect(90, 90, 100, 100) {
		t.Errorf("clipped box = %v", got[1].Box)
	}
	if got[0].Scored {
		t.Error("cascade-style detections should be unscored")
	}
}
