//go:build !opencv && !dlib

package detection

import (
	"errors"
	"testing"
)

func TestVariants_UnavailableWithoutTags(t *testing.T) {
	// The backend check comes before the model check, so even a missing
	// model reads as unavailable in a build without the tags.
	tests := []struct {
		name string
		open func() (Detector, error)
	}{
		{"cascade", func() (Detector, error) { return NewCascade(CategoryFace, CascadeParams{Model: "missing.xml"}) }},
		{"hog", func() (Detector, error) { return NewHOG(CategoryPerson, HOGParams{}) }},
		{"dnn", func() (Detector, error) { return NewDNN(CategoryFace, DNNParams{Model: "missing.caffemodel"}) }},
		{"dlib", func() (Detector, error) { return NewDlib(CategoryFace, DlibParams{ModelDir: "models"}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.open()
			if !errors.Is(err, ErrUnavailable) {
				t.Errorf("expected ErrUnavailable, got %v", err)
			}
			if errors.Is(err, ErrModelLoad) {
				t.Error("unavailable backend must not read as a model error")
			}
		})
	}
}
