package detection

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

// checkFile verifies path names a readable, non-empty regular file.
func checkFile(path string) error {
	if path == "" {
		return fmt.Errorf("no model path configured")
	}
	stat, err := os.Stat(path)
	if err != nil {
		return err
	}
	if stat.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if stat.Size() == 0 {
		return fmt.Errorf("%s is empty", path)
	}
	return nil
}

// checkDir verifies path names an existing directory.
func checkDir(path string) error {
	if path == "" {
		return fmt.Errorf("no model directory configured")
	}
	stat, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !stat.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

// checkCascade verifies that path is an OpenCV cascade file: an XML document
// whose opencv_storage root holds a cascade node.
func checkCascade(path string) error {
	if err := checkFile(path); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := xml.NewDecoder(bufio.NewReader(f))
	depth := 0
	sawRoot := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("invalid cascade XML: %w", err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			depth++
			switch {
			case depth == 1 && el.Name.Local != "opencv_storage":
				return fmt.Errorf("unexpected root element <%s>, want <opencv_storage>", el.Name.Local)
			case depth == 1:
				sawRoot = true
			case depth == 2 && isCascadeNode(el):
				return nil
			}
		case xml.EndElement:
			depth--
		}
	}
	if !sawRoot {
		return fmt.Errorf("no <opencv_storage> element")
	}
	return fmt.Errorf("no <cascade> node in <opencv_storage>")
}

// isCascadeNode accepts both the current <cascade> layout and the legacy one,
// where the node is named after the model and tagged type_id="opencv-haar-classifier".
func isCascadeNode(el xml.StartElement) bool {
	if el.Name.Local == "cascade" {
		return true
	}
	for _, attr := range el.Attr {
		if attr.Name.Local == "type_id" && strings.HasSuffix(attr.Value, "classifier") {
			return true
		}
	}
	return false
}

// checkONNX verifies path looks like a serialized ONNX ModelProto. Every
// exporter writes ir_version (field 1, varint) first, so the file starts with
// the protobuf tag byte 0x08.
func checkONNX(path string) error {
	if err := checkFile(path); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var head [1]byte
	if _, err := io.ReadFull(f, head[:]); err != nil {
		return err
	}
	if head[0] != 0x08 {
		return fmt.Errorf("not an ONNX model (leading byte %#02x)", head[0])
	}
	return nil
}
