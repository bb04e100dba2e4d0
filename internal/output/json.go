package output

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
)

// JSON writes data as JSON to stdout
func JSON(data any) error {
	return JSONTo(os.Stdout, data)
}

// JSONTo writes data as JSON to the given writer
func JSONTo(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Output writes data in the specified format to stdout
func Output(format string, data any) error {
	return OutputTo(os.Stdout, format, data)
}

// OutputTo writes data in the specified format to the given writer
func OutputTo(w io.Writer, format string, data any) error {
	switch format {
	case "json":
		return JSONTo(w, data)
	case "table", "":
		return TableTo(w, data)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}
