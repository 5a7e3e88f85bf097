package output

import (
	"bufio"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/rtm0/gcmclim/internal/clim"
)

// writeText writes the field the way numpy.savetxt does with its defaults:
// one row per line, values in "%.18e" separated by a space.
func writeText(path string, m *clim.MonthlyMean) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := formatText(bw, m.Rows, m.Cols, m.Values); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatText(w io.Writer, rows, cols int, values []float64) error {
	buf := make([]byte, 0, cols*25)
	for r := 0; r < rows; r++ {
		buf = buf[:0]
		for c := 0; c < cols; c++ {
			if c > 0 {
				buf = append(buf, ' ')
			}
			buf = appendValue(buf, values[r*cols+c])
		}
		buf = append(buf, '\n')
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// appendValue formats v like Python's "%.18e".
func appendValue(b []byte, v float64) []byte {
	switch {
	case math.IsNaN(v):
		return append(b, "nan"...)
	case math.IsInf(v, 1):
		return append(b, "inf"...)
	case math.IsInf(v, -1):
		return append(b, "-inf"...)
	}
	return strconv.AppendFloat(b, v, 'e', 18, 64)
}
