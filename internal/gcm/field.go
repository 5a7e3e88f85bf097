package gcm

// Field is a 2-D variable field at a given time step.
type Field struct {
	Date Date
	Rows int
	Cols int

	// Values holds Rows*Cols values in row-major order. Masked cells are NaN.
	Values []float64
}

// Grid holds the horizontal coordinates of a model.
type Grid struct {
	Lon []float64
	Lat []float64
}
