package output

import (
	"github.com/sbinet/npyio/npz"

	"github.com/rtm0/gcmclim/internal/gcm"
)

// writeCoordinates stores the grid as a NumPy zip archive with the members
// lat.npy and lon.npy. numpy.load recognises the archive by its signature
// whatever the file extension and returns a lat/lon mapping.
func writeCoordinates(path string, grid gcm.Grid) (err error) {
	zw, err := npz.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := zw.Close(); err == nil {
			err = cerr
		}
	}()
	if err := zw.Write("lat.npy", grid.Lat); err != nil {
		return err
	}
	return zw.Write("lon.npy", grid.Lon)
}
