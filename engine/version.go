package engine

// Engine version, encoded as major*10000 + minor*100 + patch.
const (
	VersionString = "1.2.0"
	version       = 10200
)

// Version returns the engine version number.
func Version() int {
	return version
}
