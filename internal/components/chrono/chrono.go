package chrono

import "time"

// LoadLocation resolves an IANA zone name, an empty name is the local zone.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}
