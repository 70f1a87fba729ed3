package models

// Coordinates represents a geographical point defined by its latitude and longitude.
type Coordinates struct {
	Latitude  float64 // Latitude of the geographical point.
	Longitude float64 // Longitude of the geographical point.
}

// Resolution is the terminal outcome of resolving one address.
// Resolved reports whether any provider produced coordinates; when it is
// false the coordinate fields are zero and Provider is empty.
type Resolution struct {
	Latitude  float64 // Latitude returned by the resolving provider.
	Longitude float64 // Longitude returned by the resolving provider.
	Provider  string  // Name of the provider that resolved the address.
	Resolved  bool    // Whether the address was resolved at all.
}
