// Package garage provides the occupancy record for a single parking garage.
//
// A Garage is a snapshot row taken from the campus garage count page. Records are
// built with New, which derives saturation and the percentage fields from the
// available/capacity pair in one step. Garages carry no identity across refreshes;
// a Set is replaced wholesale every time the page is fetched.
package garage
