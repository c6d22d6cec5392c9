// Package scraper provides HTTP fetching and HTML parsing for the UCF garage count page.
//
// The scraper package fetches the public garage count iframe from secure.parking.ucf.edu
// and extracts one Garage record per table row. The page lays its cells out as a flat
// sequence of ".dxgv" elements in repeating triples: the garage name, an
// "available/capacity" pair, and an unused column.
package scraper
