package models

// Printer describes one machine in the fleet.
type Printer struct {
	ID   int    `json:"id" toml:"id"`
	Name string `json:"name" toml:"name"`
}

// PrinterListResponse is the payload for the printer inventory endpoint.
type PrinterListResponse struct {
	TotalPrinters int       `json:"total_printers"`
	Printers      []Printer `json:"printers"`
}
