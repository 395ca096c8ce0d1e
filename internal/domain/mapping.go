package domain

// ColumnMapping associates canonical trade fields with the column header
// names of one specific tabular export. It is constructed by the caller
// before an import and read-only for the duration of the import call.
// Columns are looked up by header name, never by position, since exports
// reorder columns freely.
type ColumnMapping struct {
	// Required columns.
	Symbol   string `json:"symbol"`
	Side     string `json:"side"`
	Quantity string `json:"quantity"`
	ExitDate string `json:"exitDate"`

	// Price is a single-price column used for both entry and exit when the
	// export carries one price per row (single-leg executions). When empty,
	// EntryPrice and ExitPrice are consulted instead.
	Price      string `json:"price,omitempty"`
	EntryPrice string `json:"entryPrice,omitempty"`
	ExitPrice  string `json:"exitPrice,omitempty"`

	// Optional columns.
	ID         string `json:"id,omitempty"`
	EntryDate  string `json:"entryDate,omitempty"`
	Pnl        string `json:"pnl,omitempty"`
	Fees       string `json:"fees,omitempty"`
	Commission string `json:"commission,omitempty"`
	Strategy   string `json:"strategy,omitempty"`
	Notes      string `json:"notes,omitempty"`
	Tags       string `json:"tags,omitempty"`
	Broker     string `json:"broker,omitempty"`
}

// Validate checks that every required canonical field has a column assigned.
func (m *ColumnMapping) Validate() error {
	required := []struct {
		field  string
		column string
	}{
		{"symbol", m.Symbol},
		{"side", m.Side},
		{"quantity", m.Quantity},
		{"exitDate", m.ExitDate},
	}
	for _, r := range required {
		if r.column == "" {
			return &FieldMappingError{Field: r.field, Column: ""}
		}
	}
	if m.Price == "" && (m.EntryPrice == "" || m.ExitPrice == "") {
		return &FieldMappingError{Field: "price", Column: ""}
	}
	return nil
}
