package grn

// PlaceholderRows is the number of empty rows shown before the first save
const PlaceholderRows = 10

// DeliveryLineResult is one row of the results table
type DeliveryLineResult struct {
	Barcode              ID
	JobName              Text
	OrderQty             Quantity
	GPNQty               Quantity
	DeliveredThisVoucher Quantity
	DeliveredTotal       Quantity
	CartonCount          Quantity
	placeholder          bool
}

// Placeholder reports whether the row is an empty filler row
func (r DeliveryLineResult) Placeholder() bool { return r.placeholder }

// NewDeliveryLineResult pairs a barcode with the line the backend returned
func NewDeliveryLineResult(barcode ID, line DeliveryLine) DeliveryLineResult {
	return DeliveryLineResult{
		Barcode:              barcode,
		JobName:              line.JobName,
		OrderQty:             line.OrderQty,
		GPNQty:               line.GPNQty,
		DeliveredThisVoucher: line.DeliveredThisVoucher,
		DeliveredTotal:       line.DeliveredTotal,
		CartonCount:          line.CartonCount,
	}
}

// ResultTable holds the delivery lines of the open transaction, most recent
// first.
type ResultTable struct {
	rows []DeliveryLineResult
}

func NewResultTable() *ResultTable {
	t := &ResultTable{}
	t.Reset()
	return t
}

// Reset fills the table with placeholder rows
func (t *ResultTable) Reset() {
	t.rows = make([]DeliveryLineResult, PlaceholderRows)
	for i := range t.rows {
		t.rows[i].placeholder = true
	}
}

// Replace drops every row and keeps only row
func (t *ResultTable) Replace(row DeliveryLineResult) {
	t.rows = []DeliveryLineResult{row}
}

// Prepend puts row in front of the existing rows
func (t *ResultTable) Prepend(row DeliveryLineResult) {
	t.rows = append([]DeliveryLineResult{row}, t.rows...)
}

// Rows returns a copy of the rows
func (t *ResultTable) Rows() []DeliveryLineResult {
	return append([]DeliveryLineResult(nil), t.rows...)
}

// Len returns the number of rows including placeholders
func (t *ResultTable) Len() int { return len(t.rows) }

// TableColumns are the headings of the results table
var TableColumns = []string{
	"Barcode", "Job Name", "Order Qty", "GPN Qty",
	"Delivered (Voucher)", "Delivered (Total)", "Cartons",
}

// TableRow is the rendered text of one row, in TableColumns order
type TableRow [7]string

const missing = "—"

// RenderRows turns rows into display text. Placeholder rows are blank and
// absent values render as "—".
func RenderRows(rows []DeliveryLineResult) []TableRow {
	out := make([]TableRow, len(rows))
	for i, r := range rows {
		if r.placeholder {
			continue
		}
		out[i] = TableRow{
			r.Barcode.String(),
			textOrMissing(string(r.JobName)),
			r.OrderQty.String(),
			r.GPNQty.String(),
			r.DeliveredThisVoucher.String(),
			r.DeliveredTotal.String(),
			r.CartonCount.String(),
		}
	}
	return out
}

func textOrMissing(s string) string {
	if s == "" {
		return missing
	}
	return s
}

// String renders the number, else the text the backend sent, else "—"
func (q Quantity) String() string {
	if q.Value.Valid {
		return q.Value.Decimal.String()
	}
	return textOrMissing(q.Raw)
}
