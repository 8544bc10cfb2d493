package grn

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func qtyOf(v string) Quantity {
	return Qty(decimal.RequireFromString(v))
}

func TestResultTablePlaceholders(t *testing.T) {
	table := NewResultTable()
	if table.Len() != PlaceholderRows {
		t.Fatalf("Len = %d, want %d", table.Len(), PlaceholderRows)
	}
	for i, row := range RenderRows(table.Rows()) {
		if row != (TableRow{}) {
			t.Fatalf("placeholder row %d rendered %v", i, row)
		}
	}
}

func TestResultTableOrder(t *testing.T) {
	table := NewResultTable()
	table.Replace(DeliveryLineResult{Barcode: "A"})
	table.Prepend(DeliveryLineResult{Barcode: "B"})
	table.Prepend(DeliveryLineResult{Barcode: "C"})

	rows := table.Rows()
	want := []ID{"C", "B", "A"}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(rows), len(want))
	}
	for i := range want {
		if rows[i].Barcode != want[i] || rows[i].Placeholder() {
			t.Errorf("row %d = %+v, want barcode %s", i, rows[i], want[i])
		}
	}

	rows[0].Barcode = "mutated"
	if table.Rows()[0].Barcode != "C" {
		t.Fatal("Rows must return a copy")
	}

	table.Reset()
	if table.Len() != PlaceholderRows || !table.Rows()[0].Placeholder() {
		t.Fatal("Reset must restore placeholders")
	}
}

func TestRenderRows(t *testing.T) {
	rows := []DeliveryLineResult{
		NewDeliveryLineResult("12345", DeliveryLine{
			JobName:              "Cartons A",
			OrderQty:             qtyOf("100"),
			GPNQty:               qtyOf("90.5"),
			DeliveredThisVoucher: qtyOf("0"),
			DeliveredTotal:       qtyOf("40"),
			CartonCount:          qtyOf("2"),
		}),
		NewDeliveryLineResult("B2", DeliveryLine{OrderQty: qtyOf("7")}),
		NewDeliveryLineResult("B3", DeliveryLine{JobName: "4711", OrderQty: Quantity{Raw: "10 pcs"}}),
	}

	got := RenderRows(rows)
	want := []TableRow{
		{"12345", "Cartons A", "100", "90.5", "0", "40", "2"},
		{"B2", missing, "7", missing, missing, missing, missing},
		{"B3", "4711", "10 pcs", missing, missing, missing, missing},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDeliveryLineDecodesAnyDisplayValue(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want TableRow
	}{
		{
			name: "numbers",
			raw:  `{"jobName":"Cartons A","orderQty":100,"gpnQty":"90.5","cartonCount":2,"transactionId":"T1"}`,
			want: TableRow{"B1", "Cartons A", "100", "90.5", missing, missing, "2"},
		},
		{
			name: "empty string quantity",
			raw:  `{"cartonCount":"","transactionId":"T1"}`,
			want: TableRow{"B1", missing, missing, missing, missing, missing, missing},
		},
		{
			name: "numeric job name",
			raw:  `{"jobName":4711,"transactionId":"T1"}`,
			want: TableRow{"B1", "4711", missing, missing, missing, missing, missing},
		},
		{
			name: "quantity with unit",
			raw:  `{"orderQty":"10 pcs","deliveredTotal":null,"transactionId":"T1"}`,
			want: TableRow{"B1", missing, "10 pcs", missing, missing, missing, missing},
		},
		{
			name: "odd values",
			raw:  `{"jobName":{"a":1},"gpnQty":true,"transactionId":"T1"}`,
			want: TableRow{"B1", `{"a":1}`, missing, "true", missing, missing, missing},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var line DeliveryLine
			if err := json.Unmarshal([]byte(tt.raw), &line); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if line.TransactionID != "T1" {
				t.Errorf("transaction id = %q, want T1", line.TransactionID)
			}
			got := RenderRows([]DeliveryLineResult{NewDeliveryLineResult("B1", line)})[0]
			if got != tt.want {
				t.Errorf("row = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeliveryLineDecodeNeverFails(t *testing.T) {
	var line DeliveryLine
	if err := json.Unmarshal([]byte(`{"jobName":"A","transactionId":{"x":1}}`), &line); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if line.JobName != "A" || !line.TransactionID.IsZero() {
		t.Fatalf("line = %+v", line)
	}

	if err := json.Unmarshal([]byte(`[1,2]`), &line); err != nil {
		t.Fatalf("Unmarshal(array): %v", err)
	}
	if !line.TransactionID.IsZero() {
		t.Fatalf("line = %+v, want empty", line)
	}
}
