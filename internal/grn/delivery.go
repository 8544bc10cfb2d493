package grn

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LoginResult is the payload of auth/login
type LoginResult struct {
	UserID   ID                `json:"userId"`
	LedgerID ID                `json:"ledgerId"`
	Machines []json.RawMessage `json:"machines"`
}

// Transporter is one option of the transporter list
type Transporter struct {
	LedgerName string `json:"ledgerName"`
	LedgerID   ID     `json:"ledgerId"`
}

type transportersResult struct {
	Transporters []Transporter `json:"transporters"`
}

type initiateRequest struct {
	Barcode  ID     `json:"barcode"`
	Database string `json:"database"`
	UserID   ID     `json:"userId"`
}

type initiateResult struct {
	LedgerName string `json:"ledgerName"`
}

// SaveRequest is the body of grn/save-delivery-note
type SaveRequest struct {
	Barcode             ID     `json:"barcode"`
	Database            string `json:"database"`
	UserID              ID     `json:"userId"`
	ClientName          string `json:"clientName"`
	ModeOfTransport     string `json:"modeOfTransport"`
	ContainerNumber     string `json:"containerNumber"`
	SealNumber          string `json:"sealNumber"`
	TransporterName     string `json:"transporterName"`
	TransporterLedgerID ID     `json:"transporterLedgerId"`
	VehicleNumber       string `json:"vehicleNumber"`
}

// Text is a display value. Strings are kept as is, any other JSON value keeps
// its literal text and null is empty. It never fails to decode.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	var s string
	if data[0] == '"' && json.Unmarshal(data, &s) == nil {
		*t = Text(s)
		return nil
	}
	*t = Text(data)
	return nil
}

// Quantity is a display number. Values that are not numbers, such as "" or
// "10 pcs", keep their text instead.
type Quantity struct {
	Value decimal.NullDecimal
	Raw   string
}

// Qty builds a quantity from a decimal
func Qty(d decimal.Decimal) Quantity {
	return Quantity{Value: decimal.NewNullDecimal(d)}
}

// Valid reports whether the backend sent a number
func (q Quantity) Valid() bool { return q.Value.Valid }

func (q *Quantity) UnmarshalJSON(data []byte) error {
	var t Text
	_ = t.UnmarshalJSON(data)
	*q = Quantity{Raw: strings.TrimSpace(string(t))}
	if q.Raw == "" {
		return nil
	}
	if d, err := decimal.NewFromString(q.Raw); err == nil {
		q.Value = decimal.NewNullDecimal(d)
	}
	return nil
}

// DeliveryNoteData echoes the saved challan
type DeliveryNoteData struct {
	ClientName      Text `json:"clientName"`
	ModeOfTransport Text `json:"modeOfTransport"`
	TransporterName Text `json:"transporterName"`
	ContainerNumber Text `json:"containerNumber"`
	VehicleNumber   Text `json:"vehicleNumber"`
	SealNumber      Text `json:"sealNumber"`
	Barcode         ID   `json:"barcode"`
}

// UnmarshalJSON never fails; the echo is only displayed.
func (d *DeliveryNoteData) UnmarshalJSON(data []byte) error {
	type plain DeliveryNoteData
	var p plain
	_ = json.Unmarshal(data, &p)
	*d = DeliveryNoteData(p)
	return nil
}

// DeliveryLine is the stored-procedure output of save and update
type DeliveryLine struct {
	JobName              Text     `json:"jobName"`
	OrderQty             Quantity `json:"orderQty"`
	GPNQty               Quantity `json:"gpnQty"`
	DeliveredThisVoucher Quantity `json:"deliveredThisVoucher"`
	DeliveredTotal       Quantity `json:"deliveredTotal"`
	CartonCount          Quantity `json:"cartonCount"`
	TransactionID        ID       `json:"transactionId"`
}

// UnmarshalJSON decodes the transaction reference on its own so that odd
// display values never hide it.
func (l *DeliveryLine) UnmarshalJSON(data []byte) error {
	type plain DeliveryLine
	var p plain
	// a bad field stops decoding, whatever came before it is kept
	_ = json.Unmarshal(data, &p)
	var ref struct {
		TransactionID ID `json:"transactionId"`
	}
	if err := json.Unmarshal(data, &ref); err == nil {
		p.TransactionID = ref.TransactionID
	}
	*l = DeliveryLine(p)
	return nil
}

// SaveResult is the payload of grn/save-delivery-note
type SaveResult struct {
	DeliveryNoteNumber ID               `json:"deliveryNoteNumber"`
	Data               DeliveryNoteData `json:"data"`
	SP                 DeliveryLine     `json:"sp"`
}

// UnmarshalJSON keeps a delivery note number that is neither a string nor a
// number as its literal text.
func (r *SaveResult) UnmarshalJSON(data []byte) error {
	var parts struct {
		DeliveryNoteNumber json.RawMessage  `json:"deliveryNoteNumber"`
		Data               DeliveryNoteData `json:"data"`
		SP                 DeliveryLine     `json:"sp"`
	}
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	*r = SaveResult{Data: parts.Data, SP: parts.SP}
	if err := r.DeliveryNoteNumber.UnmarshalJSON(parts.DeliveryNoteNumber); err != nil {
		r.DeliveryNoteNumber = ID(bytes.TrimSpace(parts.DeliveryNoteNumber))
	}
	return nil
}

type updateRequest struct {
	Barcode         ID     `json:"barcode"`
	Database        string `json:"database"`
	UserID          ID     `json:"userId"`
	FGTransactionID ID     `json:"fgTransactionId"`
}

type updateResult struct {
	SP DeliveryLine `json:"sp"`
}

// Login authenticates username against database
func (c *Client) Login(ctx context.Context, username, database string) (*LoginResult, error) {
	params := url.Values{}
	params.Set("username", username)
	params.Set("database", database)
	params.Set("_t", strconv.FormatInt(time.Now().UnixMilli(), 10))

	var result LoginResult
	if err := c.request(ctx, http.MethodGet, "auth/login", params, nil, &result); err != nil {
		return nil, withFallback(err, "Login failed")
	}
	return &result, nil
}

// Transporters fetches the transporter list of database
func (c *Client) Transporters(ctx context.Context, database string) ([]Transporter, error) {
	params := url.Values{}
	params.Set("database", database)

	var result transportersResult
	if err := c.request(ctx, http.MethodGet, "grn/transporters", params, nil, &result); err != nil {
		return nil, withFallback(err, "Failed to load transporters")
	}
	return result.Transporters, nil
}

// Initiate resolves the client ledger name of a challan barcode
func (c *Client) Initiate(ctx context.Context, barcode ID, database string, userID ID) (string, error) {
	body := initiateRequest{Barcode: barcode, Database: database, UserID: userID}

	var result initiateResult
	if err := c.request(ctx, http.MethodPost, "grn/initiate", nil, body, &result); err != nil {
		return "", withFallback(err, "Failed to initiate challan")
	}
	return result.LedgerName, nil
}

// SaveDeliveryNote creates the delivery note and its first delivery line
func (c *Client) SaveDeliveryNote(ctx context.Context, req SaveRequest) (*SaveResult, error) {
	var result SaveResult
	if err := c.request(ctx, http.MethodPost, "grn/save-delivery-note", nil, req, &result); err != nil {
		return nil, withFallback(err, "Failed to save delivery note")
	}
	return &result, nil
}

// UpdateDeliveryNote appends a delivery line to an existing transaction
func (c *Client) UpdateDeliveryNote(ctx context.Context, barcode ID, database string, userID, transactionID ID) (*DeliveryLine, error) {
	body := updateRequest{
		Barcode:         barcode,
		Database:        database,
		UserID:          userID,
		FGTransactionID: transactionID,
	}

	var result updateResult
	if err := c.request(ctx, http.MethodPost, "grn/update-delivery-note", nil, body, &result); err != nil {
		return nil, withFallback(err, "Failed to update delivery note")
	}
	return &result.SP, nil
}

// ClearDBCache asks the backend to drop its database cache. The outcome is
// only logged.
func (c *Client) ClearDBCache(ctx context.Context) {
	if _, _, err := c.send(ctx, http.MethodPost, "admin/clear-db-cache", nil, nil); err != nil {
		c.Logger.WithError(err).Warn("failed to clear DB cache")
	}
}
