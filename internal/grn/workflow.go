package grn

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// State of the challan workflow
type State int

const (
	StateLoggedOut State = iota
	StateLoggedIn
	StateChallanOpen
	StateConfirmed
)

func (s State) String() string {
	switch s {
	case StateLoggedOut:
		return "logged out"
	case StateLoggedIn:
		return "logged in"
	case StateChallanOpen:
		return "challan open"
	case StateConfirmed:
		return "confirmed"
	}
	return "unknown"
}

// User-facing messages
const (
	msgEnterUsername    = "Please enter username."
	msgEnterBarcode     = "Please enter a Barcode Number."
	msgLoginFirst       = "Please login first."
	msgAllFields        = "All fields are mandatory. Please fill in all required information."
	msgUnresolved       = "Could not resolve selected transporter. Please re-select transporter."
	msgUpdateBarcode    = "Enter barcode number"
	msgMissingTxn       = "Missing FGTransactionID from initial save. Please save the delivery note first."
	msgAlreadyLoggedIn  = "Already logged in. Log out first."
	msgOpenChallanFirst = "Initiate a challan before saving."
)

// Backend is the part of the API the workflow drives
type Backend interface {
	Login(ctx context.Context, username, database string) (*LoginResult, error)
	Transporters(ctx context.Context, database string) ([]Transporter, error)
	Initiate(ctx context.Context, barcode ID, database string, userID ID) (string, error)
	SaveDeliveryNote(ctx context.Context, req SaveRequest) (*SaveResult, error)
	UpdateDeliveryNote(ctx context.Context, barcode ID, database string, userID, transactionID ID) (*DeliveryLine, error)
	ClearDBCache(ctx context.Context)
}

// ChallanForm holds the transport details of a challan. Every field is
// required.
type ChallanForm struct {
	ClientName      string `validate:"required"`
	ModeOfTransport string `validate:"required"`
	ContainerNumber string `validate:"required"`
	SealNumber      string `validate:"required"`
	TransporterName string `validate:"required"`
	VehicleNumber   string `validate:"required"`
}

func (f ChallanForm) trimmed() ChallanForm {
	return ChallanForm{
		ClientName:      strings.TrimSpace(f.ClientName),
		ModeOfTransport: strings.TrimSpace(f.ModeOfTransport),
		ContainerNumber: strings.TrimSpace(f.ContainerNumber),
		SealNumber:      strings.TrimSpace(f.SealNumber),
		TransporterName: strings.TrimSpace(f.TransporterName),
		VehicleNumber:   strings.TrimSpace(f.VehicleNumber),
	}
}

// Confirmation is what the backend echoed for a saved delivery note
type Confirmation struct {
	DeliveryNoteNumber ID
	Data               DeliveryNoteData
}

// Snapshot is a copy of the workflow state for rendering
type Snapshot struct {
	State         State
	Session       *Session
	Draft         *ChallanDraft
	Form          ChallanForm
	Transporters  []Transporter
	Confirmation  *Confirmation
	Rows          []DeliveryLineResult
	TransactionID ID
	LoginError    string
}

// Workflow owns one tab's session and drives it through
// login → challan → confirmation. Its lock is never held across a request.
type Workflow struct {
	backend     Backend
	store       *SessionStore
	notify      *Notifier
	logger      *logrus.Logger
	validate    *validator.Validate
	resolveMode string

	mu            sync.Mutex
	state         State
	session       *Session
	draft         *ChallanDraft
	form          ChallanForm
	transporters  []Transporter
	confirmation  *Confirmation
	table         *ResultTable
	transactionID ID
	loginError    string
}

// NewWorkflow wires a workflow. resolveMode is ResolveRefetch or
// ResolveCached.
func NewWorkflow(backend Backend, store *SessionStore, notify *Notifier, logger *logrus.Logger, resolveMode string) *Workflow {
	if resolveMode == "" {
		resolveMode = ResolveRefetch
	}
	return &Workflow{
		backend:     backend,
		store:       store,
		notify:      notify,
		logger:      logger,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		resolveMode: resolveMode,
		table:       NewResultTable(),
	}
}

// Start restores a stored session. It reports whether one was found, in which
// case the caller should reload the transporter options.
func (w *Workflow) Start(ctx context.Context) bool {
	sess, draft := w.store.Restore(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	if sess == nil {
		return false
	}
	w.session = sess
	w.state = StateLoggedIn
	if draft != nil {
		w.draft = draft
		w.form.ClientName = draft.LedgerName
		if w.session.ChallanBarcode.IsZero() {
			w.session.ChallanBarcode = draft.Barcode
		}
	}
	w.logger.WithFields(logrus.Fields{"module": "workflow", "username": sess.Username}).Info("session restored")
	return true
}

// Login authenticates username. Failures are kept as the inline login error
// and never raise an alert.
func (w *Workflow) Login(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)

	w.mu.Lock()
	w.loginError = ""
	loggedIn := w.state != StateLoggedOut
	w.mu.Unlock()

	if loggedIn {
		return w.loginFailed(preconditionError("login", msgAlreadyLoggedIn))
	}
	if username == "" {
		return w.loginFailed(validationError("login", msgEnterUsername))
	}

	res, err := w.backend.Login(ctx, username, FixedDatabase)
	if err != nil {
		LogError(w.logger, "workflow", "Login", "auth/login", username, err)
		return w.loginFailed(err)
	}

	machines := res.Machines
	if machines == nil {
		machines = []json.RawMessage{}
	}
	sess := &Session{
		UserID:           res.UserID,
		LedgerID:         res.LedgerID,
		Machines:         machines,
		SelectedDatabase: FixedDatabase,
		Username:         username,
	}
	if err := w.store.Save(ctx, sess); err != nil {
		w.logger.WithError(err).Warn("failed to persist session")
	}

	w.mu.Lock()
	w.session = sess
	w.state = StateLoggedIn
	w.mu.Unlock()

	w.logger.WithFields(logrus.Fields{"module": "workflow", "username": username}).Info("logged in")
	return nil
}

func (w *Workflow) loginFailed(err error) error {
	w.mu.Lock()
	w.loginError = err.Error()
	w.mu.Unlock()
	return err
}

// Initiate opens a challan for barcode and loads the transporter options
func (w *Workflow) Initiate(ctx context.Context, barcode string) error {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return w.fail(validationError("initiate", msgEnterBarcode))
	}

	sess := w.currentSession()
	if sess == nil || sess.SelectedDatabase == "" {
		return w.fail(preconditionError("initiate", msgLoginFirst))
	}

	ledgerName, err := w.backend.Initiate(ctx, ID(barcode), sess.SelectedDatabase, sess.UserID)
	if err != nil {
		return w.fail(err)
	}

	draft := &ChallanDraft{Barcode: ID(barcode), LedgerName: ledgerName}

	w.mu.Lock()
	if w.session == nil {
		w.mu.Unlock()
		return w.fail(preconditionError("initiate", msgLoginFirst))
	}
	w.session.ChallanBarcode = ID(barcode)
	w.draft = draft
	w.form.ClientName = ledgerName
	w.state = StateChallanOpen
	persisted := w.session.clone()
	w.mu.Unlock()

	if err := w.store.Save(ctx, persisted); err != nil {
		w.logger.WithError(err).Warn("failed to persist session")
	}
	if err := w.store.SaveDraft(ctx, draft); err != nil {
		w.logger.WithError(err).Warn("failed to persist challan draft")
	}

	w.logger.WithFields(logrus.Fields{
		"module":  "workflow",
		"barcode": barcode,
		"client":  ledgerName,
	}).Info("challan initiated")

	w.LoadTransporters(ctx)
	return nil
}

// LoadTransporters refreshes the transporter options. A failed load leaves
// the options empty without alerting.
func (w *Workflow) LoadTransporters(ctx context.Context) error {
	sess := w.currentSession()
	if sess == nil || sess.SelectedDatabase == "" {
		return nil
	}

	list, err := w.backend.Transporters(ctx, sess.SelectedDatabase)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.transporters = nil
		w.logger.WithError(err).Warn("cannot load transporters")
		return err
	}
	w.transporters = list
	return nil
}

// Save submits the challan form and moves to the confirmation
func (w *Workflow) Save(ctx context.Context, form ChallanForm) error {
	form = form.trimmed()

	sess := w.currentSession()
	if sess == nil || sess.SelectedDatabase == "" {
		return w.fail(preconditionError("save", msgLoginFirst))
	}

	w.mu.Lock()
	open := w.state == StateChallanOpen
	if open {
		w.form = form
	}
	cached := append([]Transporter(nil), w.transporters...)
	w.mu.Unlock()

	if !open {
		return w.fail(preconditionError("save", msgOpenChallanFirst))
	}
	if err := w.validate.Struct(form); err != nil {
		return w.fail(validationError("save", msgAllFields))
	}

	ledgerID := w.resolveTransporter(ctx, sess.SelectedDatabase, form.TransporterName, cached)
	if ledgerID.IsZero() {
		return w.fail(validationError("save", msgUnresolved))
	}

	res, err := w.backend.SaveDeliveryNote(ctx, SaveRequest{
		Barcode:             sess.ChallanBarcode,
		Database:            sess.SelectedDatabase,
		UserID:              sess.UserID,
		ClientName:          form.ClientName,
		ModeOfTransport:     form.ModeOfTransport,
		ContainerNumber:     form.ContainerNumber,
		SealNumber:          form.SealNumber,
		TransporterName:     form.TransporterName,
		TransporterLedgerID: ledgerID,
		VehicleNumber:       form.VehicleNumber,
	})
	if err != nil {
		return w.fail(err)
	}

	barcode := res.Data.Barcode
	if barcode.IsZero() {
		barcode = sess.ChallanBarcode
	}

	w.mu.Lock()
	w.confirmation = &Confirmation{DeliveryNoteNumber: res.DeliveryNoteNumber, Data: res.Data}
	w.table.Replace(NewDeliveryLineResult(barcode, res.SP))
	if !res.SP.TransactionID.IsZero() {
		w.transactionID = res.SP.TransactionID
	}
	w.state = StateConfirmed
	w.mu.Unlock()

	w.logger.WithFields(logrus.Fields{
		"module":        "workflow",
		"deliveryNote":  res.DeliveryNoteNumber.String(),
		"transactionId": res.SP.TransactionID.String(),
	}).Info("delivery note saved")
	return nil
}

// resolveTransporter finds the ledger id of name, either from a fresh list or
// from the options loaded with the form.
func (w *Workflow) resolveTransporter(ctx context.Context, database, name string, cached []Transporter) ID {
	list := cached
	if w.resolveMode != ResolveCached {
		fresh, err := w.backend.Transporters(ctx, database)
		if err != nil {
			w.logger.WithError(err).Warn("cannot re-fetch transporters")
			return ""
		}
		list = fresh
	}
	for _, t := range list {
		if strings.TrimSpace(t.LedgerName) == name {
			return t.LedgerID
		}
	}
	return ""
}

// Update appends the delivery line of barcode to the saved transaction
func (w *Workflow) Update(ctx context.Context, barcode string) error {
	sess := w.currentSession()
	if sess == nil || sess.SelectedDatabase == "" || sess.UserID.IsZero() {
		return w.fail(preconditionError("update", msgLoginFirst))
	}

	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return w.fail(validationError("update", msgUpdateBarcode))
	}

	w.mu.Lock()
	transactionID := w.transactionID
	w.mu.Unlock()
	if transactionID.IsZero() {
		return w.fail(preconditionError("update", msgMissingTxn))
	}

	line, err := w.backend.UpdateDeliveryNote(ctx, ID(barcode), sess.SelectedDatabase, sess.UserID, transactionID)
	if err != nil {
		return w.fail(err)
	}

	w.mu.Lock()
	w.table.Prepend(NewDeliveryLineResult(ID(barcode), *line))
	w.mu.Unlock()

	w.logger.WithFields(logrus.Fields{
		"module":        "workflow",
		"barcode":       barcode,
		"transactionId": transactionID.String(),
	}).Info("delivery note updated")
	return nil
}

// Back steps from the confirmation to the form, or from the form to the
// barcode screen. It reports whether the state changed.
func (w *Workflow) Back() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.state {
	case StateChallanOpen:
		w.state = StateLoggedIn
		return true
	case StateConfirmed:
		w.state = StateChallanOpen
		return true
	}
	return false
}

// Resume reopens the restored draft challan from the barcode screen. It
// reports whether the state changed.
func (w *Workflow) Resume() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateLoggedIn || w.draft == nil || w.session == nil || w.session.ChallanBarcode.IsZero() {
		return false
	}
	w.state = StateChallanOpen
	return true
}

// Logout forgets the session, the draft, the transaction and the rows
func (w *Workflow) Logout(ctx context.Context) error {
	err := w.store.Clear(ctx)
	if err != nil {
		w.logger.WithError(err).Warn("failed to clear stored session on logout")
	}

	w.mu.Lock()
	w.state = StateLoggedOut
	w.session = nil
	w.draft = nil
	w.form = ChallanForm{}
	w.transporters = nil
	w.confirmation = nil
	w.transactionID = ""
	w.loginError = ""
	w.table.Reset()
	w.mu.Unlock()

	w.logger.WithField("module", "workflow").Info("logged out")
	return err
}

// ClearCache asks the backend to drop its database cache
func (w *Workflow) ClearCache(ctx context.Context) {
	w.backend.ClearDBCache(ctx)
}

// Snapshot copies the current state
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := Snapshot{
		State:         w.state,
		Session:       w.session.clone(),
		Form:          w.form,
		Transporters:  append([]Transporter(nil), w.transporters...),
		Rows:          w.table.Rows(),
		TransactionID: w.transactionID,
		LoginError:    w.loginError,
	}
	if w.draft != nil {
		d := *w.draft
		snap.Draft = &d
	}
	if w.confirmation != nil {
		c := *w.confirmation
		snap.Confirmation = &c
	}
	return snap
}

func (w *Workflow) currentSession() *Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session.clone()
}

// fail surfaces err through the notifier and returns it
func (w *Workflow) fail(err error) error {
	if !IsLocal(err) {
		w.logger.WithFields(logrus.Fields{
			"module": "workflow",
			"kind":   KindOf(err).String(),
		}).WithError(err).Error("request failed")
	}
	w.notify.Error(err)
	return err
}
