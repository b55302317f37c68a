package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/agency"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/leads"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/observability/metrics"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/pkg/logging"
)

// Result is the outcome of one owner notification.
type Result string

const (
	ResultSent    Result = "sent"
	ResultSkipped Result = "skipped"
	ResultFailed  Result = "failed"
	ResultTimeout Result = "timeout"
)

// Delivery reports what happened to a notification.
type Delivery struct {
	AgencyID string
	LeadID   string
	Result   Result
	Err      error
}

// Dispatcher emails agency owners about new leads in the background. Send
// errors are logged and reported on Results, never returned to the chat turn.
type Dispatcher struct {
	sender       EmailSender
	timeout      time.Duration
	dashboardURL string
	metrics      *metrics.ChatMetrics
	logger       *logging.Logger

	results chan Delivery
	wg      sync.WaitGroup
}

type DispatcherOption func(*Dispatcher)

func WithTimeout(d time.Duration) DispatcherOption {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.timeout = d
		}
	}
}

func WithMetrics(m *metrics.ChatMetrics) DispatcherOption {
	return func(disp *Dispatcher) {
		disp.metrics = m
	}
}

// WithDashboardURL links the notification to the owner's lead list.
func WithDashboardURL(url string) DispatcherOption {
	return func(disp *Dispatcher) {
		disp.dashboardURL = strings.TrimRight(url, "/")
	}
}

// WithResultBuffer sizes the results channel. Deliveries are dropped when
// nobody drains it.
func WithResultBuffer(n int) DispatcherOption {
	return func(disp *Dispatcher) {
		if n >= 0 {
			disp.results = make(chan Delivery, n)
		}
	}
}

func NewDispatcher(sender EmailSender, logger *logging.Logger, opts ...DispatcherOption) *Dispatcher {
	if sender == nil {
		panic("notify: email sender required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	d := &Dispatcher{
		sender:  sender,
		timeout: 10 * time.Second,
		logger:  logger,
		results: make(chan Delivery, 64),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Results streams delivery outcomes.
func (d *Dispatcher) Results() <-chan Delivery {
	return d.results
}

// Dispatch returns immediately; the email is sent on its own goroutine with
// its own deadline.
func (d *Dispatcher) Dispatch(a *agency.Agency, lead *leads.Lead) {
	if a == nil || lead == nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.publish(d.deliver(a, lead))
	}()
}

// Wait blocks until in-flight notifications finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) deliver(a *agency.Agency, lead *leads.Lead) Delivery {
	out := Delivery{AgencyID: a.ID, LeadID: lead.ID}
	if strings.TrimSpace(a.OwnerEmail) == "" {
		out.Result = ResultSkipped
		return out
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	url := ""
	if d.dashboardURL != "" {
		url = d.dashboardURL + "/agencies/" + a.ID + "/leads"
	}
	err := d.sender.Send(ctx, LeadEmail(a, lead, url))
	switch {
	case err == nil:
		out.Result = ResultSent
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		out.Result = ResultTimeout
		out.Err = err
	default:
		out.Result = ResultFailed
		out.Err = err
	}
	return out
}

func (d *Dispatcher) publish(res Delivery) {
	d.metrics.ObserveNotification(string(res.Result))
	logger := d.logger.WithAgency(res.AgencyID)
	if res.Err != nil {
		logger.Warn("lead notification not delivered", "lead_id", res.LeadID, "result", res.Result, "error", res.Err)
	} else {
		logger.Info("lead notification", "lead_id", res.LeadID, "result", res.Result)
	}
	select {
	case d.results <- res:
	default:
	}
}
