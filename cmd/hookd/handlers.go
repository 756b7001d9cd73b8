package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/bjaus/hook"
)

// Order is the record demo handlers receive.
type Order struct {
	OrderID    string  `json:"orderId"`
	CustomerID string  `json:"customerId"`
	Amount     float64 `json:"amount"`
}

// OrderFilter is bound from the query string.
type OrderFilter struct {
	Status string `query:"status" default:"open"`
	Limit  int    `query:"limit" default:"50"`
}

// ImportSource tells where an imported order came from.
type ImportSource struct {
	Source string `query:"source" default:"webhook"`
}

// Push is the subset of a GitHub push event the demo reads.
type Push struct {
	Ref        string `json:"ref"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
}

// register wires the demo handlers. Routes under GitHub are scoped to the
// "github" receiver when one is configured.
func register(r *hook.Router, logger *slog.Logger, receivers map[string]hook.Receiver) error {
	sample := r.Group("Sample")
	orders := r.Group("Orders")

	var githubOpts []hook.GroupOption
	if _, ok := receivers["github"]; ok {
		githubOpts = append(githubOpts, hook.WithGroupReceiver("github"))
	}
	github := r.Group("GitHub", githubOpts...)

	return errors.Join(
		hook.Register(sample, "Text", func(ctx context.Context, body string) error {
			logger.InfoContext(ctx, "text received", "len", len(body))
			return nil
		}, hook.WithSummary("Logs a plain text payload")),

		hook.Register(sample, "Stream", func(ctx context.Context, body io.Reader) error {
			n, err := io.Copy(io.Discard, body)
			if err != nil {
				return err
			}
			logger.InfoContext(ctx, "stream received", "bytes", n)
			return nil
		}, hook.WithSummary("Consumes a binary payload")),

		hook.Register(sample, "CustomResponse", func(_ context.Context, c *hook.Context) error {
			c.SetResponse(hook.NewResponse(http.StatusAccepted, "Custom Response Data"))
			return nil
		}, hook.WithSummary("Answers 202 with a fixed body")),

		hook.Register(sample, "CustomResponseFailure", func(_ context.Context, c *hook.Context) error {
			c.SetResponse(hook.NewResponse(http.StatusAccepted, "Custom Response Data"))
			return errors.New("failed after setting a response")
		}, hook.WithSummary("Fails after setting a response; always 500")),

		hook.RegisterWithParams(orders, "Import", func(ctx context.Context, o *Order, src ImportSource) error {
			if o == nil {
				return nil
			}
			if o.OrderID == "" {
				return fmt.Errorf("order without id from %s", src.Source)
			}
			logger.InfoContext(ctx, "order imported",
				"order_id", o.OrderID,
				"customer_id", o.CustomerID,
				"source", src.Source,
				"invocation_id", hook.InvocationID(ctx),
			)
			return nil
		}, hook.WithSummary("Imports one order")),

		hook.Register(orders, "Search", func(ctx context.Context, q hook.Query[OrderFilter]) error {
			logger.InfoContext(ctx, "order search", "status", q.Value.Status, "limit", q.Value.Limit)
			return nil
		}, hook.WithSummary("Searches orders by query string")),

		hook.Register(github, "Push", func(ctx context.Context, p *Push) error {
			if p == nil {
				return nil
			}
			logger.InfoContext(ctx, "push received",
				"event", hook.EventName(ctx),
				"repository", p.Repository.FullName,
				"ref", p.Ref,
			)
			return nil
		}, hook.WithSummary("GitHub push events")),
	)
}
