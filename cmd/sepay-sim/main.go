package main

import (
	"aishop/internal/app/logger"
	"aishop/pkg/sepay"
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"os"
	"os/signal"
	"sync"
	"time"
)

type options struct {
	url      string
	apiKey   string
	txID     string
	orderID  string
	customer string
	status   string
	amount   int64
	repeat   int
	timeout  time.Duration
	redirect bool
	verbose  bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	o := options{}
	flags := pflag.NewFlagSet("sepay-sim", pflag.ExitOnError)
	flags.StringVarP(&o.url, "url", "u", "http://localhost:8088", "Shop base URL")
	flags.StringVarP(&o.apiKey, "api-key", "k", os.Getenv("SEPAY_API_KEY"), "Gateway API key")
	flags.StringVarP(&o.txID, "transaction-id", "t", "", "Gateway transaction id, random when empty")
	flags.StringVarP(&o.orderID, "order-id", "o", "", "Shop order id")
	flags.StringVarP(&o.customer, "customer", "c", "", "Customer id")
	flags.StringVarP(&o.status, "status", "s", "success", "Gateway payment status")
	flags.Int64VarP(&o.amount, "amount", "m", 200000, "Amount in VND")
	flags.IntVarP(&o.repeat, "repeat", "r", 1, "Concurrent deliveries of the same callback")
	flags.DurationVar(&o.timeout, "timeout", 10*time.Second, "Per request timeout")
	flags.BoolVar(&o.redirect, "redirect", false, "Print the browser redirect URL and exit")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "Verbose output")
	_ = flags.Parse(os.Args[1:])

	l := logger.New(o.verbose, true)

	if err := run(ctx, o, l); err != nil {
		l.Fatal().Err(err).Msg("Simulation failed")
	}
}

func run(ctx context.Context, o options, l logger.Logger) error {
	if o.customer == "" {
		return errors.New("--customer is required")
	}
	if o.repeat < 1 {
		o.repeat = 1
	}
	if o.txID == "" {
		o.txID = "SIM-" + uuid.NewString()
	}

	c, err := sepay.NewClient(o.url, sepay.WithLogger(l.Logger))
	if err != nil {
		return err
	}

	in := &sepay.CallbackRequest{
		Status:        o.status,
		TransactionID: o.txID,
		Amount:        o.amount,
		OrderID:       o.orderID,
		CustomerID:    o.customer,
	}

	if o.redirect {
		fmt.Println(c.RedirectURL(in))
		return nil
	}

	var wg sync.WaitGroup
	for i := 0; i < o.repeat; i++ {
		wg.Add(1)
		go func(attempt int) {
			defer wg.Done()

			reqCtx, cancel := context.WithTimeout(ctx, o.timeout)
			defer cancel()

			log := l.With().Int("attempt", attempt).Str("transaction_id", in.TransactionID).Logger()

			out, err := c.SendCallback(reqCtx, o.apiKey, in)
			if err != nil {
				log.Error().Err(err).Msg("Delivery failed")
				return
			}
			log.Info().Bool("success", out.Success).Str("message", out.Message).Msg("Delivered")
		}(i + 1)
	}
	wg.Wait()

	return nil
}
