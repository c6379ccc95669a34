// Command planner runs the Route Planner from a terminal: places are looked up
// with the Google geocoder, the request goes to a running /optimize endpoint
// and each returned route is printed.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"routeplanner/internal/config"
	"routeplanner/internal/logging"
	"routeplanner/internal/planner"
	"routeplanner/internal/planner/console"
	"routeplanner/internal/providers"
	"routeplanner/internal/providers/google"
)

func main() { os.Exit(run()) }

// run returns the exit code: 2 for setup failures, 1 when the plan was not
// shown.
func run() int {
	var (
		origin      = pflag.StringP("origin", "o", "", "origin place, e.g. \"Guindy, Chennai\"")
		destination = pflag.StringP("destination", "d", "", "destination place")
		fuel        = pflag.StringP("fuel-efficiency", "f", "", "vehicle fuel efficiency in km per litre")
		factor      = pflag.StringP("emission-factor", "e", "", "kg CO2 per litre of fuel")
		endpoint    = pflag.String("endpoint", "http://localhost:5000/optimize", "optimisation endpoint")
		timeout     = pflag.Duration("timeout", 60*time.Second, "request timeout")
		verbose     = pflag.BoolP("verbose", "v", false, "debug logging")
	)
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return 2
	}
	level := "warn"
	if *verbose {
		level = "debug"
	}
	log, err := logging.New(true, level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		return 2
	}
	defer func() { _ = log.Sync() }()

	page := &console.Page{
		Inputs: map[string]string{},
		Geocoder: google.New(cfg.GoogleBaseURL, cfg.GoogleAPIKey,
			providers.NewHTTP("google", cfg.UpstreamTimeout, cfg.UpstreamRPS, log)),
		Out: os.Stdout,
		Err: os.Stderr,
		Log: log,
	}
	form := planner.DefaultForm()
	page.Inputs[form.Origin] = *origin
	page.Inputs[form.Destination] = *destination
	page.Inputs[form.FuelEfficiency] = *fuel
	page.Inputs[form.EmissionFactor] = *factor

	p, err := planner.Init(planner.Deps{
		Widget:    page,
		Container: "terminal",
		Form:      form,
		Fields:    page,
		Results:   &planner.TextResults{W: os.Stdout},
		Alerter:   page,
		Transport: planner.NewHTTPTransport(*timeout),
		Endpoint:  *endpoint,
		Log:       log,
	})
	if err != nil {
		log.Error("init", zap.Error(err))
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	page.Resolve(ctx)
	err = p.Submit(ctx)
	var se *planner.ServerError
	switch {
	case err == nil:
		return 0
	case errors.Is(err, planner.ErrUnresolvedPlace), errors.As(err, &se):
		// already reported through the page
		return 1
	default:
		fmt.Fprintln(os.Stderr, "request failed:", err)
		return 1
	}
}
