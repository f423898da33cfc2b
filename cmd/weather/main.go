package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/i474232898/weatherapi-go/internal/aqi"
	"github.com/i474232898/weatherapi-go/internal/weatherapi"
)

func getAPIKey() (string, error) {
	if apiKey := os.Getenv("WEATHERAPI_API_KEY"); apiKey != "" {
		return apiKey, nil
	}

	apiKeyFile := os.ExpandEnv("$HOME/.config/weather/weatherapi_api_key")
	if _, err := os.Stat(apiKeyFile); err == nil {
		apiKeyBytes, err := os.ReadFile(apiKeyFile)
		if err != nil {
			return "", fmt.Errorf("error reading API key file: %v", err)
		}
		return strings.TrimSpace(string(apiKeyBytes)), nil
	}

	return "", fmt.Errorf("API key not found in environment or config file")
}

func usage() {
	fmt.Println("Usage: weather <location> [current|forecast|astronomy] [-days=N] [-aqi=yes|no] [-alerts=yes|no] [-date=YYYY-MM-DD] [-debug]")
	fmt.Println("       weather aqi-us|aqi-uk")
	fmt.Println("Examples: weather London")
	fmt.Println("          weather \"48.8567,2.3508\" forecast -days=3")
	fmt.Println("          weather Miami forecast -alerts=yes")
	fmt.Println("          weather Tokyo astronomy -date=2024-03-09")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "aqi-us":
		_ = aqi.Render(os.Stdout, aqi.USEPA())
		return
	case "aqi-uk":
		_ = aqi.Render(os.Stdout, aqi.UKDefra())
		return
	case "-h", "-help", "--help":
		usage()
		return
	}

	location := os.Args[1]
	command := "current"
	debugMode := false
	var opts []weatherapi.Option

	for i := 2; i < len(os.Args); i++ {
		arg := os.Args[i]
		switch {
		case strings.HasPrefix(arg, "-days="):
			days, err := strconv.Atoi(strings.TrimPrefix(arg, "-days="))
			if err != nil {
				fmt.Printf("Error: -days must be a number, not %q\n", strings.TrimPrefix(arg, "-days="))
				os.Exit(2)
			}
			opts = append(opts, weatherapi.Days(days))
		case strings.HasPrefix(arg, "-aqi="):
			opts = append(opts, weatherapi.AirQualityValue(strings.TrimPrefix(arg, "-aqi=")))
		case strings.HasPrefix(arg, "-alerts="):
			opts = append(opts, weatherapi.AlertsValue(strings.TrimPrefix(arg, "-alerts=")))
		case strings.HasPrefix(arg, "-date="):
			opts = append(opts, weatherapi.Date(strings.TrimPrefix(arg, "-date=")))
		case arg == "-debug":
			debugMode = true
		case arg == "current", arg == "forecast", arg == "astronomy":
			command = arg
		case arg == "aqi-us", arg == "aqi-uk":
			command = arg
		default:
			fmt.Printf("Unknown argument: %s\n", arg)
			usage()
			os.Exit(2)
		}
	}

	apiKey, err := getAPIKey()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		fmt.Println("Please set the WeatherAPI key, either via the environment variable, WEATHERAPI_API_KEY, or a file in ~/.config/weather/weatherapi_api_key")
		os.Exit(1)
	}

	logger := log.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(log.WarnLevel)
	if debugMode {
		logger.SetLevel(log.DebugLevel)
	}
	client := weatherapi.NewClient(apiKey, weatherapi.WithLogger(logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := run(ctx, client, command, location, opts); err != nil {
		fmt.Printf("Error getting %s: %v\n", command, err)
		var respErr *weatherapi.ResponseError
		if debugMode && errors.As(err, &respErr) && len(respErr.Body) > 0 {
			fmt.Printf("Upstream body: %s\n", respErr.Body)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, client *weatherapi.Client, command, location string, opts []weatherapi.Option) error {
	switch command {
	case "forecast":
		forecast, err := client.Forecast(ctx, location, opts...)
		if err != nil {
			return err
		}
		displayForecast(os.Stdout, forecast)
	case "astronomy":
		astro, err := client.Astronomy(ctx, location, opts...)
		if err != nil {
			return err
		}
		displayAstronomy(os.Stdout, astro)
	case "aqi-us", "aqi-uk":
		current, err := client.Current(ctx, location, weatherapi.AirQuality(true))
		if err != nil {
			return err
		}
		displayAirQuality(os.Stdout, current, command)
	default:
		current, err := client.Current(ctx, location, opts...)
		if err != nil {
			return err
		}
		displayCurrentWeather(os.Stdout, &current.Location, &current.Current)
	}
	return nil
}
