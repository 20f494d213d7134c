package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/reqdeck/reqdeck/internal/collection"
	"github.com/reqdeck/reqdeck/internal/config"
	"github.com/reqdeck/reqdeck/internal/engine"
	"github.com/reqdeck/reqdeck/internal/globals"
	"github.com/reqdeck/reqdeck/internal/history"
	"github.com/reqdeck/reqdeck/internal/httpclient"
	"github.com/reqdeck/reqdeck/internal/scripts"
	"github.com/reqdeck/reqdeck/internal/store"
	"github.com/reqdeck/reqdeck/internal/telemetry"
	"github.com/reqdeck/reqdeck/internal/vars"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		requestPath string
		requestName string
		envName     string
		envFile     string
		sessionID   string
		timeout     time.Duration
		showVersion bool
	)

	flag.StringVar(&requestPath, "file", "", "collection file (JSON) holding the request to send")
	flag.StringVar(&requestName, "request", "", "name of the request inside the collection (default: first)")
	flag.StringVar(&envName, "env", "", "active environment name")
	flag.StringVar(&envFile, "env-file", "", "dotenv file loaded into the active environment")
	flag.StringVar(&sessionID, "session", "", "active session id")
	flag.DurationVar(&timeout, "timeout", 0, "HTTP timeout override")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("reqdeck %s (%s)\n", version, commit)
		return
	}
	if requestPath == "" {
		log.Fatal("reqdeck: -file is required")
	}

	settings, _, err := config.LoadSettings()
	if err != nil {
		log.Fatalf("reqdeck: load settings: %v", err)
	}

	if err := run(settings, requestPath, requestName, envName, envFile, sessionID, timeout); err != nil {
		log.Fatalf("reqdeck: %v", err)
	}
}

func run(
	settings config.Settings,
	requestPath, requestName, envName, envFile, sessionID string,
	timeout time.Duration,
) error {
	req, err := loadRequest(requestPath, requestName)
	if err != nil {
		return err
	}

	variableStore, err := store.Open(settings.StorePath)
	if err != nil {
		return err
	}
	defer variableStore.Close()

	if envFile != "" {
		entries, err := vars.LoadDotEnv(envFile)
		if err != nil {
			return err
		}
		scope := store.EnvironmentScope(envName)
		if err := variableStore.Replace(scope, entries); err != nil {
			return err
		}
	}

	instr, err := telemetry.New(telemetry.Config{
		Endpoint:    settings.Telemetry.Endpoint,
		Insecure:    settings.Telemetry.Insecure,
		ServiceName: settings.Telemetry.ServiceName,
		Version:     version,
	})
	if err != nil {
		return err
	}
	defer instr.Shutdown(context.Background())

	if timeout <= 0 {
		timeout = settings.HTTPTimeout()
	}

	var environment engine.ScopeSource
	if envName != "" || envFile != "" {
		environment = variableStore.View(store.EnvironmentScope(envName))
	}
	var session engine.ScopeSource
	if sessionID != "" {
		session = variableStore.View(store.SessionScope(sessionID))
	}

	eng := engine.New(engine.Options{
		Bridge:      globals.NewBridge(variableStore.View(store.ScopeGlobal)),
		Environment: environment,
		Session:     session,
		Transport: httpclient.NewClient(httpclient.Options{
			Timeout:         timeout,
			FollowRedirects: settings.HTTP.FollowRedirects,
		}),
		Sandbox:   scripts.NewSandbox(settings.ScriptTimeout()),
		History:   history.NewStore(settings.HistoryPath, settings.HistoryMax),
		Telemetry: instr,
	})

	outcome, err := eng.Send(context.Background(), req)
	if err != nil {
		return err
	}
	printOutcome(outcome)
	return nil
}

func loadRequest(path, name string) (collection.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return collection.Request{}, fmt.Errorf("read collection %q: %w", path, err)
	}

	var col collection.Collection
	if err := json.Unmarshal(data, &col); err != nil {
		// a file may hold a single bare request instead of a collection
		var single collection.Request
		if singleErr := json.Unmarshal(data, &single); singleErr == nil && single.URL != "" {
			return single, nil
		}
		return collection.Request{}, fmt.Errorf("parse collection %q: %w", path, err)
	}
	if len(col.Requests) == 0 {
		return collection.Request{}, fmt.Errorf("collection %q holds no requests", path)
	}
	if name == "" {
		return col.Requests[0], nil
	}
	for _, req := range col.Requests {
		if req.Name == name {
			return req, nil
		}
	}
	return collection.Request{}, fmt.Errorf("request %q not found in %q", name, path)
}

func printOutcome(outcome *engine.Outcome) {
	resp := outcome.Response
	fmt.Printf("%s  (%s)\n", resp.Status, resp.Duration.Round(time.Millisecond))
	for name, values := range resp.Header {
		fmt.Printf("%s: %s\n", name, strings.Join(values, ", "))
	}
	fmt.Println()
	os.Stdout.Write(resp.Body)
	if len(resp.Body) > 0 && resp.Body[len(resp.Body)-1] != '\n' {
		fmt.Println()
	}

	if outcome.Script == nil {
		return
	}
	fmt.Println("--- post-script ---")
	for _, line := range outcome.Script.Logs {
		fmt.Println(line)
	}
	if failure := outcome.Script.Failure; failure != nil {
		fmt.Printf("%s: %s\n", failure.Kind, failure.Message)
	}
}
