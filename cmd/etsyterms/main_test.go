package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Sternrassler/etsy-terms/internal/config"
	"github.com/Sternrassler/etsy-terms/internal/testutil"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{config.EnvAPIKey, config.EnvLogLevel, config.EnvRedisURL, config.EnvBaseURL} {
		t.Setenv(key, "")
	}
}

func strayHeadcoversServer(t *testing.T) *testutil.MockEtsy {
	t.Helper()
	mock := testutil.NewMockEtsy()
	t.Cleanup(mock.Close)

	listings := testutil.StrayHeadcoversListings()
	mock.SetListingPages(testutil.StrayHeadcoversShopID, map[string]testutil.MockEtsyResponse{
		"0": testutil.NewHealthyResponse(testutil.ListingsBody(len(listings), listings, 100, 0, -1)),
	})
	mock.SetResponse(testutil.ShopPath(testutil.StrayHeadcoversShopID),
		testutil.NewHealthyResponse(testutil.ShopBody(testutil.StrayHeadcoversShopID, len(listings))))
	return mock
}

func TestRun_PrintsTopTerms(t *testing.T) {
	clearEnv(t)
	mock := strayHeadcoversServer(t)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"-a", "test-key",
		"-s", testutil.StrayHeadcoversShopID,
		"-base-url", mock.URL(),
	}, &stdout, &stderr)

	if code != exitOK {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}

	out := stdout.String()
	for _, want := range []string{"Shop ID", "Top Terms", testutil.StrayHeadcoversShopID, "driver, headcover, morty, pickle, rick"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	for _, u := range mock.GetRequests() {
		if got := u.Query().Get("api_key"); got != "test-key" {
			t.Errorf("request %s: api_key = %q", u.Path, got)
		}
	}
}

func TestRun_NumTermsAndEnvKey(t *testing.T) {
	clearEnv(t)
	mock := strayHeadcoversServer(t)
	t.Setenv(config.EnvAPIKey, "env-key")
	t.Setenv(config.EnvBaseURL, mock.URL())

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-shop-ids", testutil.StrayHeadcoversShopID, "-n", "1"}, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "rick") {
		t.Errorf("expected rick in output:\n%s", stdout.String())
	}
	if strings.Contains(stdout.String(), "driver") {
		t.Errorf("expected a single term:\n%s", stdout.String())
	}
	if got := mock.GetRequests()[0].Query().Get("api_key"); got != "env-key" {
		t.Errorf("api_key = %q, want env-key", got)
	}
}

func TestRun_ConfigFileAndShopFile(t *testing.T) {
	clearEnv(t)
	mock := strayHeadcoversServer(t)

	dir := t.TempDir()
	shopFile := filepath.Join(dir, "shops.txt")
	if err := os.WriteFile(shopFile, []byte("# shops\n"+testutil.StrayHeadcoversShopID+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfgFile := filepath.Join(dir, "etsyterms.toml")
	cfg := "api_key = \"file-key\"\nshop_file = \"" + filepath.ToSlash(shopFile) + "\"\nbase_url = \"" + mock.URL() + "\"\nnum_terms = 2\n"
	if err := os.WriteFile(cfgFile, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", cfgFile}, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}
	// rick (51) then the alphabetically first of the 34s
	if !strings.Contains(stdout.String(), "driver, rick") {
		t.Errorf("unexpected output:\n%s", stdout.String())
	}
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing shops", args: []string{"-a", "key"}},
		{name: "missing api key", args: []string{"-s", "Shop"}},
		{name: "bad log level", args: []string{"-a", "key", "-s", "Shop", "-log-level", "loud"}},
		{name: "unknown flag", args: []string{"-bogus"}},
		{name: "stray argument", args: []string{"-a", "key", "-s", "Shop", "extra"}},
		{name: "zero terms", args: []string{"-a", "key", "-s", "Shop", "-n", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			var stdout, stderr bytes.Buffer
			if code := run(context.Background(), tt.args, &stdout, &stderr); code != exitUsage {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, exitUsage, stderr.String())
			}
			if stdout.Len() != 0 {
				t.Errorf("unexpected stdout: %s", stdout.String())
			}
		})
	}
}

func TestRun_Help(t *testing.T) {
	clearEnv(t)
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"-h"}, &stdout, &stderr); code != exitOK {
		t.Errorf("exit code = %d, want %d", code, exitOK)
	}
	if !strings.Contains(stderr.String(), "-shop-ids") {
		t.Errorf("usage not printed: %s", stderr.String())
	}
}

func TestRun_APIErrorFails(t *testing.T) {
	clearEnv(t)
	mock := testutil.NewMockEtsy()
	defer mock.Close()

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-a", "key", "-s", "MissingShop", "-base-url", mock.URL()}, &stdout, &stderr)
	if code != exitError {
		t.Fatalf("exit code = %d, want %d", code, exitError)
	}
	if !strings.Contains(stderr.String(), "Resource not found") {
		t.Errorf("stderr should carry the API detail: %s", stderr.String())
	}
	if stdout.Len() != 0 {
		t.Errorf("no table expected on failure: %s", stdout.String())
	}
}

func TestShopList(t *testing.T) {
	var s shopList
	_ = s.Set("A,B")
	_ = s.Set("C")
	if got := s.String(); got != "A,B,C" {
		t.Errorf("shopList = %q", got)
	}
}
